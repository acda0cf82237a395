package resource

import "testing"

func TestMatchPartialDesired(t *testing.T) {
	desired := Body{
		"Name":    "ntp-lab",
		"Enabled": true,
	}
	actual := Body{
		"Name":        "ntp-lab",
		"Enabled":     true,
		"Description": "managed by intersync",
		"Moid":        "5f1b2c3d4e5f6a7b8c9d0e1f",
	}

	if !Match(desired, actual) {
		t.Fatalf("partial desired body must match superset actual")
	}

	desired["Enabled"] = false
	if Match(desired, actual) {
		t.Fatalf("expected drift on Enabled")
	}
}

func TestMatchSkipsPasswordKeysAndMissingKeys(t *testing.T) {
	desired := Body{
		"Name":     "user-policy",
		"Password": "secret",
		"Pwd":      "secret",
		"NotEchoed": map[string]any{
			"inner": "value",
		},
	}
	actual := Body{
		"Name":     "user-policy",
		"Password": "<redacted>",
	}

	if !Match(desired, actual) {
		t.Fatalf("password-like and absent keys must not trigger drift")
	}
}

func TestMatchNestedMapsAndLists(t *testing.T) {
	desired := Body{
		"NtpServers": []any{"10.0.0.1", "10.0.0.2"},
		"Policy":     map[string]any{"Timezone": "UTC"},
	}
	actual := Body{
		"NtpServers": []any{"10.0.0.1", "10.0.0.2"},
		"Policy":     map[string]any{"Timezone": "UTC", "Extra": "x"},
	}
	if !Match(desired, actual) {
		t.Fatalf("nested structures should match")
	}

	actual["NtpServers"] = []any{"10.0.0.2", "10.0.0.1"}
	if Match(desired, actual) {
		t.Fatalf("plain lists compare by position")
	}
}

func TestMatchMoRef(t *testing.T) {
	desired := Body{"Profile": "5f1b2c3d4e5f6a7b8c9d0e1f"}
	actual := Body{
		"Profile": map[string]any{
			"ClassId":    "mo.MoRef",
			"Moid":       "5f1b2c3d4e5f6a7b8c9d0e1f",
			"ObjectType": "server.Profile",
		},
	}
	if !Match(desired, actual) {
		t.Fatalf("moid string must match mo.MoRef with same Moid")
	}

	actual["Profile"].(map[string]any)["Moid"] = "ffffffffffffffffffffffff"
	if Match(desired, actual) {
		t.Fatalf("expected drift on mo.MoRef moid")
	}
}

func TestMatchOrganizationByName(t *testing.T) {
	desired := Body{"Organization": "default"}
	actual := Body{
		"Organization": map[string]any{
			"ObjectType": "organization.Organization",
			"Name":       "default",
			"Moid":       "5f1b2c3d4e5f6a7b8c9d0e1f",
		},
	}
	if !Match(desired, actual) {
		t.Fatalf("organization name must match expanded reference")
	}
}

func TestMatchTagsByKeySet(t *testing.T) {
	desired := Body{"Tags": TagList([]Tag{{"site", "lab"}, {"owner", "ops"}})}
	actual := Body{"Tags": TagList([]Tag{{"owner", "ops"}, {"site", "lab"}})}
	if !Match(desired, actual) {
		t.Fatalf("tag order must not matter")
	}

	actual = Body{"Tags": TagList([]Tag{{"site", "prod"}, {"owner", "ops"}})}
	if Match(desired, actual) {
		t.Fatalf("expected drift on tag value")
	}

	actual = Body{"Tags": TagList([]Tag{{"site", "lab"}})}
	if Match(desired, actual) {
		t.Fatalf("expected drift on tag key set size")
	}
}

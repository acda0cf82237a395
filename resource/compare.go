package resource

import (
	"reflect"
	"regexp"
)

// Password-like attributes are write-only on the remote side and never echoed
// back, so they cannot participate in drift detection.
var passwordKeyPattern = regexp.MustCompile(`P(ass)?w(or)?d`)

// Match reports whether the actual resource already satisfies the desired
// specification. The comparison is partial: only keys present in desired are
// checked, keys the actual body does not carry are skipped, and password-like
// keys are ignored. Tag sets compare by key, not by list position. A desired
// moid string matches an actual mo.MoRef reference with the same Moid, and a
// desired organization name matches an expanded organization reference with
// the same Name.
func Match(desired, actual Value) bool {
	switch typedDesired := desired.(type) {
	case map[string]any:
		actualMap, ok := actual.(map[string]any)
		if !ok {
			return refMatch(desired, actual)
		}
		for key, desiredValue := range typedDesired {
			if passwordKeyPattern.MatchString(key) {
				continue
			}
			actualValue, present := actualMap[key]
			if !present {
				continue
			}
			if key == KeyTags {
				if !matchTags(desiredValue, actualValue) {
					return false
				}
				continue
			}
			if !Match(desiredValue, actualValue) {
				return false
			}
		}
		return true
	case []any:
		actualList, ok := actual.([]any)
		if !ok || len(typedDesired) != len(actualList) {
			return false
		}
		for idx := range typedDesired {
			if !Match(typedDesired[idx], actualList[idx]) {
				return false
			}
		}
		return true
	default:
		if refMatch(desired, actual) {
			return true
		}
		return reflect.DeepEqual(desired, actual)
	}
}

// refMatch handles the two reference shorthands callers may use in desired
// bodies: a bare moid against a mo.MoRef object, and a bare organization name
// against an expanded organization object.
func refMatch(desired, actual Value) bool {
	desiredString, ok := desired.(string)
	if !ok {
		return false
	}
	actualMap, ok := actual.(map[string]any)
	if !ok {
		return false
	}

	if classID, _ := String(actualMap, KeyClassID); classID == ClassMoRef {
		return Moid(actualMap) == desiredString
	}
	if ObjectType(actualMap) == TypeOrganization {
		name, _ := String(actualMap, KeyName)
		return name == desiredString
	}
	return false
}

// matchTags compares tag sets as keyed collections: same key set and same
// value per key, order ignored.
func matchTags(desired, actual Value) bool {
	desiredList, ok := desired.([]any)
	if !ok {
		return false
	}
	actualList, ok := actual.([]any)
	if !ok {
		return false
	}

	desiredTags := Tags(Body{KeyTags: desiredList})
	actualTags := Tags(Body{KeyTags: actualList})
	if len(desiredTags) != len(actualTags) {
		return false
	}

	actualByKey := make(map[string]string, len(actualTags))
	for _, tag := range actualTags {
		actualByKey[tag.Key] = tag.Value
	}
	for _, tag := range desiredTags {
		value, present := actualByKey[tag.Key]
		if !present || value != tag.Value {
			return false
		}
	}
	return true
}

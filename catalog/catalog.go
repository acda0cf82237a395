// Package catalog maps well-known resource types to their collection paths
// and assembles common policy bodies. It is glue over the reconciler; no
// behavior of its own.
package catalog

import (
	"sort"
	"strings"

	"github.com/crmarques/intersync/faults"
	"github.com/crmarques/intersync/reconciler"
	"github.com/crmarques/intersync/resource"
)

// Descriptor ties a resource ObjectType to the collection path it lives
// under.
type Descriptor struct {
	ObjectType string
	Path       string
}

var builtin = map[string]Descriptor{
	"ntp.Policy":             {ObjectType: "ntp.Policy", Path: "/ntp/Policies"},
	"kvm.Policy":             {ObjectType: "kvm.Policy", Path: "/kvm/Policies"},
	"thermal.Policy":         {ObjectType: "thermal.Policy", Path: "/thermal/Policies"},
	"power.Policy":           {ObjectType: "power.Policy", Path: "/power/Policies"},
	"fabric.MulticastPolicy": {ObjectType: "fabric.MulticastPolicy", Path: "/fabric/MulticastPolicies"},
	"macpool.Pool":           {ObjectType: "macpool.Pool", Path: "/macpool/Pools"},
	"fcpool.Pool":            {ObjectType: "fcpool.Pool", Path: "/fcpool/Pools"},
	"iam.LdapPolicy":         {ObjectType: "iam.LdapPolicy", Path: "/iam/LdapPolicies"},
	"organization.Organization": {
		ObjectType: resource.TypeOrganization,
		Path:       reconciler.OrganizationsPath,
	},
}

// Lookup resolves an ObjectType to its descriptor.
func Lookup(objectType string) (Descriptor, error) {
	descriptor, ok := builtin[strings.TrimSpace(objectType)]
	if !ok {
		return Descriptor{}, faults.NewTypedErrorf(faults.ValidationError, "unknown resource type %q", objectType)
	}
	return descriptor, nil
}

// Types lists the registered ObjectTypes in sorted order.
func Types() []string {
	types := make([]string, 0, len(builtin))
	for objectType := range builtin {
		types = append(types, objectType)
	}
	sort.Strings(types)
	return types
}

// PolicyBody assembles the common policy attributes. Extra attributes are
// merged in last and may override the common ones.
func PolicyBody(name, description string, tags []resource.Tag, extra resource.Body) resource.Body {
	body := resource.Body{resource.KeyName: name}
	if strings.TrimSpace(description) != "" {
		body["Description"] = description
	}
	if len(tags) > 0 {
		body[resource.KeyTags] = resource.TagList(tags)
	}
	for key, value := range extra {
		body[key] = value
	}
	return body
}

// Desired builds a reconciler input for a registered resource type.
func (d Descriptor) Desired(organization, name string, body resource.Body, intent reconciler.Intent) reconciler.Desired {
	return reconciler.Desired{
		Path:         d.Path,
		Organization: organization,
		Name:         name,
		Body:         body,
		Intent:       intent,
	}
}

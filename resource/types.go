// Package resource models remote resource bodies as schema-agnostic
// key/value containers with typed accessors at the boundary.
package resource

type Value = any

// Body is one resource payload as exchanged with the remote system.
type Body = map[string]any

// Well-known body keys.
const (
	KeyObjectType   = "ObjectType"
	KeyMoid         = "Moid"
	KeyName         = "Name"
	KeyTags         = "Tags"
	KeyOrganization = "Organization"
	KeyClassID      = "ClassId"

	ClassMoRef       = "mo.MoRef"
	TypeOrganization = "organization.Organization"
	MoidLength       = 24
)

// Tag is one {Key, Value} pair of a resource's tag set.
type Tag struct {
	Key   string
	Value string
}

func String(b Body, key string) (string, bool) {
	value, ok := b[key].(string)
	return value, ok
}

func Int(b Body, key string) (int64, bool) {
	switch typed := b[key].(type) {
	case int64:
		return typed, true
	case float64:
		return int64(typed), true
	default:
		return 0, false
	}
}

func Bool(b Body, key string) (bool, bool) {
	value, ok := b[key].(bool)
	return value, ok
}

func Map(b Body, key string) (Body, bool) {
	value, ok := b[key].(map[string]any)
	return value, ok
}

func List(b Body, key string) ([]any, bool) {
	value, ok := b[key].([]any)
	return value, ok
}

// Moid returns the server-assigned identifier, empty until the resource has
// been created.
func Moid(b Body) string {
	value, _ := String(b, KeyMoid)
	return value
}

func ObjectType(b Body) string {
	value, _ := String(b, KeyObjectType)
	return value
}

// Tags decodes the wire-form tag list into an ordered Tag slice. Entries
// without a string Key are skipped.
func Tags(b Body) []Tag {
	raw, ok := List(b, KeyTags)
	if !ok {
		return nil
	}

	tags := make([]Tag, 0, len(raw))
	for _, entry := range raw {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		key, ok := item["Key"].(string)
		if !ok {
			continue
		}
		value, _ := item["Value"].(string)
		tags = append(tags, Tag{Key: key, Value: value})
	}
	return tags
}

// TagList renders tags in wire form, preserving order.
func TagList(tags []Tag) []any {
	list := make([]any, len(tags))
	for idx, tag := range tags {
		list[idx] = map[string]any{"Key": tag.Key, "Value": tag.Value}
	}
	return list
}

// Clone copies a body one level deep; nested values are shared.
func Clone(b Body) Body {
	if b == nil {
		return nil
	}
	cloned := make(Body, len(b))
	for key, value := range b {
		cloned[key] = value
	}
	return cloned
}

// Package reconciler drives declared resource state to the remote system:
// fetch what exists, compare against what is desired, then create, update,
// delete, or do nothing.
package reconciler

import (
	"github.com/crmarques/intersync/resource"
)

// Intent states whether a desired resource should exist.
type Intent string

const (
	IntentPresent Intent = "present"
	IntentAbsent  Intent = "absent"
)

// UpdateMethod selects how drift is pushed to an existing resource. Most
// resource types accept PATCH; a few only accept a full POST, and some expect
// json-patch media.
type UpdateMethod string

const (
	UpdateMethodPatch     UpdateMethod = "patch"
	UpdateMethodPost      UpdateMethod = "post"
	UpdateMethodJSONPatch UpdateMethod = "json-patch"
)

// Desired declares one resource the remote system should converge to.
//
// Path is the collection path, for example "/ntp/Policies". Organization and
// Name identify the resource; ExtraKey/ExtraValue adds a secondary filter
// clause for types whose name is not unique on its own. Body holds the
// attributes to enforce. ResultsFilter optionally narrows fetched matches
// with a jq expression before the state machine counts them.
type Desired struct {
	Path          string
	Organization  string
	Name          string
	ExtraKey      string
	ExtraValue    string
	Body          resource.Body
	Intent        Intent
	CheckMode     bool
	UpdateMethod  UpdateMethod
	ResultsFilter string
}

// Result reports one reconciliation outcome. Changed is true when the remote
// system was mutated, or would have been under check mode. Body is the final
// resource body when one is known. TraceID correlates the outcome with the
// remote request log.
type Result struct {
	Changed bool
	Body    resource.Body
	TraceID string
}

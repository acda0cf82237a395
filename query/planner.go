// Package query builds the server-side filter and pagination parameters for
// collection reads.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter identifies the resources a collection read should match. Absent
// fields are omitted from the compiled expression, never compiled as
// wildcards. ExtraKey/ExtraValue covers resource types with a secondary
// discriminator, for example pool purpose.
type Filter struct {
	Organization string
	Name         string
	ExtraKey     string
	ExtraValue   string
}

func (f Filter) Empty() bool {
	return f.Expression() == ""
}

// Expression compiles the filter into an OData-style expression, conjoining
// clauses with "and".
func (f Filter) Expression() string {
	var clauses []string
	if strings.TrimSpace(f.Name) != "" {
		clauses = append(clauses, "Name eq '"+escapeValue(f.Name)+"'")
	}
	if strings.TrimSpace(f.Organization) != "" {
		clauses = append(clauses, "Organization.Name eq '"+escapeValue(f.Organization)+"'")
	}
	if strings.TrimSpace(f.ExtraKey) != "" && strings.TrimSpace(f.ExtraValue) != "" {
		clauses = append(clauses, f.ExtraKey+" eq '"+escapeValue(f.ExtraValue)+"'")
	}
	return strings.Join(clauses, " and ")
}

// Plan renders the filter as request query parameters. An empty filter emits
// no $filter parameter; the remote system then returns the unfiltered,
// paginated collection.
func Plan(f Filter) url.Values {
	values := url.Values{}
	if expr := f.Expression(); expr != "" {
		values.Set("$filter", expr)
	}
	return values
}

// WithSelect restricts the response to the named attributes.
func WithSelect(values url.Values, fields ...string) url.Values {
	if len(fields) > 0 {
		values.Set("$select", strings.Join(fields, ","))
	}
	return values
}

// WithExpand inlines the named nested references in the response.
func WithExpand(values url.Values, fields ...string) url.Values {
	if len(fields) > 0 {
		values.Set("$expand", strings.Join(fields, ","))
	}
	return values
}

// WithPage sets the server-side pagination window.
func WithPage(values url.Values, top, skip int) url.Values {
	values.Set("$top", strconv.Itoa(top))
	values.Set("$skip", strconv.Itoa(skip))
	return values
}

// Filter expressions delimit values with single quotes; doubling embedded
// quotes prevents resource names from injecting extra clauses.
func escapeValue(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

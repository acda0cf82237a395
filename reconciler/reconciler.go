package reconciler

import (
	"context"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/crmarques/intersync/client"
	"github.com/crmarques/intersync/debugctx"
	"github.com/crmarques/intersync/query"
	"github.com/crmarques/intersync/resource"
)

// OrganizationsPath is the collection that resolves organization names to
// moid references for create bodies.
const OrganizationsPath = "/organization/Organizations"

type Reconciler struct {
	client *client.Client
	log    logr.Logger
}

type Option func(*Reconciler)

func WithLogger(log logr.Logger) Option {
	return func(r *Reconciler) {
		r.log = log
	}
}

func New(c *client.Client, opts ...Option) (*Reconciler, error) {
	if c == nil {
		return nil, validationError("client is required", nil)
	}

	reconciler := &Reconciler{
		client: c,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(reconciler)
	}
	return reconciler, nil
}

// Apply converges one desired resource. Repeated runs with the same input are
// idempotent: once the remote state matches, Apply reports Changed=false and
// performs no mutation. When a mutation succeeded but the follow-up read of
// the final body failed, Apply returns Changed=true together with the error.
func (r *Reconciler) Apply(ctx context.Context, desired Desired) (Result, error) {
	if err := validateDesired(&desired); err != nil {
		return Result{}, err
	}
	if debugctx.InvocationID(ctx) == "" {
		ctx = debugctx.WithInvocationID(ctx, uuid.NewString())
	}

	matches, err := r.fetch(ctx, desired)
	if err != nil {
		return Result{}, err
	}

	log := r.log.WithValues("path", desired.Path, "name", desired.Name, "intent", desired.Intent)
	log.V(1).Info("fetched matching resources", "count", len(matches))

	if len(matches) > 1 {
		return Result{}, ambiguousMatchError(
			"filter for %q under %s matched %d resources; refusing to reconcile",
			desired.Name, desired.Path, len(matches))
	}

	switch desired.Intent {
	case IntentAbsent:
		if len(matches) == 0 {
			return Result{}, nil
		}
		return r.delete(ctx, desired, matches[0])
	default:
		if len(matches) == 0 {
			return r.create(ctx, desired)
		}
		return r.update(ctx, desired, matches[0])
	}
}

// fetch lists the resources the desired filter matches, expanding the
// organization reference so name-based comparison works, and applies the
// optional jq results filter before matches are counted.
func (r *Reconciler) fetch(ctx context.Context, desired Desired) ([]resource.Body, error) {
	filter := query.Filter{
		Organization: desired.Organization,
		Name:         desired.Name,
		ExtraKey:     desired.ExtraKey,
		ExtraValue:   desired.ExtraValue,
	}
	params := query.Plan(filter)
	if strings.TrimSpace(desired.Organization) != "" {
		query.WithExpand(params, resource.KeyOrganization)
	}

	matches, err := r.client.ListAll(ctx, desired.Path, params)
	if err != nil {
		return nil, err
	}
	return resource.FilterBodies(desired.ResultsFilter, matches)
}

func (r *Reconciler) create(ctx context.Context, desired Desired) (Result, error) {
	body := resource.Clone(desired.Body)
	if body == nil {
		body = resource.Body{}
	}
	if _, ok := resource.String(body, resource.KeyName); !ok && strings.TrimSpace(desired.Name) != "" {
		body[resource.KeyName] = desired.Name
	}

	// Organization is set by name in desired state but the API wants a moid
	// reference, and only accepts it at create time.
	if strings.TrimSpace(desired.Organization) != "" {
		moid, err := r.GetMoidByName(ctx, OrganizationsPath, desired.Organization)
		if err != nil {
			return Result{}, err
		}
		body[resource.KeyOrganization] = resource.Body{resource.KeyMoid: moid}
	}

	if desired.CheckMode {
		return Result{Changed: true, Body: body}, nil
	}

	r.log.Info("creating resource", "path", desired.Path, "name", desired.Name)
	response, err := r.client.Post(ctx, desired.Path, body)
	if err != nil {
		return Result{}, err
	}
	if created := response.BodyMap(); created != nil {
		return Result{Changed: true, Body: created, TraceID: response.TraceID}, nil
	}

	// Some resource types acknowledge the POST with an empty body; read the
	// final state back so the caller still gets it. The create itself
	// succeeded, so the outcome stays Changed even if this read fails.
	matches, err := r.fetch(ctx, desired)
	if err != nil {
		return Result{Changed: true, TraceID: response.TraceID}, err
	}
	result := Result{Changed: true, TraceID: response.TraceID}
	if len(matches) == 1 {
		result.Body = matches[0]
	}
	return result, nil
}

func (r *Reconciler) update(ctx context.Context, desired Desired, actual resource.Body) (Result, error) {
	body := resource.Clone(desired.Body)
	// Organization is immutable after create and is carried expanded in the
	// fetched body, so it never participates in updates.
	delete(body, resource.KeyOrganization)

	if resource.Match(body, actual) {
		return Result{Changed: false, Body: actual}, nil
	}
	if desired.CheckMode {
		return Result{Changed: true, Body: actual}, nil
	}

	moid := resource.Moid(actual)
	path, err := individualPath(desired.Path, moid)
	if err != nil {
		return Result{}, err
	}

	r.log.Info("updating resource", "path", path, "name", desired.Name)
	var response client.Response
	switch desired.UpdateMethod {
	case UpdateMethodPost:
		// Types that do not support PATCH take the full body as a fresh
		// POST against the collection.
		response, err = r.client.Post(ctx, desired.Path, body)
	case UpdateMethodJSONPatch:
		response, err = r.client.Patch(ctx, path, body, client.MediaTypeJSONPatch)
	default:
		response, err = r.client.Patch(ctx, path, body, client.MediaTypeJSON)
	}
	if err != nil {
		return Result{}, err
	}
	if updated := response.BodyMap(); updated != nil {
		return Result{Changed: true, Body: updated, TraceID: response.TraceID}, nil
	}

	final, err := r.client.Get(ctx, path, nil)
	if err != nil {
		return Result{Changed: true, TraceID: response.TraceID}, err
	}
	return Result{Changed: true, Body: final.BodyMap(), TraceID: response.TraceID}, nil
}

func (r *Reconciler) delete(ctx context.Context, desired Desired, actual resource.Body) (Result, error) {
	if desired.CheckMode {
		return Result{Changed: true, Body: actual}, nil
	}

	path, err := individualPath(desired.Path, resource.Moid(actual))
	if err != nil {
		return Result{}, err
	}

	r.log.Info("deleting resource", "path", path, "name", desired.Name)
	response, err := r.client.Delete(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return Result{Changed: true, TraceID: response.TraceID}, nil
}

// GetMoidByName resolves a resource name to its moid with a name-only filter,
// selecting just the Moid attribute.
func (r *Reconciler) GetMoidByName(ctx context.Context, path, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", validationError("resource name is required", nil)
	}

	params := query.Plan(query.Filter{Name: name})
	query.WithSelect(params, resource.KeyMoid)

	matches, err := r.client.ListAll(ctx, path, params)
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", validationErrorf("no resource named %q under %s", name, path)
	case 1:
	default:
		return "", ambiguousMatchError("name %q under %s matched %d resources", name, path, len(matches))
	}

	moid := resource.Moid(matches[0])
	if err := validateMoid(moid); err != nil {
		return "", err
	}
	return moid, nil
}

// List reads the resources a filter matches without mutating anything,
// optionally narrowed by a jq expression.
func (r *Reconciler) List(ctx context.Context, path string, filter query.Filter, resultsFilter string) ([]resource.Body, error) {
	params := query.Plan(filter)
	if strings.TrimSpace(filter.Organization) != "" {
		query.WithExpand(params, resource.KeyOrganization)
	}

	matches, err := r.client.ListAll(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return resource.FilterBodies(resultsFilter, matches)
}

func validateDesired(desired *Desired) error {
	desired.Path = strings.TrimSpace(desired.Path)
	if desired.Path == "" {
		return validationError("resource path is required", nil)
	}
	if !strings.HasPrefix(desired.Path, "/") {
		desired.Path = "/" + desired.Path
	}
	desired.Path = strings.TrimSuffix(desired.Path, "/")

	if strings.TrimSpace(desired.Name) == "" && strings.TrimSpace(desired.ExtraValue) == "" {
		return validationError("a resource name or an extra filter value is required", nil)
	}

	switch desired.Intent {
	case "", IntentPresent:
		desired.Intent = IntentPresent
	case IntentAbsent:
	default:
		return validationErrorf("unknown intent %q", desired.Intent)
	}

	switch desired.UpdateMethod {
	case "", UpdateMethodPatch, UpdateMethodPost, UpdateMethodJSONPatch:
	default:
		return validationErrorf("unknown update method %q", desired.UpdateMethod)
	}
	return nil
}

func individualPath(collection, moid string) (string, error) {
	if err := validateMoid(moid); err != nil {
		return "", err
	}
	return collection + "/" + moid, nil
}

// Moids are fixed-width identifiers; anything else indicates the fetched body
// was truncated by a $select or the remote returned a malformed reference.
func validateMoid(moid string) error {
	if len(moid) != resource.MoidLength {
		return validationErrorf("malformed moid %q", moid)
	}
	return nil
}

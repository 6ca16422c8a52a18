package stores

import (
	"context"
	"fmt"
	"sync"

	"github.com/designcomb/influenter/client/defaults"
	"github.com/designcomb/influenter/client/internal/api"
	"github.com/designcomb/influenter/client/internal/fieldschema"
	"github.com/designcomb/influenter/client/internal/localcache"
	"github.com/designcomb/influenter/client/internal/types"
	"github.com/designcomb/influenter/client/internal/views"
)

// Fields mirrors the case field definitions, system and custom alike.
type Fields struct {
	base
	schema *fieldschema.Validator

	mu       sync.RWMutex
	fields   []types.CaseField
	loaded   bool
	resolved map[string]string
}

// NewFields returns an empty Fields store.
func NewFields(d Deps) *Fields {
	s := &Fields{schema: fieldschema.New(0)}
	s.init("fields", d)
	s.reset()
	return s
}

func (s *Fields) reset() {
	s.fields = []types.CaseField{}
	s.loaded = false
	s.resolved = map[string]string{}
}

// Reset drops the in-memory definitions.
func (s *Fields) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	s.setError("")
}

// All returns every definition sorted by order. Before anything was loaded
// it returns the built-in system fields.
func (s *Fields) All() []types.CaseField {
	s.mu.RLock()
	fields, loaded := s.fields, s.loaded
	s.mu.RUnlock()
	if !loaded && len(fields) == 0 {
		if sys, err := defaults.SystemFields(); err == nil {
			return views.SortFields(sys)
		}
	}
	return views.SortFields(fields)
}

// System returns the system field definitions.
func (s *Fields) System() []types.CaseField {
	out := []types.CaseField{}
	for _, f := range s.All() {
		if f.IsSystem {
			out = append(out, f)
		}
	}
	return out
}

// Custom returns the user-defined field definitions.
func (s *Fields) Custom() []types.CaseField {
	out := []types.CaseField{}
	for _, f := range s.All() {
		if !f.IsSystem {
			out = append(out, f)
		}
	}
	return out
}

// Visible returns the visible definitions sorted by order.
func (s *Fields) Visible() []types.CaseField { return views.VisibleFields(s.All()) }

// Required returns the required definitions sorted by order.
func (s *Fields) Required() []types.CaseField { return views.RequiredFields(s.All()) }

// ValidateValues checks custom field values against the current custom
// definitions.
func (s *Fields) ValidateValues(ctx context.Context, values map[string]any) error {
	return s.schema.Validate(ctx, s.All(), values)
}

// ensure seeds definitions that were never fetched from the cache, so local
// edits do not overwrite cached custom fields.
func (s *Fields) ensure(ctx context.Context) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}
	if cached, ok := s.cache().Fields(ctx); ok && len(cached) > 0 {
		s.mu.Lock()
		if !s.loaded {
			s.fields = cached
			s.loaded = true
		}
		s.mu.Unlock()
	}
}

func (s *Fields) set(fields []types.CaseField) {
	s.mu.Lock()
	s.fields = fields
	s.loaded = true
	s.mu.Unlock()
}

// Fetch loads both variants. When the backend fails the cached definitions
// are used; without any, the built-in system fields are cached and used.
func (s *Fields) Fetch(ctx context.Context) (Result[[]types.CaseField], error) {
	end, ok := s.begin("fetch", "fields")
	if !ok {
		return Result[[]types.CaseField]{Value: s.All(), Origin: Cached, Skipped: true}, nil
	}
	defer end()

	resp, err := api.ListFields(ctx, s.deps.HTTP, s.deps.BaseURL)
	if err == nil {
		all := resp.All()
		s.set(all)
		s.persist("fetch", s.cache().SetFields(ctx, all))
		s.succeeded("fetch")
		return Result[[]types.CaseField]{Value: s.All(), Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[[]types.CaseField]{}, err
	}

	s.failed("fetch", true, err, "Failed to load fields")
	if cached, ok := s.cache().Fields(ctx); ok && len(cached) > 0 {
		s.set(cached)
		s.fellBack("fetch")
		return Result[[]types.CaseField]{Value: s.All(), Origin: Cached, RemoteErr: err}, nil
	}
	sys, derr := defaults.SystemFields()
	if derr != nil {
		return Result[[]types.CaseField]{RemoteErr: err}, derr
	}
	s.set(sys)
	s.persist("fetch", s.cache().SetFields(ctx, sys))
	s.fellBack("fetch")
	return Result[[]types.CaseField]{Value: s.All(), Origin: Cached, RemoteErr: err}, nil
}

// Create adds a custom field. When the backend fails the field is created
// locally after every existing field.
func (s *Fields) Create(ctx context.Context, req types.CreateFieldRequest) (Result[types.CaseField], error) {
	if err := req.Validate(); err != nil {
		return Result[types.CaseField]{}, err
	}
	s.ensure(ctx)
	for _, f := range s.All() {
		if f.Name == req.Name {
			return Result[types.CaseField]{}, fmt.Errorf("%w: field %q already exists", types.ErrInvalidInput, req.Name)
		}
	}
	end, _ := s.begin("create", "")
	defer end()

	created, err := api.CreateField(ctx, s.deps.HTTP, s.deps.BaseURL, req)
	if err == nil {
		s.add(ctx, *created)
		s.succeeded("create")
		return Result[types.CaseField]{Value: *created, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.CaseField]{}, err
	}

	s.failed("create", false, err, "Failed to create field (saved locally)")
	now := s.now()
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	f := types.CaseField{
		ID:           s.deps.NewTempID(),
		Name:         req.Name,
		Label:        req.Label,
		Type:         req.Type,
		IsRequired:   req.IsRequired,
		IsVisible:    visible,
		Order:        views.NextCustomFieldOrder(s.All()),
		DefaultValue: req.DefaultValue,
		Options:      req.Options,
		Placeholder:  req.Placeholder,
		Description:  req.Description,
		CreatedAt:    &now,
		UpdatedAt:    &now,
	}
	s.add(ctx, f)
	s.provisional("create", f.ID)
	return Result[types.CaseField]{Value: f, Origin: Provisional, TempID: f.ID, RemoteErr: err}, nil
}

func (s *Fields) add(ctx context.Context, f types.CaseField) {
	// the first write keeps the built-in system fields around
	cur := s.All()
	s.mu.Lock()
	if s.loaded {
		cur = s.fields
	}
	rest, _ := removeByID(cur, f.ID, idOfField)
	s.fields = append(rest, f)
	s.loaded = true
	next := s.fields
	s.mu.Unlock()
	if s.cache().Has(ctx, localcache.FamilyFields) {
		s.persist("create", s.cache().AddField(ctx, f))
		return
	}
	s.persist("create", s.cache().SetFields(ctx, next))
}

// Update patches a field definition. When the backend fails the patch is
// merged locally; the variant of a definition never changes.
func (s *Fields) Update(ctx context.Context, id string, req types.UpdateFieldRequest) (Result[types.CaseField], error) {
	if err := types.ValidateID("field", id); err != nil {
		return Result[types.CaseField]{}, err
	}
	s.ensure(ctx)
	end, _ := s.begin("update", "")
	defer end()

	updated, err := api.UpdateField(ctx, s.deps.HTTP, s.deps.BaseURL, id, req)
	if err == nil {
		f := *updated
		s.replace(ctx, "update", f)
		s.succeeded("update")
		return Result[types.CaseField]{Value: f, Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[types.CaseField]{}, err
	}

	s.failed("update", false, err, "Failed to update field (saved locally)")
	prev, ok := findByID(s.All(), id, idOfField)
	if !ok {
		return Result[types.CaseField]{RemoteErr: err}, fmt.Errorf("field %s: %w", id, types.ErrNotFound)
	}
	merged := req.Apply(prev, s.now())
	s.replace(ctx, "update", merged)
	s.fellBack("update")
	return Result[types.CaseField]{Value: merged, Origin: Provisional, RemoteErr: err}, nil
}

func (s *Fields) replace(ctx context.Context, op string, f types.CaseField) {
	all := s.All()
	s.mu.Lock()
	if s.loaded {
		all = s.fields
	}
	prev, found := findByID(all, f.ID, idOfField)
	if found {
		f.IsSystem, f.SystemColumnName = prev.IsSystem, prev.SystemColumnName
		all, _ = replaceByID(all, f.ID, idOfField, f)
	} else {
		all = append(cloneSlice(all), f)
	}
	s.fields = all
	s.loaded = true
	s.mu.Unlock()
	if found && s.cache().Has(ctx, localcache.FamilyFields) {
		s.persist(op, s.cache().UpdateField(ctx, f))
		return
	}
	s.persist(op, s.cache().SetFields(ctx, all))
}

// ToggleVisibility flips is_visible of a field.
func (s *Fields) ToggleVisibility(ctx context.Context, id string) (Result[types.CaseField], error) {
	s.ensure(ctx)
	f, ok := findByID(s.All(), id, idOfField)
	if !ok {
		return Result[types.CaseField]{}, fmt.Errorf("field %s: %w", id, types.ErrNotFound)
	}
	visible := !f.IsVisible
	return s.Update(ctx, id, types.UpdateFieldRequest{IsVisible: &visible})
}

// Delete removes a custom field locally whatever the backend answers.
// System fields are refused with types.ErrSystemFieldDelete before any call.
func (s *Fields) Delete(ctx context.Context, id string) (Result[string], error) {
	if err := types.ValidateID("field", id); err != nil {
		return Result[string]{}, err
	}
	s.ensure(ctx)
	if f, ok := findByID(s.All(), id, idOfField); ok && f.IsSystem {
		return Result[string]{}, fmt.Errorf("field %s: %w", f.Name, types.ErrSystemFieldDelete)
	}
	end, _ := s.begin("delete", "")
	defer end()

	res := Result[string]{Value: id, Origin: Confirmed}
	err := api.DeleteField(ctx, s.deps.HTTP, s.deps.BaseURL, id)
	switch {
	case err == nil:
		s.succeeded("delete")
	case canceled(ctx, err):
		return Result[string]{}, err
	default:
		s.failed("delete", false, err, "Failed to delete field (removed locally)")
		s.fellBack("delete")
		res.Origin, res.RemoteErr = Provisional, err
	}

	s.mu.Lock()
	s.fields, _ = removeByID(s.fields, id, idOfField)
	s.mu.Unlock()
	s.persist("delete", s.cache().DeleteField(ctx, id))
	return res, nil
}

// Reorder sets the display order of the fields to ids across both
// variants. A successful call is followed by a refetch.
func (s *Fields) Reorder(ctx context.Context, ids []string) (Result[[]types.CaseField], error) {
	s.ensure(ctx)
	end, _ := s.begin("reorder", "")
	defer end()

	err := api.ReorderFields(ctx, s.deps.HTTP, s.deps.BaseURL, ids)
	if err != nil && canceled(ctx, err) {
		return Result[[]types.CaseField]{}, err
	}

	next := views.ResequenceFields(s.All(), ids)
	s.set(next)
	s.persist("reorder", s.cache().SetFields(ctx, next))

	if err == nil {
		s.succeeded("reorder")
		res, ferr := s.Fetch(ctx)
		if ferr != nil || res.RemoteErr != nil {
			return Result[[]types.CaseField]{Value: s.All(), Origin: Cached, RemoteErr: res.RemoteErr}, nil
		}
		return Result[[]types.CaseField]{Value: s.All(), Origin: Confirmed}, nil
	}

	s.failed("reorder", false, err, "Failed to reorder fields (saved locally)")
	s.fellBack("reorder")
	return Result[[]types.CaseField]{Value: s.All(), Origin: Provisional, RemoteErr: err}, nil
}

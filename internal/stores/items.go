package stores

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/designcomb/influenter/client/internal/api"
	"github.com/designcomb/influenter/client/internal/tree"
	"github.com/designcomb/influenter/client/internal/types"
)

// Items mirrors the collaboration item catalog. The flat form is the source
// of truth; the forest is built from it on demand.
type Items struct {
	base

	mu       sync.RWMutex
	flat     []types.CollaborationItem
	loaded   bool
	resolved map[string]string
}

// NewItems returns an empty Items store.
func NewItems(d Deps) *Items {
	s := &Items{}
	s.init("items", d)
	s.reset()
	return s
}

func (s *Items) reset() {
	s.flat = []types.CollaborationItem{}
	s.loaded = false
	s.resolved = map[string]string{}
}

// Reset drops the in-memory catalog.
func (s *Items) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	s.setError("")
}

// Flat returns the catalog in transport form.
func (s *Items) Flat() []types.CollaborationItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSlice(s.flat)
}

// Tree returns the catalog as a sorted forest. The nodes are rebuilt on
// every call and may be modified by the caller.
func (s *Items) Tree() []*tree.Node {
	return tree.Build(s.Flat())
}

// FindByID looks an item up in the forest.
func (s *Items) FindByID(id string) (*tree.Node, bool) {
	return tree.FindByID(s.Tree(), id)
}

// DescendantIDs returns the ids below id.
func (s *Items) DescendantIDs(id string) []string {
	return tree.DescendantIDs(s.Flat(), id)
}

func (s *Items) set(flat []types.CollaborationItem) {
	if flat == nil {
		flat = []types.CollaborationItem{}
	}
	s.mu.Lock()
	s.flat = flat
	s.loaded = true
	s.mu.Unlock()
}

// ensure seeds a catalog that was never fetched from the cache, so local
// edits do not overwrite the cached catalog.
func (s *Items) ensure(ctx context.Context) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}
	cached, _ := s.cache().Items(ctx)
	s.mu.Lock()
	if !s.loaded {
		s.flat = cloneSlice(cached)
		s.loaded = true
	}
	s.mu.Unlock()
}

// apply edits the in-memory catalog and returns the result.
func (s *Items) apply(fn func([]types.CollaborationItem) []types.CollaborationItem) []types.CollaborationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.flat)
	if next == nil {
		next = []types.CollaborationItem{}
	}
	s.flat = next
	s.loaded = true
	return next
}

func (s *Items) edit(ctx context.Context, op string, fn func([]types.CollaborationItem) []types.CollaborationItem) {
	s.persist(op, s.cache().SetItems(ctx, s.apply(fn)))
}

// Fetch loads the catalog. When the backend fails the cached catalog is
// used; an empty cache leaves an empty catalog.
func (s *Items) Fetch(ctx context.Context) (Result[[]*tree.Node], error) {
	end, ok := s.begin("fetch", "items")
	if !ok {
		return Result[[]*tree.Node]{Value: s.Tree(), Origin: Cached, Skipped: true}, nil
	}
	defer end()

	flat, err := api.ListCollaborationItems(ctx, s.deps.HTTP, s.deps.BaseURL)
	if err == nil {
		s.set(flat)
		s.persist("fetch", s.cache().SetItems(ctx, flat))
		s.succeeded("fetch")
		return Result[[]*tree.Node]{Value: s.Tree(), Origin: Confirmed}, nil
	}
	if canceled(ctx, err) {
		return Result[[]*tree.Node]{}, err
	}

	s.failed("fetch", true, err, "Failed to load collaboration items")
	cached, _ := s.cache().Items(ctx)
	s.set(cached)
	s.fellBack("fetch")
	return Result[[]*tree.Node]{Value: s.Tree(), Origin: Cached, RemoteErr: err}, nil
}

// refresh refetches after a confirmed mutation. A failed refetch keeps the
// locally applied state.
func (s *Items) refresh(ctx context.Context) {
	if res, err := s.Fetch(ctx); err != nil || res.RemoteErr != nil {
		s.log.Debug().Msg("refetch after mutation did not reach the backend")
	}
}

// Create adds an item at the end of its sibling group.
func (s *Items) Create(ctx context.Context, req types.CreateCollaborationItemRequest) (Result[types.CollaborationItem], error) {
	if err := req.Validate(); err != nil {
		return Result[types.CollaborationItem]{}, err
	}
	s.ensure(ctx)
	req.Order = tree.NextOrder(s.Flat(), req.ParentID)

	end, _ := s.begin("create", "")
	created, err := api.CreateCollaborationItem(ctx, s.deps.HTTP, s.deps.BaseURL, req)
	if err == nil {
		it := *created
		s.apply(func(cur []types.CollaborationItem) []types.CollaborationItem {
			rest, _ := removeByID(cur, it.ID, idOfItem)
			return append(rest, it)
		})
		s.persist("create", s.cache().AddItem(ctx, it))
		s.succeeded("create")
		end()
		s.refresh(ctx)
		return Result[types.CollaborationItem]{Value: it, Origin: Confirmed}, nil
	}
	defer end()
	if canceled(ctx, err) {
		return Result[types.CollaborationItem]{}, err
	}

	s.failed("create", false, err, "Failed to create item (saved locally)")
	now := s.now()
	it := types.CollaborationItem{
		ID:          s.deps.NewTempID(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		ParentID:    req.ParentID,
		WorkflowID:  req.WorkflowID,
		Order:       req.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.apply(func(cur []types.CollaborationItem) []types.CollaborationItem {
		return append(cloneSlice(cur), it)
	})
	s.persist("create", s.cache().AddItem(ctx, it))
	s.provisional("create", it.ID)
	return Result[types.CollaborationItem]{Value: it, Origin: Provisional, TempID: it.ID, RemoteErr: err}, nil
}

// Update patches an item. Moving an item under itself or one of its
// descendants is refused.
func (s *Items) Update(ctx context.Context, id string, req types.UpdateCollaborationItemRequest) (Result[types.CollaborationItem], error) {
	if err := types.ValidateID("item", id); err != nil {
		return Result[types.CollaborationItem]{}, err
	}
	s.ensure(ctx)
	if req.ParentID != nil && req.ParentID.Value != nil {
		if err := s.checkParent(id, *req.ParentID.Value); err != nil {
			return Result[types.CollaborationItem]{}, err
		}
	}

	end, _ := s.begin("update", "")
	updated, err := api.UpdateCollaborationItem(ctx, s.deps.HTTP, s.deps.BaseURL, id, req)
	if err == nil {
		it := *updated
		s.edit(ctx, "update", func(cur []types.CollaborationItem) []types.CollaborationItem {
			next, found := replaceByID(cur, id, idOfItem, it)
			if !found {
				next = append(next, it)
			}
			return next
		})
		s.succeeded("update")
		end()
		s.refresh(ctx)
		return Result[types.CollaborationItem]{Value: it, Origin: Confirmed}, nil
	}
	defer end()
	if canceled(ctx, err) {
		return Result[types.CollaborationItem]{}, err
	}

	s.failed("update", false, err, "Failed to update item (saved locally)")
	prev, ok := findByID(s.Flat(), id, idOfItem)
	if !ok {
		return Result[types.CollaborationItem]{RemoteErr: err}, fmt.Errorf("item %s: %w", id, types.ErrNotFound)
	}
	merged := req.Apply(prev, s.now())
	s.apply(func(cur []types.CollaborationItem) []types.CollaborationItem {
		next, _ := replaceByID(cur, id, idOfItem, merged)
		return next
	})
	s.persist("update", s.cache().UpdateItem(ctx, merged))
	s.fellBack("update")
	return Result[types.CollaborationItem]{Value: merged, Origin: Provisional, RemoteErr: err}, nil
}

// Move reparents an item; a nil parentID moves it to the root level.
func (s *Items) Move(ctx context.Context, id string, parentID *string) (Result[types.CollaborationItem], error) {
	p := types.Null[string]()
	if parentID != nil {
		p = types.Some(*parentID)
	}
	return s.Update(ctx, id, types.UpdateCollaborationItemRequest{ParentID: p})
}

func (s *Items) checkParent(id, parentID string) error {
	if parentID == id {
		return fmt.Errorf("%w: item %s cannot be its own parent", types.ErrInvalidInput, id)
	}
	for _, d := range s.DescendantIDs(id) {
		if d == parentID {
			return fmt.Errorf("%w: item %s cannot move under its descendant %s", types.ErrInvalidInput, id, parentID)
		}
	}
	return nil
}

// Delete removes an item together with its descendants, locally whatever
// the backend answers. The result lists every removed id.
func (s *Items) Delete(ctx context.Context, id string) (Result[[]string], error) {
	if err := types.ValidateID("item", id); err != nil {
		return Result[[]string]{}, err
	}
	s.ensure(ctx)
	end, _ := s.begin("delete", "")

	res := Result[[]string]{Origin: Confirmed}
	err := api.DeleteCollaborationItem(ctx, s.deps.HTTP, s.deps.BaseURL, id)
	switch {
	case err == nil:
		s.succeeded("delete")
	case canceled(ctx, err):
		end()
		return Result[[]string]{}, err
	default:
		s.failed("delete", false, err, "Failed to delete item (removed locally)")
		s.fellBack("delete")
		res.Origin, res.RemoteErr = Provisional, err
	}

	s.mu.Lock()
	next, removed := tree.RemoveSubtree(s.flat, id)
	s.flat = next
	s.mu.Unlock()
	if _, cerr := s.cache().DeleteItem(ctx, id); cerr != nil {
		s.persist("delete", cerr)
	}
	end()

	res.Value = []string{id}
	for _, d := range slices.Sorted(maps.Keys(removed)) {
		if d != id {
			res.Value = append(res.Value, d)
		}
	}
	if err == nil {
		s.refresh(ctx)
	}
	return res, nil
}

// Reorder sets the order of one sibling group to the order of ids and moves
// the listed items under parentID. The change is applied locally in both
// outcomes; a successful call is followed by a refetch.
func (s *Items) Reorder(ctx context.Context, ids []string, parentID *string) (Result[[]*tree.Node], error) {
	s.ensure(ctx)
	end, _ := s.begin("reorder", "")

	err := api.ReorderCollaborationItems(ctx, s.deps.HTTP, s.deps.BaseURL, ids, parentID)
	if err != nil && canceled(ctx, err) {
		end()
		return Result[[]*tree.Node]{}, err
	}
	s.edit(ctx, "reorder", func(cur []types.CollaborationItem) []types.CollaborationItem {
		return tree.Reorder(cur, ids, parentID)
	})

	if err == nil {
		s.succeeded("reorder")
		end()
		s.refresh(ctx)
		return Result[[]*tree.Node]{Value: s.Tree(), Origin: Confirmed}, nil
	}
	defer end()
	s.failed("reorder", false, err, "Failed to reorder items (saved locally)")
	s.fellBack("reorder")
	return Result[[]*tree.Node]{Value: s.Tree(), Origin: Provisional, RemoteErr: err}, nil
}

package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designcomb/influenter/client/internal/fakeapi"
	"github.com/designcomb/influenter/client/internal/types"
)

func fieldIDs(fields []types.CaseField) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.ID
	}
	return out
}

var platformField = types.CreateFieldRequest{
	Name:  "platform",
	Label: "Platform",
	Type:  types.FieldSelect,
	Options: []types.FieldOption{
		{Label: "Instagram", Value: "ig"},
		{Label: "YouTube", Value: "yt"},
	},
}

func TestFields_DefaultsBeforeFetch(t *testing.T) {
	t.Parallel()
	s := NewFields(Deps{})
	all := s.All()
	assert.Len(t, all, 5)
	assert.Len(t, s.System(), 5)
	assert.Empty(t, s.Custom())
}

func TestFields_FetchSplitsVariants(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewFields(f.deps)
	ctx := context.Background()

	_, err := s.Create(ctx, platformField)
	require.NoError(t, err)
	res, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, Confirmed, res.Origin)
	assert.Len(t, s.System(), 5)
	require.Len(t, s.Custom(), 1)
	assert.Equal(t, "platform", s.Custom()[0].Name)
	assert.True(t, s.Custom()[0].IsVisible)
}

func TestFields_OfflineFetchCachesDefaults(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.srv.SetMode(fakeapi.Offline)
	s := NewFields(f.deps)
	ctx := context.Background()

	res, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, Cached, res.Origin)
	assert.Len(t, res.Value, 5)
	cached, ok := f.cache.Fields(ctx)
	require.True(t, ok)
	assert.Len(t, cached, 5)
}

func TestFields_OfflineFetchPrefersCache(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.SetFields(ctx, []types.CaseField{
		{ID: "system-title", Name: "title", IsSystem: true, SystemColumnName: "title", Order: 0},
		{ID: "cf1", Name: "platform", Order: 1},
	}))
	f.srv.SetMode(fakeapi.NotFound)
	s := NewFields(f.deps)

	res, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"system-title", "cf1"}, fieldIDs(res.Value))
	assert.Empty(t, s.Status().Error)
}

func TestFields_DeleteSystemFieldRefused(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewFields(f.deps)

	_, err := s.Delete(context.Background(), "system-status")
	require.ErrorIs(t, err, types.ErrSystemFieldDelete)
	assert.Zero(t, f.srv.Calls("DELETE", "/cases/fields/system-status"))
	assert.Len(t, s.System(), 5)
}

func TestFields_DuplicateNameRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewFields(f.deps)

	_, err := s.Create(context.Background(), types.CreateFieldRequest{Name: "title", Label: "Title", Type: types.FieldText})
	require.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Zero(t, f.srv.Calls("POST", "/cases/fields"))
}

func TestFields_CreateOfflineKeepsSystemFields(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.srv.SetMode(fakeapi.Offline)
	s := NewFields(f.deps)
	ctx := context.Background()

	res, err := s.Create(ctx, platformField)
	require.NoError(t, err)
	assert.Equal(t, Provisional, res.Origin)
	assert.Equal(t, "temp_1", res.Value.ID)
	assert.Equal(t, 5, res.Value.Order, "custom fields go after every system field")
	assert.True(t, res.Value.IsVisible)

	assert.Len(t, s.All(), 6)
	cached, _ := f.cache.Fields(ctx)
	assert.Len(t, cached, 6)
}

func TestFields_ToggleVisibilityOffline(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewFields(f.deps)
	ctx := context.Background()
	_, err := s.Fetch(ctx)
	require.NoError(t, err)
	before, ok := findByID(s.All(), "system-deadline_date", idOfField)
	require.True(t, ok)
	f.srv.SetMode(fakeapi.ServerError)

	res, err := s.ToggleVisibility(ctx, "system-deadline_date")
	require.NoError(t, err)
	assert.Equal(t, Provisional, res.Origin)
	assert.Equal(t, !before.IsVisible, res.Value.IsVisible)
	assert.True(t, res.Value.IsSystem, "the variant survives a patch")
	assert.Equal(t, "deadline_date", res.Value.SystemColumnName)
	assert.Equal(t, testNow, *res.Value.UpdatedAt)
}

func TestFields_ReorderOfflineIsLocal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewFields(f.deps)
	ctx := context.Background()
	_, err := s.Fetch(ctx)
	require.NoError(t, err)
	f.srv.SetMode(fakeapi.Offline)

	ids := []string{"system-status", "system-title", "system-brand_name", "system-deadline_date", "system-quoted_amount"}
	res, err := s.Reorder(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, Provisional, res.Origin)
	assert.Equal(t, ids, fieldIDs(res.Value))
}

func TestFields_ValidateValues(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	s := NewFields(f.deps)
	ctx := context.Background()
	_, err := s.Create(ctx, platformField)
	require.NoError(t, err)

	require.NoError(t, s.ValidateValues(ctx, map[string]any{"platform": "ig"}))
	require.ErrorIs(t, s.ValidateValues(ctx, map[string]any{"platform": "tiktok"}), types.ErrInvalidInput)
}

func TestFields_OfflineWritesKeepOtherCachedFields(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	first := NewFields(f.deps)
	ctx := context.Background()
	_, err := first.Fetch(ctx)
	require.NoError(t, err)
	f.srv.SetMode(fakeapi.Offline)

	second := NewFields(f.deps)
	platform, err := second.Create(ctx, platformField)
	require.NoError(t, err)

	tier, err := first.Create(ctx, types.CreateFieldRequest{Name: "tier", Label: "Tier", Type: types.FieldText})
	require.NoError(t, err)
	sys := first.System()[0]
	_, err = first.ToggleVisibility(ctx, sys.ID)
	require.NoError(t, err)

	cached, ok := f.cache.Fields(ctx)
	require.True(t, ok)
	ids := fieldIDs(cached)
	assert.Len(t, cached, 7)
	assert.Contains(t, ids, platform.Value.ID)
	assert.Contains(t, ids, tier.Value.ID)
	for _, fd := range cached {
		if fd.ID == sys.ID {
			assert.Equal(t, !sys.IsVisible, fd.IsVisible)
			assert.True(t, fd.IsSystem)
		}
	}
}

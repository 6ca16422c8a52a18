package localcache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designcomb/influenter/client/internal/types"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(NewMemory(), 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestAbsentKeyIsEmpty(t *testing.T) {
	t.Parallel()
	c := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Cases(ctx)
	assert.False(t, ok)
	_, ok = c.Token(ctx)
	assert.False(t, ok)
	_, ok = c.CaseDetail(ctx, "nope")
	assert.False(t, ok)
}

func TestCaseHelpers(t *testing.T) {
	t.Parallel()
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCases(ctx, []types.Case{{ID: "c1", Title: "old"}}))
	require.NoError(t, c.AddCase(ctx, types.Case{ID: "temp_1", Title: "Nike Deal"}))
	require.NoError(t, c.SetCaseDetail(ctx, types.CaseDetail{Case: types.Case{ID: "c1", Title: "old"}}))

	got, ok := c.Cases(ctx)
	require.True(t, ok)
	assert.Equal(t, "temp_1", got[0].ID, "new cases go to the head")

	require.NoError(t, c.UpdateCase(ctx, types.Case{ID: "c1", Title: "new"}))
	got, _ = c.Cases(ctx)
	assert.Equal(t, "new", got[1].Title)
	d, ok := c.CaseDetail(ctx, "c1")
	require.True(t, ok)
	assert.Equal(t, "new", d.Title)
	assert.NotNil(t, d.Tasks)

	require.NoError(t, c.SetTasks(ctx, "c1", []types.Task{{ID: "t1", CaseID: "c1"}}))
	require.NoError(t, c.DeleteCase(ctx, "c1"))
	got, _ = c.Cases(ctx)
	assert.Len(t, got, 1)
	_, ok = c.CaseDetail(ctx, "c1")
	assert.False(t, ok)
	_, ok = c.Tasks(ctx, "c1")
	assert.False(t, ok)
}

func TestTaskHelpers(t *testing.T) {
	t.Parallel()
	c := newTestCache(t)
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, c.AddTask(ctx, types.Task{ID: id, CaseID: "case1", Title: id}))
	}
	require.NoError(t, c.ReorderTasks(ctx, "case1", []string{"t3", "t2", "t1"}))
	got, ok := c.Tasks(ctx, "case1")
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, 2, got[2].Order)

	require.NoError(t, c.UpdateTask(ctx, types.Task{ID: "t2", CaseID: "case1", Title: "edited"}))
	require.NoError(t, c.DeleteTask(ctx, "case1", "t3"))
	got, _ = c.Tasks(ctx, "case1")
	assert.Len(t, got, 2)
	assert.Equal(t, "edited", got[0].Title)
}

func TestFieldHelpersProtectSystemFields(t *testing.T) {
	t.Parallel()
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetFields(ctx, []types.CaseField{
		{ID: "system-title", Name: "title", IsSystem: true, SystemColumnName: "title"},
	}))
	require.NoError(t, c.AddField(ctx, types.CaseField{ID: "f1", Name: "tier"}))

	err := c.DeleteField(ctx, "system-title")
	assert.True(t, errors.Is(err, types.ErrSystemFieldDelete))

	require.NoError(t, c.UpdateField(ctx, types.CaseField{ID: "system-title", Label: "Name"}))
	got, _ := c.Fields(ctx)
	assert.True(t, got[0].IsSystem, "update keeps the variant")
	assert.Equal(t, "title", got[0].SystemColumnName)

	require.NoError(t, c.DeleteField(ctx, "f1"))
	got, _ = c.Fields(ctx)
	assert.Len(t, got, 1)
}

func TestDeleteItemRemovesDescendants(t *testing.T) {
	t.Parallel()
	c := newTestCache(t)
	ctx := context.Background()
	p := func(s string) *string { return &s }

	require.NoError(t, c.SetItems(ctx, []types.CollaborationItem{
		{ID: "a"}, {ID: "b", ParentID: p("a")}, {ID: "c", ParentID: p("b")}, {ID: "d"},
	}))
	removed, err := c.DeleteItem(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, removed, 3)
	got, _ := c.Items(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "d", got[0].ID)
}

func TestCorruptSnapshotReadsAsEmpty(t *testing.T) {
	t.Parallel()
	b := NewMemory()
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, DefaultPrefix+string(FamilyCases), []byte("{not json")))
	c, err := New(b, 4)
	require.NoError(t, err)

	_, ok := c.Cases(ctx)
	assert.False(t, ok)
}

func TestTokenAndClear(t *testing.T) {
	t.Parallel()
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetToken(ctx, "jwt"))
	tok, ok := c.Token(ctx)
	assert.True(t, ok)
	assert.Equal(t, "jwt", tok)

	require.NoError(t, c.SetCases(ctx, []types.Case{{ID: "x"}}))
	require.NoError(t, c.Clear(ctx))
	_, ok = c.Token(ctx)
	assert.False(t, ok)
	assert.False(t, c.Has(ctx, FamilyCases))
}

func TestSQLiteBackendPersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	ctx := context.Background()

	b, err := OpenSQLite(path)
	require.NoError(t, err)
	c, err := New(b, 4)
	require.NoError(t, err)
	require.NoError(t, c.SetCases(ctx, []types.Case{{ID: "c1", Title: "Nike Deal"}}))
	require.NoError(t, c.SetCases(ctx, []types.Case{{ID: "c2", Title: "Adidas"}}))
	require.NoError(t, c.Close())

	b, err = OpenSQLite(path)
	require.NoError(t, err)
	c, err = New(b, 4)
	require.NoError(t, err)
	defer c.Close()

	got, ok := c.Cases(ctx)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Adidas", got[0].Title)

	require.NoError(t, c.Remove(ctx, FamilyCases))
	_, ok = c.Cases(ctx)
	assert.False(t, ok)
}

func TestTempID(t *testing.T) {
	t.Parallel()
	a, b := NewTempID(), NewTempID()
	assert.True(t, IsTempID(a))
	assert.NotEqual(t, a, b)
	assert.False(t, IsTempID("c1"))
}

func TestDataDirOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	t.Setenv("INFLUENTER_CACHE_DIR", dir)
	got, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	p, err := DBPath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache.db"), p)
}

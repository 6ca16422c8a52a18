package tree

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designcomb/influenter/client/internal/types"
)

func item(id string, parent string, order int) types.CollaborationItem {
	it := types.CollaborationItem{ID: id, Title: id, Order: order}
	if parent != "" {
		it.ParentID = types.Ptr(parent)
	}
	return it
}

// shape renders a forest as "id(children...)" for structural comparison.
func shape(forest []*Node) string {
	s := ""
	for i, n := range forest {
		if i > 0 {
			s += " "
		}
		s += n.ID
		if len(n.Children) > 0 {
			s += "(" + shape(n.Children) + ")"
		}
	}
	return s
}

func edges(flat []types.CollaborationItem) []string {
	var out []string
	for _, it := range flat {
		p := "-"
		if it.ParentID != nil {
			p = *it.ParentID
		}
		out = append(out, p+">"+it.ID)
	}
	sort.Strings(out)
	return out
}

func catalog() []types.CollaborationItem {
	return []types.CollaborationItem{
		item("reel", "", 5),
		item("story", "", 2),
		item("reel-long", "reel", 9),
		item("reel-short", "reel", 3),
		item("story-3", "story", 0),
		item("reel-short-cut", "reel-short", 7),
	}
}

func TestBuildSortsEveryLevel(t *testing.T) {
	t.Parallel()
	got := Build(catalog())
	assert.Equal(t, "story(story-3) reel(reel-short(reel-short-cut) reel-long)", shape(got))
}

func TestFlattenRecomputesOrderAndKeepsEdges(t *testing.T) {
	t.Parallel()
	in := catalog()
	flat := Flatten(Build(in))

	assert.Equal(t, edges(in), edges(flat))
	ids := make([]string, 0, len(flat))
	for _, it := range flat {
		ids = append(ids, it.ID)
	}
	// pre-order
	assert.Equal(t, []string{"story", "story-3", "reel", "reel-short", "reel-short-cut", "reel-long"}, ids)

	byID := map[string]types.CollaborationItem{}
	for _, it := range flat {
		byID[it.ID] = it
	}
	assert.Equal(t, 0, byID["story"].Order)
	assert.Equal(t, 1, byID["reel"].Order)
	assert.Equal(t, 0, byID["reel-short"].Order)
	assert.Equal(t, 1, byID["reel-long"].Order)
	assert.Nil(t, byID["reel"].ParentID)
	require.NotNil(t, byID["reel-short-cut"].ParentID)
	assert.Equal(t, "reel-short", *byID["reel-short-cut"].ParentID)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	first := Build(catalog())
	second := Build(Flatten(first))
	assert.Equal(t, shape(first), shape(second))
	assert.Equal(t, shape(second), shape(Build(Flatten(second))))
}

// randomCatalog generates a forest up to five levels deep with random widths
// and distinct sibling orders, returned in shuffled order.
func randomCatalog(r *rand.Rand) []types.CollaborationItem {
	type slot struct {
		parent string
		depth  int
	}
	var flat []types.CollaborationItem
	seq := 0
	queue := []slot{{"", 0}}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		width := r.IntN(4)
		switch {
		case s.depth == 0:
			width = 1 + r.IntN(5)
		case s.depth >= 4:
			width = 0
		}
		for _, rank := range r.Perm(width) {
			seq++
			id := fmt.Sprintf("n%d", seq)
			flat = append(flat, item(id, s.parent, rank*3+r.IntN(3)))
			queue = append(queue, slot{id, s.depth + 1})
		}
	}
	r.Shuffle(len(flat), func(i, j int) { flat[i], flat[j] = flat[j], flat[i] })
	return flat
}

func requireSortedLevels(t *testing.T, forest []*Node) {
	t.Helper()
	stack := [][]*Node{forest}
	for len(stack) > 0 {
		level := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i, n := range level {
			if i > 0 {
				require.Less(t, level[i-1].Order, n.Order, "siblings of %s", n.ID)
			}
			stack = append(stack, n.Children)
		}
	}
}

func TestGeneratedForests(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 200; i++ {
		in := randomCatalog(r)
		t.Run(fmt.Sprintf("forest_%d", i), func(t *testing.T) {
			built := Build(in)
			requireSortedLevels(t, built)

			flat := Flatten(built)
			require.Len(t, flat, len(in))
			assert.Equal(t, edges(in), edges(flat))

			reshuffled := append([]types.CollaborationItem(nil), in...)
			r2 := rand.New(rand.NewPCG(uint64(i), 3))
			r2.Shuffle(len(reshuffled), func(a, b int) { reshuffled[a], reshuffled[b] = reshuffled[b], reshuffled[a] })
			assert.Equal(t, shape(built), shape(Build(reshuffled)), "input order does not matter")

			again := Build(flat)
			assert.Equal(t, shape(built), shape(again))
			assert.Equal(t, flat, Flatten(again))
		})
	}
}

func TestRemoveSubtreeRemovesExactlyClosure(t *testing.T) {
	t.Parallel()
	flat := catalog()
	left, removed := RemoveSubtree(flat, "reel-short")

	assert.Equal(t, map[string]bool{"reel-short": true, "reel-short-cut": true}, removed)
	assert.Len(t, left, len(flat)-2)
	assert.Equal(t, "story(story-3) reel(reel-long)", shape(Build(left)))
	assert.Len(t, flat, 6, "input must not be modified")

	_, removed = RemoveSubtree(flat, "reel")
	assert.Len(t, removed, 4)
}

func TestReorderSiblingGroup(t *testing.T) {
	t.Parallel()
	flat := []types.CollaborationItem{
		item("a", "", 0), item("b", "", 1), item("c", "", 2),
		item("x", "a", 4), item("y", "a", 8),
	}
	got := Reorder(flat, []string{"c", "a", "b"}, nil)

	orders := map[string]int{}
	for _, it := range got {
		orders[it.ID] = it.Order
	}
	assert.Equal(t, map[string]int{"c": 0, "a": 1, "b": 2, "x": 4, "y": 8}, orders)
	assert.Equal(t, 0, flat[0].Order, "input must not be modified")
}

func TestReorderMovesIntoScope(t *testing.T) {
	t.Parallel()
	flat := []types.CollaborationItem{item("a", "", 0), item("b", "", 1), item("x", "a", 0)}
	got := Reorder(flat, []string{"b", "x"}, types.Ptr("a"))
	assert.Equal(t, "a(b x)", shape(Build(got)))
}

func TestNextOrder(t *testing.T) {
	t.Parallel()
	flat := catalog()
	assert.Equal(t, 6, NextOrder(flat, nil))
	assert.Equal(t, 10, NextOrder(flat, types.Ptr("reel")))
	assert.Equal(t, 0, NextOrder(flat, types.Ptr("reel-long")))
	assert.Equal(t, 0, NextOrder(nil, nil))
}

func TestOrphansBecomeRootsAndCyclesAreDropped(t *testing.T) {
	t.Parallel()
	flat := []types.CollaborationItem{
		item("root", "", 0),
		item("orphan", "gone", 1),
		item("loop-a", "loop-b", 0),
		item("loop-b", "loop-a", 0),
		item("self", "self", 0),
	}
	assert.Equal(t, "root orphan", shape(Build(flat)))
}

func TestFindByIDAndDescendants(t *testing.T) {
	t.Parallel()
	forest := Build(catalog())
	n, ok := FindByID(forest, "reel-short-cut")
	require.True(t, ok)
	assert.Equal(t, "reel-short-cut", n.Title)
	_, ok = FindByID(forest, "missing")
	assert.False(t, ok)

	got := DescendantIDs(catalog(), "reel")
	sort.Strings(got)
	assert.Equal(t, []string{"reel-long", "reel-short", "reel-short-cut"}, got)
}

func TestDeepChainDoesNotRecurse(t *testing.T) {
	t.Parallel()
	const depth = 50000
	flat := make([]types.CollaborationItem, 0, depth)
	flat = append(flat, item("n0", "", 0))
	for i := 1; i < depth; i++ {
		flat = append(flat, item(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i-1), 0))
	}
	out := Flatten(Build(flat))
	require.Len(t, out, depth)
	assert.Len(t, DescendantIDs(flat, "n0"), depth-1)
}

func TestReplaceID(t *testing.T) {
	t.Parallel()
	flat := []types.CollaborationItem{item("temp_1", "", 0), item("child", "temp_1", 0)}
	got := ReplaceID(flat, "temp_1", "srv-1")
	assert.Equal(t, "srv-1", got[0].ID)
	assert.Equal(t, "srv-1", *got[1].ParentID)
	assert.Equal(t, "temp_1", *flat[1].ParentID)
}

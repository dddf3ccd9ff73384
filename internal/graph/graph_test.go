package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iocscope/iocscope/internal/model"
	"github.com/iocscope/iocscope/internal/query"
)

// rec builds a record whose link fields point at the given targets.
func rec(instance, name string, links map[string]string) *model.Record {
	r := &model.Record{
		Instance: instance,
		Name:     name,
		Type:     "ai",
		Fields:   map[string]model.Field{},
		Loc:      model.NewSourceLocation(instance+"/st.cmd", 1, nil),
	}
	for field, target := range links {
		r.Fields[field] = model.Field{
			Name:  field,
			Raw:   target,
			Value: target,
			Link:  &model.LinkTarget{Record: target, Field: "VAL"},
		}
		r.FieldOrder = append(r.FieldOrder, field)
	}
	return r
}

func key(instance, name string) model.RecordKey {
	return model.RecordKey{Instance: instance, Name: name}
}

func TestAddInstance_And_Lookup(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", []*model.Record{
		rec("x", "FOO", nil),
		rec("x", "BAR", nil),
	}))

	got, ok := g.Get(key("x", "FOO"))
	require.True(t, ok)
	assert.Equal(t, "FOO", got.Name)

	assert.Len(t, g.Lookup("FOO"), 1)
	assert.Empty(t, g.Lookup("MISSING"))
	assert.Equal(t, []string{"x"}, g.Instances())
}

func TestAddInstance_DuplicateID(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", nil))
	require.Error(t, g.AddInstance("x", nil))
}

func TestAddInstance_WrongOwner(t *testing.T) {
	g := New()
	err := g.AddInstance("x", []*model.Record{rec("y", "FOO", nil)})
	require.Error(t, err)
}

func TestResolveLinks_AcrossInstances(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", []*model.Record{
		rec("x", "FOO", map[string]string{"INP": "BAR:baz"}),
	}))
	require.NoError(t, g.AddInstance("y", []*model.Record{
		rec("y", "BAR:baz", nil),
	}))
	g.ResolveLinks()

	edges := g.Outbound(key("x", "FOO"))
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Resolved)
	assert.Equal(t, key("y", "BAR:baz"), edges[0].Target)

	hops, err := g.Traverse(query.Traversal{
		Start:     key("x", "FOO"),
		Direction: query.Outbound,
		Depth:     1,
	})
	require.NoError(t, err)
	require.Len(t, hops, 1)
	assert.Equal(t, "BAR:baz", hops[0].Record.Name)
	assert.Equal(t, 1, hops[0].Depth)

	back, err := g.Traverse(query.Traversal{
		Start:     key("y", "BAR:baz"),
		Direction: query.Inbound,
		Depth:     1,
	})
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "FOO", back[0].Record.Name)
}

func TestResolveLinks_UnresolvedStaysQueryable(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", []*model.Record{
		rec("x", "FOO", map[string]string{"INP": "BAR:baz"}),
	}))
	g.ResolveLinks()

	unresolved := g.Unresolved()
	require.Len(t, unresolved, 1)
	assert.Equal(t, "BAR:baz", unresolved[0].TargetName)

	hops, err := g.Traverse(query.Traversal{
		Start:     key("x", "FOO"),
		Direction: query.Outbound,
		Depth:     1,
	})
	require.NoError(t, err)
	assert.Empty(t, hops)
}

func TestResolveLinks_IncrementalAddResolvesLater(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", []*model.Record{
		rec("x", "FOO", map[string]string{"INP": "BAR:baz"}),
	}))
	g.ResolveLinks()
	require.Len(t, g.Unresolved(), 1)

	require.NoError(t, g.AddInstance("y", []*model.Record{
		rec("y", "BAR:baz", nil),
	}))
	g.ResolveLinks()
	assert.Empty(t, g.Unresolved())

	edges := g.Outbound(key("x", "FOO"))
	require.Len(t, edges, 1)
	assert.Equal(t, key("y", "BAR:baz"), edges[0].Target)
}

func TestResolveLinks_AmbiguousPicksLowestInstance(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", []*model.Record{
		rec("x", "FOO", map[string]string{"INP": "SHARED"}),
	}))
	// Insertion order must not matter: add the higher id first.
	require.NoError(t, g.AddInstance("b", []*model.Record{rec("b", "SHARED", nil)}))
	require.NoError(t, g.AddInstance("a", []*model.Record{rec("a", "SHARED", nil)}))
	g.ResolveLinks()

	edges := g.Outbound(key("x", "FOO"))
	require.Len(t, edges, 1)
	assert.Equal(t, key("a", "SHARED"), edges[0].Target)

	warnings := g.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnAmbiguousTarget, warnings[0].Code)
	assert.Equal(t, []string{"a", "b"}, warnings[0].Candidates)
}

func TestSearch(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", []*model.Record{
		rec("x", "VAC:P1", nil),
		rec("x", "VAC:P2", nil),
		rec("x", "RF:AMP", nil),
	}))

	prefix, err := g.Search(query.Prefix("VAC:"))
	require.NoError(t, err)
	require.Len(t, prefix, 2)
	assert.Equal(t, "VAC:P1", prefix[0].Name)

	glob, err := g.Search(query.Glob("*:P2"))
	require.NoError(t, err)
	require.Len(t, glob, 1)
	assert.Equal(t, "VAC:P2", glob[0].Name)

	exact, err := g.Search(query.Exact("RF:AMP"))
	require.NoError(t, err)
	require.Len(t, exact, 1)

	_, err = g.Search(query.Query{Kind: "nope", Pattern: "x"})
	require.Error(t, err)
}

func TestTraverse_DepthBound(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", []*model.Record{
		rec("x", "A", map[string]string{"FLNK": "B"}),
		rec("x", "B", map[string]string{"FLNK": "C"}),
		rec("x", "C", nil),
	}))
	g.ResolveLinks()

	one, err := g.Traverse(query.Traversal{Start: key("x", "A"), Direction: query.Outbound, Depth: 1})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "B", one[0].Record.Name)

	two, err := g.Traverse(query.Traversal{Start: key("x", "A"), Direction: query.Outbound, Depth: 2})
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "C", two[1].Record.Name)
	assert.Equal(t, 2, two[1].Depth)
}

func TestTraverse_Validation(t *testing.T) {
	g := New()
	_, err := g.Traverse(query.Traversal{Direction: query.Outbound, Depth: 1})
	require.Error(t, err)

	_, err = g.Traverse(query.Traversal{Start: key("x", "A"), Direction: "sideways", Depth: 1})
	require.Error(t, err)

	_, err = g.Traverse(query.Traversal{Start: key("x", "A"), Direction: query.Outbound, Depth: 0})
	require.Error(t, err)
}

func TestTraverse_MissingStart(t *testing.T) {
	g := New()
	hops, err := g.Traverse(query.Traversal{Start: key("x", "NOPE"), Direction: query.Outbound, Depth: 3})
	require.NoError(t, err)
	assert.Empty(t, hops)
}

func TestAnalyzeCycles(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", []*model.Record{
		rec("x", "A", map[string]string{"FLNK": "B"}),
		rec("x", "B", map[string]string{"FLNK": "A"}),
		rec("x", "SELF", map[string]string{"FLNK": "SELF"}),
		rec("x", "LINEAR", map[string]string{"FLNK": "A"}),
	}))
	g.ResolveLinks()

	warnings := g.AnalyzeCycles()
	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Equal(t, WarnLinkCycle, w.Code)
	}
	// The two-record loop and the self-loop, never the linear chain.
	assert.Equal(t, []string{"x/A", "x/B", "x/A"}, warnings[0].Path)
	assert.Equal(t, []string{"x/SELF", "x/SELF"}, warnings[1].Path)
}

func TestAnalyzeCycles_NoCycle(t *testing.T) {
	g := New()
	require.NoError(t, g.AddInstance("x", []*model.Record{
		rec("x", "A", map[string]string{"FLNK": "B"}),
		rec("x", "B", nil),
	}))
	g.ResolveLinks()
	assert.Empty(t, g.AnalyzeCycles())
}

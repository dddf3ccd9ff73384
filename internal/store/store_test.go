package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iocscope/iocscope/internal/graph"
	"github.com/iocscope/iocscope/internal/model"
	"github.com/iocscope/iocscope/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// testGraph builds a two-instance graph with one resolved and one
// unresolved link.
func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	foo := &model.Record{
		Instance: "ioc-a",
		Name:     "FOO",
		Type:     "calc",
		Fields: map[string]model.Field{
			"INPA": {
				Name: "INPA", Raw: "$(T)", Value: "BAR:baz",
				Link: &model.LinkTarget{Record: "BAR:baz", Field: "VAL", Modifiers: []string{"PP"}},
			},
			"INPB": {
				Name: "INPB", Raw: "GHOST", Value: "GHOST",
				Link: &model.LinkTarget{Record: "GHOST", Field: "VAL"},
			},
		},
		FieldOrder: []string{"INPA", "INPB"},
		Loc:        model.NewSourceLocation("a/st.cmd", 7, map[string]string{"T": "BAR:baz"}),
	}
	bar := &model.Record{
		Instance:   "ioc-b",
		Name:       "BAR:baz",
		Type:       "ai",
		Fields:     map[string]model.Field{},
		FieldOrder: nil,
		Loc:        model.NewSourceLocation("b/st.cmd", 3, nil),
	}
	require.NoError(t, g.AddInstance("ioc-a", []*model.Record{foo}))
	require.NoError(t, g.AddInstance("ioc-b", []*model.Record{bar}))
	g.ResolveLinks()
	return g
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	g := testGraph(t)

	require.NoError(t, s.SaveGraph(ctx, "fp-1", g))

	ok, err := s.Has(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, found, err := s.LoadGraph(ctx, "fp-1")
	require.NoError(t, err)
	require.True(t, found)

	rec, ok := loaded.Get(model.RecordKey{Instance: "ioc-a", Name: "FOO"})
	require.True(t, ok)
	assert.Equal(t, "calc", rec.Type)
	assert.Equal(t, "a/st.cmd", rec.Loc.File)
	assert.Equal(t, 7, rec.Loc.Line)
	assert.Equal(t, "BAR:baz", rec.Loc.Macros["T"])
	assert.Equal(t, []string{"INPA", "INPB"}, rec.FieldOrder)
	assert.Equal(t, "$(T)", rec.Fields["INPA"].Raw)
	require.NotNil(t, rec.Fields["INPA"].Link)
	assert.Equal(t, []string{"PP"}, rec.Fields["INPA"].Link.Modifiers)

	// Link state survives the round trip via re-resolution.
	edges := loaded.Outbound(rec.Key())
	require.Len(t, edges, 2)
	assert.True(t, edges[0].Resolved)
	assert.Equal(t, model.RecordKey{Instance: "ioc-b", Name: "BAR:baz"}, edges[0].Target)
	assert.False(t, edges[1].Resolved)
}

func TestLoadGraph_Missing(t *testing.T) {
	s := openTestStore(t)
	_, found, err := s.LoadGraph(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveGraph_ReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	g := testGraph(t)

	require.NoError(t, s.SaveGraph(ctx, "fp-1", g))
	require.NoError(t, s.SaveGraph(ctx, "fp-1", g))

	infos, err := s.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "fp-1", infos[0].Fingerprint)
	assert.Equal(t, 2, infos[0].Records)
}

func TestUnresolvedLinks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveGraph(ctx, "fp-1", testGraph(t)))

	links, err := s.UnresolvedLinks(ctx, "fp-1")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "GHOST", links[0].TargetName)
	assert.Equal(t, "INPB", links[0].Field)
}

func TestFingerprint(t *testing.T) {
	files := testutil.MemFiles{
		"st.cmd":    "a\n",
		"db/sig.db": "b\n",
	}
	fp1, err := Fingerprint([]string{"st.cmd", "db/sig.db"}, files.ReadFile)
	require.NoError(t, err)

	// Order-independent.
	fp2, err := Fingerprint([]string{"db/sig.db", "st.cmd"}, files.ReadFile)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	// Content-sensitive.
	files["st.cmd"] = "changed\n"
	fp3, err := Fingerprint([]string{"st.cmd", "db/sig.db"}, files.ReadFile)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)

	// Missing file is an error.
	_, err = Fingerprint([]string{"missing"}, files.ReadFile)
	require.Error(t, err)
}

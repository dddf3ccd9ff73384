package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/iocscope/iocscope/internal/graph"
	"github.com/iocscope/iocscope/internal/model"
)

// GraphSnapshot is the serialized form of a loaded graph, used for golden
// comparison. Everything nondeterministic (run tokens, host paths) is
// excluded, and every list is sorted.
type GraphSnapshot struct {
	Scenario   string             `json:"scenario"`
	Instances  []InstanceSnapshot `json:"instances"`
	Warnings   []string           `json:"warnings,omitempty"`
	Unresolved []EdgeSnapshot     `json:"unresolved,omitempty"`
}

// InstanceSnapshot is one instance's contribution to the snapshot.
type InstanceSnapshot struct {
	ID      string           `json:"id"`
	Error   string           `json:"error,omitempty"`
	Records []RecordSnapshot `json:"records,omitempty"`
}

// RecordSnapshot is one record with its provenance and links.
type RecordSnapshot struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	DefinedAt string          `json:"defined_at"`
	Macros    string          `json:"macros,omitempty"`
	Fields    []FieldSnapshot `json:"fields,omitempty"`
	Links     []EdgeSnapshot  `json:"links,omitempty"`
}

// FieldSnapshot is one field's expanded value.
type FieldSnapshot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EdgeSnapshot is one link edge.
type EdgeSnapshot struct {
	From     string `json:"from"`
	Field    string `json:"field"`
	Target   string `json:"target"`
	Resolved bool   `json:"resolved"`
}

// Snapshot dumps a result deterministically: instances sorted by id,
// records by name, warnings by message.
func Snapshot(scenario *Scenario, result *Result) *GraphSnapshot {
	snap := &GraphSnapshot{Scenario: scenario.Name}

	var results []InstanceSnapshot
	for _, r := range result.Results {
		is := InstanceSnapshot{ID: r.ID}
		if r.Err != nil {
			is.Error = r.Err.Error()
		} else {
			for _, rec := range r.Records {
				is.Records = append(is.Records, recordSnapshot(result.Graph, rec))
			}
			sort.Slice(is.Records, func(i, j int) bool {
				return is.Records[i].Name < is.Records[j].Name
			})
		}
		results = append(results, is)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	snap.Instances = results

	for _, w := range result.Graph.Warnings() {
		snap.Warnings = append(snap.Warnings, w.Message)
	}
	for _, w := range result.Graph.AnalyzeCycles() {
		snap.Warnings = append(snap.Warnings, w.Message)
	}
	sort.Strings(snap.Warnings)

	for _, e := range result.Graph.Unresolved() {
		snap.Unresolved = append(snap.Unresolved, edgeSnapshot(e))
	}
	return snap
}

func recordSnapshot(g *graph.Graph, rec *model.Record) RecordSnapshot {
	rs := RecordSnapshot{
		Name:      rec.Name,
		Type:      rec.Type,
		DefinedAt: rec.Loc.String(),
	}
	if len(rec.Loc.Macros) > 0 {
		rs.Macros = rec.Loc.MacroString()
	}
	for _, name := range rec.FieldOrder {
		f := rec.Fields[name]
		rs.Fields = append(rs.Fields, FieldSnapshot{Name: f.Name, Value: f.Value})
	}
	for _, e := range g.Outbound(rec.Key()) {
		rs.Links = append(rs.Links, edgeSnapshot(e))
	}
	return rs
}

func edgeSnapshot(e graph.Edge) EdgeSnapshot {
	es := EdgeSnapshot{
		From:     e.Source.String(),
		Field:    e.Field,
		Resolved: e.Resolved,
	}
	if e.Resolved {
		es.Target = fmt.Sprintf("%s.%s", e.Target, e.TargetField)
	} else {
		es.Target = e.TargetName
	}
	return es
}

// RunWithGolden executes a scenario, checks its declared expectations, and
// compares the graph snapshot against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario: %v", err)
	}
	for _, err := range Check(scenario, result) {
		t.Error(err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Snapshot(scenario, result)); err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	data := buf.Bytes()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
}

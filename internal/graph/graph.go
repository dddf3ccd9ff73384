package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/iocscope/iocscope/internal/model"
)

// Edge is one link field of one record, resolved or not.
type Edge struct {
	// Source is the record holding the link field.
	Source model.RecordKey `json:"source"`

	// Field is the link field's name.
	Field string `json:"field"`

	// TargetName and TargetField are the parsed link target.
	TargetName  string `json:"target_name"`
	TargetField string `json:"target_field"`

	// Resolved reports whether Target is valid. Unresolved edges stay in
	// the graph so later instances can satisfy them.
	Resolved bool `json:"resolved"`

	// Target is the resolved target record. Zero when unresolved.
	Target model.RecordKey `json:"target,omitempty"`
}

// Graph is the cross-reference index. Safe for concurrent use: reads take a
// shared lock, mutation is serialized.
type Graph struct {
	mu        sync.RWMutex
	records   map[model.RecordKey]*model.Record
	byName    map[string][]string // record name → sorted instance ids
	instances map[string]bool
	outbound  map[model.RecordKey][]*Edge
	inbound   map[model.RecordKey][]*Edge
	warnings  []Warning
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		records:   make(map[model.RecordKey]*model.Record),
		byName:    make(map[string][]string),
		instances: make(map[string]bool),
		outbound:  make(map[model.RecordKey][]*Edge),
		inbound:   make(map[model.RecordKey][]*Edge),
	}
}

// AddInstance inserts all records of one instance. The instance hands
// ownership to the graph; records must not be mutated afterwards. Adding
// the same instance id twice is an error.
//
// AddInstance does not resolve links; call ResolveLinks once the batch of
// instances is in.
func (g *Graph) AddInstance(id string, records []*model.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.instances[id] {
		return fmt.Errorf("graph: instance %s already added", id)
	}
	for _, rec := range records {
		if rec.Instance != id {
			return fmt.Errorf("graph: record %s belongs to instance %s, not %s",
				rec.Name, rec.Instance, id)
		}
		key := rec.Key()
		if _, exists := g.records[key]; exists {
			return fmt.Errorf("graph: duplicate record %s", key)
		}
	}

	g.instances[id] = true
	for _, rec := range records {
		key := rec.Key()
		g.records[key] = rec
		g.byName[rec.Name] = insertSorted(g.byName[rec.Name], id)

		for _, fname := range rec.FieldOrder {
			f := rec.Fields[fname]
			if f.Link == nil {
				continue
			}
			g.outbound[key] = append(g.outbound[key], &Edge{
				Source:      key,
				Field:       fname,
				TargetName:  f.Link.Record,
				TargetField: f.Link.Field,
			})
		}
	}
	return nil
}

// ResolveLinks resolves every link that is not yet resolved. It is
// incremental: already-resolved links are untouched, so calling it after
// each AddInstance only pays for links the new records could satisfy.
func (g *Graph) ResolveLinks() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, edges := range g.outbound {
		for _, e := range edges {
			if e.Resolved {
				continue
			}
			g.resolveEdge(e)
		}
	}
}

// resolveEdge resolves one edge, honoring the deterministic lowest-id
// tie-break. Caller holds the write lock.
func (g *Graph) resolveEdge(e *Edge) {
	ids := g.byName[e.TargetName]
	if len(ids) == 0 {
		return // stays unresolved, queryable via Unresolved
	}
	if len(ids) > 1 {
		g.warnings = append(g.warnings, Warning{
			Code:       WarnAmbiguousTarget,
			Source:     e.Source,
			Field:      e.Field,
			TargetName: e.TargetName,
			Candidates: append([]string(nil), ids...),
			Message: fmt.Sprintf("record name %s is defined by %d instances; picking %s",
				e.TargetName, len(ids), ids[0]),
		})
	}
	e.Target = model.RecordKey{Instance: ids[0], Name: e.TargetName}
	e.Resolved = true
	g.inbound[e.Target] = append(g.inbound[e.Target], e)
}

// insertSorted inserts id into a sorted slice, keeping it sorted and
// duplicate-free.
func insertSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

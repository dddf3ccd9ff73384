package graph

import (
	"sort"

	"github.com/iocscope/iocscope/internal/model"
	"github.com/iocscope/iocscope/internal/query"
)

// Get returns the record with the exact global key.
func (g *Graph) Get(key model.RecordKey) (*model.Record, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.records[key]
	return rec, ok
}

// Lookup returns every record with the given name, one per defining
// instance, sorted by instance id.
func (g *Graph) Lookup(name string) []*model.Record {
	g.mu.RLock()
	defer g.mu.RUnlock()

	name = model.CanonicalName(name)
	out := make([]*model.Record, 0, len(g.byName[name]))
	for _, id := range g.byName[name] {
		out = append(out, g.records[model.RecordKey{Instance: id, Name: name}])
	}
	return out
}

// Search returns every record whose name satisfies the query, sorted by
// name then instance id.
func (g *Graph) Search(q query.Query) ([]*model.Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []*model.Record
	for name, ids := range g.byName {
		if !q.Match(name) {
			continue
		}
		for _, id := range ids {
			out = append(out, g.records[model.RecordKey{Instance: id, Name: name}])
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Instance < out[j].Instance
	})
	return out, nil
}

// Keys returns every record key in the graph, sorted. Used by the snapshot
// store and golden dumps for deterministic iteration.
func (g *Graph) Keys() []model.RecordKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]model.RecordKey, 0, len(g.records))
	for key := range g.records {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Instance != out[j].Instance {
			return out[i].Instance < out[j].Instance
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Instances returns the loaded instance ids, sorted.
func (g *Graph) Instances() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.instances))
	for id := range g.instances {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Outbound returns a record's link edges, resolved or not, in field order.
func (g *Graph) Outbound(key model.RecordKey) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyEdges(g.outbound[key])
}

// Inbound returns the resolved edges pointing at a record, sorted by
// source key then field.
func (g *Graph) Inbound(key model.RecordKey) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := copyEdges(g.inbound[key])
	sortEdges(out)
	return out
}

// Hop is one record reached by a traversal: the edge that reached it and
// the depth it was found at (1 = direct neighbor).
type Hop struct {
	Record *model.Record `json:"record"`
	Via    Edge          `json:"via"`
	Depth  int           `json:"depth"`
}

// Traverse walks resolved links from a start record to a caller-supplied
// bounded depth. Unresolved links are skipped, never an error; a start
// record that does not exist yields no hops. Each record is reported once,
// at its shallowest depth.
func (g *Graph) Traverse(t query.Traversal) ([]Hop, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.records[t.Start]; !ok {
		return nil, nil
	}

	var hops []Hop
	visited := map[model.RecordKey]bool{t.Start: true}
	frontier := []model.RecordKey{t.Start}

	for depth := 1; depth <= t.Depth && len(frontier) > 0; depth++ {
		var next []model.RecordKey
		for _, key := range frontier {
			for _, e := range g.neighbors(key, t.Direction) {
				target := e.Target
				if t.Direction == query.Inbound {
					target = e.Source
				}
				if !e.Resolved || visited[target] {
					continue
				}
				visited[target] = true
				hops = append(hops, Hop{
					Record: g.records[target],
					Via:    *e,
					Depth:  depth,
				})
				next = append(next, target)
			}
		}
		frontier = next
	}
	return hops, nil
}

// neighbors returns the edge list for one traversal step. Caller holds a
// read lock.
func (g *Graph) neighbors(key model.RecordKey, dir query.Direction) []*Edge {
	if dir == query.Inbound {
		return g.inbound[key]
	}
	return g.outbound[key]
}

func copyEdges(edges []*Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, *e)
	}
	return out
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source.String() < edges[j].Source.String()
		}
		return edges[i].Field < edges[j].Field
	})
}

package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iocscope/iocscope/internal/model"
)

// AnalyzeCycles finds link loops: sets of records whose resolved links lead
// back to themselves. Loops are reported as warnings, not errors, because
// control databases use intentional loops (forward-link chains that close,
// feedback calculations), but an operator asking "what drives this record"
// wants them visible.
//
// The algorithm runs Tarjan's strongly-connected-components search over the
// resolved edges; each component of size > 1, or single record linking to
// itself, becomes one warning.
func (g *Graph) AnalyzeCycles() []Warning {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adj := make(map[model.RecordKey][]model.RecordKey, len(g.records))
	for key := range g.records {
		adj[key] = nil
	}
	for key, edges := range g.outbound {
		for _, e := range edges {
			if e.Resolved {
				adj[key] = append(adj[key], e.Target)
			}
		}
	}

	var warnings []Warning
	for _, scc := range tarjanSCC(adj) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], adj) {
			continue
		}
		path := make([]string, 0, len(scc)+1)
		for _, key := range scc {
			path = append(path, key.String())
		}
		sort.Strings(path)
		path = append(path, path[0]) // close the loop for display
		warnings = append(warnings, Warning{
			Code:    WarnLinkCycle,
			Path:    path,
			Message: fmt.Sprintf("link cycle: %s", strings.Join(path, " -> ")),
		})
	}
	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Path[0] < warnings[j].Path[0]
	})
	return warnings
}

func hasSelfLoop(key model.RecordKey, adj map[model.RecordKey][]model.RecordKey) bool {
	for _, next := range adj[key] {
		if next == key {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components. Single-node components
// without self-loops are not cycles; the caller filters them.
func tarjanSCC(adj map[model.RecordKey][]model.RecordKey) [][]model.RecordKey {
	var (
		index   = 0
		stack   []model.RecordKey
		indices = make(map[model.RecordKey]int)
		lowlink = make(map[model.RecordKey]int)
		onStack = make(map[model.RecordKey]bool)
		sccs    [][]model.RecordKey
	)

	var strongConnect func(model.RecordKey)
	strongConnect = func(v model.RecordKey) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []model.RecordKey
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for node := range adj {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

package graph

import "github.com/iocscope/iocscope/internal/model"

// WarningCode categorizes link warnings. Warnings are never fatal; they are
// a queryable property of the graph.
type WarningCode string

const (
	// WarnAmbiguousTarget means more than one instance defines a link's
	// target record name; the lowest instance id was picked.
	WarnAmbiguousTarget WarningCode = "AMBIGUOUS_TARGET"

	// WarnLinkCycle means a set of records links back to itself.
	WarnLinkCycle WarningCode = "LINK_CYCLE"
)

// Warning is one recorded link anomaly.
type Warning struct {
	Code       WarningCode     `json:"code"`
	Source     model.RecordKey `json:"source,omitempty"`
	Field      string          `json:"field,omitempty"`
	TargetName string          `json:"target_name,omitempty"`

	// Candidates lists the instance ids in contention for an ambiguous
	// target, sorted; the first one is the pick.
	Candidates []string `json:"candidates,omitempty"`

	// Path is the record cycle for a LINK_CYCLE warning.
	Path []string `json:"path,omitempty"`

	Message string `json:"message"`
}

// Warnings returns the recorded warnings in order of occurrence.
func (g *Graph) Warnings() []Warning {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Warning(nil), g.warnings...)
}

// Unresolved returns every link whose target no loaded instance defines,
// sorted by source key then field.
func (g *Graph) Unresolved() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []Edge
	for _, edges := range g.outbound {
		for _, e := range edges {
			if !e.Resolved {
				out = append(out, *e)
			}
		}
	}
	sortEdges(out)
	return out
}

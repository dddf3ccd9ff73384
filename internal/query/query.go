// Package query is the typed representation of graph queries, shared by
// the CLI, the snapshot store and the graph itself. Parsing user input into
// a Query and validating it happens here; executing it is the graph's job.
package query

import (
	"fmt"
	"path"
	"strings"

	"github.com/iocscope/iocscope/internal/model"
)

// Kind selects the record-name match mode.
type Kind string

const (
	// KindExact matches one record name exactly.
	KindExact Kind = "exact"

	// KindPrefix matches record names sharing a prefix.
	KindPrefix Kind = "prefix"

	// KindGlob matches record names against a path.Match pattern.
	KindGlob Kind = "glob"
)

// Query is one record-name search.
type Query struct {
	Kind    Kind
	Pattern string
}

// Exact builds an exact-name query.
func Exact(name string) Query { return Query{Kind: KindExact, Pattern: name} }

// Prefix builds a prefix query.
func Prefix(p string) Query { return Query{Kind: KindPrefix, Pattern: p} }

// Glob builds a glob query.
func Glob(pattern string) Query { return Query{Kind: KindGlob, Pattern: pattern} }

// Validate checks the query is executable: a known kind, a non-empty
// pattern, and for globs a well-formed pattern.
func (q Query) Validate() error {
	switch q.Kind {
	case KindExact, KindPrefix:
		if q.Pattern == "" {
			return fmt.Errorf("query: empty pattern")
		}
		return nil
	case KindGlob:
		if q.Pattern == "" {
			return fmt.Errorf("query: empty pattern")
		}
		if _, err := path.Match(q.Pattern, ""); err != nil {
			return fmt.Errorf("query: bad glob %q: %w", q.Pattern, err)
		}
		return nil
	default:
		return fmt.Errorf("query: unknown kind %q", q.Kind)
	}
}

// Match reports whether a canonical record name satisfies the query.
func (q Query) Match(name string) bool {
	switch q.Kind {
	case KindExact:
		return name == model.CanonicalName(q.Pattern)
	case KindPrefix:
		return strings.HasPrefix(name, model.CanonicalName(q.Pattern))
	case KindGlob:
		ok, err := path.Match(q.Pattern, name)
		return err == nil && ok
	}
	return false
}

// Direction selects which links a traversal follows.
type Direction string

const (
	// Outbound follows links from the start record to its targets.
	Outbound Direction = "outbound"

	// Inbound follows links pointing at the start record.
	Inbound Direction = "inbound"
)

// Traversal is a bounded-depth walk of the link graph. Depth bounds cost:
// 1 returns direct neighbors, 2 their neighbors, and so on.
type Traversal struct {
	Start     model.RecordKey
	Direction Direction
	Depth     int
}

// Validate checks the traversal is executable.
func (t Traversal) Validate() error {
	if t.Start.Name == "" {
		return fmt.Errorf("query: traversal needs a start record")
	}
	if t.Direction != Outbound && t.Direction != Inbound {
		return fmt.Errorf("query: unknown direction %q", t.Direction)
	}
	if t.Depth < 1 {
		return fmt.Errorf("query: traversal depth must be >= 1, got %d", t.Depth)
	}
	return nil
}

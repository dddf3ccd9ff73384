package model

import (
	"fmt"
	"sort"
	"strings"
)

// SourceLocation identifies where a fact came from: the script or database
// file that produced it, the 1-based line number, and the macro state that
// was active when the line executed.
//
// A SourceLocation is immutable once created. NewSourceLocation copies the
// macro snapshot so later scope mutations cannot leak into stamped facts.
type SourceLocation struct {
	// File is the path of the script or database file, as given to the
	// interpreter (not resolved to an absolute path).
	File string `json:"file"`

	// Line is the 1-based line number within File.
	Line int `json:"line"`

	// Macros is the resolved name → expanded-value mapping active at
	// this line. Nil means no macros were defined.
	Macros map[string]string `json:"macros,omitempty"`
}

// NewSourceLocation creates a SourceLocation with a defensive copy of the
// macro snapshot.
func NewSourceLocation(file string, line int, macros map[string]string) SourceLocation {
	var copied map[string]string
	if len(macros) > 0 {
		copied = make(map[string]string, len(macros))
		for k, v := range macros {
			copied[k] = v
		}
	}
	return SourceLocation{File: file, Line: line, Macros: copied}
}

// String renders the location as "file:line".
func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// MacroString renders the macro snapshot as "{A=1, B=2}" with names sorted,
// for diagnostics and provenance display.
func (l SourceLocation) MacroString() string {
	if len(l.Macros) == 0 {
		return "{}"
	}
	names := make([]string, 0, len(l.Macros))
	for name := range l.Macros {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(l.Macros[name])
	}
	b.WriteByte('}')
	return b.String()
}

// IsZero reports whether the location was never set.
func (l SourceLocation) IsZero() bool {
	return l.File == "" && l.Line == 0
}

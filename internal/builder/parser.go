package builder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Document is the typed form of one parsed database file: the dialect
// parser's whole output. The builder is agnostic to how it was produced.
type Document struct {
	// Substitutions are the document's own macro declarations. They apply
	// only where the load command did not already define the same name.
	Substitutions map[string]string

	// Records are the record templates in document order. Names and field
	// values are raw; the builder expands them.
	Records []RecordTemplate
}

// RecordTemplate is one record instance inside a document.
type RecordTemplate struct {
	Type   string
	Name   string // raw, may contain macro references
	Fields []FieldTemplate
	Line   int // 1-based line in the document, for parse diagnostics
}

// FieldTemplate is one field assignment inside a record template.
type FieldTemplate struct {
	Name  string
	Value string // raw, may contain macro references
	Line  int
}

// DocumentParser turns one configuration-file dialect into Documents. One
// parser exists per dialect (record database, template substitution, and so
// on); implementations live outside this package.
type DocumentParser interface {
	// Parse converts file content into a Document. Failures are reported
	// as *ParseError with the offending location.
	Parse(path string, content []byte) (*Document, error)
}

// ParseError is a structured document parse failure, propagated verbatim
// from the dialect parser. It fails the single load command that referenced
// the document, not the whole script.
type ParseError struct {
	File    string
	Line    int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// ParserRegistry maps file extensions (".db", ".template") to dialect
// parsers.
type ParserRegistry struct {
	byExt map[string]DocumentParser
}

// NewParserRegistry creates an empty registry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{byExt: make(map[string]DocumentParser)}
}

// Register installs a parser for one or more extensions.
func (r *ParserRegistry) Register(p DocumentParser, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = p
	}
}

// Lookup returns the parser for a file path, or nil if the dialect is
// unknown.
func (r *ParserRegistry) Lookup(path string) DocumentParser {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

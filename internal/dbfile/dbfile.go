// Package dbfile parses the textual record-database dialect: record blocks
// with field assignments, plus document-level substitute declarations.
//
// It implements the builder's DocumentParser contract and is the default
// collaborator registered for .db, .template and .vdb files. The grammar
// here is deliberately the minimal text form:
//
//	# comment
//	substitute "GAUGE=MKS,UNIT=mbar"
//	record(ai, "$(P):pressure") {
//	    field(INP, "@asyn($(PORT) 0)")
//	    field(FLNK, "$(P):calc")
//	    info(autosaveFields, "VAL")
//	}
//
// info lines and alias declarations are recognized and skipped. Anything
// else is a parse error carrying file and line.
package dbfile

import (
	"fmt"
	"strings"

	"github.com/iocscope/iocscope/internal/builder"
	"github.com/iocscope/iocscope/internal/macro"
)

// Parser parses the record-database dialect.
type Parser struct{}

// New creates a Parser.
func New() *Parser { return &Parser{} }

// Extensions are the file extensions this dialect is registered under.
var Extensions = []string{".db", ".template", ".vdb"}

// Register installs the parser in a builder registry under its extensions.
func Register(r *builder.ParserRegistry) {
	r.Register(New(), Extensions...)
}

// Parse implements builder.DocumentParser.
func (p *Parser) Parse(path string, content []byte) (*builder.Document, error) {
	doc := &builder.Document{Substitutions: map[string]string{}}
	var current *builder.RecordTemplate

	for i, line := range strings.Split(string(content), "\n") {
		lineno := i + 1
		code := strings.TrimSpace(stripComment(line))
		if code == "" {
			continue
		}

		switch {
		case current == nil && (strings.HasPrefix(code, "record(") || strings.HasPrefix(code, "grecord(")):
			tmpl, err := parseRecordHeader(path, lineno, code)
			if err != nil {
				return nil, err
			}
			current = tmpl

		case current == nil && strings.HasPrefix(code, "substitute"):
			arg := strings.TrimSpace(strings.TrimPrefix(code, "substitute"))
			for name, value := range macro.ParsePairs(unquote(arg)) {
				if _, defined := doc.Substitutions[name]; !defined {
					doc.Substitutions[name] = value
				}
			}

		case current == nil && strings.HasPrefix(code, "alias("):
			// Alias declarations carry no fields; skipped.

		case current != nil && strings.HasPrefix(code, "field("):
			name, value, err := parseCall(path, lineno, code, "field")
			if err != nil {
				return nil, err
			}
			current.Fields = append(current.Fields, builder.FieldTemplate{
				Name:  name,
				Value: value,
				Line:  lineno,
			})

		case current != nil && strings.HasPrefix(code, "info("):
			// Info tags are metadata for other tools; skipped.

		case current != nil && code == "{":
			// Opening brace on its own line below the record header.

		case current != nil && code == "}":
			doc.Records = append(doc.Records, *current)
			current = nil

		default:
			return nil, &builder.ParseError{
				File:    path,
				Line:    lineno,
				Message: fmt.Sprintf("unexpected input %q", code),
			}
		}
	}

	if current != nil {
		return nil, &builder.ParseError{
			File:    path,
			Line:    current.Line,
			Message: fmt.Sprintf("record %q is missing its closing }", current.Name),
		}
	}
	return doc, nil
}

// parseRecordHeader parses `record(type, "name") {` with the brace optional
// on the same line only when empty-bodied records use `record(...) {}`.
func parseRecordHeader(path string, lineno int, code string) (*builder.RecordTemplate, error) {
	body := strings.TrimSuffix(strings.TrimSpace(code), "{")
	kind := "record"
	if strings.HasPrefix(body, "grecord(") {
		kind = "grecord"
	}
	rtype, name, err := parseCall(path, lineno, strings.TrimSpace(body), kind)
	if err != nil {
		return nil, err
	}
	if rtype == "" || name == "" {
		return nil, &builder.ParseError{File: path, Line: lineno, Message: "record needs a type and a name"}
	}
	return &builder.RecordTemplate{Type: rtype, Name: name, Line: lineno}, nil
}

// parseCall parses `keyword(first, "second")` into its two arguments,
// honoring quoting around either.
func parseCall(path string, lineno int, code, keyword string) (string, string, error) {
	rest := strings.TrimPrefix(code, keyword)
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return "", "", &builder.ParseError{
			File:    path,
			Line:    lineno,
			Message: fmt.Sprintf("malformed %s declaration %q", keyword, code),
		}
	}
	inner := rest[1 : len(rest)-1]

	first, second, err := splitTwo(inner)
	if err != nil {
		return "", "", &builder.ParseError{File: path, Line: lineno, Message: err.Error()}
	}
	return first, second, nil
}

// splitTwo splits "a, b" at the first comma outside quotes and unquotes
// both halves.
func splitTwo(s string) (string, string, error) {
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == '\\' && quote == '"' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == ',':
			return unquote(strings.TrimSpace(s[:i])), unquote(strings.TrimSpace(s[i+1:])), nil
		}
	}
	if quote != 0 {
		return "", "", fmt.Errorf("unterminated quote in %q", s)
	}
	return unquote(strings.TrimSpace(s)), "", nil
}

// stripComment removes an unquoted trailing '#' comment.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case quote != 0:
			if ch == '\\' && quote == '"' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '#':
			return line[:i]
		}
	}
	return line
}

// unquote strips one layer of matched surrounding quotes, unescaping the
// double-quoted form.
func unquote(s string) string {
	if len(s) < 2 || (s[0] != '"' && s[0] != '\'') || s[len(s)-1] != s[0] {
		return s
	}
	inner := s[1 : len(s)-1]
	if s[0] == '\'' || !strings.ContainsRune(inner, '\\') {
		return inner
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

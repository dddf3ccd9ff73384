package builder

import (
	"fmt"
	"log/slog"

	"github.com/iocscope/iocscope/internal/interp"
	"github.com/iocscope/iocscope/internal/macro"
	"github.com/iocscope/iocscope/internal/model"
)

// LoadCommands are the interpreter commands the builder claims.
var LoadCommands = []string{"dbLoadRecords", "dbLoadTemplate", "dbLoadDatabase"}

// Options configures a Builder.
type Options struct {
	// Parsers maps file dialects to document parsers. Required: a load
	// command referencing a dialect with no parser fails (that command
	// only).
	Parsers *ParserRegistry

	// Logger receives build diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Builder accumulates the records of one interpreted instance. Create one
// Builder per interpretation run, attach it before Run, and Seal it after.
type Builder struct {
	parsers *ParserRegistry
	logger  *slog.Logger

	instance   string
	records    map[string]*model.Record
	order      []string
	collisions []Collision
}

// New creates a Builder.
func New(opts Options) *Builder {
	if opts.Parsers == nil {
		opts.Parsers = NewParserRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		parsers: opts.Parsers,
		logger:  logger,
		records: make(map[string]*model.Record),
	}
}

// Attach registers the builder's load handlers on an interpreter.
func (b *Builder) Attach(in *interp.Interp) {
	b.instance = in.InstanceID()
	for _, name := range LoadCommands {
		in.Register(name, b.handleLoad)
	}
}

// handleLoad executes one database-load command. Parse failures fail this
// command only; the interpreter logs them and continues the script.
func (b *Builder) handleLoad(in *interp.Interp, cmd *model.Command) error {
	if len(cmd.Args) < 1 {
		return fmt.Errorf("%s: want a database path", cmd.Name)
	}
	full := in.ResolvePath(cmd.Args[0])

	parser := b.parsers.Lookup(full)
	if parser == nil {
		return fmt.Errorf("%s: no document parser for %s", cmd.Name, full)
	}
	content, err := in.Files().ReadFile(full)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Name, err)
	}
	doc, err := parser.Parse(full, content)
	if err != nil {
		return err // structured ParseError, propagated verbatim
	}

	// Per-load macros from the command line win over document-level
	// substitutions: first definition sticks, later ones do not override.
	merged := map[string]string{}
	if len(cmd.Args) > 1 {
		for name, value := range macro.ParsePairs(cmd.Args[1]) {
			merged[name] = value
		}
	}
	for name, value := range doc.Substitutions {
		if _, defined := merged[name]; !defined {
			merged[name] = value
		}
	}

	mc := in.Macros()
	mc.PushScope()
	defer mc.PopScope()
	mc.Define(merged)

	added := 0
	for _, tmpl := range doc.Records {
		if err := b.addRecord(mc, cmd, tmpl); err != nil {
			return err
		}
		added++
	}
	b.logger.Debug("database loaded",
		"instance", b.instance,
		"file", full,
		"records", added)
	return nil
}

// addRecord expands one record template and registers it. A name collision
// is collected for Seal, keeping the first definition.
func (b *Builder) addRecord(mc *macro.Context, cmd *model.Command, tmpl RecordTemplate) error {
	rawName, err := mc.Expand(tmpl.Name)
	if err != nil {
		return fmt.Errorf("record at %s line %d: %w", cmd.Loc, tmpl.Line, err)
	}
	name := model.CanonicalName(rawName)

	if first, exists := b.records[name]; exists {
		b.collisions = append(b.collisions, Collision{
			Name:      name,
			First:     first.Loc,
			Duplicate: cmd.Loc,
		})
		return nil
	}

	// Provenance keeps the load command's position but the macro state in
	// effect inside the load scope, per-load substitutions included.
	loc := model.NewSourceLocation(cmd.Loc.File, cmd.Loc.Line, mc.Snapshot())

	rec := &model.Record{
		Instance:   b.instance,
		Name:       name,
		Type:       tmpl.Type,
		Fields:     make(map[string]model.Field, len(tmpl.Fields)),
		FieldOrder: make([]string, 0, len(tmpl.Fields)),
		Loc:        loc,
	}
	for _, ft := range tmpl.Fields {
		value, err := mc.Expand(ft.Value)
		if err != nil {
			return fmt.Errorf("field %s of %s: %w", ft.Name, name, err)
		}
		rec.Fields[ft.Name] = model.Field{
			Name:  ft.Name,
			Raw:   ft.Value,
			Value: value,
			Link:  ParseTarget(ft.Name, value),
			Loc:   loc,
		}
		rec.FieldOrder = append(rec.FieldOrder, ft.Name)
	}

	b.records[name] = rec
	b.order = append(b.order, name)
	return nil
}

// Seal finishes the instance. It returns the records in load order, or a
// DuplicateRecordError listing every collision found during the run.
func (b *Builder) Seal() ([]*model.Record, error) {
	if len(b.collisions) > 0 {
		return nil, &DuplicateRecordError{
			Instance:   b.instance,
			Collisions: b.collisions,
		}
	}
	out := make([]*model.Record, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.records[name])
	}
	return out, nil
}

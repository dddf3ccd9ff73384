package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iocscope/iocscope/internal/model"
	"github.com/iocscope/iocscope/internal/query"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Source graphSource
	Kind   string
	Fields bool
}

// RecordView is the structured rendering of one record.
type RecordView struct {
	Instance string      `json:"instance"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	File     string      `json:"file"`
	Line     int         `json:"line"`
	Macros   string      `json:"macros,omitempty"`
	Fields   []FieldView `json:"fields,omitempty"`
}

// FieldView is the structured rendering of one field.
type FieldView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Raw   string `json:"raw,omitempty"`
	Link  string `json:"link,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <pattern>",
		Short: "Find records by name",
		Long: `Find records across the fleet by exact name, prefix, or glob pattern,
with the provenance of every match: which file and line defined it and
under which macro state.

Example:
  iocscope query --fleet fleet.yaml "VAC:01:PRES"
  iocscope query --db scope.db --kind prefix "VAC:" --fields`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().StringVar(&opts.Kind, "kind", "exact", "match kind (exact|prefix|glob)")
	cmd.Flags().BoolVar(&opts.Fields, "fields", false, "show field values")

	return cmd
}

func runQuery(opts *QueryOptions, pattern string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	q, err := buildQuery(opts.Kind, pattern)
	if err != nil {
		formatter.Error(ErrCodeQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad query", err)
	}

	g, err := resolveGraph(cmd.Context(), opts.Source, logger)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return err
	}

	matches, err := g.Search(q)
	if err != nil {
		formatter.Error(ErrCodeQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad query", err)
	}
	if len(matches) == 0 {
		formatter.Error(ErrCodeNotFound, fmt.Sprintf("no records match %q", pattern), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("no records match %q", pattern))
	}

	views := make([]RecordView, 0, len(matches))
	for _, rec := range matches {
		views = append(views, recordView(rec, opts.Fields))
	}
	return outputRecords(formatter, views, opts.Fields)
}

func buildQuery(kind, pattern string) (query.Query, error) {
	var q query.Query
	switch kind {
	case "exact":
		q = query.Exact(pattern)
	case "prefix":
		q = query.Prefix(pattern)
	case "glob":
		q = query.Glob(pattern)
	default:
		return q, fmt.Errorf("invalid kind %q: must be one of [exact prefix glob]", kind)
	}
	return q, q.Validate()
}

func recordView(rec *model.Record, withFields bool) RecordView {
	v := RecordView{
		Instance: rec.Instance,
		Name:     rec.Name,
		Type:     rec.Type,
		File:     rec.Loc.File,
		Line:     rec.Loc.Line,
	}
	if len(rec.Loc.Macros) > 0 {
		v.Macros = rec.Loc.MacroString()
	}
	if !withFields {
		return v
	}
	for _, name := range rec.FieldOrder {
		f := rec.Fields[name]
		fv := FieldView{Name: f.Name, Value: f.Value}
		if f.Raw != f.Value {
			fv.Raw = f.Raw
		}
		if f.Link != nil {
			fv.Link = f.Link.Record + "." + f.Link.Field
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}

func outputRecords(f *OutputFormatter, views []RecordView, withFields bool) error {
	if f.Format == "json" {
		return f.JSON(views)
	}

	for _, v := range views {
		fmt.Fprintf(f.Writer, "%s/%s (%s)\n", v.Instance, v.Name, v.Type)
		fmt.Fprintf(f.Writer, "  defined at %s:%d", v.File, v.Line)
		if v.Macros != "" {
			fmt.Fprintf(f.Writer, " with %s", v.Macros)
		}
		fmt.Fprintln(f.Writer)
		for _, fv := range v.Fields {
			fmt.Fprintf(f.Writer, "  %s = %q", fv.Name, fv.Value)
			if fv.Raw != "" {
				fmt.Fprintf(f.Writer, " (raw %q)", fv.Raw)
			}
			if fv.Link != "" {
				fmt.Fprintf(f.Writer, " -> %s", fv.Link)
			}
			fmt.Fprintln(f.Writer)
		}
	}
	return nil
}

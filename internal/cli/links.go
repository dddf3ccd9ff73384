package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iocscope/iocscope/internal/graph"
	"github.com/iocscope/iocscope/internal/model"
	"github.com/iocscope/iocscope/internal/query"
)

// LinksOptions holds flags for the links command.
type LinksOptions struct {
	*RootOptions
	Source    graphSource
	Depth     int
	Direction string
	Cycles    bool
}

// HopView is the structured rendering of one traversal hop.
type HopView struct {
	Instance string `json:"instance"`
	Name     string `json:"name"`
	Via      string `json:"via,omitempty"`
	Depth    int    `json:"depth"`
}

// LinksReport is the structured result of the links command.
type LinksReport struct {
	Start  string          `json:"start"`
	Hops   []HopView       `json:"hops,omitempty"`
	Cycles []graph.Warning `json:"cycles,omitempty"`
}

// NewLinksCommand creates the links command.
func NewLinksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LinksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "links <instance/record>",
		Short: "Walk the link graph from a record",
		Long: `Walk resolved links outward or inward from a record, up to a bounded
depth. With --cycles, also report any link cycles the record graph
contains.

Example:
  iocscope links --fleet fleet.yaml --depth 2 "vac-01/VAC:01:PRES"
  iocscope links --db scope.db --direction in "vac-01/VAC:01:PRES"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLinks(opts, args[0], cmd)
		},
	}

	addSourceFlags(cmd, &opts.Source)
	cmd.Flags().IntVar(&opts.Depth, "depth", 1, "maximum traversal depth")
	cmd.Flags().StringVar(&opts.Direction, "direction", "out", "traversal direction (out|in)")
	cmd.Flags().BoolVar(&opts.Cycles, "cycles", false, "report link cycles")

	return cmd
}

func runLinks(opts *LinksOptions, start string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	key, err := parseRecordKey(start)
	if err != nil {
		formatter.Error(ErrCodeQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad record key", err)
	}
	dir := query.Outbound
	switch opts.Direction {
	case "out":
	case "in":
		dir = query.Inbound
	default:
		msg := fmt.Sprintf("invalid direction %q: must be one of [out in]", opts.Direction)
		formatter.Error(ErrCodeQuery, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	g, err := resolveGraph(cmd.Context(), opts.Source, logger)
	if err != nil {
		formatter.Error(ErrCodeLoad, err.Error(), nil)
		return err
	}

	hops, err := g.Traverse(query.Traversal{Start: key, Direction: dir, Depth: opts.Depth})
	if err != nil {
		formatter.Error(ErrCodeQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "traverse", err)
	}

	report := LinksReport{Start: key.String()}
	for _, h := range hops {
		report.Hops = append(report.Hops, HopView{
			Instance: h.Record.Instance,
			Name:     h.Record.Name,
			Via:      h.Via.Field,
			Depth:    h.Depth,
		})
	}
	if opts.Cycles {
		report.Cycles = g.AnalyzeCycles()
	}
	return outputLinks(formatter, report)
}

// parseRecordKey splits "instance/record". Record names may themselves
// contain slashes, so only the first separator counts.
func parseRecordKey(s string) (model.RecordKey, error) {
	inst, name, ok := strings.Cut(s, "/")
	if !ok || inst == "" || name == "" {
		return model.RecordKey{}, fmt.Errorf("record key %q: want instance/record", s)
	}
	return model.RecordKey{Instance: inst, Name: name}, nil
}

func outputLinks(f *OutputFormatter, report LinksReport) error {
	if f.Format == "json" {
		return f.JSON(report)
	}

	fmt.Fprintln(f.Writer, report.Start)
	for _, h := range report.Hops {
		indent := strings.Repeat("  ", h.Depth)
		fmt.Fprintf(f.Writer, "%s%s/%s", indent, h.Instance, h.Name)
		if h.Via != "" {
			fmt.Fprintf(f.Writer, " (via %s)", h.Via)
		}
		fmt.Fprintln(f.Writer)
	}
	for _, w := range report.Cycles {
		fmt.Fprintf(f.Writer, "cycle: %s\n", strings.Join(w.Path, " -> "))
	}
	return nil
}

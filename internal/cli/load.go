package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iocscope/iocscope/internal/graph"
	"github.com/iocscope/iocscope/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
	Strict   bool
}

// LoadReport is the structured result of a fleet load.
type LoadReport struct {
	Fingerprint string           `json:"fingerprint"`
	Instances   []InstanceReport `json:"instances"`
	Records     int              `json:"records"`
	Warnings    []graph.Warning  `json:"warnings,omitempty"`
	Unresolved  int              `json:"unresolved"`
	Saved       bool             `json:"saved,omitempty"`
}

// InstanceReport summarizes one instance's load.
type InstanceReport struct {
	ID      string `json:"id"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <fleet.yaml | st.cmd>",
		Short: "Interpret a fleet and report its record graph",
		Long: `Interpret every instance of a fleet config, aggregate the records
into a cross-reference graph, and report what was loaded. A startup
script given directly is loaded as a one-instance fleet.

With --db the graph is cached as a snapshot keyed by the fingerprint of
every input file; unchanged fleets reuse the snapshot on later queries.

Example:
  iocscope load fleet.yaml
  iocscope load ioc/st.cmd
  iocscope load fleet.yaml --db scope.db --strict`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "snapshot database to write")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on undefined macros")

	return cmd
}

func runLoad(opts *LoadOptions, fleetPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	out, err := loadFleet(cmd.Context(), fleetPath, opts.Strict, logger)
	if err != nil {
		formatter.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}

	report := LoadReport{
		Fingerprint: out.Fingerprint,
		Warnings:    out.Graph.Warnings(),
		Unresolved:  len(out.Graph.Unresolved()),
	}
	report.Warnings = append(report.Warnings, out.Graph.AnalyzeCycles()...)
	for _, r := range out.Results {
		ir := InstanceReport{ID: r.ID, Records: len(r.Records)}
		if r.Err != nil {
			ir.Error = r.Err.Error()
		}
		report.Instances = append(report.Instances, ir)
		report.Records += ir.Records
	}

	if opts.Database != "" && out.Failed == 0 {
		st, err := store.Open(opts.Database)
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "open snapshot database", err)
		}
		defer st.Close()
		if err := st.SaveGraph(cmd.Context(), out.Fingerprint, out.Graph); err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "save snapshot", err)
		}
		report.Saved = true
	}

	if err := outputLoadReport(formatter, report); err != nil {
		return err
	}
	if out.Failed > 0 {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d instance(s) failed to load", out.Failed))
	}
	return nil
}

func outputLoadReport(f *OutputFormatter, report LoadReport) error {
	if f.Format == "json" {
		return f.JSON(report)
	}

	fmt.Fprintf(f.Writer, "fingerprint: %s\n", report.Fingerprint)
	for _, ir := range report.Instances {
		if ir.Error != "" {
			fmt.Fprintf(f.Writer, "  %s: FAILED: %s\n", ir.ID, ir.Error)
			continue
		}
		fmt.Fprintf(f.Writer, "  %s: %d record(s)\n", ir.ID, ir.Records)
	}
	fmt.Fprintf(f.Writer, "%d record(s), %d unresolved link(s)\n",
		report.Records, report.Unresolved)
	for _, w := range report.Warnings {
		switch w.Code {
		case graph.WarnAmbiguousTarget:
			fmt.Fprintf(f.Writer, "warning: %s %s.%s -> %q matches instances %v (picked %s)\n",
				w.Code, w.Source, w.Field, w.TargetName, w.Candidates, w.Candidates[0])
		case graph.WarnLinkCycle:
			fmt.Fprintf(f.Writer, "warning: %s %v\n", w.Code, w.Path)
		default:
			fmt.Fprintf(f.Writer, "warning: %s\n", w.Code)
		}
	}
	if report.Saved {
		fmt.Fprintln(f.Writer, "snapshot saved")
	}
	return nil
}

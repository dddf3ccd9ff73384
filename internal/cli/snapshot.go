package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iocscope/iocscope/internal/store"
)

// SnapshotOptions holds flags for the snapshot subcommands.
type SnapshotOptions struct {
	*RootOptions
	Database    string
	Fingerprint string
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect cached graph snapshots",
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "snapshot database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List cached snapshots, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotList(opts, cmd)
		},
	}

	unresolved := &cobra.Command{
		Use:           "unresolved",
		Short:         "Show a snapshot's unresolved links",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotUnresolved(opts, cmd)
		},
	}
	unresolved.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "snapshot fingerprint (default: newest)")

	cmd.AddCommand(list)
	cmd.AddCommand(unresolved)
	return cmd
}

func runSnapshotList(opts *SnapshotOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open snapshot database", err)
	}
	defer st.Close()

	snaps, err := st.ListSnapshots(cmd.Context())
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list snapshots", err)
	}

	if formatter.Format == "json" {
		return formatter.JSON(snaps)
	}
	if len(snaps) == 0 {
		fmt.Fprintln(formatter.Writer, "no snapshots")
		return nil
	}
	for _, s := range snaps {
		fmt.Fprintf(formatter.Writer, "%s  %s  %d record(s)\n",
			s.Fingerprint, s.CreatedAt, s.Records)
	}
	return nil
}

func runSnapshotUnresolved(opts *SnapshotOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open snapshot database", err)
	}
	defer st.Close()

	fp := opts.Fingerprint
	if fp == "" {
		snaps, err := st.ListSnapshots(cmd.Context())
		if err != nil {
			formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "list snapshots", err)
		}
		if len(snaps) == 0 {
			formatter.Error(ErrCodeNotFound, "snapshot database is empty", nil)
			return NewExitError(ExitCommandError, "snapshot database is empty")
		}
		fp = snaps[0].Fingerprint
	}

	edges, err := st.UnresolvedLinks(cmd.Context(), fp)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read unresolved links", err)
	}

	if formatter.Format == "json" {
		return formatter.JSON(edges)
	}
	if len(edges) == 0 {
		fmt.Fprintln(formatter.Writer, "no unresolved links")
		return nil
	}
	for _, e := range edges {
		fmt.Fprintf(formatter.Writer, "%s.%s -> %q\n", e.Source, e.Field, e.TargetName)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iocscope/iocscope/internal/builder"
	"github.com/iocscope/iocscope/internal/dbfile"
	"github.com/iocscope/iocscope/internal/fleet"
	"github.com/iocscope/iocscope/internal/graph"
	"github.com/iocscope/iocscope/internal/interp"
	"github.com/iocscope/iocscope/internal/macro"
	"github.com/iocscope/iocscope/internal/store"
)

// graphSource holds the flags shared by commands that need a graph: either
// a fleet config to interpret live, or a snapshot database to read back.
type graphSource struct {
	Fleet       string
	Database    string
	Fingerprint string
	Strict      bool
}

// loadOutcome is a live fleet load plus everything needed to report on it.
type loadOutcome struct {
	Graph       *graph.Graph
	Results     []fleet.Result
	Fingerprint string
	Failed      int
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadFleet interprets every instance named by path and fingerprints the
// inputs that shaped the graph. A .yaml/.yml path is a fleet config; any
// other path is taken as a single startup script and wrapped into a
// one-instance fleet named after the script.
func loadFleet(ctx context.Context, path string, strict bool, logger *slog.Logger) (*loadOutcome, error) {
	cfg, err := fleetConfig(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load fleet config", err)
	}

	parsers := builder.NewParserRegistry()
	dbfile.Register(parsers)
	loader := fleet.NewLoader(fleet.LoaderOptions{
		Files:   interp.OSFiles(),
		Parsers: parsers,
		Macros:  macro.Options{Strict: strict, Logger: logger},
		Logger:  logger,
	})

	g := graph.New()
	results, err := loader.LoadAll(ctx, cfg, g)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load fleet", err)
	}

	fp, err := store.Fingerprint(loader.InputPaths(), os.ReadFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "fingerprint inputs", err)
	}

	out := &loadOutcome{Graph: g, Results: results, Fingerprint: fp}
	for _, r := range results {
		if r.Err != nil {
			out.Failed++
		}
	}
	return out, nil
}

func fleetConfig(path string) (*fleet.Config, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return fleet.LoadConfig(path)
	default:
		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return &fleet.Config{
			Name: id,
			Instances: []fleet.InstanceConfig{{
				ID:      id,
				Script:  filepath.Base(path),
				WorkDir: filepath.Dir(path),
			}},
		}, nil
	}
}

// resolveGraph produces a graph from whichever source the flags name.
func resolveGraph(ctx context.Context, src graphSource, logger *slog.Logger) (*graph.Graph, error) {
	switch {
	case src.Fleet != "" && src.Database != "":
		return nil, NewExitError(ExitCommandError, "--fleet and --db are mutually exclusive")
	case src.Fleet != "":
		out, err := loadFleet(ctx, src.Fleet, src.Strict, logger)
		if err != nil {
			return nil, err
		}
		if out.Failed > 0 {
			return nil, NewExitError(ExitFailure,
				fmt.Sprintf("%d instance(s) failed to load", out.Failed))
		}
		return out.Graph, nil
	case src.Database != "":
		return snapshotGraph(ctx, src.Database, src.Fingerprint)
	default:
		return nil, NewExitError(ExitCommandError, "one of --fleet or --db is required")
	}
}

// snapshotGraph reads a graph back from the snapshot database. An empty
// fingerprint selects the newest snapshot.
func snapshotGraph(ctx context.Context, dbPath, fingerprint string) (*graph.Graph, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open snapshot database", err)
	}
	defer st.Close()

	if fingerprint == "" {
		snaps, err := st.ListSnapshots(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "list snapshots", err)
		}
		if len(snaps) == 0 {
			return nil, NewExitError(ExitCommandError, "snapshot database is empty")
		}
		fingerprint = snaps[0].Fingerprint
	}

	g, ok, err := st.LoadGraph(ctx, fingerprint)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load snapshot", err)
	}
	if !ok {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("no snapshot with fingerprint %s", fingerprint))
	}
	return g, nil
}

// addSourceFlags registers the shared graph-source flags on a command.
func addSourceFlags(cmd *cobra.Command, src *graphSource) {
	cmd.Flags().StringVar(&src.Fleet, "fleet", "", "fleet config to interpret")
	cmd.Flags().StringVar(&src.Database, "db", "", "snapshot database to read")
	cmd.Flags().StringVar(&src.Fingerprint, "fingerprint", "", "snapshot fingerprint (default: newest)")
	cmd.Flags().BoolVar(&src.Strict, "strict", false, "fail on undefined macros")
}

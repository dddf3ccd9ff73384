package fleet

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/iocscope/iocscope/internal/builder"
	"github.com/iocscope/iocscope/internal/graph"
	"github.com/iocscope/iocscope/internal/interp"
	"github.com/iocscope/iocscope/internal/macro"
	"github.com/iocscope/iocscope/internal/model"
)

// Result is the outcome of interpreting one instance. A failed instance
// carries its error here; it never blocks the rest of the fleet.
type Result struct {
	ID       string
	Instance *model.Instance
	Records  []*model.Record
	Err      error
}

// LoaderOptions configures a fleet load.
type LoaderOptions struct {
	// Files resolves script and database reads for every instance.
	// Defaults to the OS filesystem.
	Files interp.FileResolver

	// Parsers maps dialects to document parsers. Required.
	Parsers *builder.ParserRegistry

	// Macros configures each instance's macro context.
	Macros macro.Options

	// Workers bounds the number of instances interpreted concurrently.
	// Defaults to 4. Interpretation of a single script is always
	// sequential; only distinct instances run in parallel.
	Workers int

	// Logger receives load diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Loader interprets every instance of a fleet and inserts the survivors
// into a graph. Instances share no mutable state during interpretation;
// the graph serializes insertion internally.
type Loader struct {
	opts  LoaderOptions
	files *recordingResolver
}

// NewLoader creates a Loader.
func NewLoader(opts LoaderOptions) *Loader {
	if opts.Files == nil {
		opts.Files = interp.OSFiles()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{
		opts:  opts,
		files: &recordingResolver{inner: opts.Files, seen: map[string]bool{}},
	}
}

// LoadAll interprets every configured instance, inserts each successful one
// into g, and resolves links once at the end. Results come back in config
// order. The returned error is only a context cancellation; per-instance
// failures live in their Result.
func (l *Loader) LoadAll(ctx context.Context, cfg *Config, g *graph.Graph) ([]Result, error) {
	results := make([]Result, len(cfg.Instances))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(l.opts.Workers)
	for i, ic := range cfg.Instances {
		i, ic := i, ic
		eg.Go(func() error {
			// A caller may cancel between instances, never mid-script.
			if err := ctx.Err(); err != nil {
				results[i] = Result{ID: ic.ID, Err: err}
				return err
			}
			results[i] = l.loadOne(ic)
			if results[i].Err == nil {
				if err := g.AddInstance(ic.ID, results[i].Records); err != nil {
					results[i].Err = err
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, err
	}

	g.ResolveLinks()
	for _, r := range results {
		if r.Err != nil {
			l.opts.Logger.Warn("instance failed",
				"instance", r.ID,
				"err", r.Err)
		}
	}
	return results, nil
}

// loadOne interprets a single instance to completion.
func (l *Loader) loadOne(ic InstanceConfig) Result {
	in := interp.New(interp.Options{
		InstanceID:    ic.ID,
		WorkDir:       ic.WorkDir,
		Files:         l.files,
		Macros:        l.opts.Macros,
		InitialMacros: ic.Macros,
		Logger:        l.opts.Logger,
	})
	b := builder.New(builder.Options{
		Parsers: l.opts.Parsers,
		Logger:  l.opts.Logger,
	})
	b.Attach(in)

	inst, err := in.Run(ic.Script)
	if err != nil {
		return Result{ID: ic.ID, Err: err}
	}
	records, err := b.Seal()
	if err != nil {
		return Result{ID: ic.ID, Instance: inst, Err: err}
	}
	return Result{ID: ic.ID, Instance: inst, Records: records}
}

// InputPaths returns every file read during LoadAll, sorted. Feeds the
// snapshot fingerprint: the set of inputs that actually shaped the graph.
func (l *Loader) InputPaths() []string {
	return l.files.paths()
}

// recordingResolver wraps a FileResolver and remembers every path read.
type recordingResolver struct {
	inner interp.FileResolver
	mu    sync.Mutex
	seen  map[string]bool
}

func (r *recordingResolver) ReadFile(path string) ([]byte, error) {
	data, err := r.inner.ReadFile(path)
	if err == nil {
		r.mu.Lock()
		r.seen[path] = true
		r.mu.Unlock()
	}
	return data, err
}

func (r *recordingResolver) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.seen))
	for p := range r.seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

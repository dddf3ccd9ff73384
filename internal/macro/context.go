package macro

import (
	"io"
	"log/slog"
)

// entry is one macro definition inside a frame.
type entry struct {
	raw      string
	expanded string
	cached   bool
	depth    int // index of the frame that owns this entry
}

// frame maps macro name to its definition within one scope.
type frame map[string]*entry

// Options configures a Context.
type Options struct {
	// Strict makes Expand return an error instead of degrading to
	// literal text when a name is undefined or cyclic.
	Strict bool

	// SuppressWarnings disables the slog warning emitted for each
	// undefined-name expansion. Diagnostics are still collected.
	SuppressWarnings bool

	// Logger receives expansion warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// Context is the scoped macro store. It is not safe for concurrent use;
// each interpretation run owns exactly one Context.
type Context struct {
	frames []frame
	opts   Options
	logger *slog.Logger
	errs   []*ExpansionError
}

// New creates a Context with default (forgiving) options and a single root
// scope.
func New() *Context {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a Context with explicit options.
func NewWithOptions(opts Options) *Context {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		frames: []frame{{}},
		opts:   opts,
		logger: logger,
	}
}

// Discard returns a logger suitable for Options.Logger in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Define installs name → raw-value pairs into the innermost scope.
// Redefining a name in the same scope replaces it and drops its cached
// expansion. Define never fails.
func (c *Context) Define(pairs map[string]string) {
	top := c.frames[len(c.frames)-1]
	depth := len(c.frames) - 1
	for name, raw := range pairs {
		top[name] = &entry{raw: raw, depth: depth}
	}
}

// DefineOne installs a single name → raw-value pair into the innermost
// scope.
func (c *Context) DefineOne(name, raw string) {
	top := c.frames[len(c.frames)-1]
	top[name] = &entry{raw: raw, depth: len(c.frames) - 1}
}

// PushScope enters a nested macro scope. Names defined after the push
// shadow outer definitions until PopScope.
func (c *Context) PushScope() {
	c.frames = append(c.frames, frame{})
}

// PopScope leaves the innermost scope, dropping its definitions and their
// cached expansions. Popping the root scope is a programming error and
// panics rather than silently dropping global state.
func (c *Context) PopScope() {
	if len(c.frames) == 1 {
		panic("macro: PopScope on root scope")
	}
	c.frames = c.frames[:len(c.frames)-1]
}

// Depth returns the number of active scopes. The root scope counts as 1.
func (c *Context) Depth() int {
	return len(c.frames)
}

// Lookup resolves a single name through the scope chain and returns its
// expanded value. The boolean is false if the name is undefined.
func (c *Context) Lookup(name string) (string, bool) {
	e := c.lookup(name, len(c.frames)-1)
	if e == nil {
		return "", false
	}
	value, _ := c.resolve(name, len(c.frames)-1, map[string]bool{})
	return value, true
}

// Snapshot returns an immutable name → expanded-value mapping for the
// current scope chain, innermost definitions shadowing outer ones. Used to
// stamp source locations.
func (c *Context) Snapshot() map[string]string {
	snap := make(map[string]string)
	for depth, f := range c.frames {
		for name := range f {
			value, _ := c.resolve(name, depth, map[string]bool{})
			snap[name] = value
		}
	}
	return snap
}

// Errors returns every expansion diagnostic collected so far, in order of
// occurrence.
func (c *Context) Errors() []*ExpansionError {
	return c.errs
}

// lookup searches for name from frame index fromDepth outward to the root.
func (c *Context) lookup(name string, fromDepth int) *entry {
	for d := fromDepth; d >= 0; d-- {
		if e, ok := c.frames[d][name]; ok {
			return e
		}
	}
	return nil
}

// record stores a diagnostic and emits the configured warning.
func (c *Context) record(err *ExpansionError) {
	c.errs = append(c.errs, err)
	if !c.opts.SuppressWarnings {
		c.logger.Warn("macro expansion",
			"code", string(err.Code),
			"name", err.Name,
			"text", err.Text)
	}
}

package interp

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iocscope/iocscope/internal/macro"
	"github.com/iocscope/iocscope/internal/model"
)

// State is the interpreter lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateFinished State = "finished"
)

// FileResolver reads script and database files. The default implementation
// reads from the OS filesystem; tests substitute an in-memory tree.
type FileResolver interface {
	ReadFile(path string) ([]byte, error)
}

type osFiles struct{}

func (osFiles) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// OSFiles returns a FileResolver backed by the OS filesystem.
func OSFiles() FileResolver { return osFiles{} }

// Options configures one interpretation run.
type Options struct {
	// InstanceID names the instance this run produces. Required.
	InstanceID string

	// WorkDir is the initial working directory relative script paths
	// resolve against. Defaults to ".".
	WorkDir string

	// Files resolves script and database reads. Defaults to the OS
	// filesystem.
	Files FileResolver

	// Macros configures the run's macro context.
	Macros macro.Options

	// InitialMacros seeds the root scope before the script runs.
	InitialMacros map[string]string

	// Logger receives run diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Interp interprets one startup script to completion. An Interp is
// single-use and single-threaded: script order encodes side-effecting macro
// state, so lines execute strictly sequentially.
type Interp struct {
	opts     Options
	logger   *slog.Logger
	registry *Registry

	state     State
	macros    *macro.Context
	workDir   string
	commands  []model.Command
	stack     []string // active script paths, for cyclic-inclusion detection
	observers []Observer
}

// New creates an interpreter in the Idle state with the builtin handlers
// registered.
func New(opts Options) *Interp {
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.Files == nil {
		opts.Files = OSFiles()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Macros.Logger == nil {
		opts.Macros.Logger = logger
	}

	in := &Interp{
		opts:     opts,
		logger:   logger,
		registry: NewRegistry(),
		state:    StateIdle,
		macros:   macro.NewWithOptions(opts.Macros),
		workDir:  opts.WorkDir,
	}
	if len(opts.InitialMacros) > 0 {
		in.macros.Define(opts.InitialMacros)
	}
	registerBuiltins(in.registry)
	return in
}

// Register installs a handler for a command name.
func (in *Interp) Register(name string, h HandlerFunc) {
	in.registry.Register(name, h)
}

// Observe adds an observer that receives every executed command.
func (in *Interp) Observe(o Observer) {
	in.observers = append(in.observers, o)
}

// Macros exposes the run's macro context to handlers.
func (in *Interp) Macros() *macro.Context { return in.macros }

// Files exposes the run's file resolver to handlers that load documents.
func (in *Interp) Files() FileResolver { return in.opts.Files }

// InstanceID returns the id of the instance this run produces.
func (in *Interp) InstanceID() string { return in.opts.InstanceID }

// WorkDir returns the current working directory of the run.
func (in *Interp) WorkDir() string { return in.workDir }

// State returns the lifecycle state.
func (in *Interp) State() State { return in.state }

// ResolvePath resolves a script-relative path against the current working
// directory.
func (in *Interp) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(in.workDir, path))
}

// Run interprets the given startup script and returns the completed
// instance. An Interp runs exactly once; calling Run again is an error.
//
// Syntax and cyclic-inclusion errors abort the run and are returned as
// *ScriptError with the failing line's SourceLocation. Handler failures
// other than *ScriptError are logged and skipped.
func (in *Interp) Run(script string) (*model.Instance, error) {
	if in.state != StateIdle {
		return nil, fmt.Errorf("interp: Run called on %s interpreter", in.state)
	}
	in.state = StateRunning
	in.logger.Info("interpreting startup script",
		"instance", in.opts.InstanceID,
		"script", script)

	err := in.runFile(script)
	in.state = StateFinished
	if err != nil {
		return nil, err
	}

	inst := &model.Instance{
		ID:          in.opts.InstanceID,
		RunToken:    uuid.NewString(),
		WorkDir:     in.workDir,
		Commands:    in.commands,
		FinalMacros: in.macros.Snapshot(),
	}
	in.logger.Info("startup script interpreted",
		"instance", inst.ID,
		"commands", len(inst.Commands))
	return inst, nil
}

// runFile interprets one script file, nested or top-level.
func (in *Interp) runFile(path string) error {
	full := in.ResolvePath(path)
	for _, active := range in.stack {
		if active == full {
			return &ScriptError{
				Code: ErrCodeCyclicInclusion,
				Message: fmt.Sprintf("script %s is already being interpreted (stack: %s)",
					full, strings.Join(in.stack, " -> ")),
			}
		}
	}

	data, err := in.opts.Files.ReadFile(full)
	if err != nil {
		return fmt.Errorf("interp: read script %s: %w", full, err)
	}

	in.stack = append(in.stack, full)
	defer func() { in.stack = in.stack[:len(in.stack)-1] }()

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if err := in.execLine(full, i+1, line); err != nil {
			return err
		}
	}
	return nil
}

// execLine tokenizes, expands and dispatches one line.
func (in *Interp) execLine(file string, lineno int, raw string) error {
	tokens, err := splitLine(raw)
	if err != nil {
		return &ScriptError{
			Code:    ErrCodeSyntax,
			Message: err.Error(),
			Loc:     model.NewSourceLocation(file, lineno, in.macros.Snapshot()),
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	expanded := make([]string, len(tokens))
	for i, tok := range tokens {
		out, err := in.macros.Expand(tok)
		if err != nil {
			// Only strict mode surfaces expansion errors; they abort the run.
			return fmt.Errorf("interp: %s:%d: %w", file, lineno, err)
		}
		expanded[i] = out
	}

	cmd := model.Command{
		Name: expanded[0],
		Args: expanded[1:],
		Raw:  strings.TrimSpace(raw),
		Loc:  model.NewSourceLocation(file, lineno, in.macros.Snapshot()),
	}

	switch {
	case isAssignment(cmd.Name) && len(cmd.Args) == 0:
		name, value, _ := strings.Cut(cmd.Name, "=")
		in.macros.DefineOne(name, value)
		cmd.Handled = true
	default:
		if h := in.registry.Lookup(cmd.Name); h != nil {
			cmd.Handled = true
			if err := h(in, &cmd); err != nil {
				var se *ScriptError
				if errors.As(err, &se) {
					if se.Loc.IsZero() {
						se.Loc = cmd.Loc
					}
					return se
				}
				// One bad load command must not hide the rest of the
				// configuration.
				in.logger.Error("command failed, continuing",
					"loc", cmd.Loc.String(),
					"command", cmd.Name,
					"err", err)
			}
		} else {
			in.logger.Debug("unhandled command",
				"loc", cmd.Loc.String(),
				"command", cmd.Name)
		}
	}

	in.commands = append(in.commands, cmd)
	for _, o := range in.observers {
		o.ObserveCommand(&cmd)
	}
	return nil
}

// isAssignment reports whether a token is the NAME=value assignment form.
func isAssignment(tok string) bool {
	eq := strings.IndexByte(tok, '=')
	if eq <= 0 {
		return false
	}
	for i := 0; i < eq; i++ {
		ch := tok[i]
		if ch != '_' && !(ch >= 'a' && ch <= 'z') && !(ch >= 'A' && ch <= 'Z') &&
			!(ch >= '0' && ch <= '9') {
			return false
		}
	}
	return true
}

package interp

import (
	"github.com/iocscope/iocscope/internal/model"
)

// HandlerFunc executes one dispatched command. The interpreter is passed in
// so handlers can reach the macro context, working directory and nested
// sourcing.
//
// A returned *ScriptError aborts the run. Any other error is logged,
// recorded on the command, and the run continues: one failing load command
// must not hide the rest of the configuration.
type HandlerFunc func(in *Interp, cmd *model.Command) error

// Registry maps command names to handlers. Commands with no handler are
// recorded as unhandled and skipped.
type Registry struct {
	handlers map[string]HandlerFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register installs a handler for a command name, replacing any previous
// handler for the same name.
func (r *Registry) Register(name string, h HandlerFunc) {
	r.handlers[name] = h
}

// Lookup returns the handler for name, or nil.
func (r *Registry) Lookup(name string) HandlerFunc {
	return r.handlers[name]
}

// Observer receives one event per executed line, in execution order. The
// record model builder is one observer; logging or tracing collaborators
// may be others.
type Observer interface {
	// ObserveCommand is called after the command executed (or was recorded
	// as unhandled). The command carries its SourceLocation and the
	// already-expanded arguments.
	ObserveCommand(cmd *model.Command)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(cmd *model.Command)

// ObserveCommand implements Observer.
func (f ObserverFunc) ObserveCommand(cmd *model.Command) { f(cmd) }

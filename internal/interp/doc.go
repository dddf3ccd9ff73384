// Package interp implements the startup-script interpreter.
//
// The interpreter is a line-oriented state machine (Idle → Running →
// Finished) over one script plus any scripts it sources. Per line it strips
// comments, tokenizes respecting quoting and the call form
// `name("arg", "arg")`, macro-expands every token, and dispatches on the
// command name through a handler registry.
//
// Only a small command subset is built in: macro/environment assignment,
// nested sourcing (with a macro scope pushed around the nested run), and
// `cd`. Everything else is either claimed by a registered handler (the
// record model builder registers the database-load commands) or recorded as
// unhandled and skipped; unknown commands never abort a run.
//
// Nested sourcing threads an active-script stack through the run. A script
// that sources itself, directly or transitively, fails the run with a
// cyclic-inclusion error instead of recursing.
//
// Every executed command is stamped with a SourceLocation (file, line,
// macro snapshot) and forwarded to registered observers in execution order.
// The run's output is a model.Instance.
package interp

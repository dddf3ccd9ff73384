package model

// Command is one executed startup-script line: the command name and its
// arguments after macro expansion, stamped with the location it ran at.
//
// Commands are transient during dispatch but the interpreter retains the
// full ordered list on the Instance for provenance queries.
type Command struct {
	// Name is the first token of the line (the dispatch key).
	Name string `json:"name"`

	// Args are the remaining tokens, already macro-expanded.
	Args []string `json:"args,omitempty"`

	// Raw is the original line text before expansion, kept for display.
	Raw string `json:"raw"`

	// Handled reports whether a registered handler consumed the command.
	// Unrecognized commands are recorded with Handled=false and skipped.
	Handled bool `json:"handled"`

	// Loc is where the command executed.
	Loc SourceLocation `json:"loc"`
}

package model

// Instance is one interpreted startup-script run: its identifier, working
// directory, every command executed in order, and the final macro state.
//
// An Instance is created when interpretation begins and is immutable after
// the run finishes. The run that invoked the interpreter owns it until it
// is handed to the cross-reference graph, which then owns it read-only.
type Instance struct {
	// ID is the caller-chosen instance identifier (e.g. "ioc-vacuum-01").
	// Link-resolution tie-breaks compare IDs by byte order, so stable
	// naming gives stable resolution.
	ID string `json:"id"`

	// RunToken uniquely identifies this interpretation run (UUID). Two
	// loads of the same instance get distinct tokens.
	RunToken string `json:"run_token"`

	// WorkDir is the directory relative paths in the script resolve
	// against. Nested `cd` commands update it during the run; this is
	// the final value.
	WorkDir string `json:"work_dir"`

	// Commands is the ordered list of executed commands, including
	// unhandled ones.
	Commands []Command `json:"commands"`

	// FinalMacros is the root-scope macro snapshot after the run.
	FinalMacros map[string]string `json:"final_macros,omitempty"`
}

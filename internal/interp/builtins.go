package interp

import (
	"fmt"

	"github.com/iocscope/iocscope/internal/macro"
	"github.com/iocscope/iocscope/internal/model"
)

// registerBuiltins installs the command subset the interpreter understands
// itself: environment/macro assignment, nested sourcing and cd. Everything
// else belongs to registered collaborators or is recorded as unhandled.
func registerBuiltins(r *Registry) {
	r.Register("epicsEnvSet", handleEnvSet)
	r.Register("putenv", handlePutenv)
	r.Register("<", handleSource)
	r.Register("iocshLoad", handleLoadScript)
	r.Register("cd", handleCd)
}

// handleEnvSet installs a macro into the current scope: epicsEnvSet("P", "IOC:A").
func handleEnvSet(in *Interp, cmd *model.Command) error {
	if len(cmd.Args) < 2 {
		return fmt.Errorf("epicsEnvSet: want 2 args, got %d", len(cmd.Args))
	}
	in.macros.DefineOne(cmd.Args[0], cmd.Args[1])
	return nil
}

// handlePutenv installs a macro from the putenv "NAME=value" form.
func handlePutenv(in *Interp, cmd *model.Command) error {
	if len(cmd.Args) < 1 {
		return fmt.Errorf("putenv: want 1 arg")
	}
	pairs := macro.ParsePairs(cmd.Args[0])
	if len(pairs) == 0 {
		return fmt.Errorf("putenv: %q is not NAME=value", cmd.Args[0])
	}
	in.macros.Define(pairs)
	return nil
}

// handleSource interprets another script in a nested macro scope: < st2.cmd
func handleSource(in *Interp, cmd *model.Command) error {
	if len(cmd.Args) < 1 {
		return fmt.Errorf("<: want a script path")
	}
	return in.sourceScript(cmd.Args[0], "")
}

// handleLoadScript interprets another script with per-load macros:
// iocshLoad("common.cmd", "P=IOC:A,R=1")
func handleLoadScript(in *Interp, cmd *model.Command) error {
	if len(cmd.Args) < 1 {
		return fmt.Errorf("iocshLoad: want a script path")
	}
	macros := ""
	if len(cmd.Args) > 1 {
		macros = cmd.Args[1]
	}
	return in.sourceScript(cmd.Args[0], macros)
}

// handleCd changes the working directory relative paths resolve against.
func handleCd(in *Interp, cmd *model.Command) error {
	if len(cmd.Args) < 1 {
		return fmt.Errorf("cd: want a directory")
	}
	in.workDir = in.ResolvePath(cmd.Args[0])
	return nil
}

// sourceScript runs a nested script inside a pushed macro scope. The scope
// pops on return whether or not the nested run failed.
func (in *Interp) sourceScript(path, macroArg string) error {
	in.macros.PushScope()
	defer in.macros.PopScope()

	if macroArg != "" {
		in.macros.Define(macro.ParsePairs(macroArg))
	}
	return in.runFile(path)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iocscope/iocscope/internal/fleet"
)

// ValidationResult holds the outcome of a fleet config validation.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Instances int    `json:"instances,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <fleet.yaml>",
		Short: "Validate a fleet config without loading it",
		Long: `Check a fleet config against the schema: required fields, types, and
unique instance ids. No script is interpreted and no file besides the
config is read.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := fleet.LoadConfig(path)
	if err != nil {
		if formatter.Format == "json" {
			formatter.JSON(ValidationResult{Valid: false, Error: err.Error()})
		} else {
			formatter.Error(ErrCodeConfig, err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "invalid fleet config", err)
	}

	result := ValidationResult{Valid: true, Instances: len(cfg.Instances)}
	if formatter.Format == "json" {
		return formatter.JSON(result)
	}
	fmt.Fprintf(formatter.Writer, "valid: %d instance(s)\n", result.Instances)
	return nil
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Entities []string `json:"entities,omitempty"`
	Files    int      `json:"files,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schemas-dir>",
		Short: "Validate entity schemas without syncing",
		Long: `Validate CUE entity schemas without touching the store or the remote API.

Performs syntax checking, field type validation and cross-entity reference
checks. Faster feedback than a full sync during schema development.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, schemasDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result, err := LoadSchemas(schemasDir)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitFailure, loadErr.Error())
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, schemasDir)

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:    true,
			Entities: result.Registry.Names(),
			Files:    result.FileCount,
		})
	}

	fmt.Fprintln(formatter.Writer, "✓ All schemas valid")
	for _, name := range result.Registry.Names() {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}

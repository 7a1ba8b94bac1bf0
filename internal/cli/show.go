package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/okgraph/okgraph/internal/record"
	"github.com/okgraph/okgraph/internal/store"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "show <entity>",
		Short:         "List synced records of an entity type",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, dbPath, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "okgraph.db", "path to the SQLite database")

	return cmd
}

func runShow(rootOpts *RootOptions, dbPath, entity string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	s, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening store", err)
	}
	defer s.Close()

	records, err := s.List(cmd.Context(), entity)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "listing records", err)
	}

	return outputRecords(formatter, entity, records)
}

// sortedFieldKeys returns an instance's field names in stable order for text
// output.
func sortedFieldKeys(inst *record.Instance) []string {
	keys := make([]string, 0, len(inst.Fields))
	for key := range inst.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

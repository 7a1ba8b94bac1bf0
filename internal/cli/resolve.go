package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okgraph/okgraph/internal/store"
	"github.com/okgraph/okgraph/internal/sync"
	"github.com/okgraph/okgraph/internal/transport"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		configPath string
		dbPath     string
		fixture    string
	)

	cmd := &cobra.Command{
		Use:   "resolve <schemas-dir> <entity> <url>",
		Short: "Resolve a profile URL to a synced record",
		Long: `Resolve a profile URL to a local record. Numeric slugs resolve locally;
vanity URLs need a fixture carrying a url.getInfo response.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd, configPath, &dbPath, &fixture); err != nil {
				return WrapExitError(ExitCommandError, "loading config", err)
			}
			return runResolve(rootOpts, dbPath, fixture, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file with db and fixture defaults")
	cmd.Flags().StringVar(&dbPath, "db", "okgraph.db", "path to the SQLite database")
	cmd.Flags().StringVar(&fixture, "fixture", "", "YAML replay fixture for url.getInfo lookups")

	return cmd
}

func runResolve(rootOpts *RootOptions, dbPath, fixture, schemasDir, entity, rawURL string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	loaded, err := LoadSchemas(schemasDir)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading schemas", err)
	}

	var tr transport.Transport = unavailableTransport{}
	if fixture != "" {
		replay, err := transport.LoadReplay(fixture)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "loading fixture", err)
		}
		tr = replay
	}

	s, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening store", err)
	}
	defer s.Close()

	manager, err := sync.NewManager(sync.Config{
		Entity:    entity,
		Registry:  loaded.Registry,
		Transport: tr,
		Store:     s,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "building sync manager", err)
	}

	inst, err := manager.GetByURL(cmd.Context(), rawURL)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "resolving URL", err)
	}
	if inst == nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("URL does not resolve to a %s", entity), nil)
		return NewExitError(ExitFailure, "URL did not resolve")
	}

	if formatter.Format == "json" {
		return formatter.Success(RecordSummary{
			StorageID: inst.StorageID,
			Entity:    inst.Entity,
			Fields:    inst.Fields,
		})
	}

	if inst.StorageID == "" {
		fmt.Fprintf(formatter.Writer, "%s (not synced yet)\n", inst.Entity)
	} else {
		fmt.Fprintf(formatter.Writer, "%s %s\n", inst.Entity, inst.StorageID)
	}
	for _, key := range sortedFieldKeys(inst) {
		fmt.Fprintf(formatter.Writer, "  %s: %v\n", key, inst.Fields[key])
	}
	return nil
}

// unavailableTransport fails every call. Used when no fixture is configured;
// numeric-slug resolution never needs the remote, vanity URLs do.
type unavailableTransport struct{}

func (unavailableTransport) Invoke(_ context.Context, method string, _ map[string]string) (any, error) {
	return nil, fmt.Errorf("no fixture configured, cannot call %s", method)
}

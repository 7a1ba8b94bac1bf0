package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okgraph/okgraph/internal/record"
	"github.com/okgraph/okgraph/internal/store"
	"github.com/okgraph/okgraph/internal/sync"
	"github.com/okgraph/okgraph/internal/transport"
)

// SyncOptions holds the sync command flags.
type SyncOptions struct {
	Config   string
	DB       string
	Fixture  string
	Method   string
	Params   []string
	After    string
	Before   string
	Timeline bool
}

// SyncResult is the JSON payload of a successful sync.
type SyncResult struct {
	Entity  string          `json:"entity"`
	Count   int             `json:"count"`
	Records []RecordSummary `json:"records"`
}

// RecordSummary is the output form of one persisted record.
type RecordSummary struct {
	StorageID string         `json:"storage_id"`
	Entity    string         `json:"entity"`
	Fields    map[string]any `json:"fields"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync <schemas-dir> <entity>",
		Short: "Fetch remote records and reconcile them into the store",
		Long: `Fetch records of one entity type, coerce them against the schema and
persist them, merging with previously synced records by remote identity.

Responses come from a YAML replay fixture (--fixture); the fixture maps
remote method names to canned responses, exactly as a live transport would
deliver them.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "YAML config file with db and fixture defaults")
	cmd.Flags().StringVar(&opts.DB, "db", "okgraph.db", "path to the SQLite database")
	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "YAML replay fixture with canned responses")
	cmd.Flags().StringVar(&opts.Method, "method", "", "logical method name (defaults to \"get\")")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "request parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.After, "after", "", "drop records older than this date (timeline entities)")
	cmd.Flags().StringVar(&opts.Before, "before", "", "drop records newer than this date (timeline entities)")
	cmd.Flags().BoolVar(&opts.Timeline, "timeline", false, "window the batch by the entity's cut field")

	return cmd
}

// applyConfig fills in flag values the command line left at their defaults.
func applyConfig(cmd *cobra.Command, configPath string, db, fixture *string) error {
	if configPath == "" {
		return nil
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.DB != "" && !cmd.Flags().Changed("db") {
		*db = cfg.DB
	}
	if cfg.Fixture != "" && !cmd.Flags().Changed("fixture") {
		*fixture = cfg.Fixture
	}
	return nil
}

func runSync(rootOpts *RootOptions, opts *SyncOptions, schemasDir, entity string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	if err := applyConfig(cmd, opts.Config, &opts.DB, &opts.Fixture); err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.Fixture == "" {
		err := fmt.Errorf("no fixture given (use --fixture or a config file)")
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad arguments", err)
	}

	loaded, err := LoadSchemas(schemasDir)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading schemas", err)
	}

	replay, err := transport.LoadReplay(opts.Fixture)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading fixture", err)
	}

	s, err := store.Open(opts.DB)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening store", err)
	}
	defer s.Close()

	query, err := buildQuery(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad query", err)
	}

	cfg := sync.Config{
		Entity:    entity,
		Registry:  loaded.Registry,
		Transport: replay,
		Store:     s,
	}
	if opts.Timeline {
		cfg.Window = sync.CutFieldWindow{}
	}
	manager, err := sync.NewManager(cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "building sync manager", err)
	}

	saved, err := manager.Fetch(cmd.Context(), query)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "sync failed", err)
	}

	formatter.VerboseLog("Synced %d record(s) of %s", len(saved), entity)
	return outputRecords(formatter, entity, saved)
}

// buildQuery translates the sync flags into a query.
func buildQuery(opts *SyncOptions) (sync.Query, error) {
	query := sync.Query{Method: opts.Method}

	if len(opts.Params) > 0 {
		query.Params = make(map[string]string, len(opts.Params))
		for _, p := range opts.Params {
			key, value, ok := strings.Cut(p, "=")
			if !ok {
				return sync.Query{}, fmt.Errorf("param %q is not key=value", p)
			}
			query.Params[key] = value
		}
	}

	var err error
	if query.After, err = parseCursor(opts.After); err != nil {
		return sync.Query{}, err
	}
	if query.Before, err = parseCursor(opts.Before); err != nil {
		return sync.Query{}, err
	}
	return query, nil
}

// parseCursor accepts a bare date or a full RFC 3339 timestamp.
func parseCursor(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse date %q (want 2006-01-02 or RFC 3339)", s)
}

// outputRecords renders persisted records in the configured format.
func outputRecords(f *OutputFormatter, entity string, records []*record.Instance) error {
	if f.Format == "json" {
		result := SyncResult{Entity: entity, Count: len(records), Records: make([]RecordSummary, len(records))}
		for i, inst := range records {
			result.Records[i] = RecordSummary{
				StorageID: inst.StorageID,
				Entity:    inst.Entity,
				Fields:    inst.Fields,
			}
		}
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "%d %s record(s)\n", len(records), entity)
	for _, inst := range records {
		fmt.Fprintf(f.Writer, "  %s\n", inst.StorageID)
		for _, key := range sortedFieldKeys(inst) {
			fmt.Fprintf(f.Writer, "    %s: %v\n", key, inst.Fields[key])
		}
	}
	return nil
}

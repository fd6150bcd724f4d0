package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/roach88/registrar/internal/access"
	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/registry"
	"github.com/roach88/registrar/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Registry string // optional - specific registry only
}

// ReplayRegistryResult holds the replay result for a single registry.
type ReplayRegistryResult struct {
	Registry      string     `json:"registry"`
	Variant       ir.Variant `json:"variant"`
	Seq           int64      `json:"seq"`
	Size          int        `json:"size"`
	Entries       int        `json:"entries"`
	Deterministic bool       `json:"deterministic"`
	Error         string     `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Registries       []ReplayRegistryResult `json:"registries"`
	Total            int                    `json:"total"`
	AllDeterministic bool                   `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay the journal and verify determinism",
		Long: `Replay every journaled registry twice and compare the resulting state.

Access rules are not re-checked: the journal only holds committed mutations.
A journal that no longer applies counts as a determinism failure.

Exit codes:
  0 - All registries are deterministic
  1 - Determinism verification failed
  2 - Command error (database not found, etc.)

Examples:
  registrar replay --db ./registrar.db
  registrar replay --db ./registrar.db --registry parcels
  registrar replay --db ./registrar.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "replay a specific registry only")

	return cmd
}

// openJournal opens an existing journal for read-only commands.
func openJournal(opts *RootOptions) (*store.Store, error) {
	path := opts.settings().Database
	if path != store.MemoryPath {
		if _, err := os.Stat(path); err != nil {
			return nil, WrapExitError(ExitCommandError, "database not found", err)
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openJournal(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	var defs []store.Registry
	if opts.Registry != "" {
		def, err := st.ReadRegistry(ctx, opts.Registry)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("registry %q not found", opts.Registry), err)
		}
		defs = []store.Registry{def}
	} else {
		defs, err = st.ListRegistries(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list registries", err)
		}
	}

	result := ReplayResult{
		Registries:       make([]ReplayRegistryResult, 0, len(defs)),
		Total:            len(defs),
		AllDeterministic: true,
	}

	for _, def := range defs {
		r, err := replayAndVerify(ctx, st, def, opts.logger())
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay %s", def.Name), err)
		}
		result.Registries = append(result.Registries, r)
		if !r.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayAndVerify replays a registry twice and compares the snapshots.
// Journal content that fails to apply is reported in the result; only
// storage failures are returned as errors.
func replayAndVerify(ctx context.Context, st *store.Store, def store.Registry, logger *slog.Logger) (ReplayRegistryResult, error) {
	res := ReplayRegistryResult{Registry: def.Name, Variant: def.Variant}

	counts, err := st.CountEntries(ctx, def.Name)
	if err != nil {
		return res, err
	}
	for _, n := range counts {
		res.Entries += n
	}

	first, err := replaySnapshot(ctx, st, def)
	if errors.Is(err, registry.ErrReplay) {
		logger.Warn("journal does not replay", "registry", def.Name, "error", err)
		res.Error = err.Error()
		return res, nil
	}
	if err != nil {
		return res, err
	}
	second, err := replaySnapshot(ctx, st, def)
	if err != nil {
		return res, err
	}

	res.Seq = first.Seq
	res.Size = len(first.Values)
	if def.Variant == ir.VariantCatalyst {
		res.Size = len(first.Records)
	}
	res.Deterministic = reflect.DeepEqual(first, second)
	return res, nil
}

func replaySnapshot(ctx context.Context, st *store.Store, def store.Registry) (registry.Snapshot, error) {
	if def.Variant == ir.VariantCatalyst {
		c, err := registry.ReplayCatalyst(ctx, st, def.Name, access.AllowAll{})
		if err != nil {
			return registry.Snapshot{}, err
		}
		return c.Snapshot(), nil
	}
	l, err := registry.ReplayList(ctx, st, def.Name, access.AllowAll{})
	if err != nil {
		return registry.Snapshot{}, err
	}
	return l.Snapshot(), nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No registries found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d registries\n\n", result.Total)

	for _, r := range result.Registries {
		status := "✓"
		if !r.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", status, r.Registry, r.Variant)
		fmt.Fprintf(w, "  Entries: %d, seq %d, size %d\n", r.Entries, r.Seq, r.Size)
		if r.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", r.Error)
		} else if !r.Deterministic {
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
		}
		if verbose {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All registries verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/registrar/internal/ir"
	"github.com/roach88/registrar/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Op    string // optional - filter to one operation
	After int64  // only entries with seq > After
	By    string // optional - filter to one caller
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Registry store.Registry `json:"registry"`
	Timeline []ir.Entry     `json:"timeline"`
	Stats    TraceStats     `json:"stats"`
}

// TraceStats holds summary statistics for the whole journal of a registry,
// regardless of filters.
type TraceStats struct {
	TotalEntries int           `json:"total_entries"`
	LastSeq      int64         `json:"last_seq"`
	ByOp         map[ir.Op]int `json:"by_op"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <registry>",
		Short: "Show the journal of a registry",
		Long: `Show the committed mutations of a registry in seq order.

Examples:
  registrar trace parcels --db ./registrar.db
  registrar trace catalysts --op remove_catalyst
  registrar trace parcels --after 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Op, "op", "", "filter to one operation (add, remove, add_catalyst, remove_catalyst)")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only show entries after this seq")
	cmd.Flags().StringVar(&opts.By, "by", "", "filter to one caller address")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command, name string) error {
	ctx := context.Background()

	switch ir.Op(opts.Op) {
	case "", ir.OpAdd, ir.OpRemove, ir.OpAddCatalyst, ir.OpRemoveCatalyst:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown op %q", opts.Op))
	}

	st, err := openJournal(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	def, err := st.ReadRegistry(ctx, name)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("registry %q not found", name), err)
	}

	entries, err := st.ReadEntriesAfter(ctx, name, opts.After)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	counts, err := st.CountEntries(ctx, name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count entries", err)
	}
	lastSeq, err := st.GetLastSeq(ctx, name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read last seq", err)
	}

	result := TraceResult{
		Registry: def,
		Timeline: filterEntries(entries, ir.Op(opts.Op), opts.By),
		Stats:    TraceStats{LastSeq: lastSeq, ByOp: counts},
	}
	for _, n := range counts {
		result.Stats.TotalEntries += n
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// filterEntries keeps entries matching op and caller. Callers compare
// case-insensitively since addresses may be given in any case.
func filterEntries(entries []ir.Entry, op ir.Op, caller string) []ir.Entry {
	out := []ir.Entry{}
	for _, e := range entries {
		if op != "" && e.Op != op {
			continue
		}
		if caller != "" && !strings.EqualFold(e.Caller, caller) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for Registry: %s\n", formatDefinition(result.Registry))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no entries)")
	} else {
		for _, e := range result.Timeline {
			formatEntry(w, e, verbose)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Entries: %d\n", result.Stats.TotalEntries)
	fmt.Fprintf(w, "  Last Seq:      %d\n", result.Stats.LastSeq)
	ops := make([]string, 0, len(result.Stats.ByOp))
	for op := range result.Stats.ByOp {
		ops = append(ops, string(op))
	}
	sort.Strings(ops)
	for _, op := range ops {
		fmt.Fprintf(w, "  %-15s %d\n", op+":", result.Stats.ByOp[ir.Op(op)])
	}

	return nil
}

// formatEntry formats a single journal entry for text output.
func formatEntry(w io.Writer, e ir.Entry, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s %s\n", e.Seq, strings.ToUpper(string(e.Op)), formatPayload(e.Payload))
	if verbose {
		fmt.Fprintf(w, "       By: %s\n", e.Caller)
		fmt.Fprintf(w, "       At: %s\n", time.Unix(e.At, 0).UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "       Tx: %s\n", truncateID(e.TxID))
	}
}

// formatPayload renders the set fields of a payload in a fixed order.
func formatPayload(p ir.Payload) string {
	var parts []string
	for _, kv := range [][2]string{{"value", p.Value}, {"id", truncateID(p.ID)}, {"owner", p.Owner}, {"domain", p.Domain}} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

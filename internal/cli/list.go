package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/registrar/internal/ir"
)

// MutationResult is the output of a committed mutation.
type MutationResult struct {
	Registry string     `json:"registry"`
	Position *int       `json:"position,omitempty"`
	Value    string     `json:"value,omitempty"`
	Record   *ir.Record `json:"record,omitempty"`
	Entry    *ir.Entry  `json:"entry,omitempty"`
}

func (r MutationResult) seqText() string {
	if r.Entry == nil {
		return ""
	}
	return fmt.Sprintf(" (seq %d, tx %s)", r.Entry.Seq, r.Entry.TxID)
}

// withEnv opens the environment, runs fn and reports failures through the
// formatter.
func withEnv(opts *RootOptions, cmd *cobra.Command, fn func(context.Context, *env, *OutputFormatter) error) error {
	f := newFormatter(opts, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	e, err := openEnv(ctx, opts)
	if err != nil {
		return f.Fail("open", err)
	}
	defer e.Close()

	return fn(ctx, e, f)
}

// NewListCommand creates the list command group.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Operate on list and string list registries",
		Long: `Operate on list and string list registries.

Typed lists accept COORDINATES ("x,y"), ADDRESS or NAME values and store
them normalized. String lists accept any non-empty string.

Removal moves the last value into the removed slot, so positions are not
stable across removals.

Values starting with "-" read as flags; pass them after "--":

  registrar list add parcels --caller 0x5aAe... -- -5,3`,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, `values starting with "-" must follow "--"`, err)
	})

	cmd.AddCommand(newListAddCommand(rootOpts))
	cmd.AddCommand(newListRemoveCommand(rootOpts))
	cmd.AddCommand(newListGetCommand(rootOpts))
	cmd.AddCommand(newListSizeCommand(rootOpts))
	cmd.AddCommand(newListValuesCommand(rootOpts))

	return cmd
}

func newListAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add [flags] [--] <registry> <value> | add [flags] [--] <registry> <x> <y>",
		Short: "Append a value",
		Example: `  registrar list add names alice --caller 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed
  registrar list add parcels --caller 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed -- 10 -20
  registrar list add parcels --caller 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed -- -5,3`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				caller, err := e.caller()
				if err != nil {
					return f.Fail("add", err)
				}
				l, err := e.openList(ctx, args[0])
				if err != nil {
					return f.Fail("add", err)
				}

				var pos int
				if len(args) == 3 {
					pos, err = l.AddCoordinates(ctx, caller, args[1], args[2])
				} else {
					pos, err = l.Add(ctx, caller, args[1])
				}
				if err != nil {
					return f.Fail("add rejected", err)
				}

				value, _ := l.Get(pos)
				res := MutationResult{Registry: l.Name(), Position: &pos, Value: value}
				if entry, ok := e.committed(); ok {
					res.Entry = &entry
				}
				return f.Result(fmt.Sprintf("added %s at %d%s", value, pos, res.seqText()), res)
			})
		},
	}
}

func newListRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove [flags] [--] <registry> <value>",
		Short:         "Remove a value",
		Example:       `  registrar list remove parcels --caller 0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359 -- -5,3`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				caller, err := e.caller()
				if err != nil {
					return f.Fail("remove", err)
				}
				l, err := e.openList(ctx, args[0])
				if err != nil {
					return f.Fail("remove", err)
				}
				if err := l.Remove(ctx, caller, args[1]); err != nil {
					return f.Fail("remove rejected", err)
				}

				res := MutationResult{Registry: l.Name()}
				if entry, ok := e.committed(); ok {
					res.Entry = &entry
					res.Value = entry.Payload.Value
				}
				return f.Result(fmt.Sprintf("removed %s%s", args[1], res.seqText()), res)
			})
		},
	}
}

func newListGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <registry> <index>",
		Short:         "Read the value at a position",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				i, err := strconv.Atoi(args[1])
				if err != nil {
					return f.Fail("get", WrapExitError(ExitCommandError, "index must be an integer", err))
				}
				l, err := e.openList(ctx, args[0])
				if err != nil {
					return f.Fail("get", err)
				}
				v, err := l.Get(i)
				if err != nil {
					return f.Fail("get", err)
				}
				return f.Result(v, map[string]any{"index": i, "value": v})
			})
		},
	}
}

func newListSizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "size <registry>",
		Short:         "Count the values",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				l, err := e.openList(ctx, args[0])
				if err != nil {
					return f.Fail("size", err)
				}
				n := l.Size()
				return f.Result(strconv.Itoa(n), map[string]any{"size": n})
			})
		},
	}
}

func newListValuesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "values <registry>",
		Short:         "Print the values in position order",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				l, err := e.openList(ctx, args[0])
				if err != nil {
					return f.Fail("values", err)
				}
				snap := l.Snapshot()
				values := snap.Values
				if values == nil {
					values = []string{}
				}
				return f.Result(strings.Join(values, "\n"), snap)
			})
		},
	}
}

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/registrar/internal/ir"
)

// NewCatalystCommand creates the catalyst command group.
func NewCatalystCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalyst",
		Short: "Operate on catalyst registries",
		Long: `Operate on catalyst registries.

Each catalyst binds one owner address to one domain. Removal ends the
record but keeps it readable by id; owners and domains become free again.`,
	}

	cmd.AddCommand(newCatalystAddCommand(rootOpts))
	cmd.AddCommand(newCatalystRemoveCommand(rootOpts))
	cmd.AddCommand(newCatalystGetCommand(rootOpts))
	cmd.AddCommand(newCatalystCountCommand(rootOpts))
	cmd.AddCommand(newCatalystShowCommand(rootOpts))

	return cmd
}

func formatRecord(r ir.Record) string {
	state := "active"
	if !r.Active() {
		state = "ended " + strconv.FormatInt(r.EndedAt, 10)
	}
	return fmt.Sprintf("%s owner=%s domain=%s started=%d %s", r.ID, r.Owner, r.Domain, r.StartedAt, state)
}

func newCatalystAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "add <registry> <owner> <domain>",
		Short:         "Register a catalyst",
		Example:       `  registrar catalyst add catalysts 0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359 https://peer.example.org`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				caller, err := e.caller()
				if err != nil {
					return f.Fail("add", err)
				}
				c, err := e.openCatalyst(ctx, args[0])
				if err != nil {
					return f.Fail("add", err)
				}
				rec, err := c.Add(ctx, caller, args[1], args[2])
				if err != nil {
					return f.Fail("add rejected", err)
				}

				res := MutationResult{Registry: c.Name(), Record: &rec}
				if entry, ok := e.committed(); ok {
					res.Entry = &entry
				}
				return f.Result("added "+formatRecord(rec)+res.seqText(), res)
			})
		},
	}
}

func newCatalystRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <registry> <id>",
		Short:         "End a catalyst",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				caller, err := e.caller()
				if err != nil {
					return f.Fail("remove", err)
				}
				c, err := e.openCatalyst(ctx, args[0])
				if err != nil {
					return f.Fail("remove", err)
				}
				if err := c.Remove(ctx, caller, args[1]); err != nil {
					return f.Fail("remove rejected", err)
				}

				rec := c.ByID(args[1])
				res := MutationResult{Registry: c.Name(), Record: &rec}
				if entry, ok := e.committed(); ok {
					res.Entry = &entry
				}
				return f.Result("removed "+formatRecord(rec)+res.seqText(), res)
			})
		},
	}
}

func newCatalystGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <registry> <id>",
		Short:         "Read a catalyst record by id",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				c, err := e.openCatalyst(ctx, args[0])
				if err != nil {
					return f.Fail("get", err)
				}
				rec := c.ByID(args[1])
				if rec.IsZero() {
					return f.Fail("get", ir.NewErrorWithDetails(ir.CodeCatalystNotFound,
						"no catalyst with this id", "id", args[1]))
				}
				return f.Result(formatRecord(rec), rec)
			})
		},
	}
}

func newCatalystCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count <registry>",
		Short:         "Count the active catalysts",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				c, err := e.openCatalyst(ctx, args[0])
				if err != nil {
					return f.Fail("count", err)
				}
				n := c.Count()
				return f.Result(strconv.Itoa(n), map[string]any{"count": n})
			})
		},
	}
}

func newCatalystShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <registry>",
		Short:         "Print the active catalysts in position order",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				c, err := e.openCatalyst(ctx, args[0])
				if err != nil {
					return f.Fail("show", err)
				}
				active := c.Active()
				lines := make([]string, len(active))
				for i, r := range active {
					lines[i] = fmt.Sprintf("%d %s", i, formatRecord(r))
				}
				if active == nil {
					active = []ir.Record{}
				}
				return f.Result(strings.Join(lines, "\n"), active)
			})
		},
	}
}

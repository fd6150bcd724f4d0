package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/registrar/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Register every manifest registry in the journal",
		Long: `Register every registry declared in the manifest in the journal.

Registries are otherwise registered on first use. Running init again is a
no-op; a manifest entry that no longer matches its journaled definition is
a command error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, cmd, func(ctx context.Context, e *env, f *OutputFormatter) error {
				for _, r := range e.manifest.Registries {
					if _, err := e.declared(ctx, r.Name, r.Variant); err != nil {
						return f.Fail("init", err)
					}
				}

				defs, err := e.store.ListRegistries(ctx)
				if err != nil {
					return f.Fail("init", err)
				}

				lines := make([]string, len(defs))
				for i, d := range defs {
					lines[i] = formatDefinition(d)
				}
				f.VerboseLog("journal: %s", e.cfg.Database)
				return f.Result(fmt.Sprintf("%d registries in %s\n%s", len(defs), e.cfg.Database, strings.Join(lines, "\n")), defs)
			})
		},
	}
}

func formatDefinition(d store.Registry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s (%s)", d.Name, d.Variant)
	if d.Kind != "" {
		fmt.Fprintf(&b, " kind=%s", d.Kind)
	}
	if d.Symbol != "" {
		fmt.Fprintf(&b, " symbol=%s", d.Symbol)
	}
	if d.Owner != "" {
		fmt.Fprintf(&b, " owner=%s", d.Owner)
	}
	return b.String()
}

package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pmadmin-backend/internal/application/queries"
)

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics of a running API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newAPIClient(opts.addr, opts.token).cacheStats(cmd.Context())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), resp.Caches)
			return nil
		},
	}
}

func newInvalidateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "invalidate <projects|users|tickets|all>",
		Short:     "Drop cached entries of a running API",
		Long:      `Drop every cached entry of a kind. Invalidating tickets also drops chart data; all drops everything.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(queries.InvalidateProjects), string(queries.InvalidateUsers), string(queries.InvalidateTickets), string(queries.InvalidateAll)},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := queries.ParseInvalidationKind(args[0])
			if err != nil {
				return err
			}

			resp, err := newAPIClient(opts.addr, opts.token).invalidate(cmd.Context(), string(kind))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s: removed %s %s\n",
				resp.Kind, humanize.Comma(int64(resp.Removed)), plural(resp.Removed, "entry", "entries"))
			return nil
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

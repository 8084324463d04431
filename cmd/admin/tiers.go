package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/radif/imagehost/internal/db"
	"github.com/radif/imagehost/internal/tier"
)

var tierName string

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Lists account tiers and their entitlements",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		tiers, err := selectTiers(ctx, tier.NewRepository(pool), tierName)
		if err != nil {
			return err
		}
		return printTiers(cmd.OutOrStdout(), tiers)
	},
}

// selectTiers returns every tier, or only the named one when name is set.
func selectTiers(ctx context.Context, repo *tier.Repository, name string) ([]tier.Tier, error) {
	if name == "" {
		return repo.List(ctx)
	}
	t, err := repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return []tier.Tier{t}, nil
}

func printTiers(w io.Writer, tiers []tier.Tier) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tHEIGHTS\tORIGINAL\tEXPIRING LINKS")
	for _, t := range tiers {
		fmt.Fprintf(tw, "%s\t%v\t%t\t%t\n", t.Name, t.Heights.Values(), t.AllowsOriginal(), t.AllowsExpiringLink())
	}
	return tw.Flush()
}

func init() {
	tiersCmd.Flags().StringVar(&tierName, "name", "", "show only the tier with this name")
	rootCmd.AddCommand(tiersCmd)
}

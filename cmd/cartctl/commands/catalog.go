package commands

import (
	"fmt"
	"log/slog"

	"github.com/PocketPalCo/voicecart/internal/core/catalog"
	"github.com/PocketPalCo/voicecart/internal/infra/postgres"
	"github.com/spf13/cobra"
)

var seedFile string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or seed the price table",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured catalog in match order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, release, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		out := cmd.OutOrStdout()
		for _, e := range cat.Entries() {
			fmt.Fprintf(out, "%-24s %s%d\n", e.Name, cfg.CurrencySymbol(), e.Price)
		}
		fmt.Fprintf(out, "%-24s %s%d\n", "(fallback)", cfg.CurrencySymbol(), cat.FallbackPrice())
		return nil
	},
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the built-in or a YAML catalog into postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		entries := catalog.DefaultEntries()
		if seedFile != "" {
			c, err := catalog.LoadFile(seedFile, cfg.FallbackPrice)
			if err != nil {
				return err
			}
			entries = c.Entries()
		}

		pool, err := postgres.Init(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := catalog.NewPostgresSource(pool, slog.Default()).Seed(ctx, entries); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d catalog items\n", len(entries))
		return nil
	},
}

func init() {
	catalogSeedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML catalog to seed instead of the built-in table")
	catalogCmd.AddCommand(catalogListCmd, catalogSeedCmd)
	rootCmd.AddCommand(catalogCmd)
}

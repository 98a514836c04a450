package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var priceCmd = &cobra.Command{
	Use:   "price <name>",
	Short: "Resolve the unit price for an item name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, release, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		name := strings.Join(args, " ")
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s%d\n", name, cfg.CurrencySymbol(), cat.ResolvePrice(name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

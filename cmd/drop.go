package cmd

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/colonize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop every collection of the store",
	Long: `
Remove all collections from the configured store. The store URL must be
listed in connection_whitelist.

⚠️  WARNING: This permanently deletes all data in the store!

Use --force to skip the confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		c, err := colonize.Initialize(ctx, *cfg, colonize.WithoutRegistry())
		if err != nil {
			return err
		}
		defer c.Close()

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			url, _ := cfg.GetStoreURL()
			ok, err := confirm(stdin, fmt.Sprintf("Drop every collection of %s?", url))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "❌ Drop cancelled")
				return nil
			}
		}

		if err := c.Drop(ctx); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✅ Store dropped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dropCmd)
}

package cmd

import (
	"fmt"

	"github.com/Lumos-Labs-HQ/colonize"
	"github.com/Lumos-Labs-HQ/colonize/internal/database/memory"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const planURL = "memory://plan"

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Resolve the fixtures without touching the store",
	Long: `
Resolve every fixture definition against an in-memory store and print the
order in which collections would be seeded. Nothing is written to the
configured database, so no whitelist entry is needed.

Definitions that can never be satisfied are listed with the reference they
are waiting on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.StoreURL = planURL
		cfg.Provider = "memory"
		cfg.ConnectionWhitelist = []string{planURL}
		cfg.DropStoreBeforeSeed = false

		ctx := commandContext(cmd)
		opts := []colonize.Option{colonize.WithAdapter(memory.New())}
		if cfg.Verbose {
			opts = append(opts, colonize.WithOutput(cmd.OutOrStdout()))
		}

		c, err := colonize.Initialize(ctx, *cfg, opts...)
		if err != nil {
			return err
		}
		defer c.Close()

		result, err := c.Seed(ctx)
		if err != nil {
			printStuck(cmd.ErrOrStderr(), err)
			return err
		}

		out := cmd.OutOrStdout()
		color.New(color.FgCyan, color.Bold).Fprintf(out, "📋 Seeding order (%d passes):\n", result.Passes)
		for i, name := range result.Order {
			fmt.Fprintf(out, "  %d. %s (%d entities)\n", i+1, name, len(result.Refs[name]))
		}
		return nil
	},
}

func init() {
	addSeedingFlags(planCmd)
	rootCmd.AddCommand(planCmd)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lumos-Labs-HQ/colonize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	seedDrop bool
	seedOut  string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with every fixture definition",
	Long: `
Load every fixture file below the seeding path and insert the entities they
declare. Definitions are retried until their references exist, so files can
be written in any order.

The store URL must be listed in connection_whitelist. Use --drop (or
drop_store_before_seed) to wipe the store first, and --out to write the
resulting refs and stash to a JSON or YAML file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if seedDrop {
			cfg.DropStoreBeforeSeed = true
		}

		ctx := commandContext(cmd)
		var opts []colonize.Option
		if cfg.Verbose {
			opts = append(opts, colonize.WithOutput(cmd.OutOrStdout()))
		}

		c, err := colonize.Initialize(ctx, *cfg, opts...)
		if err != nil {
			return err
		}
		defer c.Close()

		if cfg.DropStoreBeforeSeed {
			color.Yellow("🗑️  Dropping store before seeding")
		}

		result, err := c.Seed(ctx)
		if err != nil {
			printStuck(cmd.ErrOrStderr(), err)
			return err
		}

		printSummary(cmd.OutOrStdout(), result)

		if seedOut != "" {
			if err := writeSnapshot(seedOut, result); err != nil {
				return err
			}
			color.Green("💾 Snapshot written to %s", seedOut)
		}
		return nil
	},
}

type snapshot struct {
	RunID string                 `json:"run_id" yaml:"run_id"`
	Order []string               `json:"order" yaml:"order"`
	Refs  map[string]interface{} `json:"refs" yaml:"refs"`
	Stash map[string]interface{} `json:"stash" yaml:"stash"`
}

func writeSnapshot(path string, result *colonize.Result) error {
	snap := snapshot{
		RunID: result.RunID,
		Order: result.Order,
		Refs:  plain(result.Refs),
		Stash: plain(result.Stash),
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(snap)
	case ".json":
		data, err = json.MarshalIndent(snap, "", "  ")
	default:
		return fmt.Errorf("unsupported snapshot format %q: use .json, .yaml or .yml", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// plain converts collections into values both encoders render readably.
// Store identifiers such as ObjectIDs become their hex form.
func plain(collections colonize.Collections) map[string]interface{} {
	out := make(map[string]interface{}, len(collections))
	for name, entities := range collections {
		m := make(map[string]interface{}, len(entities))
		for key, doc := range entities {
			m[key] = plainValue(map[string]interface{}(doc))
		}
		out[name] = m
	}
	return out
}

func plainValue(v interface{}) interface{} {
	switch t := v.(type) {
	case colonize.Document:
		return plainValue(map[string]interface{}(t))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[k] = plainValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = plainValue(item)
		}
		return out
	case interface{ Hex() string }:
		return t.Hex()
	default:
		return v
	}
}

func init() {
	seedCmd.Flags().BoolVar(&seedDrop, "drop", false, "Drop the store before seeding")
	seedCmd.Flags().StringVarP(&seedOut, "out", "o", "", "Write refs and stash to a .json or .yaml file")
	addSeedingFlags(seedCmd)

	rootCmd.AddCommand(seedCmd)
}

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Lumos-Labs-HQ/colonize"
	"github.com/Lumos-Labs-HQ/colonize/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// loadConfig reads the configuration and applies the flags shared by the
// seeding commands.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path, _ := cmd.Flags().GetString("path"); path != "" {
		cfg.SeedingPath = path
	}
	if pattern, _ := cmd.Flags().GetString("pattern"); pattern != "" {
		cfg.Pattern = pattern
	}
	if seed, _ := cmd.Flags().GetInt64("faker-seed"); seed != 0 {
		cfg.FakerSeed = seed
	}
	return cfg, nil
}

func addSeedingFlags(cmd *cobra.Command) {
	cmd.Flags().String("path", "", "seeding path (overrides seeding_path)")
	cmd.Flags().String("pattern", "", "glob selecting fixture files below the seeding path")
	cmd.Flags().Int64("faker-seed", 0, "seed for !fake values")
}

func confirm(in io.Reader, prompt string) (bool, error) {
	fmt.Printf("%s (yes/no): ", prompt)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y", nil
}

func printSummary(w io.Writer, result *colonize.Result) {
	names := make([]string, 0, len(result.Refs))
	for name := range result.Refs {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w)
	color.New(color.FgCyan, color.Bold).Fprintf(w, "📋 Seeded collections (run %s):\n", result.RunID)
	for _, name := range names {
		fmt.Fprintf(w, "  - %-24s %d\n", name, len(result.Refs[name]))
	}
	color.New(color.FgGreen).Fprintf(w, "✅ %d entities in %d passes\n", result.Count(), result.Passes)
}

func printStuck(w io.Writer, err error) {
	var unresolvable *colonize.UnresolvableDependencyError
	if !errors.As(err, &unresolvable) {
		return
	}
	color.New(color.FgYellow).Fprintln(w, "⚠️  These definitions can never be satisfied:")
	for _, s := range unresolvable.Stuck {
		if s.Missing == nil {
			fmt.Fprintf(w, "  - %s\n", s.Name)
			continue
		}
		fmt.Fprintf(w, "  - %s waiting on %s\n", s.Name, s.Missing.Path())
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

var stdin io.Reader = os.Stdin

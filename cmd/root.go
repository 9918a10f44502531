package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "0.1.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════════╗",
		"║                                                      ║",
		"║     🌱 colonize · dependency-aware fixture seeding    ║",
		"║                                                      ║",
		"╚══════════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                  ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "colonize",
	Short: "Seed a database with fixtures that reference each other",
	Long: `
Colonize loads fixture definitions from the seeding path and inserts them
into a development or test database. Definitions may reference entities
declared by other definitions in any file and any order; colonize keeps
resolving until every definition is seeded, or reports the ones that can
never be satisfied.

Store Support:
- MongoDB
- PostgreSQL, MySQL and SQLite (documents stored as JSON rows)
- In-memory (dry runs)

Only URLs listed in connection_whitelist are ever written to.`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("colonize version %s\n", Version)
			os.Exit(0)
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./colonize.config.json)")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "Skip confirmations")
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "Print every resolution pass")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("colonize.config")
	}

	viper.SetEnvPrefix("colonize")
	viper.AutomaticEnv()

	viper.ReadInConfig()
}

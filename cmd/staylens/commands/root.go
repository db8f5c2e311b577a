// Package commands implements the CLI commands for staylens.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/staylens/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "staylens",
	Short: "Short-term rental listing data from the command line",
	Long: `Staylens searches short-term rental listings and fetches their details,
calendars, reviews and hosts. Data comes from the site's GraphQL API with
the listing pages as a fallback, and can be summarized into neighborhood
and occupancy statistics.

Examples:
  # Search a city for two adults
  staylens search -l "Lisbon" --checkin 2030-06-01 --checkout 2030-06-05 --adults 2

  # Fetch several listings at once
  staylens detail 12345 67890 -f text

  # Three months of availability and an occupancy estimate
  staylens calendar 12345 --months 3
  staylens occupancy 12345 --months 6

  # Serve every operation over HTTP
  staylens serve --addr :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.staylens.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.StringP("format", "f", "json", "output format: json, jsonl, yaml, text")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.Bool("compact", false, "write JSON without indentation")
	flags.String("fetch-mode", config.FetchStatic, "how listing pages are fetched: static, dynamic")
	flags.Bool("html-only", false, "skip the GraphQL API and read listing pages only")
	flags.String("redis-url", "", "share the response cache through redis (redis://host:6379/0)")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("html_only", flags.Lookup("html-only"))
	_ = viper.BindPFlag("scraper.fetch_mode", flags.Lookup("fetch-mode"))
	_ = viper.BindPFlag("cache.redis_url", flags.Lookup("redis-url"))
}

func initConfig() {
	config.Setup(viper.GetViper(), viper.GetString("config"))
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

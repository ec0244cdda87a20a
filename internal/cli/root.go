package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apresai/podcastr/internal/app"
	"github.com/apresai/podcastr/internal/config"
	"github.com/apresai/podcastr/internal/observability"
	"github.com/apresai/podcastr/internal/tts"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:           "podcastr",
	Short:         "Create, publish and play narrated podcasts",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "podcastr %s\n", Version)
	},
}

var listVoicesCmd = &cobra.Command{
	Use:   "list-voices",
	Short: "List the narrator voices",
	RunE:  runListVoices,
}

var (
	flagEnvFile string
	flagVerbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Dotenv file to load before the environment")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listVoicesCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads configuration and builds a logger writing to stderr.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	level := cfg.SlogLevel()
	if flagVerbose {
		level = slog.LevelDebug
	}
	return cfg, observability.NewLogger(os.Stderr, level), nil
}

// setup loads configuration and connects every backing service.
func setup(ctx context.Context) (*app.App, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, logger)
}

func runListVoices(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nAvailable voices:")
	fmt.Fprintf(out, "  %s\n", strings.Repeat("─", 60))
	fmt.Fprintf(out, "  %-10s %-8s %s\n", "ID", "GENDER", "DESCRIPTION")
	for _, v := range tts.AvailableVoices() {
		fmt.Fprintf(out, "  %-10s %-8s %s\n", v.ID, v.Gender, v.Description)
	}
	fmt.Fprintln(out)
	return nil
}

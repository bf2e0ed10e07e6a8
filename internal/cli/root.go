package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cadencehq/cadence/internal/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Recurring-schedule engine for professional services firms",
	Long: `Cadence materializes projects from templates on a recurring cadence.

Each schedule ties a customer to a project template at a frequency
(weekly through annually). When a schedule comes due, the executor
creates the project, records the execution, and advances the schedule
to its next period.

Start the API server with the scheduled executor:
  cadence serve

Run the executor once and exit:
  cadence run`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cadence.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// loadConfig resolves configuration from the --config flag, discovered
// config files, and CADENCE_ environment variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: cfgFile})
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// setupLogging configures zerolog from the verbosity flag. Commands
// that load config re-apply the configured level and format afterward.
func setupLogging() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// applyLogConfig switches logging to the configured level and format.
func applyLogConfig(cfg *config.LoggingConfig) {
	if !verbose {
		level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// Version returns the version string.
func Version() string {
	return fmt.Sprintf("cadence version %s", "0.1.0-dev")
}

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/executor"
	"github.com/cadencehq/cadence/internal/server"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the Cadence API server.

The server exposes the schedule management API and, unless disabled
in configuration, runs the executor on its cron cadence in-process.
Overlapping or repeated runs are safe: each schedule period executes
at most once.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8090, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLogConfig(&cfg.Logging)

	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	srv := server.New(cfg, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Executor.Enabled {
		poller, pollErr := executor.NewPoller(srv.Executor(), &cfg.Executor)
		if pollErr != nil {
			log.Fatal().Err(pollErr).Msg("Failed to set up executor poller")
		}
		if err := poller.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start executor poller")
		}
		defer poller.Stop()
	} else {
		log.Info().Msg("Scheduled executor disabled, rely on POST /api/executor/run")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	log.Info().Str("addr", cfg.Server.Address()).Msg("Starting server")
	return srv.Start(ctx)
}

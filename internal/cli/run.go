package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/executor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the executor once and exit",
	Long: `Run one executor pass over every active tenant.

Each due schedule is processed in its own transaction, so a failure
on one schedule never blocks the rest. Re-running is safe: periods
that already executed are skipped.

Useful from an external scheduler (system cron, Kubernetes CronJob)
instead of the in-process poller.`,
	RunE: runExecutorOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runExecutorOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLogConfig(&cfg.Logging)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	summary, err := executor.New(db).Run(context.Background())
	if err != nil {
		return fmt.Errorf("executor run: %w", err)
	}

	fmt.Printf("Processed %d tenant(s) in %s\n", len(summary.Tenants), summary.Duration.Round(time.Millisecond))
	fmt.Printf("  executed:  %d\n", summary.Executed)
	fmt.Printf("  skipped:   %d\n", summary.Skipped)
	fmt.Printf("  completed: %d\n", summary.Completed)
	fmt.Printf("  failed:    %d\n", summary.Failed)

	if summary.Failed > 0 {
		return fmt.Errorf("%d schedule(s) failed", summary.Failed)
	}
	return nil
}

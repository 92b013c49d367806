package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	apppayables "github.com/contaspagar/backend/internal/application/payables"
	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/contaspagar/backend/internal/infrastructure/config"
	"github.com/contaspagar/backend/internal/infrastructure/logger"
	"github.com/contaspagar/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		date    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "statuscheck",
		Short: "Reclassify unpaid accounts by how close they are to their due date",
		Long: `statuscheck runs the status scan once over every unpaid account and prints
how many accounts moved to due soon, due today and overdue.

It is meant for cron or manual runs. No WhatsApp alerts are sent; the server's
daily scan owns those.`,
		Example: `  # Scan against today in the configured time zone
  statuscheck

  # Scan as if today were the given date
  statuscheck --date 2026-03-15`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}

			var clock payables.Clock = payables.NewSystemClock(cfg.Payables.Location())
			if date != "" {
				d, err := payables.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				clock = payables.FixedClock{Date: d}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return run(ctx, cfg, clock, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "evaluate as of this date (yyyy-mm-dd or dd/mm/yyyy) instead of today")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "abort the scan after this long")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, clock payables.Clock, out io.Writer) error {
	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level)))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}()

	service := apppayables.NewStatusService(persistence.NewGormAccountRepository(db.DB), nil, clock, nil, log)
	result, scanErr := service.ScanStatuses(ctx)
	printSummary(out, result)
	return scanErr
}

// printSummary writes the three transition counters operators look for
func printSummary(w io.Writer, r payables.ScanResult) {
	fmt.Fprintf(w, "Status atualizado:\n")
	fmt.Fprintf(w, "- %d contas marcadas como %q\n", r.ToDueSoon, payables.StatusDueSoon.Label())
	fmt.Fprintf(w, "- %d contas marcadas como %q\n", r.ToDueToday, payables.StatusDueToday.Label())
	fmt.Fprintf(w, "- %d contas marcadas como %q\n", r.ToOverdue, payables.StatusOverdue.Label())
	if r.Failed > 0 {
		fmt.Fprintf(w, "- %d contas não puderam ser avaliadas\n", r.Failed)
	}
}

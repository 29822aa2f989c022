// Command recovery runs one reconciler batch and prints the outcome.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ai-chatbot-be/internal/bootstrap"
	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/pkg/database"

	"github.com/fatih/color"
)

func main() {
	os.Exit(run())
}

// run returns 0 when every candidate was repaired, 2 when some were not.
func run() int {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		color.Red("Failed to connect to database: %v", err)
		return 1
	}

	container := bootstrap.NewContainer(db, cfg)
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Cyan("Reconciling completed orders of the last %s", cfg.Recovery.Window)
	res, err := container.RecoveryService.Run(ctx)
	if err != nil {
		color.Red("Recovery run failed: %v", err)
		return 1
	}

	color.White("Run %s", res.RunId)
	color.White("Checked:   %d", res.Checked)
	color.Green("Recovered: %d", res.Recovered)
	if len(res.Failures) == 0 {
		color.Green("No failures")
		return 0
	}

	color.Yellow("Failed:    %d", len(res.Failures))
	for _, f := range res.Failures {
		color.Red("  order %s account %s: %s", f.OrderId, f.AccountId, f.Reason)
	}
	return 2
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-chatbot-be/internal/bootstrap"
	"ai-chatbot-be/internal/config"
	"ai-chatbot-be/internal/server"
	"ai-chatbot-be/internal/tracer"
	"ai-chatbot-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	shutdownTracer := tracer.InitTracer(cfg.Tracing, container.Logger)
	defer func() { _ = shutdownTracer(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Panicf("Unable to start index consumer: %v", err)
	}
	go runRecovery(ctx, container, cfg.Recovery.Interval)

	// 5. Initialize Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			container.Logger.Error("SERVER", "Shutdown failed", map[string]interface{}{"error": err})
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}

// runRecovery runs the reconciler on a ticker until ctx is done. A zero
// interval disables it; operators can still trigger runs over HTTP.
func runRecovery(ctx context.Context, container *bootstrap.Container, interval time.Duration) {
	if interval <= 0 {
		container.Logger.Info("RECOVERY", "Scheduled recovery disabled", nil)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, container)
		}
	}
}

func runOnce(ctx context.Context, container *bootstrap.Container) {
	res, err := container.RecoveryService.Run(ctx)
	if err != nil {
		container.Logger.Error("RECOVERY", "Scheduled recovery run failed", map[string]interface{}{"error": err})
		return
	}
	if res.Checked > 0 {
		container.Logger.Info("RECOVERY", "Scheduled recovery run finished", map[string]interface{}{
			"checked":   res.Checked,
			"recovered": res.Recovered,
			"failed":    len(res.Failures),
		})
	}
}

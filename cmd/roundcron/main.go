package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"nof0-arena/internal/cli"
	"nof0-arena/internal/config"
	"nof0-arena/internal/svc"
)

const (
	defaultRoundInterval = 5 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[roundcron] Starting periodic round trigger...")

	_ = godotenv.Load()

	appCfg := config.MustLoad()
	log.Printf("[roundcron] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	svcCtx := svc.NewServiceContext(*appCfg, config.ConfigFile())
	if svcCtx.Orchestrator == nil {
		log.Fatalf("[roundcron] no arena config loaded; round orchestrator unavailable")
	}

	interval := roundInterval()
	log.Printf("[roundcron] Round interval: %s", interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	triggerRound(ctx, svcCtx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[roundcron] Shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			svcCtx.Orchestrator.CancelCurrentRound()
			<-shutdownCtx.Done()
			log.Println("[roundcron] Stopped")
			return
		case <-ticker.C:
			triggerRound(ctx, svcCtx)
		}
	}
}

func triggerRound(ctx context.Context, svcCtx *svc.ServiceContext) {
	result, err := svcCtx.Orchestrator.Trigger(ctx)
	if err != nil {
		log.Printf("[roundcron] trigger skipped: %v", err)
		return
	}
	log.Printf("[roundcron] round %s completed: status=%s decisions=%d cancelled=%v timedOut=%v",
		result.RoundID, result.Status, len(result.Decisions), result.Cancelled, result.TimedOut)
}

func roundInterval() time.Duration {
	raw := os.Getenv("ROUND_INTERVAL_SECONDS")
	if raw == "" {
		return defaultRoundInterval
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return defaultRoundInterval
	}
	return time.Duration(seconds) * time.Second
}

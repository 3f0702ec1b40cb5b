package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/infra"
)

// resetd restores the daily credit quota for free-plan rows once per
// calendar day. The update itself is date-guarded, so running the
// worker more often than daily, or running several replicas, never
// resets a row twice.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("resetd: db connection failed")
	}
	defer pool.Close()

	entitlements := repo.NewEntitlementRepository(pool)

	logger.Info().
		Dur("interval", cfg.ResetInterval).
		Int("quota", cfg.DailyCreditQuota).
		Msg("resetd started")

	runReset(ctx, entitlements, cfg.DailyCreditQuota, logger)

	ticker := time.NewTicker(cfg.ResetInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("resetd stopped")
			return
		case <-ticker.C:
			runReset(ctx, entitlements, cfg.DailyCreditQuota, logger)
		}
	}
}

func runReset(ctx context.Context, entitlements *repo.EntitlementRepositoryPG, quota int, logger infra.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reset, err := entitlements.ResetDailyCredits(runCtx, quota)
	if err != nil {
		logger.Error().Err(err).Msg("daily credit reset failed")
		return
	}
	if reset > 0 {
		logger.Info().Int64("rows", reset).Msg("daily credits reset")
	}
}

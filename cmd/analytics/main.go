// Command analytics recomputes the overview stats of every giveaway creator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insta-giveaway-backend/internal/common/config"
	"insta-giveaway-backend/internal/common/logger"
	"insta-giveaway-backend/internal/platform/postgres"
	pgrepo "insta-giveaway-backend/internal/repository/postgres"
	analyticssvc "insta-giveaway-backend/internal/service/analytics"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Minute, "abort after this long")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.ServiceName+"-analytics", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	pg, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	svc := analyticssvc.NewService(pgrepo.NewAnalyticsRepository(pg.GetDB()), cfg.Analytics.StaleAfter)
	n, err := svc.RegenerateAll(ctx)
	if err != nil {
		logger.Error().Err(err).Int("done", n).Msg("Analytics regeneration failed")
		os.Exit(1)
	}
	logger.Info().Int("users", n).Msg("Analytics regenerated")
}

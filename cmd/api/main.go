package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	rediscache "insta-giveaway-backend/internal/cache/redis"
	"insta-giveaway-backend/internal/common/cache"
	"insta-giveaway-backend/internal/common/config"
	"insta-giveaway-backend/internal/common/logger"
	"insta-giveaway-backend/internal/common/middleware"
	apphttp "insta-giveaway-backend/internal/http"
	"insta-giveaway-backend/internal/platform/instagram"
	"insta-giveaway-backend/internal/platform/postgres"
	redisplatform "insta-giveaway-backend/internal/platform/redis"
	"insta-giveaway-backend/internal/platform/storage"
	pgrepo "insta-giveaway-backend/internal/repository/postgres"
	accountsvc "insta-giveaway-backend/internal/service/account"
	analyticssvc "insta-giveaway-backend/internal/service/analytics"
	auditsvc "insta-giveaway-backend/internal/service/audit"
	giveawaysvc "insta-giveaway-backend/internal/service/giveaway"
	socialsvc "insta-giveaway-backend/internal/service/social"
	"insta-giveaway-backend/internal/workers"
)

const oauthStateTTL = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.ServiceName, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	if cfg.Postgres.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply schema")
		}
	}

	rdb, err := redisplatform.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	db := pg.GetDB()

	// Repositories
	users := pgrepo.NewUserRepository(db)
	giveaways := pgrepo.NewGiveawayRepository(db)
	entries := pgrepo.NewEntryRepository(db)
	winners := pgrepo.NewWinnerRepository(db)
	rules := pgrepo.NewRuleRepository(db)
	socialRepo := pgrepo.NewSocialRepository(db)
	auditRepo := pgrepo.NewAuditRepository(db)
	analyticsRepo := pgrepo.NewAnalyticsRepository(db)

	// Audit export is optional
	var store auditsvc.ObjectStore
	if cfg.S3Enabled() {
		s3, err := storage.NewS3(ctx, storage.Options{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to configure S3")
		}
		store = s3
	}

	// Services
	accounts := accountsvc.NewService(users, rediscache.NewUserCache(rdb, cfg.Redis.UserCacheTTL))
	auditor := auditsvc.NewService(auditRepo, rediscache.NewStreamPublisher(rdb, cfg.Stream.Key), store)

	igClient := instagram.NewClient(instagram.Config{
		ClientID:     cfg.Instagram.ClientID,
		ClientSecret: cfg.Instagram.ClientSecret,
		RedirectURI:  cfg.Instagram.RedirectURI,
		Timeout:      cfg.Instagram.Timeout,
		RPS:          cfg.Instagram.RateLimitRPS,
		Burst:        cfg.Instagram.RateBurst,
	})
	bridge := socialsvc.NewService(socialRepo, igClient, rediscache.NewStateStore(rdb, oauthStateTTL), cfg.FrontendURL)

	campaigns := giveawaysvc.NewService(giveawaysvc.Deps{
		Giveaways: giveaways,
		Entries:   entries,
		Winners:   winners,
		Rules:     rules,
		Audit:     auditor,
		Social:    bridge,
		Locker:    rediscache.NewLocker(rdb.Client, "lock:"),
	})
	stats := analyticssvc.NewService(analyticsRepo, cfg.Analytics.StaleAfter).
		WithCache(cache.NewJSONCache(rdb, "analytics:"), cfg.Analytics.CacheTTL)

	// HTTP
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	defer limiter.Stop()

	router := apphttp.NewRouter(apphttp.RouterDeps{
		Origins:     cfg.Server.Origin,
		Auth:        accounts,
		RateLimiter: limiter,
		Postgres:    pg,
		Redis:       rdb,
		Accounts:    accounts,
		Giveaways:   campaigns,
		Audit:       auditor,
		Instagram:   bridge,
		Analytics:   stats,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Scheduler.Enabled {
		jobs := workers.Jobs{Expirer: campaigns, Tokens: bridge, Analytics: stats}
		if store != nil {
			jobs.Exporter = auditor
		}
		scheduler := workers.NewScheduler(jobs, workers.ScheduleConfig{
			ExpireInterval:      cfg.Scheduler.ExpireInterval,
			TokenRefresh:        cfg.Scheduler.TokenRefresh,
			TokenRefreshWindow:  cfg.Scheduler.TokenRefreshWindow,
			AnalyticsInterval:   cfg.Scheduler.AnalyticsInterval,
			AuditExportInterval: cfg.Scheduler.AuditExportInterval,
		})
		g.Go(func() error { return scheduler.Run(gCtx) })
	}

	if cfg.Stream.Enabled {
		worker := workers.NewRedisStreamWorker(rdb, stats, workers.StreamConfig{
			Key:      cfg.Stream.Key,
			Group:    cfg.Stream.Group,
			Consumer: cfg.Stream.Consumer,
		})
		g.Go(func() error { return worker.Start(gCtx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("Server exited")
}

package workers

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"insta-giveaway-backend/internal/common/logger"
	"insta-giveaway-backend/internal/metrics"
)

type Expirer interface {
	EndExpired(ctx context.Context) (int, error)
}

type TokenRefresher interface {
	RefreshExpiring(ctx context.Context, within time.Duration) (int, error)
}

type AnalyticsRegenerator interface {
	RegenerateAll(ctx context.Context) (int, error)
}

type AuditExporter interface {
	Export(ctx context.Context, staff bool, since time.Time) (string, int, error)
}

// Jobs are the periodic tasks. Exporter may be nil.
type Jobs struct {
	Expirer   Expirer
	Tokens    TokenRefresher
	Analytics AnalyticsRegenerator
	Exporter  AuditExporter
}

type ScheduleConfig struct {
	ExpireInterval      time.Duration
	TokenRefresh        time.Duration
	TokenRefreshWindow  time.Duration
	AnalyticsInterval   time.Duration
	AuditExportInterval time.Duration
}

// Scheduler runs Jobs on fixed intervals.
type Scheduler struct {
	jobs Jobs
	cfg  ScheduleConfig
	now  func() time.Time
	log  zerolog.Logger
}

func NewScheduler(jobs Jobs, cfg ScheduleConfig) *Scheduler {
	return &Scheduler{
		jobs: jobs,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
		log:  logger.Component("scheduler"),
	}
}

// Run registers the jobs and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}

	for name, job := range s.tasks() {
		if job.every <= 0 {
			continue
		}
		fn := job.fn
		_, err := sched.NewJob(
			gocron.DurationJob(job.every),
			gocron.NewTask(func() { s.runJob(ctx, name, fn) }),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return err
		}
		s.log.Info().Str("job", name).Dur("every", job.every).Msg("Job scheduled")
	}

	sched.Start()
	<-ctx.Done()
	s.log.Info().Msg("Stopping scheduler")
	return sched.Shutdown()
}

type task struct {
	every time.Duration
	fn    func(ctx context.Context) (int, error)
}

func (s *Scheduler) tasks() map[string]task {
	out := map[string]task{}
	if s.jobs.Expirer != nil {
		out["expire_giveaways"] = task{s.cfg.ExpireInterval, s.jobs.Expirer.EndExpired}
	}
	if s.jobs.Tokens != nil {
		out["refresh_tokens"] = task{s.cfg.TokenRefresh, func(ctx context.Context) (int, error) {
			return s.jobs.Tokens.RefreshExpiring(ctx, s.cfg.TokenRefreshWindow)
		}}
	}
	if s.jobs.Analytics != nil {
		out["regenerate_analytics"] = task{s.cfg.AnalyticsInterval, s.jobs.Analytics.RegenerateAll}
	}
	if s.jobs.Exporter != nil {
		out["export_audit"] = task{s.cfg.AuditExportInterval, func(ctx context.Context) (int, error) {
			_, n, err := s.jobs.Exporter.Export(ctx, true, s.now().Add(-s.cfg.AuditExportInterval))
			return n, err
		}}
	}
	return out
}

func (s *Scheduler) runJob(ctx context.Context, name string, fn func(ctx context.Context) (int, error)) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	n, err := fn(ctx)
	if err != nil {
		metrics.JobRuns.WithLabelValues(name, "error").Inc()
		s.log.Error().Err(err).Str("job", name).Dur("took", time.Since(start)).Msg("Job failed")
		return
	}
	metrics.JobRuns.WithLabelValues(name, "success").Inc()
	s.log.Info().Str("job", name).Int("affected", n).Dur("took", time.Since(start)).Msg("Job finished")
}

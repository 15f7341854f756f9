package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	go_redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	go_redis.Cmdable
	acked []string
}

func (f *fakeRedis) XAck(ctx context.Context, stream, group string, ids ...string) *go_redis.IntCmd {
	f.acked = append(f.acked, ids...)
	cmd := go_redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(ids)))
	return cmd
}

type recordingHandler struct {
	seen []map[string]interface{}
	err  error
}

func (h *recordingHandler) ApplyEvent(_ context.Context, values map[string]interface{}) error {
	h.seen = append(h.seen, values)
	return h.err
}

func TestStreamWorker_ProcessAcks(t *testing.T) {
	rdb := &fakeRedis{}
	h := &recordingHandler{}
	w := NewRedisStreamWorker(rdb, h, StreamConfig{Key: "audit:events", Group: "g", Consumer: "c"})

	w.process(context.Background(), go_redis.XMessage{ID: "1-0", Values: map[string]interface{}{"action_type": "entry_created"}})
	h.err = errors.New("bad payload")
	w.process(context.Background(), go_redis.XMessage{ID: "2-0", Values: map[string]interface{}{"action_type": "entry_verified"}})

	assert.Len(t, h.seen, 2)
	assert.Equal(t, []string{"1-0", "2-0"}, rdb.acked)
}

type countingJob struct {
	calls  int
	within time.Duration
	since  time.Time
	err    error
}

func (j *countingJob) EndExpired(context.Context) (int, error) {
	j.calls++
	return 2, j.err
}

func (j *countingJob) RefreshExpiring(_ context.Context, within time.Duration) (int, error) {
	j.calls++
	j.within = within
	return 1, j.err
}

func (j *countingJob) RegenerateAll(context.Context) (int, error) {
	j.calls++
	return 3, j.err
}

func (j *countingJob) Export(_ context.Context, staff bool, since time.Time) (string, int, error) {
	j.calls++
	j.since = since
	return "audit/key.ndjson", 4, j.err
}

func TestScheduler_Tasks(t *testing.T) {
	job := &countingJob{}
	s := NewScheduler(Jobs{Expirer: job, Tokens: job, Analytics: job}, ScheduleConfig{
		ExpireInterval:     time.Minute,
		TokenRefresh:       6 * time.Hour,
		TokenRefreshWindow: 168 * time.Hour,
		AnalyticsInterval:  time.Hour,
	})

	tasks := s.tasks()
	require.Len(t, tasks, 3)
	assert.NotContains(t, tasks, "export_audit")
	assert.Equal(t, time.Minute, tasks["expire_giveaways"].every)

	n, err := tasks["refresh_tokens"].fn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 168*time.Hour, job.within)
}

func TestScheduler_ExportWindow(t *testing.T) {
	now := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	job := &countingJob{}
	s := NewScheduler(Jobs{Exporter: job}, ScheduleConfig{AuditExportInterval: 24 * time.Hour})
	s.now = func() time.Time { return now }

	n, err := s.tasks()["export_audit"].fn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, now.Add(-24*time.Hour), job.since)
}

func TestScheduler_RunJob(t *testing.T) {
	job := &countingJob{err: errors.New("db down")}
	s := NewScheduler(Jobs{Expirer: job}, ScheduleConfig{ExpireInterval: time.Minute})

	// errors are logged, not propagated
	s.runJob(context.Background(), "expire_giveaways", job.EndExpired)
	assert.Equal(t, 1, job.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.runJob(ctx, "expire_giveaways", job.EndExpired)
	assert.Equal(t, 1, job.calls)
}

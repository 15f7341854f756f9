package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	da "insta-giveaway-backend/internal/domain/analytics"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type delta struct {
	userID     int64
	giveawayID string
	day        time.Time
	d          da.DailyDelta
}

type fakeRepo struct {
	overviews map[int64]*da.OverviewStats
	computed  []int64
	creators  map[string]int64
	deltas    []delta
	since     time.Time
	from, to  time.Time
	topCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{overviews: map[int64]*da.OverviewStats{}, creators: map[string]int64{}}
}

func (f *fakeRepo) GetOverview(_ context.Context, userID int64) (*da.OverviewStats, error) {
	return f.overviews[userID], nil
}

func (f *fakeRepo) SaveOverview(_ context.Context, s *da.OverviewStats) error {
	f.overviews[s.UserID] = s
	return nil
}

func (f *fakeRepo) ComputeOverview(_ context.Context, userID int64) (*da.OverviewStats, error) {
	f.computed = append(f.computed, userID)
	return &da.OverviewStats{UserID: userID, TotalGiveaways: 3, TotalParticipants: 8, CompletionRate: 37.5}, nil
}

func (f *fakeRepo) Activity(_ context.Context, _ int64, from, to time.Time) ([]da.ActivityPoint, error) {
	f.from, f.to = from, to
	return nil, nil
}

func (f *fakeRepo) EngagementSince(_ context.Context, _ int64, since time.Time) (*da.Engagement, error) {
	f.since = since
	return &da.Engagement{Likes: 2, Follows: 3}, nil
}

func (f *fakeRepo) ApplyDelta(_ context.Context, userID int64, giveawayID string, day time.Time, d da.DailyDelta) error {
	f.deltas = append(f.deltas, delta{userID, giveawayID, day, d})
	return nil
}

func (f *fakeRepo) TopGiveaways(_ context.Context, _ int64, _ int) ([]da.TopGiveaway, error) {
	f.topCalls++
	return []da.TopGiveaway{{ID: "g1", EntryCount: 4}}, nil
}

func (f *fakeRepo) CreatorIDs(_ context.Context) ([]int64, error) {
	return []int64{1, 2}, nil
}

func (f *fakeRepo) CreatorOf(_ context.Context, giveawayID string) (int64, error) {
	return f.creators[giveawayID], nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	s := NewService(repo, time.Hour)
	s.now = func() time.Time { return testNow }
	return s, repo
}

func TestOverview_ComputesWhenMissing(t *testing.T) {
	s, repo := newTestService()

	stats, err := s.Overview(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalGiveaways)
	assert.Equal(t, testNow, stats.LastUpdated)
	assert.Equal(t, []int64{1}, repo.computed)
	assert.Same(t, stats, repo.overviews[1])
}

func TestOverview_Staleness(t *testing.T) {
	s, repo := newTestService()
	repo.overviews[1] = &da.OverviewStats{UserID: 1, TotalGiveaways: 9, LastUpdated: testNow.Add(-30 * time.Minute)}

	stats, err := s.Overview(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 9, stats.TotalGiveaways)
	assert.Empty(t, repo.computed)

	repo.overviews[1].LastUpdated = testNow.Add(-2 * time.Hour)
	stats, err = s.Overview(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalGiveaways)
	assert.Equal(t, []int64{1}, repo.computed)
}

func TestTimeseries_DefaultRange(t *testing.T) {
	s, repo := newTestService()

	points, err := s.Timeseries(context.Background(), 1, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, points)
	assert.Empty(t, points)
	assert.Equal(t, testNow, repo.to)
	assert.Equal(t, testNow.Add(-30*24*time.Hour), repo.from)

	_, err = s.Timeseries(context.Background(), 1, testNow, testNow.Add(-time.Hour))
	assert.Error(t, err)
}

func TestEngagement(t *testing.T) {
	s, repo := newTestService()

	res, err := s.Engagement(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Likes)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, testNow.Add(-30*24*time.Hour), repo.since)
}

func TestRegenerateAll(t *testing.T) {
	s, repo := newTestService()

	n, err := s.RegenerateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2}, repo.computed)
}

func TestApplyEvent(t *testing.T) {
	s, repo := newTestService()
	repo.creators["g1"] = 7
	ctx := context.Background()

	require.NoError(t, s.ApplyEvent(ctx, map[string]interface{}{
		"id":          "1",
		"action_type": "entry_created",
		"timestamp":   "2026-05-30T08:00:00Z",
		"details":     `{"giveaway_id":"g1","instagram_username":"jane"}`,
	}))
	require.NoError(t, s.ApplyEvent(ctx, map[string]interface{}{
		"id":          "2",
		"action_type": "entry_verified",
		"details":     `{"giveaway_id":"g1","verification_results":{"follow":true,"like":true,"comment":false,"custom_rule_x":true}}`,
	}))

	require.Len(t, repo.deltas, 2)
	created := repo.deltas[0]
	assert.Equal(t, int64(7), created.userID)
	assert.Equal(t, "g1", created.giveawayID)
	assert.Equal(t, time.Date(2026, 5, 30, 8, 0, 0, 0, time.UTC), created.day)
	assert.Equal(t, 1, created.d.Participants)

	verified := repo.deltas[1]
	assert.Equal(t, testNow, verified.day)
	assert.Equal(t, 1, verified.d.Verified)
	assert.Equal(t, da.Engagement{Follows: 1, Likes: 1}, verified.d.Engagement)
}

func TestApplyEvent_ReverificationCountedOnce(t *testing.T) {
	s, repo := newTestService()
	repo.creators["g1"] = 7
	ctx := context.Background()

	verified := func(first bool) map[string]interface{} {
		return map[string]interface{}{
			"action_type": "entry_verified",
			"details":     fmt.Sprintf(`{"giveaway_id":"g1","first_verification":%t,"verification_results":{"follow":true}}`, first),
		}
	}
	require.NoError(t, s.ApplyEvent(ctx, verified(true)))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.ApplyEvent(ctx, verified(false)))
	}

	require.Len(t, repo.deltas, 1)
	assert.Equal(t, 1, repo.deltas[0].d.Verified)
	assert.Equal(t, 1, repo.deltas[0].d.Engagement.Follows)
}

func TestApplyEvent_Ignored(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	// other actions
	require.NoError(t, s.ApplyEvent(ctx, map[string]interface{}{"action_type": "winner_selected", "details": "{}"}))
	// unknown giveaway
	require.NoError(t, s.ApplyEvent(ctx, map[string]interface{}{
		"action_type": "entry_created",
		"details":     `{"giveaway_id":"gone"}`,
	}))
	assert.Empty(t, repo.deltas)

	err := s.ApplyEvent(ctx, map[string]interface{}{"action_type": "entry_created", "details": "not json"})
	assert.Error(t, err)
}

type memCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func (m *memCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.ttls[key] = ttl
	return nil
}

func TestTopGiveaways_Cached(t *testing.T) {
	s, repo := newTestService()
	mc := &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
	s.WithCache(mc, 5*time.Minute)

	first, err := s.TopGiveaways(context.Background(), 1, 5)
	require.NoError(t, err)
	second, err := s.TopGiveaways(context.Background(), 1, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.topCalls)
	assert.Equal(t, first, second)
	assert.Equal(t, 5*time.Minute, mc.ttls["top:1:5"])

	_, err = s.TopGiveaways(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.topCalls)
}

func TestEngagement_CachedTotal(t *testing.T) {
	s, repo := newTestService()
	s.WithCache(&memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}, time.Minute)

	_, err := s.Engagement(context.Background(), 7)
	require.NoError(t, err)
	repo.since = time.Time{}

	res, err := s.Engagement(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.True(t, repo.since.IsZero())
}

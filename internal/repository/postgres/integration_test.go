//go:build integration

package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dg "insta-giveaway-backend/internal/domain/giveaway"
	"insta-giveaway-backend/internal/domain/jsonb"
	pgplatform "insta-giveaway-backend/internal/platform/postgres"
	"insta-giveaway-backend/internal/repository/postgres"
)

// testDB connects to TEST_DB_URL, applies the schema and empties the tables.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("TEST_DB_URL")
	if url == "" {
		t.Skip("TEST_DB_URL not set")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, pgplatform.FromDB(db).Migrate(ctx))
	_, err = db.ExecContext(ctx, `TRUNCATE users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *sqlx.DB, email string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.Get(&id, `INSERT INTO users (email) VALUES ($1) RETURNING id`, email))
	return id
}

func seedAccount(t *testing.T, db *sqlx.DB, userID int64) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.Get(&id, `INSERT INTO instagram_accounts (user_id, username) VALUES ($1, 'acc') RETURNING id`, userID))
	return id
}

func seedGiveaway(t *testing.T, repo *postgres.GiveawayRepository, creator int64, status dg.GiveawayStatus) *dg.Giveaway {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	g := &dg.Giveaway{
		ID:          uuid.NewString(),
		Title:       "Giveaway " + string(status),
		Slug:        "g-" + uuid.NewString(),
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(time.Hour),
		Status:      status,
		WinnerCount: 1,
		CreatedBy:   creator,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repo.Create(context.Background(), g))
	return g
}

func seedEntry(t *testing.T, repo *postgres.EntryRepository, giveawayID, username string, accountID *int64) *dg.Entry {
	t.Helper()
	now := time.Now().UTC()
	e := &dg.Entry{
		ID:                  uuid.NewString(),
		GiveawayID:          giveawayID,
		InstagramUsername:   username,
		InstagramAccountID:  accountID,
		VerificationStatus:  dg.VerificationPending,
		VerificationDetails: jsonb.Map{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, repo.Create(context.Background(), e))
	return e
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func TestGiveawayRepository_ListVisibility(t *testing.T) {
	db := testDB(t)
	repo := postgres.NewGiveawayRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")

	active := seedGiveaway(t, repo, alice, dg.GiveawayStatusActive)
	ended := seedGiveaway(t, repo, alice, dg.GiveawayStatusEnded)
	draft := seedGiveaway(t, repo, alice, dg.GiveawayStatusDraft)
	bobDraft := seedGiveaway(t, repo, bob, dg.GiveawayStatusDraft)
	giveawayID := func(g dg.Giveaway) string { return g.ID }

	out, err := repo.List(ctx, dg.ListFilter{Viewer: dg.Viewer{UserID: bob}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{active.ID, ended.ID, bobDraft.ID}, ids(out, giveawayID))

	out, err = repo.List(ctx, dg.ListFilter{Viewer: dg.Viewer{UserID: bob, IsStaff: true}, Ordering: "created_at"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{active.ID, ended.ID, draft.ID, bobDraft.ID}, ids(out, giveawayID))

	out, err = repo.List(ctx, dg.ListFilter{Viewer: dg.Viewer{UserID: alice}, Ordering: "title; DROP TABLE giveaways"})
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestEntryRepository_ListVisibility(t *testing.T) {
	db := testDB(t)
	giveaways := postgres.NewGiveawayRepository(db)
	entries := postgres.NewEntryRepository(db)
	ctx := context.Background()
	creator := seedUser(t, db, "creator@example.com")
	participant := seedUser(t, db, "participant@example.com")
	stranger := seedUser(t, db, "stranger@example.com")
	account := seedAccount(t, db, participant)

	g := seedGiveaway(t, giveaways, creator, dg.GiveawayStatusActive)
	own := seedEntry(t, entries, g.ID, "participant", &account)
	other := seedEntry(t, entries, g.ID, "someone", nil)
	entryID := func(e dg.Entry) string { return e.ID }

	out, err := entries.List(ctx, dg.EntryFilter{Viewer: dg.Viewer{UserID: creator}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{own.ID, other.ID}, ids(out, entryID))

	out, err = entries.List(ctx, dg.EntryFilter{Viewer: dg.Viewer{UserID: participant, AccountID: &account}})
	require.NoError(t, err)
	assert.Equal(t, []string{own.ID}, ids(out, entryID))

	out, err = entries.List(ctx, dg.EntryFilter{Viewer: dg.Viewer{UserID: stranger}})
	require.NoError(t, err)
	assert.Empty(t, out)

	err = entries.Create(ctx, &dg.Entry{
		ID: uuid.NewString(), GiveawayID: g.ID, InstagramUsername: "someone",
		VerificationStatus: dg.VerificationPending, VerificationDetails: jsonb.Map{},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, dg.ErrDuplicateEntry)
}

func TestWinnerRepository_GetOrCreateAndVisibility(t *testing.T) {
	db := testDB(t)
	giveaways := postgres.NewGiveawayRepository(db)
	entries := postgres.NewEntryRepository(db)
	winners := postgres.NewWinnerRepository(db)
	ctx := context.Background()
	creator := seedUser(t, db, "creator@example.com")
	stranger := seedUser(t, db, "stranger@example.com")

	g := seedGiveaway(t, giveaways, creator, dg.GiveawayStatusActive)
	e := seedEntry(t, entries, g.ID, "lucky", nil)

	first, created, err := winners.GetOrCreate(ctx, &dg.Winner{ID: uuid.NewString(), GiveawayID: g.ID, EntryID: e.ID, SelectedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "lucky", first.InstagramUsername)

	again, created, err := winners.GetOrCreate(ctx, &dg.Winner{ID: uuid.NewString(), GiveawayID: g.ID, EntryID: e.ID, SelectedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM giveaway_winners WHERE entry_id=$1`, e.ID))
	assert.Equal(t, 1, n)

	out, err := winners.List(ctx, dg.WinnerFilter{Viewer: dg.Viewer{UserID: stranger}})
	require.NoError(t, err)
	assert.Empty(t, out)

	require.NoError(t, giveaways.UpdateStatus(ctx, g.ID, dg.GiveawayStatusEnded))
	out, err = winners.List(ctx, dg.WinnerFilter{Viewer: dg.Viewer{UserID: stranger}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, first.ID, out[0].ID)
}

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dg "insta-giveaway-backend/internal/domain/giveaway"
)

func TestGiveawayListQuery_Visibility(t *testing.T) {
	sqlStr, args, err := giveawayListQuery(dg.ListFilter{Viewer: dg.Viewer{UserID: 5}}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "WHERE (g.status IN ($1,$2) OR g.created_by = $3)")
	assert.Equal(t, []interface{}{"active", "ended", int64(5)}, args)
	assert.Contains(t, sqlStr, "ORDER BY g.created_at DESC LIMIT 100 OFFSET 0")

	sqlStr, args, err = giveawayListQuery(dg.ListFilter{Viewer: dg.Viewer{UserID: 5, IsStaff: true}}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sqlStr, "WHERE")
	assert.Empty(t, args)
}

func TestGiveawayListQuery_Filters(t *testing.T) {
	creator := int64(9)
	sqlStr, args, err := giveawayListQuery(dg.ListFilter{
		Viewer:    dg.Viewer{IsStaff: true},
		Status:    dg.GiveawayStatusDraft,
		CreatedBy: &creator,
		Search:    " summer ",
		Ordering:  "end_date",
		Limit:     20,
		Offset:    40,
	}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "WHERE g.status = $1 AND g.created_by = $2 AND (g.title ILIKE $3 OR g.description ILIKE $4)")
	assert.Equal(t, []interface{}{dg.GiveawayStatusDraft, int64(9), "%summer%", "%summer%"}, args)
	assert.Contains(t, sqlStr, "ORDER BY g.end_date ASC LIMIT 20 OFFSET 40")
}

func TestGiveawayListQuery_Ordering(t *testing.T) {
	cases := map[string]string{
		"-start_date":           "ORDER BY g.start_date DESC",
		"title":                 "ORDER BY g.title ASC",
		"":                      "ORDER BY g.created_at DESC",
		"id; DROP TABLE users":  "ORDER BY g.created_at DESC",
		"created_at desc":       "ORDER BY g.created_at DESC",
		"-created_at":           "ORDER BY g.created_at DESC",
		"created_at":            "ORDER BY g.created_at ASC",
		"g.created_by":          "ORDER BY g.created_at DESC",
		"-end_date":             "ORDER BY g.end_date DESC",
		"start_date":            "ORDER BY g.start_date ASC",
		"-title":                "ORDER BY g.title DESC",
		"end_date":              "ORDER BY g.end_date ASC",
		"(SELECT 1)":            "ORDER BY g.created_at DESC",
		"-created_at, password": "ORDER BY g.created_at DESC",
	}
	for ordering, want := range cases {
		sqlStr, _, err := giveawayListQuery(dg.ListFilter{Viewer: dg.Viewer{IsStaff: true}, Ordering: ordering}).ToSql()
		require.NoError(t, err)
		assert.Contains(t, sqlStr, want, "ordering %q", ordering)
	}
}

func TestGiveawayListQuery_PageClamp(t *testing.T) {
	sqlStr, _, err := giveawayListQuery(dg.ListFilter{Viewer: dg.Viewer{IsStaff: true}, Limit: 5000, Offset: -3}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "LIMIT 100 OFFSET 0")
}

func TestEntryListQuery_Visibility(t *testing.T) {
	account := int64(7)

	sqlStr, args, err := entryListQuery(dg.EntryFilter{Viewer: dg.Viewer{UserID: 2}}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "JOIN giveaways g ON g.id = e.giveaway_id")
	assert.Contains(t, sqlStr, "WHERE (g.created_by = $1)")
	assert.Equal(t, []interface{}{int64(2)}, args)

	sqlStr, args, err = entryListQuery(dg.EntryFilter{
		Viewer:     dg.Viewer{UserID: 2, AccountID: &account},
		GiveawayID: "0b5c9a8e-4f4e-4d55-9f3b-0a1e2f3c4d5e",
		Status:     dg.VerificationVerified,
	}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr,
		"WHERE (g.created_by = $1 OR e.instagram_account_id = $2) AND e.giveaway_id = $3 AND e.verification_status = $4")
	assert.Equal(t, []interface{}{int64(2), int64(7), "0b5c9a8e-4f4e-4d55-9f3b-0a1e2f3c4d5e", dg.VerificationVerified}, args)

	sqlStr, args, err = entryListQuery(dg.EntryFilter{Viewer: dg.Viewer{IsStaff: true}, AccountID: &account}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "WHERE e.instagram_account_id = $1 ORDER BY e.created_at DESC")
	assert.Equal(t, []interface{}{int64(7)}, args)
}

func TestWinnerListQuery_Visibility(t *testing.T) {
	contacted := true

	sqlStr, args, err := winnerListQuery(dg.WinnerFilter{Viewer: dg.Viewer{UserID: 3}, Contacted: &contacted}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "WHERE (g.created_by = $1 OR g.status = $2) AND w.contacted = $3")
	assert.Equal(t, []interface{}{int64(3), "ended", true}, args)

	sqlStr, args, err = winnerListQuery(dg.WinnerFilter{Viewer: dg.Viewer{IsStaff: true}}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sqlStr, "WHERE")
	assert.Empty(t, args)
}

func TestRuleListQuery_Visibility(t *testing.T) {
	sqlStr, args, err := ruleListQuery(dg.RuleFilter{Viewer: dg.Viewer{UserID: 4}}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sqlStr, "WHERE (g.created_by = $1 OR g.status IN ($2,$3)) ORDER BY r.created_at")
	assert.Equal(t, []interface{}{int64(4), "active", "ended"}, args)
}

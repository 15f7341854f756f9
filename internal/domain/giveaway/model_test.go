package giveaway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGiveaway_IsActive(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	window := Giveaway{
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
	}

	tests := []struct {
		name   string
		status GiveawayStatus
		at     time.Time
		want   bool
	}{
		{"active inside window", GiveawayStatusActive, now, true},
		{"active at start boundary", GiveawayStatusActive, window.StartDate, true},
		{"active at end boundary", GiveawayStatusActive, window.EndDate, true},
		{"active before start", GiveawayStatusActive, now.Add(-2 * time.Hour), false},
		{"active after end", GiveawayStatusActive, now.Add(2 * time.Hour), false},
		{"paused inside window", GiveawayStatusPaused, now, false},
		{"draft inside window", GiveawayStatusDraft, now, false},
		{"ended inside window", GiveawayStatusEnded, now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := window
			g.Status = tt.status
			assert.Equal(t, tt.want, g.IsActive(tt.at))
		})
	}
}

func TestGiveaway_CanManage(t *testing.T) {
	g := Giveaway{CreatedBy: 7}
	assert.True(t, g.CanManage(7, false))
	assert.False(t, g.CanManage(8, false))
	assert.True(t, g.CanManage(8, true))
}

func TestGiveawayStatus_Valid(t *testing.T) {
	assert.True(t, GiveawayStatusPaused.Valid())
	assert.False(t, GiveawayStatus("finished").Valid())
}

func TestPatch_Apply(t *testing.T) {
	g := Giveaway{Title: "Old", WinnerCount: 1}
	title := "New"
	same := 1
	follow := true

	changed := Patch{Title: &title, WinnerCount: &same, VerifyFollow: &follow}.Apply(&g)

	assert.Equal(t, "New", g.Title)
	assert.True(t, g.VerifyFollow)
	assert.ElementsMatch(t, []string{"title", "verify_follow"}, changed)
}

func TestEntry_MarkVerifiedMergesDetails(t *testing.T) {
	now := time.Now().UTC()
	e := Entry{VerificationStatus: VerificationPending}
	e.MarkFailed(map[string]interface{}{"error": "x"}, now)
	assert.Equal(t, VerificationFailed, e.VerificationStatus)
	assert.Nil(t, e.VerifiedAt)

	e.MarkVerified(map[string]interface{}{"follow": true}, now)
	assert.True(t, e.IsVerified())
	assert.Equal(t, "x", e.VerificationDetails["error"])
	assert.Equal(t, true, e.VerificationDetails["follow"])
	if assert.NotNil(t, e.VerifiedAt) {
		assert.True(t, e.VerifiedAt.Equal(now))
	}
}

func TestWinner_Marks(t *testing.T) {
	now := time.Now()
	var w Winner
	w.MarkContacted(now)
	w.MarkClaimed(now)
	assert.True(t, w.Contacted)
	assert.True(t, w.PrizeClaimed)
	assert.NotNil(t, w.ContactedAt)
	assert.NotNil(t, w.ClaimedAt)
}

func TestRule_ResultKey(t *testing.T) {
	r := Rule{ID: "abc"}
	assert.Equal(t, "custom_rule_abc", r.ResultKey())
}

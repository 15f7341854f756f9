package audit

import (
	"context"
	"time"

	"insta-giveaway-backend/internal/domain/jsonb"
)

// ActionType names a significant action recorded in the log.
type ActionType string

const (
	ActionEntryCreated            ActionType = "entry_created"
	ActionEntryVerified           ActionType = "entry_verified"
	ActionEntryFailed             ActionType = "entry_failed"
	ActionWinnerSelected          ActionType = "winner_selected"
	ActionWinnerContacted         ActionType = "winner_contacted"
	ActionPrizeClaimed            ActionType = "prize_claimed"
	ActionVerificationRuleCreated ActionType = "verification_rule_created"
	ActionVerificationRuleUpdated ActionType = "verification_rule_updated"
	ActionGiveawayCreated         ActionType = "giveaway_created"
	ActionGiveawayUpdated         ActionType = "giveaway_updated"
	ActionGiveawayStatusChanged   ActionType = "giveaway_status_changed"
	ActionEntriesRevalidated      ActionType = "entries_revalidated"
)

// Object types used in Log.ObjectType.
const (
	ObjectEntry    = "Entry"
	ObjectWinner   = "Winner"
	ObjectGiveaway = "Giveaway"
	ObjectRule     = "VerificationRule"
)

// Log is one append-only audit row. UserID is nil for system actions.
type Log struct {
	ID            int64      `json:"id" db:"id"`
	UserID        *int64     `json:"user" db:"user_id"`
	ActionType    ActionType `json:"action_type" db:"action_type"`
	ActionDetails jsonb.Map  `json:"action_details" db:"action_details"`
	ObjectID      string     `json:"object_id" db:"object_id"`
	ObjectType    string     `json:"object_type" db:"object_type"`
	Timestamp     time.Time  `json:"timestamp" db:"timestamp"`
	IPAddress     *string    `json:"ip_address" db:"ip_address"`
}

// Filter narrows audit listings. Results are newest first unless Ascending.
type Filter struct {
	ActionType ActionType
	ObjectType string
	ObjectID   string
	UserID     *int64
	Since      *time.Time
	Ascending  bool
	Limit      int
	Offset     int
}

// Repository has no update or delete by design of the log.
type Repository interface {
	Append(ctx context.Context, l *Log) error
	List(ctx context.Context, f Filter) ([]Log, error)
}

package giveaway

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateEntry is returned by EntryRepository.Create on a unique
// (giveaway, instagram_username) violation.
var ErrDuplicateEntry = errors.New("duplicate entry")

// Viewer identifies who is listing, for visibility filtering.
type Viewer struct {
	UserID    int64
	IsStaff   bool
	AccountID *int64
}

// ListFilter narrows giveaway listings.
type ListFilter struct {
	Viewer    Viewer
	Status    GiveawayStatus
	Search    string
	Ordering  string
	CreatedBy *int64
	Limit     int
	Offset    int
}

type EntryFilter struct {
	Viewer     Viewer
	GiveawayID string
	Status     VerificationStatus
	AccountID  *int64
	Limit      int
	Offset     int
}

type WinnerFilter struct {
	Viewer       Viewer
	GiveawayID   string
	Contacted    *bool
	PrizeClaimed *bool
	Limit        int
	Offset       int
}

type RuleFilter struct {
	Viewer     Viewer
	GiveawayID string
}

// Repository persists giveaways. Getters return (nil, nil) when missing.
type Repository interface {
	Create(ctx context.Context, g *Giveaway) error
	GetByID(ctx context.Context, id string) (*Giveaway, error)
	Update(ctx context.Context, g *Giveaway) error
	UpdateStatus(ctx context.Context, id string, status GiveawayStatus) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]Giveaway, error)
	ListExpiredActive(ctx context.Context, now time.Time) ([]Giveaway, error)
}

type EntryRepository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id string) (*Entry, error)
	Exists(ctx context.Context, giveawayID, username string) (bool, error)
	Save(ctx context.Context, e *Entry) error
	List(ctx context.Context, f EntryFilter) ([]Entry, error)
	ListByStatus(ctx context.Context, giveawayID string, status VerificationStatus) ([]Entry, error)
}

type WinnerRepository interface {
	// GetOrCreate returns the existing winner for w.EntryID, or inserts w.
	GetOrCreate(ctx context.Context, w *Winner) (*Winner, bool, error)
	GetByID(ctx context.Context, id string) (*Winner, error)
	Save(ctx context.Context, w *Winner) error
	List(ctx context.Context, f WinnerFilter) ([]Winner, error)
}

type RuleRepository interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id string) (*Rule, error)
	Update(ctx context.Context, r *Rule) error
	Delete(ctx context.Context, id string) error
	ListByGiveaway(ctx context.Context, giveawayID string) ([]Rule, error)
	List(ctx context.Context, f RuleFilter) ([]Rule, error)
}

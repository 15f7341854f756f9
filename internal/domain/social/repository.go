package social

import (
	"context"
	"time"
)

// Repository persists linked accounts, interaction records and the media
// cache. Getters return (nil, nil) when missing.
type Repository interface {
	GetByUserID(ctx context.Context, userID int64) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	// Upsert inserts or replaces the account of a.UserID and sets a.ID.
	Upsert(ctx context.Context, a *Account) error
	SaveToken(ctx context.Context, a *Account) error
	DeleteByUserID(ctx context.Context, userID int64) error
	ListExpiring(ctx context.Context, before time.Time) ([]Account, error)

	UpsertInteraction(ctx context.Context, i *Interaction) error
	CountVerifiedInteractions(ctx context.Context, accountID int64) (int, error)

	UpsertMedia(ctx context.Context, items []Media) error
	ListMedia(ctx context.Context, accountID int64) ([]Media, error)
}

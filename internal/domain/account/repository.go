package account

import "context"

// Repository defines persistence operations for users and profiles.
// Getters return (nil, nil) when the row does not exist.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	RegisterSSO(ctx context.Context, reg SSORegistration) (*User, error)
	UpdateProfile(ctx context.Context, userID int64, patch ProfilePatch) error
}

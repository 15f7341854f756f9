package account

import "time"

// User is a local identity. Email is the lookup key for bearer tokens.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	IsStaff   bool      `json:"is_staff" db:"is_staff"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Profile *Profile `json:"profile,omitempty" db:"-"`
}

// Profile extends User with display fields and SSO provider linkage.
type Profile struct {
	UserID             int64     `json:"-" db:"user_id"`
	DisplayName        string    `json:"display_name" db:"display_name"`
	Bio                string    `json:"bio" db:"bio"`
	Website            string    `json:"website" db:"website"`
	AuthProvider       string    `json:"auth_provider" db:"auth_provider"`
	ProviderUserID     string    `json:"provider_user_id" db:"provider_user_id"`
	ProviderProfileURL string    `json:"provider_profile_url" db:"provider_profile_url"`
	ProviderImageURL   string    `json:"provider_image_url" db:"provider_image_url"`
	LastLoginProvider  string    `json:"last_login_provider" db:"last_login_provider"`
	AuthToken          string    `json:"-" db:"auth_token"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`

	HasInstagramConnected bool `json:"has_instagram_connected" db:"has_instagram_connected"`
}

// ProfilePatch is a partial update; nil fields are left untouched.
type ProfilePatch struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Website     *string `json:"website"`
}

// SSORegistration carries what the frontend learned from the identity provider.
type SSORegistration struct {
	Email              string `json:"email" binding:"required,email"`
	Username           string `json:"username"`
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	Provider           string `json:"provider" binding:"required"`
	ProviderUserID     string `json:"provider_user_id"`
	ProviderProfileURL string `json:"provider_profile_url"`
	ProviderImageURL   string `json:"provider_image_url"`
	AuthToken          string `json:"auth_token"`
}

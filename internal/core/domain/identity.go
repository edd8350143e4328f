package domain

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Membership tiers gating how many posts a non-paying member may create.
// Gold is unlocked through the payment collaborator.
const (
	TierBronze = "Bronze Badge"
	TierGold   = "Gold Badge"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Identity is the authenticated principal issued by the identity provider.
// It is replaced wholesale on every provider change event (including silent
// token refresh) and destroyed on sign-out.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
	// Token is the short-lived bearer token. It must always be treated as
	// possibly stale and re-fetched from the provider rather than trusted
	// long-term.
	Token string `json:"-"`
}

// Session is a snapshot of one session context: the current identity (nil
// when anonymous), the loading flag, and the theme preference.
//
// IsLoading is true exactly from context construction until the provider's
// first change callback, even when that callback reports "no identity".
type Session struct {
	Identity  *Identity `json:"identity,omitempty"`
	IsLoading bool      `json:"is_loading"`
	Theme     string    `json:"theme"`
}

// ProfileUpdate is a partial update applied to the current identity.
// Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	PhotoURL    *string `json:"photo_url,omitempty"`
}

// Role is the cached authorization classification for one email.
type Role struct {
	Email     string    `json:"email"`
	Value     string    `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// IsAdmin reports whether the role grants access to admin-only routes.
func (r Role) IsAdmin() bool {
	return r.Value == RoleAdmin
}

// ProfileRecord is the account record emitted to the backend directory when
// a new account is created. Emission is fire-and-forget: a failed record
// never rolls back the already-created identity.
type ProfileRecord struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Role        string    `json:"role"`
	Tier        string    `json:"tier"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewProfileRecord builds the default record for a freshly created identity:
// role "user", Bronze Badge tier.
func NewProfileRecord(id *Identity, now time.Time) ProfileRecord {
	return ProfileRecord{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
		Role:        RoleUser,
		Tier:        TierBronze,
		CreatedAt:   now.UTC(),
	}
}

// Profile is the backend directory's view of an account.
type Profile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Tier        string    `json:"tier"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Account is a credentialed account held by the self-hosted identity
// provider. Federated accounts carry an empty PasswordHash.
type Account struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	PasswordHash string    `json:"-"`
	Federated    bool      `json:"federated"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity derives the provider-facing principal from an account.
func (a *Account) Identity() *Identity {
	return &Identity{
		UID:         a.UID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
	}
}

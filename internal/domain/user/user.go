package user

import (
	"time"

	"padel_notifier/internal/domain/push"
)

// Role controls which broadcasts a user receives.
type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleSubAdmin Role = "sub-admin"
)

// TokenRecord is one registered device token. RawPlatform is the key it is
// stored under; several records can share a Platform when their keys differ.
type TokenRecord struct {
	Platform    push.Platform
	RawPlatform string
	Token       string
	UpdatedAt   time.Time
}

// User represents an app user, admin or sub-admin.
type User struct {
	ID                string
	DisplayName       string
	Role              Role
	AssignedLocations []string
	Tokens            []TokenRecord
	LegacyToken       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsAssignedTo reports whether any of the given location identifiers (id or name)
// is in the user's assigned locations.
func (u *User) IsAssignedTo(identifiers ...string) bool {
	for _, assigned := range u.AssignedLocations {
		for _, id := range identifiers {
			if id != "" && assigned == id {
				return true
			}
		}
	}
	return false
}

// Token returns the token registered under platform's own key.
func (u *User) Token(platform push.Platform) (TokenRecord, bool) {
	for _, rec := range u.Tokens {
		if rec.RawPlatform == string(platform) {
			return rec, true
		}
	}
	return TokenRecord{}, false
}

// LinkCode is a one-time code that links a Telegram chat to UserID.
type LinkCode struct {
	Code      string
	UserID    string
	ExpiresAt time.Time
}

package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Placeholder profile values assigned to accounts created through Google
// sign-in until the user completes their profile.
const (
	PlaceholderAddress = "Not provided"
	PlaceholderCity    = "Not provided"
	PlaceholderCountry = "Not provided"
)

// User is the server-owned identity record. Email is the natural key shared
// by every auth provider; GoogleID and FirebaseUID only disambiguate.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	PasswordHash      string    `json:"-"`
	GoogleID          string    `json:"googleId,omitempty"`
	FirebaseUID       string    `json:"firebaseUid,omitempty"`
	Avatar            string    `json:"avatar,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Address           string    `json:"address,omitempty"`
	City              string    `json:"city,omitempty"`
	Country           string    `json:"country,omitempty"`
	ProfileIncomplete bool      `json:"profileIncomplete,omitempty"`
	Role              string    `json:"role"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

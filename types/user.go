package types

import "time"

// User represents an account that owns products.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Fullname is the display name given at registration.
	Fullname string `json:"fullname" db:"fullname"`

	// Email is the login identifier. Unique across all users,
	// compared case-sensitively.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PublicUser is the projection of a User returned after login.
type PublicUser struct {
	ID       int    `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// Public strips everything but identity and profile fields.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Fullname: u.Fullname,
		Email:    u.Email,
	}
}

// Identity is the caller resolved from a verified session token.
type Identity struct {
	UserID int
	Email  string
}

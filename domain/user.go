package domain

import "time"

// User represents a registered identity.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`

	// PasswordHash is the argon2id-encoded credential. It stays out of the
	// JSON form handed to presentation layers; only the user repository
	// serializes it.
	PasswordHash string `json:"-"`
}

// Sanitized returns a copy safe to hand outside the identity provider.
func (u *User) Sanitized() User {
	if u == nil {
		return User{}
	}
	out := *u
	out.PasswordHash = ""
	return out
}

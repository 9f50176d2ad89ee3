package models

import "time"

// User is the profile of an authenticated principal, as supplied by the
// identity provider. Only what the audit log needs is kept.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updatedAt"`
}

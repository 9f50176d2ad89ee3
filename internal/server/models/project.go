// Package models defines server-side data models persisted in the store.
package models

import "time"

// Permission is the access level granted to a project collaborator.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionWrite
}

// Member grants one collaborator access to a project.
type Member struct {
	UserID     string     `json:"userId"`
	Permission Permission `json:"permission"`
}

// Project groups environment files and secrets. The owner is fixed at
// creation and never appears in Members.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Members   []Member  `json:"members"`
	CreatedAt time.Time `json:"createdAt"`
}

// Member returns the membership entry for userID, if any.
func (p *Project) Member(userID string) (Member, bool) {
	for _, m := range p.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

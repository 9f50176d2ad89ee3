package models

import (
	"time"

	"github.com/dmitrijs2005/hashenv/internal/cryptox"
)

// Secret is a single named value, unique per project. Updates overwrite it
// in place.
type Secret struct {
	ID        string
	ProjectID string
	Name      string
	Blob      cryptox.Blob
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SecretMeta is the externally visible part of a Secret.
type SecretMeta struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Meta strips the blob.
func (s *Secret) Meta() *SecretMeta {
	return &SecretMeta{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		Name:      s.Name,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

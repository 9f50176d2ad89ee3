package secrets

import (
	"context"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

// Repository stores named secrets. Names are unique per project.
type Repository interface {
	// Create yields common.ErrConflict when the name is taken.
	Create(ctx context.Context, s *models.Secret) error
	GetByID(ctx context.Context, projectID, id string) (*models.Secret, error)
	GetByName(ctx context.Context, projectID, name string) (*models.Secret, error)
	// Update overwrites name and blob in place.
	Update(ctx context.Context, s *models.Secret) error
	Delete(ctx context.Context, projectID, id string) error
	List(ctx context.Context, projectID string) ([]*models.SecretMeta, error)
}

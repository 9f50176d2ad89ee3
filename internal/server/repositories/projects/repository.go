package projects

import (
	"context"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

// Repository stores projects and their collaborator grants.
type Repository interface {
	Create(ctx context.Context, p *models.Project) error
	// GetByID returns the project with its members, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Project, error)
	ListOwnedBy(ctx context.Context, ownerID string) ([]*models.Project, error)
	ListAccessibleBy(ctx context.Context, userID string) ([]*models.Project, error)
	// UpsertMember adds or replaces the grant for m.UserID.
	UpsertMember(ctx context.Context, projectID string, m models.Member) error
	// RemoveMember deletes the grant; a missing grant is not an error.
	RemoveMember(ctx context.Context, projectID, userID string) error
	ClearMembers(ctx context.Context, projectID string) (int64, error)
}

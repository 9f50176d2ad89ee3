package envfiles

import (
	"context"

	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

// Repository stores versioned environment files.
type Repository interface {
	// Insert stores a new version. A taken (project, environment, version)
	// slot yields common.ErrConflict.
	Insert(ctx context.Context, f *models.EnvFile) error
	// MaxVersion returns the highest stored version, or 0 when none exist.
	MaxVersion(ctx context.Context, projectID string, env models.Environment) (int, error)
	GetByID(ctx context.Context, projectID, id string) (*models.EnvFile, error)
	GetLatest(ctx context.Context, projectID string, env models.Environment) (*models.EnvFile, error)
	GetByVersion(ctx context.Context, projectID string, env models.Environment, version int) (*models.EnvFile, error)
	UpdateBlob(ctx context.Context, projectID, id string, blob cryptox.Blob) error
	Delete(ctx context.Context, projectID, id string) error
	// List returns metadata ordered by environment, then version descending.
	// An empty env lists every environment.
	List(ctx context.Context, projectID string, env models.Environment) ([]*models.EnvFileMeta, error)
	// ListLatest returns the newest version of every environment of the project.
	ListLatest(ctx context.Context, projectID string) ([]*models.EnvFile, error)
	DeleteByProject(ctx context.Context, projectID string) ([]*models.EnvFileMeta, error)
}

package exports

import (
	"context"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.Export) error
	ListByUser(ctx context.Context, userID string) ([]*models.Export, error)
	GetByID(ctx context.Context, userID, id string) (*models.Export, error)
}

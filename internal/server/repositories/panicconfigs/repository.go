package panicconfigs

import (
	"context"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

// Repository stores one panic configuration per user.
type Repository interface {
	// Get returns common.ErrorNotFound when the user has no stored row.
	Get(ctx context.Context, userID string) (*models.UserPanicConfig, error)
	Upsert(ctx context.Context, c *models.UserPanicConfig) error
}

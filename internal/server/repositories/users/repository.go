package users

import (
	"context"

	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

// Repository stores profiles of authenticated users.
type Repository interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
}

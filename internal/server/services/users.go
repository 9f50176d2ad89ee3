package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
)

// UserService keeps the local copy of identity-provider profiles that the
// audit log reads actor names from.
type UserService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
}

func NewUserService(db dbx.DBTX, rm repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: rm}
}

// SyncProfile stores the latest name and email seen for a user.
func (s *UserService) SyncProfile(ctx context.Context, id, name, email string) error {
	u := &models.User{ID: id, Name: name, Email: email, UpdatedAt: time.Now().UTC()}
	if err := s.repomanager.Users(s.db).Upsert(ctx, u); err != nil {
		return fmt.Errorf("error syncing user profile: %w", err)
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

type userRepo Store

func (r *userRepo) Upsert(_ context.Context, u *models.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.ID]
	if ok && cur.Name == u.Name && cur.Email == u.Email {
		return nil
	}
	s.users[u.ID] = models.User{ID: u.ID, Name: u.Name, Email: u.Email, UpdatedAt: time.Now().UTC()}
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

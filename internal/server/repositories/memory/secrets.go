package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

type secretRepo Store

func cloneSecret(sec *models.Secret) *models.Secret {
	c := *sec
	c.Blob = cloneBlob(sec.Blob)
	return &c
}

// nameTaken must be called with the lock held.
func (s *Store) nameTaken(projectID, name, exceptID string) bool {
	for _, cur := range s.secrets {
		if cur.ProjectID == projectID && cur.Name == name && cur.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *secretRepo) Create(_ context.Context, sec *models.Secret) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.secrets[sec.ID]; ok || s.nameTaken(sec.ProjectID, sec.Name, "") {
		return common.ErrConflict
	}
	s.secrets[sec.ID] = cloneSecret(sec)
	return nil
}

func (r *secretRepo) GetByID(_ context.Context, projectID, id string) (*models.Secret, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.secrets[id]
	if !ok || sec.ProjectID != projectID {
		return nil, common.ErrorNotFound
	}
	return cloneSecret(sec), nil
}

func (r *secretRepo) GetByName(_ context.Context, projectID, name string) (*models.Secret, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sec := range s.secrets {
		if sec.ProjectID == projectID && sec.Name == name {
			return cloneSecret(sec), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *secretRepo) Update(_ context.Context, sec *models.Secret) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.secrets[sec.ID]
	if !ok || cur.ProjectID != sec.ProjectID {
		return common.ErrorNotFound
	}
	if s.nameTaken(sec.ProjectID, sec.Name, sec.ID) {
		return common.ErrConflict
	}
	cur.Name = sec.Name
	cur.Blob = cloneBlob(sec.Blob)
	cur.UpdatedAt = sec.UpdatedAt
	return nil
}

func (r *secretRepo) Delete(_ context.Context, projectID, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.secrets[id]
	if !ok || cur.ProjectID != projectID {
		return common.ErrorNotFound
	}
	delete(s.secrets, id)
	return nil
}

func (r *secretRepo) List(_ context.Context, projectID string) ([]*models.SecretMeta, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.SecretMeta{}
	for _, sec := range s.secrets {
		if sec.ProjectID == projectID {
			out = append(out, sec.Meta())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

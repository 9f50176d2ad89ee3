package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

type panicConfigRepo Store

func (r *panicConfigRepo) Get(_ context.Context, userID string) (*models.UserPanicConfig, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.panicConfigs[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c.FlushDuration = cloneInt(c.FlushDuration)
	return &c, nil
}

func (r *panicConfigRepo) Upsert(_ context.Context, c *models.UserPanicConfig) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	v := *c
	v.FlushDuration = cloneInt(c.FlushDuration)
	s.panicConfigs[c.UserID] = v
	return nil
}

type exportRepo Store

func (r *exportRepo) Create(_ context.Context, e *models.Export) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	v := *e
	s.exports = append(s.exports, &v)
	return nil
}

func (r *exportRepo) ListByUser(_ context.Context, userID string) ([]*models.Export, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.Export{}
	for _, e := range s.exports {
		if e.UserID == userID {
			v := *e
			out = append(out, &v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *exportRepo) GetByID(_ context.Context, userID, id string) (*models.Export, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.exports {
		if e.UserID == userID && e.ID == id {
			v := *e
			return &v, nil
		}
	}
	return nil, common.ErrorNotFound
}

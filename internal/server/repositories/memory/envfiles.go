package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
)

type envFileRepo Store

func cloneBlob(b cryptox.Blob) cryptox.Blob {
	return cryptox.Blob{
		Ciphertext: cloneBytes(b.Ciphertext),
		Nonce:      cloneBytes(b.Nonce),
		AuthTag:    cloneBytes(b.AuthTag),
	}
}

func cloneEnvFile(f *models.EnvFile) *models.EnvFile {
	c := *f
	c.Blob = cloneBlob(f.Blob)
	return &c
}

func (r *envFileRepo) Insert(_ context.Context, f *models.EnvFile) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.envFiles[f.ID]; ok {
		return common.ErrConflict
	}
	for _, cur := range s.envFiles {
		if cur.ProjectID == f.ProjectID && cur.Environment == f.Environment && cur.Version == f.Version {
			return common.ErrConflict
		}
	}
	s.envFiles[f.ID] = cloneEnvFile(f)
	return nil
}

func (r *envFileRepo) MaxVersion(_ context.Context, projectID string, env models.Environment) (int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	highest := 0
	for _, f := range s.envFiles {
		if f.ProjectID == projectID && f.Environment == env && f.Version > highest {
			highest = f.Version
		}
	}
	return highest, nil
}

func (r *envFileRepo) find(match func(*models.EnvFile) bool) (*models.EnvFile, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *models.EnvFile
	for _, f := range s.envFiles {
		if match(f) && (best == nil || f.Version > best.Version) {
			best = f
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return cloneEnvFile(best), nil
}

func (r *envFileRepo) GetByID(_ context.Context, projectID, id string) (*models.EnvFile, error) {
	return r.find(func(f *models.EnvFile) bool { return f.ProjectID == projectID && f.ID == id })
}

func (r *envFileRepo) GetLatest(_ context.Context, projectID string, env models.Environment) (*models.EnvFile, error) {
	return r.find(func(f *models.EnvFile) bool { return f.ProjectID == projectID && f.Environment == env })
}

func (r *envFileRepo) GetByVersion(_ context.Context, projectID string, env models.Environment, version int) (*models.EnvFile, error) {
	return r.find(func(f *models.EnvFile) bool {
		return f.ProjectID == projectID && f.Environment == env && f.Version == version
	})
}

func (r *envFileRepo) UpdateBlob(_ context.Context, projectID, id string, blob cryptox.Blob) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.envFiles[id]
	if !ok || f.ProjectID != projectID {
		return common.ErrorNotFound
	}
	f.Blob = cloneBlob(blob)
	return nil
}

func (r *envFileRepo) Delete(_ context.Context, projectID, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.envFiles[id]
	if !ok || f.ProjectID != projectID {
		return common.ErrorNotFound
	}
	delete(s.envFiles, id)
	return nil
}

func sortMeta(list []*models.EnvFileMeta) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Environment != list[j].Environment {
			return list[i].Environment < list[j].Environment
		}
		return list[i].Version > list[j].Version
	})
}

func (r *envFileRepo) List(_ context.Context, projectID string, env models.Environment) ([]*models.EnvFileMeta, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.EnvFileMeta{}
	for _, f := range s.envFiles {
		if f.ProjectID == projectID && (env == "" || f.Environment == env) {
			out = append(out, f.Meta())
		}
	}
	sortMeta(out)
	return out, nil
}

func (r *envFileRepo) ListLatest(_ context.Context, projectID string) ([]*models.EnvFile, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := map[models.Environment]*models.EnvFile{}
	for _, f := range s.envFiles {
		if f.ProjectID != projectID {
			continue
		}
		if cur, ok := latest[f.Environment]; !ok || f.Version > cur.Version {
			latest[f.Environment] = f
		}
	}

	var out []*models.EnvFile
	for _, f := range latest {
		out = append(out, cloneEnvFile(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Environment < out[j].Environment })
	return out, nil
}

func (r *envFileRepo) DeleteByProject(_ context.Context, projectID string) ([]*models.EnvFileMeta, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.EnvFileMeta{}
	for id, f := range s.envFiles {
		if f.ProjectID == projectID {
			out = append(out, f.Meta())
			delete(s.envFiles, id)
		}
	}
	sortMeta(out)
	return out, nil
}

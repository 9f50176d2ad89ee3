package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/dbx"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/auditlogs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blob(s string) cryptox.Blob {
	return cryptox.Blob{Ciphertext: []byte(s), Nonce: make([]byte, 12), AuthTag: make([]byte, 16)}
}

func TestConn_WithinTxRunsFn(t *testing.T) {
	called := false
	err := Conn{}.WithinTx(context.Background(), func(ctx context.Context, tx dbx.DBTX) error {
		called = true
		return errors.New("stop")
	})
	assert.True(t, called)
	assert.EqualError(t, err, "stop")

	_, err = Conn{}.ExecContext(context.Background(), "SELECT 1")
	assert.Error(t, err)
}

func TestProjects_MembersAreIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Projects(nil)

	require.NoError(t, repo.Create(ctx, &models.Project{ID: "p1", OwnerID: "o", CreatedAt: time.Now()}))
	require.NoError(t, repo.UpsertMember(ctx, "p1", models.Member{UserID: "b", Permission: models.PermissionRead}))
	require.NoError(t, repo.UpsertMember(ctx, "p1", models.Member{UserID: "a", Permission: models.PermissionRead}))
	require.NoError(t, repo.UpsertMember(ctx, "p1", models.Member{UserID: "b", Permission: models.PermissionWrite}))

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []models.Member{
		{UserID: "a", Permission: models.PermissionRead},
		{UserID: "b", Permission: models.PermissionWrite},
	}, p.Members)

	p.Members[0].Permission = models.PermissionWrite
	again, _ := repo.GetByID(ctx, "p1")
	assert.Equal(t, models.PermissionRead, again.Members[0].Permission)

	require.NoError(t, repo.RemoveMember(ctx, "p1", "zzz"))
	n, err := repo.ClearMembers(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	shared, err := repo.ListAccessibleBy(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, shared)
}

func TestEnvFiles_UniqueVersionSlot(t *testing.T) {
	ctx := context.Background()
	repo := New().EnvFiles(nil)

	f := &models.EnvFile{ID: "f1", ProjectID: "p1", Environment: models.EnvironmentDev, Version: 1, Blob: blob("a")}
	require.NoError(t, repo.Insert(ctx, f))

	dup := *f
	dup.ID = "f2"
	assert.ErrorIs(t, repo.Insert(ctx, &dup), common.ErrConflict)

	other := dup
	other.Environment = models.EnvironmentProd
	require.NoError(t, repo.Insert(ctx, &other))

	v, err := repo.MaxVersion(ctx, "p1", models.EnvironmentDev)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestEnvFiles_ListOrdering(t *testing.T) {
	ctx := context.Background()
	repo := New().EnvFiles(nil)

	for i, spec := range []struct {
		env models.Environment
		v   int
	}{
		{models.EnvironmentProd, 1}, {models.EnvironmentDev, 1}, {models.EnvironmentDev, 3}, {models.EnvironmentDev, 2},
	} {
		require.NoError(t, repo.Insert(ctx, &models.EnvFile{
			ID: string(rune('a' + i)), ProjectID: "p1", Environment: spec.env, Version: spec.v, Blob: blob("x"),
		}))
	}

	list, err := repo.List(ctx, "p1", "")
	require.NoError(t, err)
	var got []string
	for _, m := range list {
		got = append(got, string(m.Environment)+":"+string(rune('0'+m.Version)))
	}
	assert.Equal(t, []string{"dev:3", "dev:2", "dev:1", "prod:1"}, got)

	latest, err := repo.ListLatest(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, 3, latest[0].Version)

	removed, err := repo.DeleteByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, removed, 4)
	_, err = repo.GetLatest(ctx, "p1", models.EnvironmentDev)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestEnvFiles_ScopedToProject(t *testing.T) {
	ctx := context.Background()
	repo := New().EnvFiles(nil)
	require.NoError(t, repo.Insert(ctx, &models.EnvFile{ID: "f1", ProjectID: "p1", Environment: models.EnvironmentDev, Version: 1, Blob: blob("x")}))

	_, err := repo.GetByID(ctx, "p2", "f1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "p2", "f1"), common.ErrorNotFound)
	assert.ErrorIs(t, repo.UpdateBlob(ctx, "p2", "f1", blob("y")), common.ErrorNotFound)
}

func TestSecrets_NameUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := New().Secrets(nil)

	require.NoError(t, repo.Create(ctx, &models.Secret{ID: "s1", ProjectID: "p1", Name: "A", Blob: blob("1")}))
	require.NoError(t, repo.Create(ctx, &models.Secret{ID: "s2", ProjectID: "p1", Name: "B", Blob: blob("2")}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Secret{ID: "s3", ProjectID: "p1", Name: "A"}), common.ErrConflict)
	require.NoError(t, repo.Create(ctx, &models.Secret{ID: "s4", ProjectID: "p2", Name: "A", Blob: blob("3")}))

	assert.ErrorIs(t, repo.Update(ctx, &models.Secret{ID: "s2", ProjectID: "p1", Name: "A"}), common.ErrConflict)
	require.NoError(t, repo.Update(ctx, &models.Secret{ID: "s2", ProjectID: "p1", Name: "C", Blob: blob("z")}))

	got, err := repo.GetByName(ctx, "p1", "C")
	require.NoError(t, err)
	assert.Equal(t, []byte("z"), got.Blob.Ciphertext)

	list, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "C", list[1].Name)
}

func TestAudit_NewestFirstAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := New().AuditLogs(nil)
	base := time.Now()

	for i := 0; i < 5; i++ {
		env := models.EnvironmentDev
		if i%2 == 1 {
			env = models.EnvironmentProd
		}
		require.NoError(t, repo.Append(ctx, &models.AuditLogEntry{
			ID: string(rune('a' + i)), ProjectID: "p1", Environment: env,
			Action: models.AuditUpload, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	all, err := repo.List(ctx, auditlogs.Filter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "e", all[0].ID)

	prod, err := repo.List(ctx, auditlogs.Filter{ProjectID: "p1", Environment: models.EnvironmentProd, Limit: 1})
	require.NoError(t, err)
	require.Len(t, prod, 1)
	assert.Equal(t, "d", prod[0].ID)
}

func TestPanicConfigs_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := New().PanicConfigs(nil)

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.Upsert(ctx, &models.UserPanicConfig{UserID: "u1", FlushDuration: models.IntPtr(5)}))
	c, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, *c.FlushDuration)
}

func TestExports_PerUser(t *testing.T) {
	ctx := context.Background()
	repo := New().Exports(nil)
	require.NoError(t, repo.Create(ctx, &models.Export{ID: "x1", UserID: "u1", StorageKey: "k"}))

	_, err := repo.GetByID(ctx, "u2", "x1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestConcurrentInsertsNeverShareVersion(t *testing.T) {
	ctx := context.Background()
	repo := New().EnvFiles(nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	conflicts := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Insert(ctx, &models.EnvFile{
				ID: string(rune('A' + i)), ProjectID: "p1", Environment: models.EnvironmentDev, Version: 1, Blob: blob("x"),
			})
			if errors.Is(err, common.ErrConflict) {
				mu.Lock()
				conflicts++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 19, conflicts)
}

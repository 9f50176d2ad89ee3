package envfiles

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var fileCols = []string{"id", "project_id", "environment", "version", "ciphertext", "nonce", "auth_tag", "uploaded_by", "created_at"}

func sampleFile() *models.EnvFile {
	return &models.EnvFile{
		ID:          "f1",
		ProjectID:   "p1",
		Environment: models.EnvironmentDev,
		Version:     2,
		Blob:        cryptox.Blob{Ciphertext: []byte("ct"), Nonce: make([]byte, 12), AuthTag: make([]byte, 16)},
		UploadedBy:  "u1",
		CreatedAt:   time.Unix(1700000000, 0).UTC(),
	}
}

func TestInsert_OK(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	f := sampleFile()
	mock.ExpectExec(`INSERT INTO env_files`).
		WithArgs(f.ID, f.ProjectID, f.Environment, f.Version, f.Blob.Ciphertext, f.Blob.Nonce, f.Blob.AuthTag, f.UploadedBy, f.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), f))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO env_files`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := repo.Insert(context.Background(), sampleFile())
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestInsert_OtherError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO env_files`).WillReturnError(errors.New("down"))

	err := repo.Insert(context.Background(), sampleFile())
	assert.ErrorContains(t, err, "db error: down")
	assert.NotErrorIs(t, err, common.ErrConflict)
}

func TestMaxVersion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM env_files`).
		WithArgs("p1", models.EnvironmentProd).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(7))

	v, err := repo.MaxVersion(context.Background(), "p1", models.EnvironmentProd)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestGetLatest(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	f := sampleFile()
	mock.ExpectQuery(`(?s)FROM env_files\s+WHERE project_id = \$1 AND environment = \$2\s+ORDER BY version DESC\s+LIMIT 1`).
		WithArgs("p1", models.EnvironmentDev).
		WillReturnRows(sqlmock.NewRows(fileCols).
			AddRow(f.ID, f.ProjectID, f.Environment, f.Version, f.Blob.Ciphertext, f.Blob.Nonce, f.Blob.AuthTag, f.UploadedBy, f.CreatedAt))

	got, err := repo.GetLatest(context.Background(), "p1", models.EnvironmentDev)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestGetByVersion_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`AND version = \$3`).
		WithArgs("p1", models.EnvironmentDev, 9).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByVersion(context.Background(), "p1", models.EnvironmentDev, 9)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID_ScopedToProject(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE project_id = \$1 AND id = \$2`).
		WithArgs("other", "f1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "other", "f1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateBlob(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	blob := cryptox.Blob{Ciphertext: []byte("new"), Nonce: make([]byte, 12), AuthTag: make([]byte, 16)}
	mock.ExpectExec(`UPDATE env_files SET ciphertext = \$3, nonce = \$4, auth_tag = \$5`).
		WithArgs("p1", "f1", blob.Ciphertext, blob.Nonce, blob.AuthTag).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateBlob(context.Background(), "p1", "f1", blob))
}

func TestDelete_Missing(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM env_files WHERE project_id = \$1 AND id = \$2`).
		WithArgs("p1", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "p1", "gone")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_AllEnvironments(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`^SELECT id, project_id, environment, version, uploaded_by, created_at FROM env_files WHERE project_id = \$1 ORDER BY environment ASC, version DESC$`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "environment", "version", "uploaded_by", "created_at"}).
			AddRow("a", "p1", "dev", 2, "u1", now).
			AddRow("b", "p1", "dev", 1, "u1", now).
			AddRow("c", "p1", "prod", 1, "u2", now))

	list, err := repo.List(context.Background(), "p1", "")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 2, list[0].Version)
	assert.Equal(t, models.EnvironmentProd, list[2].Environment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_FilteredByEnvironment(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE project_id = \$1 AND environment = \$2 ORDER BY`).
		WithArgs("p1", models.EnvironmentStaging).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "environment", "version", "uploaded_by", "created_at"}))

	list, err := repo.List(context.Background(), "p1", models.EnvironmentStaging)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestListLatest(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	f := sampleFile()
	mock.ExpectQuery(`SELECT DISTINCT ON \(environment\)`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(fileCols).
			AddRow(f.ID, f.ProjectID, f.Environment, f.Version, f.Blob.Ciphertext, f.Blob.Nonce, f.Blob.AuthTag, f.UploadedBy, f.CreatedAt))

	list, err := repo.ListLatest(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []byte("ct"), list[0].Blob.Ciphertext)
}

func TestDeleteByProject(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)DELETE FROM env_files\s+WHERE project_id = \$1\s+RETURNING`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "environment", "version", "uploaded_by", "created_at"}).
			AddRow("a", "p1", "dev", 1, "u1", now).
			AddRow("b", "p1", "prod", 4, "u1", now))

	removed, err := repo.DeleteByProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, removed, 2)
}

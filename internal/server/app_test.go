package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/server/config"
	"github.com/dmitrijs2005/hashenv/internal/server/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = config.MemoryDSN
	cfg.MasterKey = cryptox.GenerateMasterKey()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.LogFormat = "text"
	return cfg
}

func TestNewApp_Memory(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)
	assert.Nil(t, app.db)
	assert.NotNil(t, app.services.EnvFiles)
	assert.NotNil(t, app.services.Panic)
}

func TestNewApp_RequiresMasterKey(t *testing.T) {
	called := false
	orig := openPostgres
	openPostgres = func(context.Context, string) (*sql.DB, error) {
		called = true
		return nil, errors.New("unexpected")
	}
	t.Cleanup(func() { openPostgres = orig })

	for _, key := range []string{"", "not-base64", "c2hvcnQ="} {
		cfg := memoryConfig()
		cfg.DatabaseDSN = "postgres://x"
		cfg.MasterKey = key

		_, err := NewApp(context.Background(), cfg)
		assert.ErrorIs(t, err, common.ErrConfiguration, "key %q", key)
	}
	assert.False(t, called, "storage must not be opened without a valid key")
}

func TestNewApp_DatabaseError(t *testing.T) {
	orig := openPostgres
	openPostgres = func(context.Context, string) (*sql.DB, error) {
		return nil, errors.New("connection refused")
	}
	t.Cleanup(func() { openPostgres = orig })

	cfg := memoryConfig()
	cfg.DatabaseDSN = "postgres://x"

	_, err := NewApp(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestNewApp_ObjectStore(t *testing.T) {
	orig := newObjectStore
	t.Cleanup(func() { newObjectStore = orig })

	var got objectstore.Config
	newObjectStore = func(_ context.Context, c objectstore.Config) (*objectstore.S3Store, error) {
		got = c
		return &objectstore.S3Store{}, nil
	}

	cfg := memoryConfig()
	cfg.S3Enabled = true
	cfg.S3Bucket = "backups"

	_, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "backups", got.Bucket)

	newObjectStore = func(context.Context, objectstore.Config) (*objectstore.S3Store, error) {
		return nil, errors.New("bad endpoint")
	}
	_, err = NewApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}

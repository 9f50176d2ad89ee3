package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/cryptox"
	"github.com/dmitrijs2005/hashenv/internal/logging"
	"github.com/dmitrijs2005/hashenv/internal/server/access"
	"github.com/dmitrijs2005/hashenv/internal/server/config"
	"github.com/dmitrijs2005/hashenv/internal/server/metrics"
	"github.com/dmitrijs2005/hashenv/internal/server/models"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/memory"
	"github.com/dmitrijs2005/hashenv/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

const (
	owner  = "owner-1"
	reader = "reader-1"
	writer = "writer-1"
)

type testDeps struct {
	store    *memory.Store
	cfg      *config.Config
	cipher   *cryptox.Cipher
	metrics  *metrics.Metrics
	access   *access.Evaluator
	audit    *AuditService
	envs     *EnvFileService
	secrets  *SecretService
	projects *ProjectService
	users    *UserService
	panicCfg *PanicConfigService
	panic    *PanicService
}

func testCipher(t *testing.T) *cryptox.Cipher {
	t.Helper()
	key := make([]byte, cryptox.KeySize)
	for i := range key {
		key[i] = byte(i * 7)
	}
	c, err := cryptox.NewCipher(key, cryptox.AlgorithmAESGCM)
	require.NoError(t, err)
	return c
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.UploadRetryBaseDelay = 100 * time.Microsecond
	cfg.UploadMaxRetries = 20
	return cfg
}

// newDeps wires every service over rm, which defaults to a fresh memory store.
func newDeps(t *testing.T, rm repomanager.RepositoryManager, backups BackupStore) *testDeps {
	t.Helper()
	store := memory.New()
	if rm == nil {
		rm = store
	}
	conn := memory.Conn{}
	cfg := testConfig()
	c := testCipher(t)
	m := metrics.New()
	log := logging.Nop()

	d := &testDeps{store: store, cfg: cfg, cipher: c, metrics: m}
	d.access = access.NewEvaluator(conn, rm)
	d.audit = NewAuditService(conn, rm, log, m, cfg.AuditQueryLimit)
	d.envs = NewEnvFileService(conn, rm, c, d.audit, log, m, cfg)
	d.secrets = NewSecretService(conn, rm, c, d.audit, log, m)
	d.projects = NewProjectService(conn, rm, d.access, log)
	d.users = NewUserService(conn, rm)
	d.panicCfg = NewPanicConfigService(conn, rm, cfg)
	d.panic = NewPanicService(conn, rm, d.panicCfg, c, d.audit, backups, log, m, cfg)
	return d
}

func (d *testDeps) project(t *testing.T, ownerID, name string) *models.Project {
	t.Helper()
	p, err := d.projects.Create(context.Background(), ownerID, ProjectInput{Name: name})
	require.NoError(t, err)
	return p
}

func (d *testDeps) grant(t *testing.T, projectID, userID string, perm models.Permission) {
	t.Helper()
	_, err := d.projects.AddMember(context.Background(), owner, projectID, MemberInput{UserID: userID, Permission: perm})
	require.NoError(t, err)
}

package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoOp_Results(t *testing.T) {
	m := New()

	m.CryptoOp("decrypt", nil)
	m.CryptoOp("decrypt", fmt.Errorf("wrapped: %w", common.ErrIntegrity))
	m.CryptoOp("decrypt", errors.New("other"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cryptoOps.WithLabelValues("decrypt", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cryptoOps.WithLabelValues("decrypt", "integrity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cryptoOps.WithLabelValues("decrypt", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.integrityFailures))
}

func TestCounters(t *testing.T) {
	m := New()
	m.AuditWriteFailed()
	m.UploadConflict()
	m.UploadConflict()
	m.PanicAction("flush", true)
	m.PanicAction("flush", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.auditWriteFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploadConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.panicActions.WithLabelValues("flush", "failed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CryptoOp("encrypt", nil)
		m.AuditWriteFailed()
		m.UploadConflict()
		m.PanicAction("revoke", true)
		m.HTTPRequest("GET", "/x", 200, time.Millisecond)
	})
}

func TestHandler_ExposesApplicationMetrics(t *testing.T) {
	m := New()
	m.HTTPRequest("GET", "/healthz", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hashenv_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

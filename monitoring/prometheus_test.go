package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSyncSpec(t *testing.T) {
	InitMetrics()
	InitMetrics()

	counter := metrics().syncSpecRequests.With(prometheus.Labels{"outcome": "block_weight_missing"})
	before := testutil.ToFloat64(counter)

	RecordSyncSpec("block_weight_missing", 10*time.Millisecond)
	RecordSyncSpecSizeBytes(2048)
	SetSyncSpecFinalizedNumber(42)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Equal(t, float64(42), testutil.ToFloat64(metrics().finalizedNumber))
}

func TestRegisterMetrics(t *testing.T) {
	IncreaseRateLimitedCount()

	router := mux.NewRouter()
	RegisterMetrics(router)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lightsync_rpc_rate_limited_total")
}

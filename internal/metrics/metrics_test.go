package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessCounters(t *testing.T) {
	m := New()

	m.RecordInvoiceGenerated("Invoice")
	m.RecordInvoiceGenerated("Invoice")
	m.RecordGuardRejection("DEPENDENT_INVOICE_EXISTS")
	m.RecordConflict("generate_invoice")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvoicesGenerated.WithLabelValues("Invoice")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GuardRejections.WithLabelValues("DEPENDENT_INVOICE_EXISTS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Conflicts.WithLabelValues("generate_invoice")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IntegrityViolations.WithLabelValues("generate_invoice")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodGet, "/api/health", http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `freightops_http_requests_total{method="GET",path="/api/health",status="200"} 1`)
}

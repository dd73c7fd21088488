package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPurchase(t *testing.T) {
	beforeOK := testutil.ToFloat64(purchases.WithLabelValues(PurchaseOK))
	beforeSold := testutil.ToFloat64(unitsSold)

	RecordPurchase(PurchaseOK, 10)
	RecordPurchase(PurchaseInsufficient, 5)

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(purchases.WithLabelValues(PurchaseOK)))
	assert.Equal(t, beforeSold+10, testutil.ToFloat64(unitsSold))
}

func TestRecordRestock(t *testing.T) {
	before := testutil.ToFloat64(unitsRestocked)
	RecordRestock(3)
	RecordRestock(0)
	assert.Equal(t, before+3, testutil.ToFloat64(unitsRestocked))
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/sweets", http.StatusOK, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sweet_shop_http_requests_total")
	assert.Contains(t, rec.Body.String(), `path="/api/sweets"`)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrumentCountsByPattern(t *testing.T) {
	h := Instrument("GET /flowers/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /flowers/{id}", "404"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/flowers/7", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/flowers/8", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "GET /flowers/{id}", "404"))

	assert.Equal(t, 2.0, after-before)
}

func TestRecorders(t *testing.T) {
	RecordMutation("cart.add", true)
	RecordMutation("cart.add", false)
	RecordFetch("cart", "hit")
	RecordBusEvent("order.placed", false)
	RecordUpstream("GET", "/flower/cart/", "ok", 10*time.Millisecond)

	assert.GreaterOrEqual(t, testutil.ToFloat64(mutations.WithLabelValues("cart.add", "error")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(resourceFetches.WithLabelValues("cart", "hit")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(busEvents.WithLabelValues("order.placed", "dropped")), 1.0)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestBusiness_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	b := NewBusiness(reg)

	b.Reconcile("webhook", "applied")
	b.Reconcile("webhook", "applied")
	b.CreditsGranted("subscription_grant", "pro", 500)
	b.CreditsGranted("subscription_grant", "pro", 0)
	b.Redemption("conflict")

	require.Equal(t, 2.0, testutil.ToFloat64(b.reconcile.WithLabelValues("webhook", "applied")))
	require.Equal(t, 500.0, testutil.ToFloat64(b.credits.WithLabelValues("subscription_grant", "pro")))
	require.Equal(t, 1.0, testutil.ToFloat64(b.redemption.WithLabelValues("conflict")))
}

func TestBusiness_NilSafeAndReRegister(t *testing.T) {
	var b *Business
	b.Reconcile("snapshot", "noop")
	b.Webhook("app_subscriptions/update", "handled")

	reg := prometheus.NewRegistry()
	first := NewBusiness(reg)
	second := NewBusiness(reg)
	first.Redemption("success")
	require.Equal(t, 1.0, testutil.ToFloat64(second.redemption.WithLabelValues("success")))
}

func TestPrometheus_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	p := NewPrometheus(NewPrometheusOptions{Registerer: reg, Gatherer: reg})

	r := gin.New()
	p.Use(r)
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1.0, testutil.ToFloat64(p.reqCnt.WithLabelValues("200", "GET", "/healthz")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "req_total")
}

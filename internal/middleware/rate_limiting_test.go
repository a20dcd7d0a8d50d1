package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/activitytracker/internal/telemetry/metrics"

	"github.com/go-redis/redis_rate/v9"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := NewMockRequestRateLimiter(ctrl)
	metricsManager := metrics.NewTestManager()

	called := 0
	handler := RateLimit(limiter, metricsManager, "entries", 10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
	}))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/entries", nil)
		req.RemoteAddr = "83.12.53.65:2145"
		return req
	}

	gomock.InOrder(
		limiter.EXPECT().
			Allow(gomock.Any(), "rate:entries:83.12.53.65", redis_rate.PerMinute(10)).
			Return(&redis_rate.Result{Allowed: 1, Remaining: 9}, nil),
		limiter.EXPECT().
			Allow(gomock.Any(), "rate:entries:83.12.53.65", redis_rate.PerMinute(10)).
			Return(&redis_rate.Result{Allowed: 0, RetryAfter: 1500 * time.Millisecond}, nil),
		limiter.EXPECT().
			Allow(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("redis down")),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newReq())
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, called)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newReq())
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "2", rr.Header().Get("Retry-After"))
	assert.Equal(t, 1, called)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newReq())
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1, called)
}

func TestRequestMetrics(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	handler := RequestMetrics(metricsManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRequests.WithLabelValues("POST", "201")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.GaugeRequests))
}

func TestDrainAndCloseRequest(t *testing.T) {
	var readErr error
	handler := DrainAndCloseRequest(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 16)
		_, readErr = r.Body.Read(buf)
		for readErr == nil {
			_, readErr = r.Body.Read(buf)
		}
	}))

	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader("too long body"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var maxBytesErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxBytesErr)
}

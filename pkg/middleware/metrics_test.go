package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetrics() *HTTPMetrics {
	return NewHTTPMetrics(prometheus.NewRegistry())
}

func serveWithChi(mw func(http.Handler) http.Handler, pattern string, handler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get(pattern, handler)
	return r
}

func TestHTTPMetrics_CountsByRoutePattern(t *testing.T) {
	m := newTestMetrics()
	router := serveWithChi(m.Middleware("review-service"), "/api/v1/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/api/v1/reviews/1", "/api/v1/reviews/2", "/api/v1/reviews/3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("review-service", "GET", "/api/v1/reviews/{id}", "200"))
	assert.Equal(t, float64(3), got)
}

func TestHTTPMetrics_StatusCodeCapture(t *testing.T) {
	for _, code := range []int{http.StatusCreated, http.StatusNotFound, http.StatusInternalServerError} {
		m := newTestMetrics()
		router := serveWithChi(m.Middleware("svc"), "/test", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

		status := http.StatusText(code)
		assert.Equal(t, 1, testutil.CollectAndCount(m.duration), status)
		assert.Equal(t, float64(1), testutil.ToFloat64(
			m.requests.WithLabelValues("svc", "GET", "/test", strconv.Itoa(code))), status)
	}
}

func TestHTTPMetrics_DefaultStatusIs200(t *testing.T) {
	m := newTestMetrics()
	router := serveWithChi(m.Middleware("svc"), "/test", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("svc", "GET", "/test", "200")))
}

func TestHTTPMetrics_InFlightGauge(t *testing.T) {
	m := newTestMetrics()
	seen := float64(-1)
	router := serveWithChi(m.Middleware("svc"), "/test", func(w http.ResponseWriter, r *http.Request) {
		seen = testutil.ToFloat64(m.inFlight.WithLabelValues("svc"))
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, float64(1), seen)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inFlight.WithLabelValues("svc")))
}

func TestNewHTTPMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg)
	assert.Panics(t, func() { NewHTTPMetrics(reg) })
}

// --- statusRecorder ---

type flushRecorder struct {
	http.ResponseWriter
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

type hijackRecorder struct {
	http.ResponseWriter
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

type bareWriter struct{ header http.Header }

func (b *bareWriter) Header() http.Header {
	if b.header == nil {
		b.header = make(http.Header)
	}
	return b.header
}

func (b *bareWriter) Write(p []byte) (int, error) { return len(p), nil }

func (b *bareWriter) WriteHeader(int) {}

func TestStatusRecorder_FirstWriteHeaderWins(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusOK)
	n, _ := rec.Write([]byte("abc"))

	assert.Equal(t, http.StatusNotFound, rec.status)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, rec.bytes)
}

func TestStatusRecorder_ReusesExisting(t *testing.T) {
	inner := newStatusRecorder(httptest.NewRecorder())
	assert.Same(t, inner, newStatusRecorder(inner))
}

func TestStatusRecorder_FlushAndHijackDelegate(t *testing.T) {
	f := &flushRecorder{ResponseWriter: httptest.NewRecorder()}
	newStatusRecorder(f).Flush()
	assert.True(t, f.flushed)

	h := &hijackRecorder{ResponseWriter: httptest.NewRecorder()}
	_, _, err := newStatusRecorder(h).Hijack()
	assert.NoError(t, err)
	assert.True(t, h.hijacked)
}

func TestStatusRecorder_HijackNotSupported(t *testing.T) {
	rec := newStatusRecorder(&bareWriter{})
	rec.Flush()
	_, _, err := rec.Hijack()
	assert.ErrorIs(t, err, http.ErrNotSupported)
}

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-reminder-backend/internal/http/handlers"
)

func newTestRouter(rps float64, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Options{
		Handlers:    handlers.New("router-test-secret", nil, nil, nil),
		ServiceName: "reminder-test",
		RateRPS:     rps,
		RateBurst:   burst,
	})
}

func TestRouterServesMetrics(t *testing.T) {
	r := newTestRouter(100, 100)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("metrics output missing runtime collectors")
	}
}

func TestRouterRejectsUnsignedWebhook(t *testing.T) {
	r := newTestRouter(100, 100)

	req := httptest.NewRequest(http.MethodPost, "/callback", strings.NewReader(`{"events":[]}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("unsigned POST /callback = %d, want 400", w.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	r := newTestRouter(100, 100)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope = %d, want 404", w.Code)
	}
}

func TestRouterRateLimits(t *testing.T) {
	r := newTestRouter(0.001, 1)

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatalf("429 missing Retry-After header")
	}
}

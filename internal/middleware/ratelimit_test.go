package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoginLimiter(t *testing.T) {
	limiter := NewLoginLimiter(3, time.Minute)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	attempt := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", nil)
		req.RemoteAddr = ip
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 3; i++ {
		if code := attempt("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, code)
		}
	}
	if code := attempt("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 once the limit is exceeded, got %d", code)
	}

	// Other clients are unaffected.
	if code := attempt("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("expected a different IP to pass, got %d", code)
	}
}

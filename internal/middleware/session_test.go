package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash test password: %v", err)
	}
	return NewSessionManager("test-session-secret", string(hash))
}

// carryCookies copies the Set-Cookie headers from a response onto a
// follow-up request, like a browser would.
func carryCookies(from *httptest.ResponseRecorder, to *http.Request) {
	for _, c := range from.Result().Cookies() {
		to.AddCookie(c)
	}
}

func TestBindGameRoundtrip(t *testing.T) {
	sm := newTestManager(t)
	gameID := uuid.New()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/games", nil)
	if err := sm.BindGame(rr, req, gameID, "Ada"); err != nil {
		t.Fatalf("BindGame failed: %v", err)
	}

	next := httptest.NewRequest(http.MethodGet, "/api/v1/games/current", nil)
	carryCookies(rr, next)

	got, ok := sm.CurrentGame(next)
	if !ok {
		t.Fatal("Expected a bound game in the session")
	}
	if got != gameID {
		t.Errorf("Expected game %s, got %s", gameID, got)
	}
}

func TestRequireGameRejectsWithoutSession(t *testing.T) {
	sm := newTestManager(t)

	called := false
	handler := sm.RequireGame(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/games/current", nil))

	if called {
		t.Error("Handler should not run without a game session")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestRequireGamePassesIDThroughContext(t *testing.T) {
	sm := newTestManager(t)
	gameID := uuid.New()

	bindRR := httptest.NewRecorder()
	sm.BindGame(bindRR, httptest.NewRequest(http.MethodPost, "/api/v1/games", nil), gameID, "Ada")

	var seen uuid.UUID
	handler := sm.RequireGame(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetGameID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/games/current", nil)
	carryCookies(bindRR, req)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if seen != gameID {
		t.Errorf("Expected game id %s in context, got %s", gameID, seen)
	}
}

func TestLoginAdmin(t *testing.T) {
	sm := newTestManager(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", nil)

	if sm.LoginAdmin(rr, req, "wrong-password") {
		t.Error("Expected login to fail with the wrong password")
	}
	if !sm.LoginAdmin(rr, req, "hunter2") {
		t.Fatal("Expected login to succeed with the right password")
	}

	adminReq := httptest.NewRequest(http.MethodGet, "/api/v1/admin/tracks", nil)
	carryCookies(rr, adminReq)

	called := false
	handler := sm.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), adminReq)

	if !called {
		t.Error("Expected admin session to pass RequireAdmin")
	}
}

func TestRequireAdminRejectsPlainSession(t *testing.T) {
	sm := newTestManager(t)

	bindRR := httptest.NewRecorder()
	sm.BindGame(bindRR, httptest.NewRequest(http.MethodPost, "/api/v1/games", nil), uuid.New(), "Ada")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/tracks", nil)
	carryCookies(bindRR, req)

	rr := httptest.NewRecorder()
	sm.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Handler should not run for a non-admin session")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

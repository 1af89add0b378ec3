package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const GameIDKey contextKey = "game_id"

const sessionName = "musicquiz"

// SessionManager maps a browser to its in-progress game and carries
// the admin flag. One session drives one game at a time, which is what
// lets the quiz core skip per-game locking.
type SessionManager struct {
	store     *sessions.CookieStore
	adminHash []byte
}

func NewSessionManager(secret, adminHash string) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, adminHash: []byte(adminHash)}
}

// BindGame attaches a freshly created game to the session, replacing
// any previous one.
func (s *SessionManager) BindGame(w http.ResponseWriter, r *http.Request, gameID uuid.UUID, playerName string) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values["game_id"] = gameID.String()
	session.Values["player_name"] = playerName
	return session.Save(r, w)
}

// CurrentGame returns the game bound to the session, if any.
func (s *SessionManager) CurrentGame(r *http.Request) (uuid.UUID, bool) {
	session, _ := s.store.Get(r, sessionName)
	raw, ok := session.Values["game_id"].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RequireGame attaches the session's game id to the request context
// and rejects requests without one.
func (s *SessionManager) RequireGame(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gameID, ok := s.CurrentGame(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "NO_GAME", "No game in progress. Start a new game first.", r)
			return
		}
		ctx := context.WithValue(r.Context(), GameIDKey, gameID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetGameID extracts the session game id from the request context.
func GetGameID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(GameIDKey).(uuid.UUID)
	return id
}

// LoginAdmin verifies the admin password against the configured bcrypt
// hash and marks the session.
func (s *SessionManager) LoginAdmin(w http.ResponseWriter, r *http.Request, password string) bool {
	if bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)) != nil {
		return false
	}
	session, _ := s.store.Get(r, sessionName)
	session.Values["admin"] = true
	return session.Save(r, w) == nil
}

func (s *SessionManager) LogoutAdmin(w http.ResponseWriter, r *http.Request) {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, "admin")
	session.Save(r, w)
}

// RequireAdmin guards the track management routes.
func (s *SessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.store.Get(r, sessionName)
		if admin, ok := session.Values["admin"].(bool); !ok || !admin {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Admin session required", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

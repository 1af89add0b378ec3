package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"musicquiz-backend/internal/handlers"
	"musicquiz-backend/internal/middleware"
	"musicquiz-backend/internal/websocket"
)

func New(
	sessions *middleware.SessionManager,
	gameHandler *handlers.GameHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Admin login limiter (10 attempts/min per IP)
	loginLimiter := middleware.NewLoginLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Game Routes ────
		r.Route("/games", func(r chi.Router) {
			r.Post("/", gameHandler.Create)

			r.Route("/current", func(r chi.Router) {
				r.Use(sessions.RequireGame)
				r.Get("/", gameHandler.Get)
				r.Post("/questions", gameHandler.NextQuestion)
				r.Get("/questions/current", gameHandler.CurrentQuestion)
			})
		})

		// ──── Question Routes ────
		r.Route("/questions", func(r chi.Router) {
			r.Use(sessions.RequireGame)
			r.Post("/{id}/guess", gameHandler.Guess)
			r.Post("/{id}/skip", gameHandler.Skip)
			r.Post("/{id}/report", gameHandler.Report)
		})

		// ──── Leaderboard ────
		r.Get("/leaderboard", gameHandler.Leaderboard)

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(loginLimiter.Middleware)
				r.Post("/login", adminHandler.Login)
			})
			r.Group(func(r chi.Router) {
				r.Use(sessions.RequireAdmin)
				r.Post("/logout", adminHandler.Logout)

				r.Route("/tracks", func(r chi.Router) {
					r.Get("/", adminHandler.ListTracks)
					r.Post("/", adminHandler.CreateTrack)
					r.Get("/{id}", adminHandler.GetTrack)
					r.Put("/{id}", adminHandler.UpdateTrack)
					r.Delete("/{id}", adminHandler.DeleteTrack)
					r.Post("/{id}/enrich", adminHandler.EnrichTrack)
					r.Post("/{id}/similar", adminHandler.FetchSimilar)
					r.Delete("/{id}/similar/{other}", adminHandler.RemoveSimilar)
				})
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}

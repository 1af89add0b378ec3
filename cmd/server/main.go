package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"musicquiz-backend/internal/config"
	"musicquiz-backend/internal/database"
	"musicquiz-backend/internal/handlers"
	"musicquiz-backend/internal/middleware"
	"musicquiz-backend/internal/quiz"
	"musicquiz-backend/internal/repository"
	"musicquiz-backend/internal/router"
	"musicquiz-backend/internal/services"
	"musicquiz-backend/internal/websocket"
	"musicquiz-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting MusicQuiz Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	trackRepo := repository.NewTrackRepo(pool)
	gameRepo := repository.NewGameRepo(pool)

	// ──── Initialize Services ────
	youtubeService := services.NewYouTubeService()
	lastfmService := services.NewLastFMService(cfg.LastFMAPIKey, cfg.LastFMBaseURL)
	enricher := services.NewTrackEnricher(youtubeService, trackRepo)
	libraryService := services.NewLibraryService(lastfmService, trackRepo)

	rnd := quiz.NewLockedRand(time.Now().UnixNano())
	picker := quiz.NewPicker(trackRepo, enricher, rnd)
	engine := quiz.NewEngine(gameRepo, trackRepo, picker, rnd)

	sessionManager := middleware.NewSessionManager(cfg.SessionSecret, cfg.AdminPasswordHash)

	// ──── Initialize Handlers ────
	gameHandler := handlers.NewGameHandler(
		gameRepo,
		trackRepo,
		engine,
		libraryService,
		sessionManager,
		redisClients.Queue,
		cfg.QuizLength,
		cfg.ChoiceCount,
	)
	adminHandler := handlers.NewAdminHandler(trackRepo, sessionManager, redisClients.Queue)

	// ──── Step 5: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		trackRepo,
		enricher,
		libraryService,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, handlers.UpdatesChannel)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		sessionManager,
		gameHandler,
		adminHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ MusicQuiz Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}

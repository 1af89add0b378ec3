package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Sessions
	SessionSecret string

	// Admin
	AdminPasswordHash string

	// Last.fm
	LastFMAPIKey  string
	LastFMBaseURL string

	// Quiz
	QuizLength  int
	ChoiceCount int

	// Workers
	WorkerCount int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		DatabaseURL:       mustGetEnv("DATABASE_URL"),
		RedisURL:          mustGetEnv("REDIS_URL"),
		SessionSecret:     mustGetEnv("SESSION_SECRET"),
		AdminPasswordHash: mustGetEnv("ADMIN_PASSWORD_HASH"),
		LastFMAPIKey:      mustGetEnv("LASTFM_API_KEY"),
		LastFMBaseURL:     getEnvOrDefault("LASTFM_BASE_URL", "https://ws.audioscrobbler.com/2.0/"),
		QuizLength:        getEnvAsIntOrDefault("QUIZ_LENGTH", 10),
		ChoiceCount:       getEnvAsIntOrDefault("CHOICE_COUNT", 8),
		WorkerCount:       getEnvAsIntOrDefault("WORKER_COUNT", 3),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Simulation cadences
	TickRate        int // physics steps per second, per match
	BroadcastRate   int // state broadcasts per second, shared sweep
	MatchmakingSecs int // matchmaking sweep interval in seconds

	// Security
	JWTSecret        string
	TokenExpiryHours int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/pongarena?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Simulation cadences
		TickRate:        getEnvInt("TICK_RATE", 60),
		BroadcastRate:   getEnvInt("BROADCAST_RATE", 30),
		MatchmakingSecs: getEnvInt("MATCHMAKING_SWEEP_SECONDS", 5),

		// Security
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		TokenExpiryHours: getEnvInt("TOKEN_EXPIRY_HOURS", 24),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	DBDriver        string
	DatabaseURL     string
	RedisAddr       string
	CORSOrigins     []string
	RateLimitPerMin int
	LogLevel        string
	LogFormat       string
	SeedOnStartup   bool
	ShutdownTimeout time.Duration
}

// Production reports whether the app runs with production defaults.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

// Load reads the optional dotenv file named by ENV_FILE (default ".env") and
// then the process environment. Real environment variables win over the file.
func Load() App {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			slog.Warn("could not load env file", "path", envFile, "error", err)
		}
	}

	v := viper.New()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("HTTP_PORT", "8000")
	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DATABASE_URL", "edusync.db")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("RATE_LIMIT_PER_MIN", 120)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")
	v.SetDefault("SEED_ON_STARTUP", true)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.AutomaticEnv()

	return App{
		Env:             v.GetString("APP_ENV"),
		HTTPPort:        v.GetString("HTTP_PORT"),
		DBDriver:        v.GetString("DB_DRIVER"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
		RateLimitPerMin: v.GetInt("RATE_LIMIT_PER_MIN"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		SeedOnStartup:   v.GetBool("SEED_ON_STARTUP"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

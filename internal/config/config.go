package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StoreConfig struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
}

type APIConfig struct {
	Addr         string
	Store        StoreConfig
	SweepSpec    string
	ContentFile  string
	HistoryDB    string
	Clamp        string
	Seed         int64
	CORSOrigins  []string
	GeminiAPIKey string
	GeminiModel  string
}

type WorkerConfig struct {
	Store     StoreConfig
	SweepSpec string
	RunOnce   bool
}

type CLIConfig struct {
	APIBaseURL  string
	Pace        time.Duration
	ContentFile string
	Clamp       string
}

// LoadDotEnv loads variables from path (".env" when empty). A missing file is
// not an error; variables already set in the environment win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func loadStoreFromEnv() StoreConfig {
	return StoreConfig{
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SessionTTL:    envDurationDefault("FINTWIN_SESSION_TTL", 2*time.Hour),
	}
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("FINTWIN_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:         addr,
		Store:        loadStoreFromEnv(),
		SweepSpec:    envDefault("FINTWIN_SWEEP_SPEC", "@every 5m"),
		ContentFile:  strings.TrimSpace(os.Getenv("FINTWIN_CONTENT_FILE")),
		HistoryDB:    strings.TrimSpace(os.Getenv("FINTWIN_HISTORY_DB")),
		Clamp:        envClampDefault("FINTWIN_CLAMP"),
		Seed:         envIntDefault("FINTWIN_SEED", 0),
		CORSOrigins:  envListDefault("FINTWIN_CORS_ORIGINS", []string{"*"}),
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  envDefault("GEMINI_MODEL", "gemini-2.5-flash"),
	}
	if cfg.Store.SessionTTL <= 0 {
		return cfg, fmt.Errorf("FINTWIN_SESSION_TTL must be positive")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		Store:     loadStoreFromEnv(),
		SweepSpec: envDefault("FINTWIN_SWEEP_SPEC", "@every 5m"),
		RunOnce:   envBoolDefault("FINTWIN_WORKER_RUN_ONCE", false),
	}
	if cfg.Store.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Store.SessionTTL <= 0 {
		return cfg, fmt.Errorf("FINTWIN_SESSION_TTL must be positive")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL:  strings.TrimRight(envDefault("TWIN_API_BASE_URL", "http://localhost:8080"), "/"),
		Pace:        envDurationDefault("TWIN_PACE", 1500*time.Millisecond),
		ContentFile: strings.TrimSpace(os.Getenv("FINTWIN_CONTENT_FILE")),
		Clamp:       envClampDefault("FINTWIN_CLAMP"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envListDefault(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envClampDefault(key string) string {
	switch v := strings.ToLower(strings.TrimSpace(os.Getenv(key))); v {
	case "none", "zero":
		return v
	default:
		return "none"
	}
}

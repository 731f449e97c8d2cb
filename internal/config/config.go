package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Search   SearchConfig
	Triage   TriageConfig
	Tools    ToolsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines service-to-service authentication parameters.
// APIKeyHash is a bcrypt hash of the shared API key; when both it and
// JWTSecret are empty the API runs unauthenticated (dev mode).
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	APIKeyHash            string
}

// SearchConfig configures the similarity index and embedding service.
type SearchConfig struct {
	IndexPrefix      string
	VectorDimensions int
	EmbeddingsURL    string
	EmbeddingsAPIKey string
	TimeoutSeconds   int
}

// TriageConfig carries the decision-engine thresholds.
type TriageConfig struct {
	TeamCacheTTLSeconds  int
	SimilarResults       int
	ScoreThreshold       float64
	SuccessRateThreshold float64
	MinTeamMatchScore    float64
	StepTimeoutSeconds   int
}

// ToolsConfig locates the resolution tool manifest and the provider the
// built-in HTTP tools talk to.
type ToolsConfig struct {
	ManifestPath    string
	ProviderBaseURL string
	ProviderAPIKey  string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-triage-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			APIKeyHash:            os.Getenv("AUTH_API_KEY_HASH"),
		},
		Search: SearchConfig{
			IndexPrefix:      getEnv("SEARCH_INDEX_PREFIX", "triage"),
			VectorDimensions: getEnvAsInt("SEARCH_VECTOR_DIMENSIONS", 1536),
			EmbeddingsURL:    getEnv("EMBEDDINGS_URL", "http://127.0.0.1:8090/embed"),
			EmbeddingsAPIKey: os.Getenv("EMBEDDINGS_API_KEY"),
			TimeoutSeconds:   getEnvAsInt("SEARCH_TIMEOUT_SECONDS", 15),
		},
		Triage: TriageConfig{
			TeamCacheTTLSeconds:  getEnvAsInt("TRIAGE_TEAM_CACHE_TTL_SECONDS", 300),
			SimilarResults:       getEnvAsInt("TRIAGE_SIMILAR_RESULTS", 5),
			ScoreThreshold:       getEnvAsFloat("TRIAGE_SCORE_THRESHOLD", 0.7),
			SuccessRateThreshold: getEnvAsFloat("TRIAGE_SUCCESS_RATE_THRESHOLD", 0.8),
			MinTeamMatchScore:    getEnvAsFloat("TRIAGE_MIN_TEAM_MATCH_SCORE", 0.3),
			StepTimeoutSeconds:   getEnvAsInt("TRIAGE_STEP_TIMEOUT_SECONDS", 30),
		},
		Tools: ToolsConfig{
			ManifestPath:    getEnv("TOOLS_MANIFEST_PATH", "tools.yaml"),
			ProviderBaseURL: getEnv("TOOLS_PROVIDER_BASE_URL", ""),
			ProviderAPIKey:  os.Getenv("TOOLS_PROVIDER_API_KEY"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TeamCacheTTL returns the team directory cache TTL.
func (t TriageConfig) TeamCacheTTL() time.Duration {
	if t.TeamCacheTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(t.TeamCacheTTLSeconds) * time.Second
}

// StepTimeout returns the per-step tool invocation budget.
func (t TriageConfig) StepTimeout() time.Duration {
	if t.StepTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(t.StepTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

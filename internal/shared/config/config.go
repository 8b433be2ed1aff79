package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	DatabaseURL     string
	RedisURL        string
	ReviewCacheTTL  time.Duration

	ObjectStoreType    string
	LocalStoreDir      string
	PublicAssetBaseURL string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	S3PublicBaseURL    string
	SSEKMSKeyID        string

	ScoringProvider string
	ScoringModel    string
	ScoringEndpoint string
	ScoringTimeout  time.Duration
	OpenAIAPIKey    string
	GeminiAPIKey    string

	RasterDPI        float64
	MaxDocumentBytes int64
	MaxImageBytes    int64
	RunTTL           time.Duration

	LogFormat      string
	LogLevel       string
	JWTSecret      string
	TracingEnabled bool
}

const (
	DefaultMaxDocumentBytes = 20 << 20
	DefaultMaxImageBytes    = 8 << 20
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := normalizeEnv(v.GetString("ENV"))

	return Config{
		Port:            v.GetString("PORT"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		Env:             env,
		DatabaseURL:     strings.TrimSpace(v.GetString("DATABASE_URL")),
		RedisURL:        strings.TrimSpace(v.GetString("REDIS_URL")),
		ReviewCacheTTL:  v.GetDuration("REVIEW_CACHE_TTL"),

		ObjectStoreType:    normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:      v.GetString("LOCAL_STORE_DIR"),
		PublicAssetBaseURL: strings.TrimRight(v.GetString("PUBLIC_ASSET_BASE_URL"), "/"),
		AWSRegion:          v.GetString("AWS_REGION"),
		S3Bucket:           v.GetString("S3_BUCKET"),
		S3Prefix:           v.GetString("S3_PREFIX"),
		S3PublicBaseURL:    strings.TrimRight(v.GetString("S3_PUBLIC_BASE_URL"), "/"),
		SSEKMSKeyID:        v.GetString("SSE_KMS_KEY_ID"),

		ScoringProvider: normalizeProvider(v.GetString("SCORING_PROVIDER")),
		ScoringModel:    strings.TrimSpace(v.GetString("SCORING_MODEL")),
		ScoringEndpoint: strings.TrimSpace(v.GetString("SCORING_ENDPOINT")),
		ScoringTimeout:  v.GetDuration("SCORING_TIMEOUT"),
		OpenAIAPIKey:    v.GetString("OPENAI_API_KEY"),
		GeminiAPIKey:    v.GetString("GEMINI_API_KEY"),

		RasterDPI:        v.GetFloat64("RASTER_DPI"),
		MaxDocumentBytes: v.GetInt64("MAX_DOCUMENT_BYTES"),
		MaxImageBytes:    v.GetInt64("MAX_IMAGE_BYTES"),
		RunTTL:           v.GetDuration("RUN_TTL"),

		LogFormat:      strings.ToLower(v.GetString("LOG_FORMAT")),
		LogLevel:       strings.ToLower(v.GetString("LOG_LEVEL")),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TracingEnabled: v.GetBool("TRACING_ENABLED"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000")
	v.SetDefault("REVIEW_CACHE_TTL", "10m")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("PUBLIC_ASSET_BASE_URL", "http://localhost:8080/api/v1/assets")
	v.SetDefault("SCORING_PROVIDER", "openai")
	v.SetDefault("SCORING_TIMEOUT", "120s")
	v.SetDefault("RASTER_DPI", 150)
	v.SetDefault("MAX_DOCUMENT_BYTES", DefaultMaxDocumentBytes)
	v.SetDefault("MAX_IMAGE_BYTES", DefaultMaxImageBytes)
	v.SetDefault("RUN_TTL", "30m")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_LEVEL", "info")
}

// IsDevLike reports whether env allows in-memory fallbacks and guest identities.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini":
		return "gemini"
	case "remote", "http":
		return "remote"
	case "none", "placeholder":
		return "none"
	default:
		return "openai"
	}
}

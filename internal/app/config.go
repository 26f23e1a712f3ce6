package app

import (
	"strings"
	"time"

	"github.com/yungbote/ideabank-backend/internal/data/db"
	"github.com/yungbote/ideabank-backend/internal/observability"
	"github.com/yungbote/ideabank-backend/internal/pkg/envutil"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

type Config struct {
	Port    string
	LogMode string

	DB db.Config

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	BackendBaseURL string
	BackendAPIKey  string
	BackendModel   string
	BackendTimeout time.Duration
	AspectRatio    string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	TemplateBankPath string

	JWTSecretKey string
	CSRFSecret   string
	CSRFEnforce  bool
	CORSOrigins  []string

	PlanContinueOnFailure bool

	Otel observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecret := envutil.String("JWT_SECRET_KEY", "")
	if jwtSecret == "" {
		jwtSecret = "defaultsecret"
		log.Warn("JWT_SECRET_KEY not set; using an insecure default")
	}
	csrfSecret := envutil.String("CSRF_SECRET", jwtSecret)

	return Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),

		DB: db.Config{
			Driver:     envutil.String("DB_DRIVER", "postgres"),
			Host:       envutil.String("POSTGRES_HOST", "localhost"),
			Port:       envutil.String("POSTGRES_PORT", "5432"),
			User:       envutil.String("POSTGRES_USER", "postgres"),
			Password:   envutil.String("POSTGRES_PASSWORD", ""),
			Name:       envutil.String("POSTGRES_NAME", "ideabank"),
			SSLMode:    envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath: envutil.String("SQLITE_PATH", "ideabank.db"),
		},

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisChannel:  envutil.String("REDIS_CHANNEL", ""),

		BackendBaseURL: envutil.String("BACKEND_BASE_URL", "http://localhost:8000"),
		BackendAPIKey:  envutil.String("BACKEND_API_KEY", ""),
		BackendModel:   envutil.String("BACKEND_MODEL", ""),
		BackendTimeout: envutil.Seconds("BACKEND_TIMEOUT_SECONDS", 120*time.Second),
		AspectRatio:    envutil.String("DEFAULT_ASPECT_RATIO", "1:1"),

		OpenAIAPIKey:  envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL: envutil.String("OPENAI_BASE_URL", ""),
		OpenAIModel:   envutil.String("OPENAI_MODEL", ""),

		TemplateBankPath: envutil.String("TEMPLATE_BANK_PATH", ""),

		JWTSecretKey: jwtSecret,
		CSRFSecret:   csrfSecret,
		CSRFEnforce:  envutil.Bool("CSRF_ENFORCE", true),
		CORSOrigins:  splitList(envutil.String("CORS_ORIGINS", "")),

		PlanContinueOnFailure: envutil.Bool("PLAN_CONTINUE_ON_FAILURE", false),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "ideabank"),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", ""),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

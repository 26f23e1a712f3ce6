package app

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yungbote/ideabank-backend/internal/clients/backend"
	"github.com/yungbote/ideabank-backend/internal/clients/openai"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
	"github.com/yungbote/ideabank-backend/internal/realtime/bus"
)

type Clients struct {
	Backend *backend.Client
	// Vision is nil when OPENAI_API_KEY is unset; suggestions then score without visual signals.
	Vision *openai.VisionAnalyzer
	// SSEBus is nil without REDIS_ADDR; events then stay on the local hub.
	SSEBus bus.Bus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	backendHTTP := &http.Client{
		Timeout:   cfg.BackendTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	gen := backend.New(log, backend.Config{
		BaseURL: cfg.BackendBaseURL,
		APIKey:  cfg.BackendAPIKey,
		Timeout: cfg.BackendTimeout,
		Model:   cfg.BackendModel,
	}, backendHTTP)

	var vision *openai.VisionAnalyzer
	if cfg.OpenAIAPIKey != "" {
		v, err := openai.NewVisionAnalyzer(log, openai.VisionConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}, nil)
		if err != nil {
			return Clients{}, err
		}
		vision = v
	} else {
		log.Warn("OPENAI_API_KEY not set; vision signals disabled")
	}

	var sseBus bus.Bus
	if cfg.RedisAddr != "" {
		b, err := bus.NewRedisBus(log, bus.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			return Clients{}, err
		}
		sseBus = b
	}

	return Clients{
		Backend: gen,
		Vision:  vision,
		SSEBus:  sseBus,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
}

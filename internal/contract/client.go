package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/ideabank-backend/internal/pkg/httpx"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
)

const (
	DefaultTokenPath   = "/api/csrf-token"
	DefaultTokenHeader = "X-CSRF-Token"
	defaultTimeout     = 30 * time.Second
)

type Config struct {
	BaseURL     string
	TokenPath   string
	TokenHeader string
	// BearerToken is sent as Authorization on every request when set.
	BearerToken string
	Timeout     time.Duration
	// NoToken skips the anti-forgery fetch for services that do not issue tokens.
	NoToken bool
}

// Result is what a 2xx call produced. When Valid is false the schema value must not be
// trusted and Raw holds the payload exactly as received.
type Result struct {
	Status   int
	Raw      json.RawMessage
	Valid    bool
	Mismatch *ValidationMismatch
}

// Payload decodes Raw into generic JSON values.
func (r *Result) Payload() (any, error) {
	if r == nil || len(bytes.TrimSpace(r.Raw)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(r.Raw, &v); err != nil {
		return string(r.Raw), nil
	}
	return v, nil
}

type Client struct {
	log      *logger.Logger
	cfg      Config
	http     *http.Client
	validate *validator.Validate
	tracer   trace.Tracer
}

func New(baseLog *logger.Logger, cfg Config, httpClient *http.Client) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if strings.TrimSpace(cfg.TokenPath) == "" {
		cfg.TokenPath = DefaultTokenPath
	}
	if strings.TrimSpace(cfg.TokenHeader) == "" {
		cfg.TokenHeader = DefaultTokenHeader
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		log:      baseLog.With("service", "ContractClient"),
		cfg:      cfg,
		http:     httpClient,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer("ideabank/contract"),
	}
}

// Request performs one call and validates a 2xx payload against schema (a pointer, or nil).
// Non-2xx responses return *TransportError. A payload that fails validation is logged and
// returned raw with a nil error. Writes carry an anti-forgery token fetched first; when that
// fetch fails the write still goes out once, with an empty token.
func (c *Client) Request(ctx context.Context, method, url string, body any, schema any) (*Result, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	target := c.resolve(url)

	ctx, span := c.tracer.Start(ctx, "contract.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", target),
	))
	defer span.End()

	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	headers := http.Header{}
	if httpx.IsWrite(method) && !c.cfg.NoToken {
		headers.Set(c.cfg.TokenHeader, c.fetchToken(ctx))
	}

	resp, raw, err := c.do(ctx, method, target, payload, headers)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if !httpx.IsSuccess(resp.StatusCode) {
		terr := &TransportError{Status: resp.StatusCode, Message: transportMessage(resp, raw)}
		span.SetStatus(codes.Error, terr.Error())
		return nil, terr
	}

	out := &Result{Status: resp.StatusCode, Raw: json.RawMessage(raw), Valid: true}
	if schema == nil {
		return out, nil
	}
	if verr := c.check(raw, schema); verr != nil {
		out.Valid = false
		out.Mismatch = &ValidationMismatch{URL: target, Err: verr}
		c.log.Warn("response contract mismatch; returning raw payload",
			"method", method,
			"url", target,
			"error", verr,
		)
	}
	return out, nil
}

func (c *Client) resolve(url string) string {
	u := strings.TrimSpace(url)
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return c.cfg.BaseURL + "/" + strings.TrimLeft(u, "/")
}

func (c *Client) fetchToken(ctx context.Context) string {
	resp, raw, err := c.do(ctx, http.MethodGet, c.resolve(c.cfg.TokenPath), nil, nil)
	if err != nil {
		c.log.Warn("csrf token fetch failed; sending write without token", "error", err)
		return ""
	}
	if !httpx.IsSuccess(resp.StatusCode) {
		c.log.Warn("csrf token fetch rejected; sending write without token", "status", resp.StatusCode)
		return ""
	}
	var body struct {
		Token     string `json:"token"`
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		c.log.Warn("csrf token response unreadable; sending write without token", "error", err)
		return ""
	}
	if body.Token != "" {
		return body.Token
	}
	return body.CSRFToken
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte, headers http.Header) (*http.Response, []byte, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, nil, err
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := strings.TrimSpace(c.cfg.BearerToken); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, err := httpx.ReadBody(resp)
	if err != nil {
		return nil, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp, raw, nil
}

func (c *Client) check(raw []byte, schema any) error {
	rv := reflect.ValueOf(schema)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("schema must be a non-nil pointer, got %T", schema)
	}
	if err := json.Unmarshal(raw, schema); err != nil {
		return err
	}
	return c.validateValue(rv.Elem())
}

func (c *Client) validateValue(v reflect.Value) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := c.validateValue(v.Index(i)); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return json.Marshal(b)
	}
}

package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"loom-backend/application/ports"
	pkgerrors "loom-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const serviceName = "transform"

// Client is the HTTP client for the remote transform service. All calls are
// context-cancellable and routed through a circuit breaker; cancellations do
// not count against the breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a transform service client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// A user abort says nothing about service health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("service", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		logger:     logger,
	}
}

type transformRequest struct {
	Text    string                 `json:"text"`
	Persona string                 `json:"persona,omitempty"`
	Style   string                 `json:"style,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type transformResponse struct {
	Transformed string                 `json:"transformed"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Sentences []ports.SentenceAnalysis `json:"sentences"`
}

// Humanize implements ports.TransformService
func (c *Client) Humanize(ctx context.Context, text string, opts map[string]interface{}) (*ports.TransformResult, error) {
	return c.transform(ctx, "/humanize", transformRequest{Text: text, Options: opts})
}

// TransformPersona implements ports.TransformService
func (c *Client) TransformPersona(ctx context.Context, text, persona string, opts map[string]interface{}) (*ports.TransformResult, error) {
	return c.transform(ctx, "/persona", transformRequest{Text: text, Persona: persona, Options: opts})
}

// TransformStyle implements ports.TransformService
func (c *Client) TransformStyle(ctx context.Context, text, style string, opts map[string]interface{}) (*ports.TransformResult, error) {
	return c.transform(ctx, "/style", transformRequest{Text: text, Style: style, Options: opts})
}

// AnalyzeSentences implements ports.TransformService
func (c *Client) AnalyzeSentences(ctx context.Context, text string, progress ports.ProgressFunc) ([]ports.SentenceAnalysis, error) {
	var resp analyzeResponse
	if err := c.call(ctx, "/analyze", analyzeRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	if progress != nil {
		progress(len(resp.Sentences), len(resp.Sentences))
	}
	return resp.Sentences, nil
}

func (c *Client) transform(ctx context.Context, path string, req transformRequest) (*ports.TransformResult, error) {
	var resp transformResponse
	if err := c.call(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	return &ports.TransformResult{Transformed: resp.Transformed, Metadata: resp.Metadata}, nil
}

func (c *Client) call(ctx context.Context, path string, payload, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doJSON(ctx, path, payload, out)
	})
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.NewCancelledError(serviceName + path)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return pkgerrors.NewExternalError(serviceName, err)
	default:
		if pkgerrors.IsAppError(err) {
			return err
		}
		return pkgerrors.NewExternalError(serviceName, err)
	}
}

func (c *Client) doJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.NewInternalError("encoding transform request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.NewInternalError("building transform request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("Transform service call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(started)),
	)

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("transform service returned %d: %s", resp.StatusCode, string(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding transform response: %w", err)
	}
	return nil
}

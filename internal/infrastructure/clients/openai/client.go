package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/verifix/backend/pkg/config"
	apperrors "github.com/verifix/backend/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements the language model provider against an
// OpenAI-compatible responses endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *tokenBucket
}

// NewClient creates a new language model client.
func NewClient(cfg *config.LLMConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limiter := newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst)

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		limiter: limiter,
	}, nil
}

type responseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseOutput struct {
	Content []responseContent `json:"content"`
}

type responseEnvelope struct {
	Output []responseOutput `json:"output"`
}

// Generate returns generated text for a prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	input := []map[string]interface{}{
		{"role": "user", "content": prompt},
	}
	return c.generate(ctx, input)
}

// GenerateWithImage returns generated text for a prompt grounded on an
// image, passed inline as a data URL.
func (c *Client) GenerateWithImage(ctx context.Context, prompt string, image []byte) (string, error) {
	if len(image) == 0 {
		return c.Generate(ctx, prompt)
	}

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	input := []map[string]interface{}{
		{
			"role": "user",
			"content": []map[string]interface{}{
				{"type": "input_text", "text": prompt},
				{"type": "input_image", "image_url": imageURL},
			},
		},
	}
	return c.generate(ctx, input)
}

func (c *Client) generate(ctx context.Context, input []map[string]interface{}) (string, error) {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordLLMMetric(ctx, c.model, 0, 0, err)
			return "", err
		}
		recordLLMRateLimitWait(ctx, c.model, time.Since(waitStart))
	}

	payload := map[string]interface{}{
		"model":       c.model,
		"input":       input,
		"temperature": 0.2,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordLLMMetric(ctx, c.model, 0, time.Since(start), err)
		return "", apperrors.NewExternalError("language model request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		recordLLMMetric(ctx, c.model, resp.StatusCode, time.Since(start), fmt.Errorf("status %d", resp.StatusCode))
		return "", apperrors.NewExternalError(
			fmt.Sprintf("language model request failed with status %d", resp.StatusCode), nil)
	}

	var envelope responseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordLLMMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return "", apperrors.NewExternalError("failed to decode language model response", err)
	}

	var text string
	for _, out := range envelope.Output {
		for _, content := range out.Content {
			if content.Type == "output_text" && content.Text != "" {
				text = content.Text
				break
			}
		}
		if text != "" {
			break
		}
	}

	if text == "" {
		recordLLMMetric(ctx, c.model, resp.StatusCode, time.Since(start), errors.New("missing output text"))
		return "", apperrors.NewExternalError("language model response missing output text", nil)
	}

	recordLLMMetric(ctx, c.model, resp.StatusCode, time.Since(start), nil)
	return strings.TrimSpace(text), nil
}

func newTokenBucket(rpm int, burst int) *tokenBucket {
	if rpm == 0 {
		rpm = 60
	}
	if rpm < 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}
	return newTokenBucketWithRate(rpm, burst)
}

type tokenBucket struct {
	tokens chan struct{}
}

func newTokenBucketWithRate(rpm int, burst int) *tokenBucket {
	bucket := &tokenBucket{
		tokens: make(chan struct{}, burst),
	}

	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			select {
			case bucket.tokens <- struct{}{}:
			default:
			}
		}
	}()

	return bucket
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}

type llmMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var llmMetricsOnce sync.Once
var llmMetricsInit bool
var llmMetricsStore llmMetrics

func ensureLLMMetrics() {
	llmMetricsOnce.Do(initLLMMetrics)
}

func initLLMMetrics() {
	meter := otel.Meter("github.com/verifix/backend/llm")

	requestCount, err := meter.Int64Counter(
		"ai.llm.request.count",
		metric.WithDescription("Number of language model requests"),
	)
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.llm.request.duration",
		metric.WithDescription("Language model request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter(
		"ai.llm.request.errors",
		metric.WithDescription("Number of language model request errors"),
	)
	if err != nil {
		return
	}
	rateLimitWait, err := meter.Float64Histogram(
		"ai.llm.rate_limit.wait",
		metric.WithDescription("Time spent waiting for the language model rate limiter in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}

	llmMetricsStore = llmMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
		rateLimitWait:   rateLimitWait,
	}
	llmMetricsInit = true
}

func recordLLMMetric(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	ensureLLMMetrics()
	if !llmMetricsInit {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	llmMetricsStore.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	llmMetricsStore.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		llmMetricsStore.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordLLMRateLimitWait(ctx context.Context, model string, wait time.Duration) {
	ensureLLMMetrics()
	if !llmMetricsInit {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	}
	llmMetricsStore.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(attrs...))
}

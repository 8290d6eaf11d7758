package research

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/verifix/backend/internal/domain/providers"
	"github.com/verifix/backend/pkg/config"
	apperrors "github.com/verifix/backend/pkg/errors"
)

// HTTPResearcherFactory creates researchers backed by a research agent
// sidecar exposing a two-phase HTTP API: start a research task, then
// request the written report.
type HTTPResearcherFactory struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ providers.ResearcherFactory = (*HTTPResearcherFactory)(nil)

// NewHTTPResearcherFactory creates a new researcher factory.
func NewHTTPResearcherFactory(cfg *config.ResearchConfig) (*HTTPResearcherFactory, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, errors.New("research agent base url is required")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	return &HTTPResearcherFactory{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// NewResearcher registers a research task for one question and returns
// a researcher bound to it.
func (f *HTTPResearcherFactory) NewResearcher(ctx context.Context, question string) (providers.Researcher, error) {
	if question == "" {
		return nil, apperrors.NewValidationError("research question must not be empty", nil)
	}

	payload, err := json.Marshal(map[string]string{"query": question})
	if err != nil {
		return nil, err
	}

	var created struct {
		TaskID string `json:"task_id"`
	}
	if err := f.post(ctx, "/research", payload, &created); err != nil {
		return nil, err
	}
	if created.TaskID == "" {
		return nil, apperrors.NewExternalError("research agent returned no task id", nil)
	}

	return &httpResearcher{factory: f, taskID: created.TaskID}, nil
}

func (f *HTTPResearcherFactory) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("research agent request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewExternalError(
			fmt.Sprintf("research agent returned status %d for %s", resp.StatusCode, path), nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewExternalError("failed to decode research agent response", err)
	}
	return nil
}

// httpResearcher drives one research task through its two phases.
type httpResearcher struct {
	factory *HTTPResearcherFactory
	taskID  string
}

// ConductResearch runs the gathering phase. The call blocks until the
// agent has collected its sources.
func (r *httpResearcher) ConductResearch(ctx context.Context) error {
	path := fmt.Sprintf("/research/%s/run", r.taskID)
	return r.factory.post(ctx, path, nil, nil)
}

// WriteReport asks the agent to synthesize the report text from the
// gathered material.
func (r *httpResearcher) WriteReport(ctx context.Context) (string, error) {
	path := fmt.Sprintf("/research/%s/report", r.taskID)

	var result struct {
		Report string `json:"report"`
	}
	if err := r.factory.post(ctx, path, nil, &result); err != nil {
		return "", err
	}
	if result.Report == "" {
		return "", apperrors.NewExternalError("research agent returned an empty report", nil)
	}

	return result.Report, nil
}

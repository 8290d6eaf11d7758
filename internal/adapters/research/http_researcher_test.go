package research

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/pkg/config"
)

func newAgentServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	paths := &[]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*paths = append(*paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/research":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotEmpty(t, body["query"])
			json.NewEncoder(w).Encode(map[string]string{"task_id": "task-7"})
		case "/research/task-7/run":
			w.WriteHeader(http.StatusOK)
		case "/research/task-7/report":
			json.NewEncoder(w).Encode(map[string]string{"report": "Replace the worn drive belt."})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server, paths
}

func TestResearcherTwoPhaseFlow(t *testing.T) {
	server, paths := newAgentServer(t)
	defer server.Close()

	factory, err := NewHTTPResearcherFactory(&config.ResearchConfig{BaseURL: server.URL})
	require.NoError(t, err)

	researcher, err := factory.NewResearcher(context.Background(), "conveyor belt slips under load")
	require.NoError(t, err)

	require.NoError(t, researcher.ConductResearch(context.Background()))

	report, err := researcher.WriteReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Replace the worn drive belt.", report)

	assert.Equal(t, []string{"/research", "/research/task-7/run", "/research/task-7/report"}, *paths)
}

func TestNewResearcherRejectsEmptyQuestion(t *testing.T) {
	factory, err := NewHTTPResearcherFactory(&config.ResearchConfig{BaseURL: "http://localhost:9"})
	require.NoError(t, err)

	_, err = factory.NewResearcher(context.Background(), "")
	assert.Error(t, err)
}

func TestNewResearcherAgentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	factory, err := NewHTTPResearcherFactory(&config.ResearchConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = factory.NewResearcher(context.Background(), "question")
	assert.Error(t, err)
}

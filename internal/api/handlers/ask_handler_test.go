package handlers_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/internal/api/handlers"
	"github.com/verifix/backend/internal/application/services"
	"github.com/verifix/backend/internal/domain/entities"
	apperrors "github.com/verifix/backend/pkg/errors"
)

type MockNormalizer struct {
	mock.Mock
}

func (m *MockNormalizer) Normalize(ctx context.Context, question string, mctx entities.ManufacturingContext, image []byte) (*services.NormalizedQuestion, error) {
	args := m.Called(ctx, question, mctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.NormalizedQuestion), args.Error(1)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) FindMatches(ctx context.Context, canonical string) ([]entities.Match, error) {
	args := m.Called(ctx, canonical)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Match), args.Error(1)
}

func postJSON(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/api/ask", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAskHandler_Ask_ReturnsMatches(t *testing.T) {
	normalizer := new(MockNormalizer)
	retriever := new(MockRetriever)
	handler := handlers.NewAskHandler(normalizer, retriever)

	normalized := &services.NormalizedQuestion{Canonical: "Haas VF-2: spindle will not start"}
	matches := []entities.Match{
		{QuestionID: "q-1", SolutionID: "sol-1", Text: "spindle will not start", Score: 0.91},
	}

	normalizer.On("Normalize", mock.Anything, "spindle won't start", entities.ManufacturingContext{Manufacturer: "Haas"}, []byte(nil)).
		Return(normalized, nil)
	retriever.On("FindMatches", mock.Anything, normalized.Canonical).Return(matches, nil)

	req := postJSON(t, map[string]interface{}{
		"question": "spindle won't start",
		"context":  map[string]string{"manufacturer": "Haas"},
	})
	w := httptest.NewRecorder()
	handler.Ask(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Matches []entities.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Matches, 1)
	assert.Equal(t, "sol-1", response.Matches[0].SolutionID)
	normalizer.AssertExpectations(t)
	retriever.AssertExpectations(t)
}

func TestAskHandler_Ask_NoMatchesIs404(t *testing.T) {
	normalizer := new(MockNormalizer)
	retriever := new(MockRetriever)
	handler := handlers.NewAskHandler(normalizer, retriever)

	normalizer.On("Normalize", mock.Anything, "unseen fault", entities.ManufacturingContext{}, []byte(nil)).
		Return(&services.NormalizedQuestion{Canonical: "unseen fault"}, nil)
	retriever.On("FindMatches", mock.Anything, "unseen fault").Return([]entities.Match{}, nil)

	w := httptest.NewRecorder()
	handler.Ask(w, postJSON(t, map[string]string{"question": "unseen fault"}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No verified solutions found. Please document your fix.")
}

func TestAskHandler_Ask_DecodesImagePayload(t *testing.T) {
	normalizer := new(MockNormalizer)
	retriever := new(MockRetriever)
	handler := handlers.NewAskHandler(normalizer, retriever)

	image := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	encoded := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	normalizer.On("Normalize", mock.Anything, "what is this panel showing", entities.ManufacturingContext{}, image).
		Return(&services.NormalizedQuestion{Canonical: "what is this panel showing"}, nil)
	retriever.On("FindMatches", mock.Anything, mock.Anything).Return([]entities.Match{}, nil)

	w := httptest.NewRecorder()
	handler.Ask(w, postJSON(t, map[string]string{
		"question":   "what is this panel showing",
		"image_data": encoded,
	}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	normalizer.AssertExpectations(t)
}

func TestAskHandler_Ask_InvalidImageData(t *testing.T) {
	handler := handlers.NewAskHandler(new(MockNormalizer), new(MockRetriever))

	w := httptest.NewRecorder()
	handler.Ask(w, postJSON(t, map[string]string{
		"question":   "blurry photo",
		"image_data": "not base64!!",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskHandler_Ask_InvalidBody(t *testing.T) {
	handler := handlers.NewAskHandler(new(MockNormalizer), new(MockRetriever))

	req := httptest.NewRequest("POST", "/api/ask", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	handler.Ask(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskHandler_Ask_ValidationErrorIs400(t *testing.T) {
	normalizer := new(MockNormalizer)
	handler := handlers.NewAskHandler(normalizer, new(MockRetriever))

	normalizer.On("Normalize", mock.Anything, "", entities.ManufacturingContext{}, []byte(nil)).
		Return(nil, apperrors.NewValidationError("question must not be empty", nil))

	w := httptest.NewRecorder()
	handler.Ask(w, postJSON(t, map[string]string{"question": ""}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

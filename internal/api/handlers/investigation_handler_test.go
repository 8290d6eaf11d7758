package handlers_test

import (
	"bytes"
	"context"
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

type MockInvestigationService struct {
	mock.Mock
}

func (m *MockInvestigationService) Start(ctx context.Context, normalized *services.NormalizedQuestion) (*entities.Solution, error) {
	args := m.Called(ctx, normalized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Solution), args.Error(1)
}

func TestInvestigationHandler_Investigate_Accepted(t *testing.T) {
	normalizer := new(MockNormalizer)
	investigations := new(MockInvestigationService)
	handler := handlers.NewInvestigationHandler(normalizer, investigations)

	normalized := &services.NormalizedQuestion{Canonical: "Fanuc robot reports SRVO-050"}
	normalizer.On("Normalize", mock.Anything, "robot throws SRVO-050", entities.ManufacturingContext{}, []byte(nil)).
		Return(normalized, nil)
	investigations.On("Start", mock.Anything, normalized).
		Return(&entities.Solution{ID: "sol-42", Status: entities.StatusCreated}, nil)

	body, _ := json.Marshal(map[string]string{"question": "robot throws SRVO-050"})
	req := httptest.NewRequest("POST", "/api/investigate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Investigate(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var response struct {
		Message  string `json:"message"`
		Solution struct {
			ID string `json:"id"`
		} `json:"solution"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Investigation started", response.Message)
	assert.Equal(t, "sol-42", response.Solution.ID)
}

func TestInvestigationHandler_Investigate_DuplicateIs409(t *testing.T) {
	normalizer := new(MockNormalizer)
	investigations := new(MockInvestigationService)
	handler := handlers.NewInvestigationHandler(normalizer, investigations)

	normalizer.On("Normalize", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&services.NormalizedQuestion{Canonical: "robot throws SRVO-050"}, nil)
	investigations.On("Start", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewConflictError("an investigation for this question is already running (solution sol-42)"))

	body, _ := json.Marshal(map[string]string{"question": "robot throws SRVO-050"})
	req := httptest.NewRequest("POST", "/api/investigate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.Investigate(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInvestigationHandler_Investigate_InvalidBody(t *testing.T) {
	handler := handlers.NewInvestigationHandler(new(MockNormalizer), new(MockInvestigationService))

	req := httptest.NewRequest("POST", "/api/investigate", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	handler.Investigate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

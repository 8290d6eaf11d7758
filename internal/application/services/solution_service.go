package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
	"github.com/verifix/backend/internal/domain/repositories"
	apperrors "github.com/verifix/backend/pkg/errors"
)

const defaultRecentLimit = 5

// matchFinder finds stored questions similar to a canonical question.
type matchFinder interface {
	FindMatches(ctx context.Context, canonical string) ([]entities.Match, error)
}

// SolutionInput is a technician-documented solution to be stored
// directly, without an investigation.
type SolutionInput struct {
	Title          string                        `json:"title"`
	Text           string                        `json:"text"`
	Description    string                        `json:"description"`
	SolutionSteps  []string                      `json:"solution_steps"`
	Context        entities.ManufacturingContext `json:"context"`
	ModelNumber    string                        `json:"model_number"`
	ResolutionType string                        `json:"resolution_type"`
	DowntimeImpact string                        `json:"downtime_impact"`
	PlantName      string                        `json:"plant_name"`
	Department     string                        `json:"department"`
	SafetyRelated  bool                          `json:"safety_related"`
	Tags           []string                      `json:"tags"`
	Links          []entities.Link               `json:"links"`
	DocumentLink   string                        `json:"document_link"`
}

// SolutionService handles the lifecycle of stored solutions.
type SolutionService struct {
	solutions repositories.SolutionRepository
	questions repositories.QuestionRepository
	inventory repositories.InventoryRepository
	retriever matchFinder
	embedder  providers.Embedder
	index     providers.QuestionIndex
}

// NewSolutionService creates a new solution service
func NewSolutionService(
	solutions repositories.SolutionRepository,
	questions repositories.QuestionRepository,
	inventory repositories.InventoryRepository,
	retriever matchFinder,
	embedder providers.Embedder,
	index providers.QuestionIndex,
) *SolutionService {
	return &SolutionService{
		solutions: solutions,
		questions: questions,
		inventory: inventory,
		retriever: retriever,
		embedder:  embedder,
		index:     index,
	}
}

// Create stores a verified solution for the given canonical question
// and indexes the question. If a stored question already matches above
// the threshold, nothing is written and the competing matches are
// returned with a conflict error.
func (s *SolutionService) Create(ctx context.Context, canonical string, input *SolutionInput) (*entities.Solution, []entities.Match, error) {
	if canonical == "" {
		return nil, nil, apperrors.NewValidationError("question must not be empty", nil)
	}
	if input == nil || input.Title == "" {
		return nil, nil, apperrors.NewValidationError("solution title is required", nil)
	}

	matches, err := s.retriever.FindMatches(ctx, canonical)
	if err != nil {
		return nil, nil, err
	}
	if len(matches) > 0 {
		return nil, matches, apperrors.NewConflictError("a similar documented solution already exists")
	}

	now := time.Now()
	solution := &entities.Solution{
		ID:             uuid.New().String(),
		Title:          input.Title,
		Text:           input.Text,
		Description:    input.Description,
		SolutionSteps:  input.SolutionSteps,
		Verified:       true,
		Confidence:     "100",
		Manufacturer:   input.Context.Manufacturer,
		MachineType:    input.Context.MachineType,
		MachineName:    input.Context.MachineName,
		ModelNumber:    input.ModelNumber,
		Component:      input.Context.Component,
		ErrorCode:      input.Context.ErrorCode,
		ResolutionType: input.ResolutionType,
		DowntimeImpact: input.DowntimeImpact,
		PlantName:      input.PlantName,
		Department:     input.Department,
		SafetyRelated:  input.SafetyRelated,
		Tags:           input.Tags,
		Links:          input.Links,
		DocumentLink:   input.DocumentLink,
		Status:         entities.StatusComplete,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.solutions.Create(ctx, solution); err != nil {
		return nil, nil, err
	}

	embedding, err := s.embedder.Embed(ctx, canonical)
	if err != nil {
		return nil, nil, err
	}

	question := &entities.Question{
		ID:         uuid.New().String(),
		Text:       canonical,
		Embedding:  embedding,
		SolutionID: solution.ID,
		CreatedAt:  now,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, nil, err
	}

	if err := s.index.Upsert(ctx, question.ID, question.Text, solution.ID, embedding); err != nil {
		// The stored question survives; the indexer can rebuild.
		log.Printf("Warning: failed to index question %s: %v", question.ID, err)
	}

	return solution, nil, nil
}

// GetByID retrieves a solution by ID.
func (s *SolutionService) GetByID(ctx context.Context, id string) (*entities.Solution, error) {
	return s.solutions.GetByID(ctx, id)
}

// List retrieves all solutions, newest first.
func (s *SolutionService) List(ctx context.Context) ([]*entities.Solution, error) {
	return s.solutions.List(ctx)
}

// ListRecent retrieves the most recent solutions.
func (s *SolutionService) ListRecent(ctx context.Context, limit int) ([]*entities.Solution, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.solutions.ListRecent(ctx, limit)
}

// ListQuestions retrieves all stored questions.
func (s *SolutionService) ListQuestions(ctx context.Context) ([]*entities.Question, error) {
	return s.questions.List(ctx)
}

// Verify marks a solution as human-verified. Verification sticks: the
// investigation pipeline never clears it.
func (s *SolutionService) Verify(ctx context.Context, id string) (*entities.Solution, error) {
	solution, err := s.solutions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if solution.Verified {
		return solution, nil
	}

	solution.Verified = true
	if err := s.solutions.Update(ctx, solution); err != nil {
		return nil, err
	}
	return solution, nil
}

// Delete removes a solution and cascades to its questions (store and
// index) and any inventory record.
func (s *SolutionService) Delete(ctx context.Context, id string) error {
	if _, err := s.solutions.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.index.DeleteBySolutionID(ctx, id); err != nil {
		log.Printf("Warning: failed to remove solution %s questions from index: %v", id, err)
	}
	if err := s.questions.DeleteBySolutionID(ctx, id); err != nil {
		return err
	}
	if err := s.inventory.DeleteBySolutionID(ctx, id); err != nil {
		return err
	}

	return s.solutions.Delete(ctx, id)
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
	"github.com/verifix/backend/internal/domain/repositories"
	apperrors "github.com/verifix/backend/pkg/errors"
)

// reportExtractor turns a research report into structured fields.
type reportExtractor interface {
	Extract(ctx context.Context, question, report string) (*ExtractedSolution, error)
}

// confidenceScorer rates an assembled solution.
type confidenceScorer interface {
	Score(ctx context.Context, solution *entities.Solution) (string, error)
}

// inventoryExtractor mines a solution for equipment metadata.
type inventoryExtractor interface {
	ExtractAndStore(ctx context.Context, solution *entities.Solution) (*entities.Inventory, error)
}

// InvestigationService orchestrates the research pipeline for one
// question: research, report, field extraction, confidence scoring,
// persistence and indexing, with every transition observable through
// the event bus.
type InvestigationService struct {
	solutions repositories.SolutionRepository
	questions repositories.QuestionRepository
	factory   providers.ResearcherFactory
	extractor reportExtractor
	scorer    confidenceScorer
	inventory inventoryExtractor
	embedder  providers.Embedder
	index     providers.QuestionIndex
	bus       providers.EventBus

	// inFlight keys a fingerprint of the canonical question so the
	// same question cannot spawn two concurrent investigations.
	mu       sync.Mutex
	inFlight map[string]string
}

// NewInvestigationService creates a new investigation service
func NewInvestigationService(
	solutions repositories.SolutionRepository,
	questions repositories.QuestionRepository,
	factory providers.ResearcherFactory,
	extractor reportExtractor,
	scorer confidenceScorer,
	inventory inventoryExtractor,
	embedder providers.Embedder,
	index providers.QuestionIndex,
	bus providers.EventBus,
) *InvestigationService {
	return &InvestigationService{
		solutions: solutions,
		questions: questions,
		factory:   factory,
		extractor: extractor,
		scorer:    scorer,
		inventory: inventory,
		embedder:  embedder,
		index:     index,
		bus:       bus,
		inFlight:  make(map[string]string),
	}
}

// Start creates a placeholder solution for the canonical question and
// launches the investigation in the background. The placeholder is
// returned immediately so the caller can watch its status feed.
func (s *InvestigationService) Start(ctx context.Context, normalized *NormalizedQuestion) (*entities.Solution, error) {
	if normalized == nil || normalized.Canonical == "" {
		return nil, apperrors.NewValidationError("question must not be empty", nil)
	}

	fingerprint := questionFingerprint(normalized.Canonical)

	s.mu.Lock()
	if existingID, busy := s.inFlight[fingerprint]; busy {
		s.mu.Unlock()
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("an investigation for this question is already running (solution %s)", existingID))
	}
	s.inFlight[fingerprint] = ""
	s.mu.Unlock()

	researcher, err := s.factory.NewResearcher(ctx, normalized.Canonical)
	if err != nil {
		s.release(fingerprint)
		return nil, err
	}

	now := time.Now()
	solution := &entities.Solution{
		ID:           uuid.New().String(),
		Title:        normalized.Canonical,
		Confidence:   "0",
		Status:       entities.StatusCreated,
		Manufacturer: normalized.Context.Manufacturer,
		MachineType:  normalized.Context.MachineType,
		MachineName:  normalized.Context.MachineName,
		Component:    normalized.Context.Component,
		ErrorCode:    normalized.Context.ErrorCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.solutions.Create(ctx, solution); err != nil {
		s.release(fingerprint)
		return nil, err
	}

	s.mu.Lock()
	s.inFlight[fingerprint] = solution.ID
	s.mu.Unlock()

	s.publishStatus(solution.ID, entities.StatusCreated)

	// The investigation outlives the request; detach from its context.
	go s.run(context.Background(), fingerprint, solution.ID, normalized, researcher)

	return solution, nil
}

func (s *InvestigationService) run(ctx context.Context, fingerprint, solutionID string, normalized *NormalizedQuestion, researcher providers.Researcher) {
	defer s.release(fingerprint)

	if err := s.pipeline(ctx, solutionID, normalized, researcher); err != nil {
		s.fail(ctx, solutionID, err)
	}
}

func (s *InvestigationService) pipeline(ctx context.Context, solutionID string, normalized *NormalizedQuestion, researcher providers.Researcher) error {
	question := normalized.Canonical

	if err := s.transition(ctx, solutionID, entities.StatusResearching); err != nil {
		return err
	}
	if err := researcher.ConductResearch(ctx); err != nil {
		return err
	}

	if err := s.transition(ctx, solutionID, entities.StatusProcessing); err != nil {
		return err
	}
	report, err := researcher.WriteReport(ctx)
	if err != nil {
		return err
	}

	if err := s.transition(ctx, solutionID, entities.StatusIdentifying); err != nil {
		return err
	}
	extracted, err := s.extractor.Extract(ctx, question, report)
	if err != nil {
		return err
	}

	solution, err := s.solutions.GetByID(ctx, solutionID)
	if err != nil {
		return err
	}
	applyExtraction(solution, extracted, report)

	if err := s.transition(ctx, solutionID, entities.StatusValidating); err != nil {
		return err
	}
	confidence, err := s.scorer.Score(ctx, solution)
	if err != nil {
		return err
	}
	solution.Confidence = confidence

	if err := s.transition(ctx, solutionID, entities.StatusStoring); err != nil {
		return err
	}

	// Inventory is opportunistic: failure costs the record, not the
	// investigation.
	inventory, invErr := s.inventory.ExtractAndStore(ctx, solution)
	if invErr != nil {
		log.Printf("Warning: inventory extraction failed for solution %s: %v", solutionID, invErr)
	} else {
		solution.InventoryID = inventory.ID
	}

	if err := s.indexQuestion(ctx, question, solutionID); err != nil {
		return err
	}

	solution.Status = entities.StatusComplete
	if err := s.solutions.Update(ctx, solution); err != nil {
		return err
	}

	s.publish(&entities.InvestigationEvent{
		ID:         uuid.New().String(),
		SolutionID: solutionID,
		EventType:  entities.EventTypeSolutionReady,
		Status:     entities.StatusComplete,
		Solution:   solution,
		Inventory:  inventory,
		Timestamp:  time.Now(),
	})

	return nil
}

// applyExtraction merges extracted fields into the placeholder.
// Context supplied by the technician is kept when extraction found
// nothing, and a human verification is never undone.
func applyExtraction(solution *entities.Solution, extracted *ExtractedSolution, report string) {
	solution.Text = report
	solution.Description = extracted.Description
	solution.SolutionSteps = extracted.SolutionSteps
	solution.Links = extracted.Links
	solution.ResolutionType = extracted.ResolutionType
	solution.DowntimeImpact = extracted.DowntimeImpact
	solution.ModelNumber = extracted.ModelNumber

	if extracted.Manufacturer != "" {
		solution.Manufacturer = extracted.Manufacturer
	}
	if extracted.MachineName != "" {
		solution.MachineName = extracted.MachineName
	}
	if extracted.Component != "" {
		solution.Component = extracted.Component
	}
	if extracted.ErrorCode != "" {
		solution.ErrorCode = extracted.ErrorCode
	}
}

// indexQuestion persists the canonical question and makes it
// retrievable by similarity search.
func (s *InvestigationService) indexQuestion(ctx context.Context, question, solutionID string) error {
	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return err
	}

	record := &entities.Question{
		ID:         uuid.New().String(),
		Text:       question,
		Embedding:  embedding,
		SolutionID: solutionID,
		CreatedAt:  time.Now(),
	}
	if err := s.questions.Create(ctx, record); err != nil {
		return err
	}

	return s.index.Upsert(ctx, record.ID, record.Text, solutionID, embedding)
}

// fail drives the solution into the terminal error state. The failure
// message is stored in the solution text so pollers see it.
func (s *InvestigationService) fail(ctx context.Context, solutionID string, cause error) {
	log.Printf("Investigation failed for solution %s: %v", solutionID, cause)

	solution, err := s.solutions.GetByID(ctx, solutionID)
	if err != nil {
		log.Printf("Failed to load solution %s for error update: %v", solutionID, err)
	} else {
		solution.Text = fmt.Sprintf("Error generating report: %v", cause)
		solution.Status = entities.StatusError
		if err := s.solutions.Update(ctx, solution); err != nil {
			log.Printf("Failed to store error state for solution %s: %v", solutionID, err)
		}
	}

	s.publish(&entities.InvestigationEvent{
		ID:         uuid.New().String(),
		SolutionID: solutionID,
		EventType:  entities.EventTypeErrored,
		Status:     entities.StatusError,
		Message:    cause.Error(),
		Timestamp:  time.Now(),
	})
}

// transition persists a forward status move and announces it.
func (s *InvestigationService) transition(ctx context.Context, solutionID string, status entities.SolutionStatus) error {
	if err := s.solutions.UpdateStatus(ctx, solutionID, status); err != nil {
		return err
	}
	s.publishStatus(solutionID, status)
	return nil
}

func (s *InvestigationService) publishStatus(solutionID string, status entities.SolutionStatus) {
	s.publish(&entities.InvestigationEvent{
		ID:         uuid.New().String(),
		SolutionID: solutionID,
		EventType:  entities.EventTypeStatus,
		Status:     status,
		Timestamp:  time.Now(),
	})
}

func (s *InvestigationService) publish(event *entities.InvestigationEvent) {
	if s.bus == nil {
		return
	}
	ctx := context.Background()
	if err := s.bus.Publish(ctx, providers.GetSolutionChannel(event.SolutionID), event); err != nil {
		log.Printf("Failed to publish event for solution %s: %v", event.SolutionID, err)
	}
	if err := s.bus.Publish(ctx, providers.EventChannelAll, event); err != nil {
		log.Printf("Failed to publish global event for solution %s: %v", event.SolutionID, err)
	}
}

func (s *InvestigationService) release(fingerprint string) {
	s.mu.Lock()
	delete(s.inFlight, fingerprint)
	s.mu.Unlock()
}

func questionFingerprint(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

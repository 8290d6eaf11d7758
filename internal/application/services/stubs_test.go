package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
	apperrors "github.com/verifix/backend/pkg/errors"
)

type stubLLM struct {
	generate func(prompt string) (string, error)
}

func (s *stubLLM) Generate(_ context.Context, prompt string) (string, error) {
	return s.generate(prompt)
}

func (s *stubLLM) GenerateWithImage(_ context.Context, prompt string, _ []byte) (string, error) {
	return s.generate("image:" + prompt)
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return s.vector, s.err
}

func (s *stubEmbedder) Dimension() int {
	return len(s.vector)
}

type indexedQuestion struct {
	questionID string
	text       string
	solutionID string
}

type stubIndex struct {
	mu        sync.Mutex
	hits      []providers.QuestionHit
	searchErr error
	upserts   []indexedQuestion
	deleted   []string
}

func (s *stubIndex) EnsureCollection(_ context.Context, _ int) error {
	return nil
}

func (s *stubIndex) Upsert(_ context.Context, questionID, text, solutionID string, _ []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, indexedQuestion{questionID, text, solutionID})
	return nil
}

func (s *stubIndex) Search(_ context.Context, _ []float32, _ int) ([]providers.QuestionHit, error) {
	return s.hits, s.searchErr
}

func (s *stubIndex) DeleteBySolutionID(_ context.Context, solutionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, solutionID)
	return nil
}

func (s *stubIndex) upserted() []indexedQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]indexedQuestion{}, s.upserts...)
}

func (s *stubIndex) deletedSolutions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.deleted...)
}

type stubResearcher struct {
	report      string
	conductErr  error
	writeErr    error
	blockUntil  chan struct{}
	conductedCh chan struct{}
	conductOnce sync.Once
}

func (r *stubResearcher) ConductResearch(_ context.Context) error {
	if r.conductedCh != nil {
		r.conductOnce.Do(func() { close(r.conductedCh) })
	}
	if r.blockUntil != nil {
		<-r.blockUntil
	}
	return r.conductErr
}

func (r *stubResearcher) WriteReport(_ context.Context) (string, error) {
	return r.report, r.writeErr
}

type stubResearcherFactory struct {
	researcher providers.Researcher
	err        error
}

func (f *stubResearcherFactory) NewResearcher(_ context.Context, _ string) (providers.Researcher, error) {
	return f.researcher, f.err
}

type stubSolutionRepo struct {
	mu            sync.Mutex
	solutions     map[string]*entities.Solution
	statusHistory map[string][]entities.SolutionStatus
}

func newStubSolutionRepo() *stubSolutionRepo {
	return &stubSolutionRepo{
		solutions:     make(map[string]*entities.Solution),
		statusHistory: make(map[string][]entities.SolutionStatus),
	}
}

func (r *stubSolutionRepo) Create(_ context.Context, solution *entities.Solution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *solution
	r.solutions[solution.ID] = &copied
	return nil
}

func (r *stubSolutionRepo) GetByID(_ context.Context, id string) (*entities.Solution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	solution, ok := r.solutions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("solution with id %s not found", id))
	}
	copied := *solution
	return &copied, nil
}

func (r *stubSolutionRepo) List(_ context.Context) ([]*entities.Solution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*entities.Solution{}
	for _, solution := range r.solutions {
		copied := *solution
		result = append(result, &copied)
	}
	return result, nil
}

func (r *stubSolutionRepo) ListRecent(ctx context.Context, limit int) ([]*entities.Solution, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *stubSolutionRepo) Update(_ context.Context, solution *entities.Solution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.solutions[solution.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("solution with id %s not found", solution.ID))
	}
	copied := *solution
	r.solutions[solution.ID] = &copied
	r.statusHistory[solution.ID] = append(r.statusHistory[solution.ID], solution.Status)
	return nil
}

func (r *stubSolutionRepo) UpdateStatus(_ context.Context, id string, status entities.SolutionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	solution, ok := r.solutions[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("solution with id %s not found", id))
	}
	solution.Status = status
	r.statusHistory[id] = append(r.statusHistory[id], status)
	return nil
}

func (r *stubSolutionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.solutions[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("solution with id %s not found", id))
	}
	delete(r.solutions, id)
	return nil
}

func (r *stubSolutionRepo) history(id string) []entities.SolutionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.SolutionStatus{}, r.statusHistory[id]...)
}

type stubQuestionRepo struct {
	mu        sync.Mutex
	questions []*entities.Question
	deleted   []string
}

func (r *stubQuestionRepo) Create(_ context.Context, question *entities.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *question
	r.questions = append(r.questions, &copied)
	return nil
}

func (r *stubQuestionRepo) GetByID(_ context.Context, id string) (*entities.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, question := range r.questions {
		if question.ID == id {
			copied := *question
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("question not found")
}

func (r *stubQuestionRepo) List(_ context.Context) ([]*entities.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entities.Question{}, r.questions...), nil
}

func (r *stubQuestionRepo) ListBySolutionID(_ context.Context, solutionID string) ([]*entities.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []*entities.Question{}
	for _, question := range r.questions {
		if question.SolutionID == solutionID {
			result = append(result, question)
		}
	}
	return result, nil
}

func (r *stubQuestionRepo) DeleteBySolutionID(_ context.Context, solutionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, solutionID)
	kept := r.questions[:0]
	for _, question := range r.questions {
		if question.SolutionID != solutionID {
			kept = append(kept, question)
		}
	}
	r.questions = kept
	return nil
}

type stubInventoryRepo struct {
	mu      sync.Mutex
	records map[string]*entities.Inventory
	deleted []string
}

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{records: make(map[string]*entities.Inventory)}
}

func (r *stubInventoryRepo) Create(_ context.Context, inventory *entities.Inventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *inventory
	r.records[inventory.ID] = &copied
	return nil
}

func (r *stubInventoryRepo) GetByID(_ context.Context, id string) (*entities.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inventory, ok := r.records[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("inventory not found")
	}
	copied := *inventory
	return &copied, nil
}

func (r *stubInventoryRepo) GetBySolutionID(_ context.Context, solutionID string) (*entities.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inventory := range r.records {
		if inventory.SolutionID == solutionID {
			copied := *inventory
			return &copied, nil
		}
	}
	return nil, apperrors.NewNotFoundError("inventory not found")
}

func (r *stubInventoryRepo) DeleteBySolutionID(_ context.Context, solutionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, solutionID)
	for id, inventory := range r.records {
		if inventory.SolutionID == solutionID {
			delete(r.records, id)
		}
	}
	return nil
}

type stubEventBus struct {
	mu     sync.Mutex
	events []*entities.InvestigationEvent
}

func (b *stubEventBus) Publish(_ context.Context, _ string, event *entities.InvestigationEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *stubEventBus) Subscribe(_ context.Context, _ string) (<-chan *entities.InvestigationEvent, error) {
	ch := make(chan *entities.InvestigationEvent)
	close(ch)
	return ch, nil
}

func (b *stubEventBus) Unsubscribe(_ context.Context, _ string) error { return nil }

func (b *stubEventBus) Close() error { return nil }

func (b *stubEventBus) published() []*entities.InvestigationEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*entities.InvestigationEvent{}, b.events...)
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
	apperrors "github.com/verifix/backend/pkg/errors"
)

type fakeExtractor struct {
	extracted *ExtractedSolution
	err       error
}

func (f *fakeExtractor) Extract(_ context.Context, _, _ string) (*ExtractedSolution, error) {
	return f.extracted, f.err
}

type fakeScorer struct {
	score string
	err   error
}

func (f *fakeScorer) Score(_ context.Context, _ *entities.Solution) (string, error) {
	return f.score, f.err
}

type fakeInventoryExtractor struct {
	inventory *entities.Inventory
	err       error
}

func (f *fakeInventoryExtractor) ExtractAndStore(_ context.Context, solution *entities.Solution) (*entities.Inventory, error) {
	if f.err != nil {
		return nil, f.err
	}
	inv := *f.inventory
	inv.SolutionID = solution.ID
	return &inv, nil
}

type investigationFixture struct {
	svc       *InvestigationService
	solutions *stubSolutionRepo
	questions *stubQuestionRepo
	index     *stubIndex
	bus       *stubEventBus
}

func newInvestigationFixture(researcher providers.Researcher, opts ...func(*investigationFixture)) *investigationFixture {
	f := &investigationFixture{
		solutions: newStubSolutionRepo(),
		questions: &stubQuestionRepo{},
		index:     &stubIndex{},
		bus:       &stubEventBus{},
	}

	extractor := &fakeExtractor{extracted: &ExtractedSolution{
		Description:   "Tighten the belt.",
		SolutionSteps: []string{"1. Stop machine.", "2. Tighten belt."},
		Manufacturer:  "Siemens",
		Component:     "Drive Belt",
	}}
	scorer := &fakeScorer{score: "80"}
	inventory := &fakeInventoryExtractor{inventory: &entities.Inventory{ID: "inv-1", Manufacturer: "Siemens"}}

	f.svc = NewInvestigationService(
		f.solutions,
		f.questions,
		&stubResearcherFactory{researcher: researcher},
		extractor,
		scorer,
		inventory,
		&stubEmbedder{vector: []float32{0.1, 0.9}},
		f.index,
		f.bus,
	)

	for _, opt := range opts {
		opt(f)
	}
	return f
}

func waitForStatus(t *testing.T, repo *stubSolutionRepo, id string, want entities.SolutionStatus) *entities.Solution {
	t.Helper()
	var solution *entities.Solution
	require.Eventually(t, func() bool {
		current, err := repo.GetByID(context.Background(), id)
		if err != nil {
			return false
		}
		solution = current
		return current.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return solution
}

func TestInvestigationHappyPath(t *testing.T) {
	researcher := &stubResearcher{report: "Full research report."}
	f := newInvestigationFixture(researcher)

	normalized := &NormalizedQuestion{
		Canonical: "Siemens: belt slips",
		Context:   entities.ManufacturingContext{Manufacturer: "Siemens"},
	}
	placeholder, err := f.svc.Start(context.Background(), normalized)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCreated, placeholder.Status)
	assert.Equal(t, "0", placeholder.Confidence)
	assert.Equal(t, normalized.Canonical, placeholder.Title)

	final := waitForStatus(t, f.solutions, placeholder.ID, entities.StatusComplete)
	assert.Equal(t, "Full research report.", final.Text)
	assert.Equal(t, "Tighten the belt.", final.Description)
	assert.Equal(t, "80", final.Confidence)
	assert.Equal(t, "Drive Belt", final.Component)
	assert.NotEmpty(t, final.InventoryID)
	assert.False(t, final.Verified)

	// Status moves forward through every stage in order.
	history := f.solutions.history(placeholder.ID)
	expected := []entities.SolutionStatus{
		entities.StatusResearching,
		entities.StatusProcessing,
		entities.StatusIdentifying,
		entities.StatusValidating,
		entities.StatusStoring,
		entities.StatusComplete,
	}
	assert.Equal(t, expected, history)

	// The canonical question was persisted and indexed.
	require.Eventually(t, func() bool {
		questions, _ := f.questions.List(context.Background())
		return len(questions) == 1
	}, 5*time.Second, 10*time.Millisecond)
	upserts := f.index.upserted()
	require.Len(t, upserts, 1)
	assert.Equal(t, placeholder.ID, upserts[0].solutionID)

	// Terminal event carries the full solution and inventory.
	events := f.bus.published()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, entities.EventTypeSolutionReady, last.EventType)
	require.NotNil(t, last.Solution)
	assert.Equal(t, entities.StatusComplete, last.Solution.Status)
	require.NotNil(t, last.Inventory)
}

func TestInvestigationResearchFailure(t *testing.T) {
	researcher := &stubResearcher{writeErr: errors.New("agent crashed")}
	f := newInvestigationFixture(researcher)

	placeholder, err := f.svc.Start(context.Background(), &NormalizedQuestion{Canonical: "q"})
	require.NoError(t, err)

	final := waitForStatus(t, f.solutions, placeholder.ID, entities.StatusError)
	assert.True(t, strings.HasPrefix(final.Text, "Error generating report: "))
	assert.Contains(t, final.Text, "agent crashed")

	events := f.bus.published()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, entities.EventTypeErrored, last.EventType)
	assert.Equal(t, entities.StatusError, last.Status)
}

func TestInvestigationInventoryFailureDegrades(t *testing.T) {
	researcher := &stubResearcher{report: "report"}
	f := newInvestigationFixture(researcher)
	f.svc.inventory = &fakeInventoryExtractor{err: errors.New("no component info")}

	placeholder, err := f.svc.Start(context.Background(), &NormalizedQuestion{Canonical: "q"})
	require.NoError(t, err)

	final := waitForStatus(t, f.solutions, placeholder.ID, entities.StatusComplete)
	assert.Empty(t, final.InventoryID)
}

func TestInvestigationDuplicateQuestionConflicts(t *testing.T) {
	gate := make(chan struct{})
	researcher := &stubResearcher{report: "report", blockUntil: gate, conductedCh: make(chan struct{})}
	f := newInvestigationFixture(researcher)

	normalized := &NormalizedQuestion{Canonical: "same question"}
	first, err := f.svc.Start(context.Background(), normalized)
	require.NoError(t, err)

	<-researcher.conductedCh

	_, err = f.svc.Start(context.Background(), normalized)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	close(gate)
	waitForStatus(t, f.solutions, first.ID, entities.StatusComplete)

	// Once finished, the same question may be investigated again.
	require.Eventually(t, func() bool {
		_, err := f.svc.Start(context.Background(), &NormalizedQuestion{Canonical: "same question"})
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestInvestigationRejectsEmptyQuestion(t *testing.T) {
	f := newInvestigationFixture(&stubResearcher{})

	_, err := f.svc.Start(context.Background(), &NormalizedQuestion{})
	assert.Error(t, err)
}

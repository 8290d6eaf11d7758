package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/internal/domain/entities"
	apperrors "github.com/verifix/backend/pkg/errors"
)

type fixedMatches struct {
	matches []entities.Match
	err     error
}

func (f *fixedMatches) FindMatches(_ context.Context, _ string) ([]entities.Match, error) {
	return f.matches, f.err
}

func newSolutionService(retriever matchFinder) (*SolutionService, *stubSolutionRepo, *stubQuestionRepo, *stubInventoryRepo, *stubIndex) {
	solutions := newStubSolutionRepo()
	questions := &stubQuestionRepo{}
	inventory := newStubInventoryRepo()
	index := &stubIndex{}
	svc := NewSolutionService(solutions, questions, inventory, retriever,
		&stubEmbedder{vector: []float32{0.2, 0.8}}, index)
	return svc, solutions, questions, inventory, index
}

func TestCreateSolutionStoresAndIndexes(t *testing.T) {
	svc, solutions, questions, _, index := newSolutionService(&fixedMatches{})

	input := &SolutionInput{
		Title:         "Replace worn drive belt",
		Description:   "Belt wear causes slippage.",
		SolutionSteps: []string{"1. Stop machine.", "2. Replace belt."},
		Context:       entities.ManufacturingContext{Manufacturer: "Siemens", Component: "Drive Belt"},
	}
	created, matches, err := svc.Create(context.Background(), "Siemens Drive Belt: belt slips", input)
	require.NoError(t, err)
	assert.Empty(t, matches)

	assert.True(t, created.Verified)
	assert.Equal(t, entities.StatusComplete, created.Status)
	assert.Equal(t, "Siemens", created.Manufacturer)

	stored, err := solutions.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, stored.Title)

	allQuestions, _ := questions.List(context.Background())
	require.Len(t, allQuestions, 1)
	assert.Equal(t, created.ID, allQuestions[0].SolutionID)

	upserts := index.upserted()
	require.Len(t, upserts, 1)
	assert.Equal(t, created.ID, upserts[0].solutionID)
}

func TestCreateSolutionConflictsOnExistingMatch(t *testing.T) {
	competing := []entities.Match{{QuestionID: "q1", SolutionID: "s1", Score: 0.91}}
	svc, solutions, _, _, _ := newSolutionService(&fixedMatches{matches: competing})

	_, matches, err := svc.Create(context.Background(), "belt slips", &SolutionInput{Title: "dup"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, competing, matches)

	all, _ := solutions.List(context.Background())
	assert.Empty(t, all)
}

func TestCreateSolutionValidatesInput(t *testing.T) {
	svc, _, _, _, _ := newSolutionService(&fixedMatches{})

	_, _, err := svc.Create(context.Background(), "", &SolutionInput{Title: "t"})
	assert.Error(t, err)

	_, _, err = svc.Create(context.Background(), "question", nil)
	assert.Error(t, err)
}

func TestVerifyIsSticky(t *testing.T) {
	svc, solutions, _, _, _ := newSolutionService(&fixedMatches{})
	seed := &entities.Solution{ID: "sol-1", Title: "t", Status: entities.StatusComplete}
	require.NoError(t, solutions.Create(context.Background(), seed))

	verified, err := svc.Verify(context.Background(), "sol-1")
	require.NoError(t, err)
	assert.True(t, verified.Verified)

	again, err := svc.Verify(context.Background(), "sol-1")
	require.NoError(t, err)
	assert.True(t, again.Verified)
}

func TestVerifyUnknownSolution(t *testing.T) {
	svc, _, _, _, _ := newSolutionService(&fixedMatches{})

	_, err := svc.Verify(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteCascades(t *testing.T) {
	svc, solutions, questions, inventory, index := newSolutionService(&fixedMatches{})

	seed := &entities.Solution{ID: "sol-1", Title: "t", Status: entities.StatusComplete}
	require.NoError(t, solutions.Create(context.Background(), seed))
	require.NoError(t, questions.Create(context.Background(), &entities.Question{ID: "q1", SolutionID: "sol-1"}))
	require.NoError(t, inventory.Create(context.Background(), &entities.Inventory{ID: "inv-1", SolutionID: "sol-1"}))

	require.NoError(t, svc.Delete(context.Background(), "sol-1"))

	_, err := solutions.GetByID(context.Background(), "sol-1")
	assert.True(t, apperrors.IsNotFound(err))

	remaining, _ := questions.ListBySolutionID(context.Background(), "sol-1")
	assert.Empty(t, remaining)

	_, err = inventory.GetBySolutionID(context.Background(), "sol-1")
	assert.True(t, apperrors.IsNotFound(err))

	assert.Equal(t, []string{"sol-1"}, index.deletedSolutions())
}

func TestDeleteUnknownSolution(t *testing.T) {
	svc, _, _, _, _ := newSolutionService(&fixedMatches{})

	err := svc.Delete(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListRecentDefaultsLimit(t *testing.T) {
	svc, solutions, _, _, _ := newSolutionService(&fixedMatches{})
	for i := 0; i < 8; i++ {
		require.NoError(t, solutions.Create(context.Background(), &entities.Solution{
			ID: string(rune('a' + i)), Title: "t", Status: entities.StatusComplete,
		}))
	}

	recent, err := svc.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recent, defaultRecentLimit)
}

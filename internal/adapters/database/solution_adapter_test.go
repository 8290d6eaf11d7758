package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/internal/domain/entities"
)

func TestSolutionRecordColumnsMatchSelect(t *testing.T) {
	solution := &entities.Solution{
		ID:            "sol-1",
		Title:         "Spindle stall on startup",
		Status:        entities.StatusCreated,
		SolutionSteps: []string{"check belt tension"},
		Links:         []entities.Link{{Title: "manual", URL: "https://example.com"}},
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	record, err := solutionRecord(solution)
	require.NoError(t, err)

	assert.Len(t, record, len(solutionColumns))
	for _, col := range solutionColumns {
		_, ok := record[col.(string)]
		assert.True(t, ok, "missing column %v", col)
	}
}

func TestSolutionRecordEmptyInventoryIDIsNull(t *testing.T) {
	record, err := solutionRecord(&entities.Solution{ID: "sol-2", Status: entities.StatusCreated})
	require.NoError(t, err)

	nullable, ok := record["inventory_id"].(sql.NullString)
	require.True(t, ok)
	assert.False(t, nullable.Valid)
}

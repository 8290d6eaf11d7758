package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verifix/backend/internal/domain/entities"
)

func TestExtractAndStorePrefersSolutionFields(t *testing.T) {
	llm := &stubLLM{generate: func(string) (string, error) {
		return `{"manufacturer":"Fanuc","model_name":"R-2000iC","component_type":"Robot","firmware_version":"7.70","specifications":{"payload":"210kg"},"installation_date":"2023-04-01"}`, nil
	}}
	repo := newStubInventoryRepo()
	svc := NewInventoryService(repo, llm)

	solution := &entities.Solution{
		ID:           "sol-1",
		Text:         "report text",
		Manufacturer: "Siemens",
		MachineType:  "Robot Cell",
		ErrorCode:    "E-17",
	}
	inventory, err := svc.ExtractAndStore(context.Background(), solution)
	require.NoError(t, err)

	assert.Equal(t, "sol-1", inventory.SolutionID)
	assert.Equal(t, "Siemens", inventory.Manufacturer)
	assert.Equal(t, "R-2000iC", inventory.ModelName)
	assert.Equal(t, "Robot", inventory.ComponentType)
	assert.Equal(t, "7.70", inventory.FirmwareVersion)
	assert.Equal(t, "210kg", inventory.Specifications["payload"])
	assert.Equal(t, "Robot Cell", inventory.Metadata["machine_type"])
	assert.Equal(t, "E-17", inventory.Metadata["error_code"])
	assert.Equal(t, "2023-04-01", inventory.Metadata["installation_date"])

	stored, err := repo.GetBySolutionID(context.Background(), "sol-1")
	require.NoError(t, err)
	assert.Equal(t, inventory.ID, stored.ID)
}

func TestExtractAndStoreDegradesOnUnparseableReply(t *testing.T) {
	llm := &stubLLM{generate: func(string) (string, error) {
		return "no json here", nil
	}}
	svc := NewInventoryService(newStubInventoryRepo(), llm)

	inventory, err := svc.ExtractAndStore(context.Background(), &entities.Solution{ID: "sol-2", Text: "t"})
	require.NoError(t, err)
	assert.Empty(t, inventory.ModelName)
	assert.Empty(t, inventory.Manufacturer)
}

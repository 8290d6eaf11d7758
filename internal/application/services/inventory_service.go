package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
	"github.com/verifix/backend/internal/domain/repositories"
)

const componentInfoPrompt = `Extract detailed component/machine information from this text. Return a JSON object with these fields:
- manufacturer: The equipment manufacturer
- model_name: The specific model name/number
- component_type: The type of component (PLC, Robot, Drive, etc.)
- firmware_version: Any mentioned firmware/software version
- specifications: Technical specifications as key-value pairs
- installation_date: Installation date if mentioned
- last_service: Last service date if mentioned

Only include fields if they are mentioned in the text. Format dates as YYYY-MM-DD.
Text: %s

Return only the JSON object, no other text.`

// InventoryService extracts and stores equipment metadata found in
// solution text. Extraction is best-effort: a solution without usable
// component information simply gets no inventory record.
type InventoryService struct {
	repo repositories.InventoryRepository
	llm  providers.LanguageModel
}

// NewInventoryService creates a new inventory service
func NewInventoryService(repo repositories.InventoryRepository, llm providers.LanguageModel) *InventoryService {
	return &InventoryService{repo: repo, llm: llm}
}

type componentInfo struct {
	Manufacturer     string            `json:"manufacturer"`
	ModelName        string            `json:"model_name"`
	ComponentType    string            `json:"component_type"`
	FirmwareVersion  string            `json:"firmware_version"`
	Specifications   map[string]string `json:"specifications"`
	InstallationDate string            `json:"installation_date"`
	LastService      string            `json:"last_service"`
}

// ExtractAndStore mines the solution text for component details and
// persists one inventory record linked to the solution. Solution-level
// fields win over text-derived ones.
func (s *InventoryService) ExtractAndStore(ctx context.Context, solution *entities.Solution) (*entities.Inventory, error) {
	info := s.extractComponentInfo(ctx, solution.Text)

	manufacturer := solution.Manufacturer
	if manufacturer == "" {
		manufacturer = normalizeAbsent(info.Manufacturer)
	}
	componentType := solution.Component
	if componentType == "" {
		componentType = normalizeAbsent(info.ComponentType)
	}

	metadata := map[string]string{}
	if solution.MachineType != "" {
		metadata["machine_type"] = solution.MachineType
	}
	if solution.ErrorCode != "" {
		metadata["error_code"] = solution.ErrorCode
	}
	if date := normalizeAbsent(info.InstallationDate); date != "" {
		metadata["installation_date"] = date
	}
	if date := normalizeAbsent(info.LastService); date != "" {
		metadata["last_service"] = date
	}

	inventory := &entities.Inventory{
		ID:              uuid.New().String(),
		SolutionID:      solution.ID,
		Manufacturer:    manufacturer,
		ModelName:       normalizeAbsent(info.ModelName),
		ComponentType:   componentType,
		FirmwareVersion: normalizeAbsent(info.FirmwareVersion),
		Specifications:  info.Specifications,
		Metadata:        metadata,
		CreatedAt:       time.Now(),
	}

	if err := s.repo.Create(ctx, inventory); err != nil {
		return nil, err
	}

	return inventory, nil
}

// extractComponentInfo asks the model for structured component data.
// Any failure degrades to empty info.
func (s *InventoryService) extractComponentInfo(ctx context.Context, text string) componentInfo {
	reply, err := s.llm.Generate(ctx, fmt.Sprintf(componentInfoPrompt, text))
	if err != nil {
		log.Printf("Error extracting component info: %v", err)
		return componentInfo{}
	}

	var info componentInfo
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &info); err != nil {
		log.Printf("Error parsing component info: %v", err)
		return componentInfo{}
	}
	return info
}

// GetByID retrieves an inventory record by ID.
func (s *InventoryService) GetByID(ctx context.Context, id string) (*entities.Inventory, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySolutionID retrieves the inventory record linked to a solution.
func (s *InventoryService) GetBySolutionID(ctx context.Context, solutionID string) (*entities.Inventory, error) {
	return s.repo.GetBySolutionID(ctx, solutionID)
}

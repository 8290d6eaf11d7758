package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
)

// ConfidenceService rates how trustworthy an assembled solution is.
// The score is stored as a string in "0".."100"; anything the model
// returns that does not parse as an integer becomes "0".
type ConfidenceService struct {
	llm providers.LanguageModel
}

// NewConfidenceService creates a new confidence service
func NewConfidenceService(llm providers.LanguageModel) *ConfidenceService {
	return &ConfidenceService{llm: llm}
}

const confidencePromptTemplate = `
Based on the following solution, rate its confidence level from 0-100.
Consider:
1. Completeness of the solution
2. Clarity of steps
3. Technical accuracy
4. Verification status
5. Supporting documentation

Return only the numeric score (0-100), no other text.

Solution Title: %s
Description: %s
Steps: %s
Manufacturer: %s
Machine Type: %s
Machine Name: %s
Component: %s
Error Code: %s
Resolution Type: %s
Downtime Impact: %s
Verified: %t
`

// Score generates the confidence score for a solution.
func (s *ConfidenceService) Score(ctx context.Context, solution *entities.Solution) (string, error) {
	prompt := fmt.Sprintf(confidencePromptTemplate,
		solution.Title,
		solution.Description,
		strings.Join(solution.SolutionSteps, "; "),
		solution.Manufacturer,
		solution.MachineType,
		solution.MachineName,
		solution.Component,
		solution.ErrorCode,
		solution.ResolutionType,
		solution.DowntimeImpact,
		solution.Verified,
	)

	reply, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	score, err := strconv.Atoi(strings.TrimSpace(stripCodeFences(reply)))
	if err != nil {
		return "0", nil
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return strconv.Itoa(score), nil
}

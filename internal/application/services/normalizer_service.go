package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
	apperrors "github.com/verifix/backend/pkg/errors"
)

const imageAnalysisPrompt = "Analyze this image and describe what you see, " +
	"focusing on any visible technical issues, machine parts, or error displays."

const imageContextPrompt = `From the following image analysis, extract manufacturing context.
Return a single JSON object with exactly these string fields:
"manufacturer", "machine_type", "machine_name", "component", "error_code".
Use "N/A" for any field not clearly identifiable.
Your entire response must be the raw JSON object with no markdown formatting.

Image analysis:
%s`

const prepareQuestionPrompt = `You are a helpful assistant that rewrites technician input into clear, professional, and concise problem descriptions suitable for logging into a maintenance or troubleshooting system.

Correct any spelling or grammar issues, remove informal language or excessive punctuation, and rephrase the input into a neutral tone while preserving all technical context.

Only return the cleaned-up description. Do not explain your reasoning.

Input:
%s

Output:
`

// NormalizedQuestion is the outcome of normalization: the canonical
// searchable text plus the context that produced its prefix.
type NormalizedQuestion struct {
	Canonical string
	Prepared  string
	Context   entities.ManufacturingContext
}

// NormalizerService turns raw technician input (free text, optional
// structured context, optional image) into one canonical question.
type NormalizerService struct {
	llm providers.LanguageModel
}

// NewNormalizerService creates a new normalizer service
func NewNormalizerService(llm providers.LanguageModel) *NormalizerService {
	return &NormalizerService{llm: llm}
}

// Normalize runs the full normalization pipeline. Explicitly supplied
// context fields win over image-derived ones field by field.
func (s *NormalizerService) Normalize(ctx context.Context, question string, mctx entities.ManufacturingContext, image []byte) (*NormalizedQuestion, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.NewValidationError("question must not be empty", nil)
	}

	input := question
	if len(image) > 0 {
		analysis, err := s.llm.GenerateWithImage(ctx, imageAnalysisPrompt, image)
		if err != nil {
			return nil, err
		}
		input = fmt.Sprintf("Question: %s\nImage Analysis: %s", question, analysis)

		imageCtx := s.contextFromAnalysis(ctx, analysis)
		mctx = mctx.Merge(imageCtx)
	}

	prepared, err := s.llm.Generate(ctx, fmt.Sprintf(prepareQuestionPrompt, input))
	if err != nil {
		return nil, err
	}
	prepared = strings.TrimSpace(prepared)

	return &NormalizedQuestion{
		Canonical: contextualize(mctx, prepared),
		Prepared:  prepared,
		Context:   mctx,
	}, nil
}

// contextFromAnalysis extracts best-effort structured context from an
// image description. Extraction failures degrade to empty context.
func (s *NormalizerService) contextFromAnalysis(ctx context.Context, analysis string) entities.ManufacturingContext {
	reply, err := s.llm.Generate(ctx, fmt.Sprintf(imageContextPrompt, analysis))
	if err != nil {
		return entities.ManufacturingContext{}
	}

	var raw struct {
		Manufacturer string `json:"manufacturer"`
		MachineType  string `json:"machine_type"`
		MachineName  string `json:"machine_name"`
		Component    string `json:"component"`
		ErrorCode    string `json:"error_code"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &raw); err != nil {
		return entities.ManufacturingContext{}
	}

	return entities.ManufacturingContext{
		Manufacturer: normalizeAbsent(raw.Manufacturer),
		MachineType:  normalizeAbsent(raw.MachineType),
		MachineName:  normalizeAbsent(raw.MachineName),
		Component:    normalizeAbsent(raw.Component),
		ErrorCode:    normalizeAbsent(raw.ErrorCode),
	}
}

// contextualize prepends the set context fields, space-joined in their
// canonical order, followed by ": ". No context means no prefix.
func contextualize(mctx entities.ManufacturingContext, prepared string) string {
	parts := []string{}
	for _, field := range mctx.Fields() {
		if field != "" {
			parts = append(parts, field)
		}
	}
	if len(parts) == 0 {
		return prepared
	}
	return strings.Join(parts, " ") + ": " + prepared
}

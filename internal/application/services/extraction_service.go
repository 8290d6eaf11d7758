package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/verifix/backend/internal/domain/entities"
	"github.com/verifix/backend/internal/domain/providers"
)

// ExtractedSolution holds the structured fields pulled out of a
// research report. Absent fields are empty strings.
type ExtractedSolution struct {
	Description    string
	SolutionSteps  []string
	Manufacturer   string
	MachineName    string
	ModelNumber    string
	ErrorCode      string
	Component      string
	ResolutionType string
	DowntimeImpact string
	Links          []entities.Link
}

// ExtractionService turns a narrative research report into structured
// solution fields by running one focused LLM query per field.
type ExtractionService struct {
	llm providers.LanguageModel
}

// NewExtractionService creates a new extraction service
func NewExtractionService(llm providers.LanguageModel) *ExtractionService {
	return &ExtractionService{llm: llm}
}

const (
	fieldDescription    = "description"
	fieldSolutionSteps  = "solution_steps"
	fieldManufacturer   = "manufacturer"
	fieldMachineName    = "machine_name"
	fieldModelNumber    = "model_number"
	fieldErrorCode      = "error_code"
	fieldComponent      = "component"
	fieldResolutionType = "resolution_type"
	fieldDowntimeImpact = "downtime_impact"
	fieldLinks          = "links"
)

// extractionResult carries one field's reply, tagged with the field
// name so results cannot be matched up positionally.
type extractionResult struct {
	field string
	text  string
	err   error
}

// Extract runs every field query concurrently and assembles the
// structured result. A failed query fails the whole extraction; only
// parse failures of array fields degrade to documented fallbacks.
func (s *ExtractionService) Extract(ctx context.Context, question, report string) (*ExtractedSolution, error) {
	prompts := fieldPrompts(question, report)

	results := make(chan extractionResult, len(prompts))
	for field, prompt := range prompts {
		go func(field, prompt string) {
			text, err := s.llm.Generate(ctx, prompt)
			results <- extractionResult{field: field, text: text, err: err}
		}(field, prompt)
	}

	replies := make(map[string]string, len(prompts))
	for range prompts {
		result := <-results
		if result.err != nil {
			return nil, fmt.Errorf("extraction of %s failed: %w", result.field, result.err)
		}
		replies[result.field] = result.text
	}

	return &ExtractedSolution{
		Description:    strings.TrimSpace(replies[fieldDescription]),
		SolutionSteps:  parseSolutionSteps(replies[fieldSolutionSteps]),
		Manufacturer:   normalizeAbsent(replies[fieldManufacturer]),
		MachineName:    normalizeAbsent(replies[fieldMachineName]),
		ModelNumber:    normalizeAbsent(replies[fieldModelNumber]),
		ErrorCode:      normalizeAbsent(replies[fieldErrorCode]),
		Component:      normalizeAbsent(replies[fieldComponent]),
		ResolutionType: normalizeAbsent(replies[fieldResolutionType]),
		DowntimeImpact: normalizeAbsent(replies[fieldDowntimeImpact]),
		Links:          parseLinks(replies[fieldLinks]),
	}, nil
}

// parseSolutionSteps decodes the steps array. Parse failures keep the
// solution usable with an explicit marker instead of dropping it.
func parseSolutionSteps(reply string) []string {
	cleaned := stripCodeFences(reply)
	if cleaned == "" {
		return []string{}
	}

	var steps []string
	if err := json.Unmarshal([]byte(cleaned), &steps); err != nil {
		log.Printf("Error parsing solution steps: %s", reply)
		return []string{"Could not parse solution steps"}
	}
	return steps
}

// parseLinks decodes the documentation links array. Parse failures
// degrade to no links.
func parseLinks(reply string) []entities.Link {
	cleaned := stripCodeFences(reply)
	if cleaned == "" {
		return []entities.Link{}
	}

	var links []entities.Link
	if err := json.Unmarshal([]byte(cleaned), &links); err != nil {
		log.Printf("Error parsing links: %s", reply)
		return []entities.Link{}
	}
	return links
}

func fieldPrompts(question, report string) map[string]string {
	return map[string]string{
		fieldDescription: fmt.Sprintf(`You are an expert technical writer.
Based on the provided report and the specific question asked, generate a concise and informative description.
The description MUST directly address the question: '%s'
It MUST clearly summarize the solution relevant to this question, as detailed in the report: '%s'.
The description must be self-contained.

Your entire response MUST consist SOLELY of this description text.
Ensure no preamble, titles, introductory/concluding remarks, or any other text whatsoever accompanies the description.`, question, report),

		fieldSolutionSteps: fmt.Sprintf(`From the report provided below, extract the distinct solution steps that directly address the issue raised in the question: '%s'.
Each step MUST be a complete sentence, clearly articulating an action or instruction.
Format the output as a valid JSON array of strings. Ensure standard JSON spacing and punctuation.

Example of the EXACT expected JSON output format:
["1. First, perform action A to resolve the specific issue.", "2. Next, meticulously verify that result B is achieved for that issue.", "3. Finally, complete action C as documented for the resolution."]

IMPORTANT INSTRUCTIONS FOR OUTPUT:
1. Your entire response MUST be the raw JSON array and nothing else.
2. Ensure no text, explanations, apologies, conversational filler, or any other characters precede or follow the JSON array.
3. The JSON array itself must be clean, without any markdown formatting (such as `+"```json ... ```"+`).
4. If no distinct solution steps relevant to the question are found in the report, your entire response MUST be an empty JSON array: []

Report:
%s`, question, report),

		fieldManufacturer: plainStringPrompt(question, report, "the manufacturer's name for this primary equipment/system", "Siemens"),

		fieldMachineName: plainStringPrompt(question, report, "the name of this machine/equipment", "CNC Mill 2000"),

		fieldModelNumber: plainStringPrompt(question, report, "the model number of this equipment/system", "XJ-2500"),

		fieldErrorCode: fmt.Sprintf(`Analyze the following report to identify the error code(s) specifically related to the issue or component mentioned in the question: '%s'.
If multiple distinct error codes relevant to the question are present, list them in a single string, separated by a single comma and a space (e.g., "E101, E102, F003").
Your entire response MUST be ONLY the relevant error code(s) as a plain string, or the string "N/A".
If no error code relevant to the question is explicitly mentioned or clearly identifiable, provide "N/A".

CRITICAL OUTPUT REQUIREMENTS:
The output string must be solely the error code(s) (or "N/A").
It must not contain any quotation marks, descriptive text, labels, or any other formatting.

Report:
%s`, question, report),

		fieldComponent: plainStringPrompt(question, report, "the primary affected component that is the subject of, or directly related to, the question", "Hydraulic Pump"),

		fieldResolutionType: fmt.Sprintf(`Analyze the resolution described in the following report, specifically for the issue raised in the question: '%s'.
Classify the type of this specific resolution.
Consider common types like "Hardware Fix", "Software Update", "Configuration Change", "Replacement", "Adjustment", "Maintenance", "Consultation", "No Action Required", or a similar concise category if clearly indicated in the report for the relevant issue.
Your entire response MUST be ONLY the resolution type as a plain string, or the string "N/A".
If no specific resolution type for the issue in the question can be determined, or if the resolution is not described, provide "N/A".

CRITICAL OUTPUT REQUIREMENTS:
The output string must be solely the resolution type (or "N/A").
It must not contain any quotation marks, descriptive text, labels, or any other formatting.

Report:
%s`, question, report),

		fieldDowntimeImpact: fmt.Sprintf(`Analyze the following report to determine the downtime impact level associated with the issue or event described in the question: '%s'.
Your entire response MUST be EXACTLY one of the following predefined plain string values: High, Medium, Low, or N/A.
Choose the most appropriate value based on the report's content related to the question. If the impact is not specified or cannot be determined for the issue in question, use "N/A".

CRITICAL OUTPUT REQUIREMENTS:
The output string must be solely the selected value.
It must not contain quotation marks, descriptive text, explanations, or any other formatting.

Report:
%s`, question, report),

		fieldLinks: fmt.Sprintf(`From the report below, identify and extract documentation links that are relevant to answering or providing more information about the question: '%s'.
Relevant links include URLs pointing to technical manuals, knowledge base articles, official support pages, or troubleshooting guides pertinent to the question's subject.
Format the output as a single, minified, valid JSON array of objects. Each object in the array MUST have a "title" property (string) and a "url" property (string).

Example of the EXACT expected JSON output format (assuming relevance to a question):
[{"title":"Operator Manual PX200 - Section on Error Codes","url":"https://example.com/manual/px200#errors"},{"title":"KB Article - Troubleshooting","url":"https://support.example.com/kb/question_subject_fix"}]

IMPORTANT INSTRUCTIONS FOR OUTPUT:
1. Your entire response MUST be the raw, minified JSON array and nothing else.
2. Ensure no text, explanations, apologies, conversational filler, or any other characters precede or follow the JSON array.
3. The JSON array itself must be clean, valid JSON, without any markdown formatting (such as `+"```json ... ```"+`), backticks, or other non-JSON characters.
4. If no links relevant to the question are found in the report, your entire response MUST be an empty JSON array: []

Report:
%s`, question, report),
	}
}

func plainStringPrompt(question, report, target, example string) string {
	return fmt.Sprintf(`Analyze the following report, focusing on the equipment or system pertinent to the question: '%s'.
Identify %s.
Your entire response MUST be ONLY the requested value as a plain string, or the string "N/A".
If it is not explicitly mentioned or clearly identifiable for the relevant equipment, provide "N/A".

Examples of valid, complete, and EXACT output strings:
%s
N/A

CRITICAL OUTPUT REQUIREMENTS:
The output string must be solely the requested value (or "N/A").
It must not contain any quotation marks, descriptive text, labels, or any other formatting.

Report:
%s`, question, target, example, report)
}

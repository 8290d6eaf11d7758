package providers

import (
	"context"
)

// Researcher is the opaque two-phase research agent: conduct research,
// then write a report from the gathered material. Both phases may run
// for minutes and may fail.
type Researcher interface {
	// ConductResearch gathers source material for the task
	ConductResearch(ctx context.Context) error

	// WriteReport synthesizes the narrative report text
	WriteReport(ctx context.Context) (string, error)
}

// ResearcherFactory creates a researcher for one question. Each
// investigation gets its own researcher instance.
type ResearcherFactory interface {
	NewResearcher(ctx context.Context, question string) (Researcher, error)
}

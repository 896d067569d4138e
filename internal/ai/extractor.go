package ai

import (
	"context"

	"github.com/spigell/ats-scorer/internal/resume"
)

// Extraction is the structured resume returned by a model together with the raw reply.
type Extraction struct {
	Details *resume.Details
	Raw     string
}

type Extractor interface {
	Extract(ctx context.Context, resumeText string) (*Extraction, error)
}

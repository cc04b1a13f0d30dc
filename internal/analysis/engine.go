package analysis

import (
	"context"
	"errors"
	"fmt"

	"docflow/internal/model"
)

// ErrFailed is the single error kind surfaced for any analysis failure.
// Engine implementations must map transport- or engine-specific errors to it
// so the pipeline's state machine stays independent of the concrete engine.
var ErrFailed = errors.New("analysis failed")

// Request carries the uploaded payload and its metadata to an engine.
type Request struct {
	Name        string
	ContentType string
	SizeBytes   int64
	Content     []byte
}

// Engine produces a DocumentAnalysis from an uploaded file.
// Implementations may be local heuristics or remote services; the pipeline
// only relies on the contract "succeeds with a valid analysis or fails with
// ErrFailed".
type Engine interface {
	Analyze(ctx context.Context, req Request) (*model.DocumentAnalysis, error)
}

// Validate checks the minimal shape of a usable analysis: a non-empty summary
// and at least one department.
func Validate(a *model.DocumentAnalysis) error {
	if a == nil {
		return fmt.Errorf("%w: engine returned no analysis", ErrFailed)
	}
	if a.Summary == "" {
		return fmt.Errorf("%w: empty summary", ErrFailed)
	}
	if len(a.Departments) == 0 {
		return fmt.Errorf("%w: no departments", ErrFailed)
	}
	return nil
}

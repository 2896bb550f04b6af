package pipeline

// Stage error types. Each wraps the underlying cause and names the pipeline
// stage that failed, so the orchestrator can turn it into a status note
// without string matching.

// AnalysisError is a website analysis failure.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string { return e.Err.Error() }
func (e *AnalysisError) Unwrap() error { return e.Err }
func (e *AnalysisError) Stage() string { return "analysis" }

// GenerationError is a value proposition generation failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }
func (e *GenerationError) Stage() string { return "generation" }

// PersonalizationError is a message personalization failure.
type PersonalizationError struct {
	Err error
}

func (e *PersonalizationError) Error() string { return e.Err.Error() }
func (e *PersonalizationError) Unwrap() error { return e.Err }
func (e *PersonalizationError) Stage() string { return "personalization" }

// stageError is implemented by all stage error types.
type stageError interface {
	error
	Stage() string
}

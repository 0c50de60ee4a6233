package contract

import "errors"

// Sentinel errors shared across the generation and orchestration layers;
// callers match them with errors.Is.
var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
)

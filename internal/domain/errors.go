package domain

import "errors"

// Error taxonomy for the pipeline. Callers classify failures with
// errors.Is against these sentinels; sites that fail wrap them with
// fmt.Errorf("%w: ...") to carry detail.
var (
	// ErrValidation marks a malformed raw submission, rejected at the
	// collection edge before anything is published.
	ErrValidation = errors.New("validation failed")

	// ErrSchemaViolation marks a unified event whose payload does not
	// match its declared modality, or is missing required fields.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrPublishFailure marks an event-stream publish that failed. The
	// event is logged and dropped; collection never retries synchronously.
	ErrPublishFailure = errors.New("publish failure")

	// ErrProfileWriteConflict marks a concurrent profile update race.
	// The aggregator resolves it with a fresh read-modify-write retry.
	ErrProfileWriteConflict = errors.New("profile write conflict")

	// ErrCollaborator marks a failure of an external collaborator
	// service. The session layer answers it with a safe idle reset.
	ErrCollaborator = errors.New("collaborator failure")

	// ErrProfileNotFound reports that a user has no stored profile yet.
	// It is a fallback signal, not a failure: callers take the generic
	// non-personalized path.
	ErrProfileNotFound = errors.New("profile not found")
)

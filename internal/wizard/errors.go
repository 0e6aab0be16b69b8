package wizard

import "errors"

var (
	// ErrStepLocked is returned when navigating past a step that has not been validated.
	ErrStepLocked = errors.New("wizard: step locked")

	// ErrStepNotFound is returned for a step index outside the registry.
	ErrStepNotFound = errors.New("wizard: step not found")

	// ErrSubmissionFailed wraps any failure of the submission collaborator.
	ErrSubmissionFailed = errors.New("wizard: submission failed")

	// ErrSubmitted is returned when mutating a wizard that already reached Submitted.
	ErrSubmitted = errors.New("wizard: already submitted")

	// ErrUnknownType is returned for a wizard type with no registered steps.
	ErrUnknownType = errors.New("wizard: unknown type")

	// ErrInvalidSnapshot is returned when restoring a snapshot that breaks state invariants.
	ErrInvalidSnapshot = errors.New("wizard: invalid snapshot")
)

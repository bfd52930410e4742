package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job id does not exist under the caller's owner scope
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidTransition is returned when an operation is not legal for the job's current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRetryNotAllowed is returned when a job is not failed or has exhausted its retry budget
	ErrRetryNotAllowed = errors.New("job cannot be retried")

	// ErrInvalidStatus is returned when a status string is not recognized
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidCategory is returned when a category string is not recognized
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidPriority is returned when a priority string is not recognized
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrContextTooLarge signals that the input exceeded the model's context
	// window. It is never retried as-is; the caller truncates and resubmits.
	ErrContextTooLarge = errors.New("input exceeds model context window")

	// ErrResponseParse signals a malformed or incomplete model response
	ErrResponseParse = errors.New("failed to parse model response")

	// ErrVaultNotConfigured is returned when a vault operation runs without a vault path
	ErrVaultNotConfigured = errors.New("vault path is not configured")

	// ErrVaultNotFound is returned when the configured vault path does not exist
	ErrVaultNotFound = errors.New("vault path does not exist")
)

// TransientError wraps provider-side failures that are worth retrying,
// such as rate limits and timeouts.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient provider error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as retryable
func NewTransientError(err error) error {
	return &TransientError{Err: err}
}

// IsTransient reports whether err is a retryable provider error
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

package domain

// Status represents the lifecycle state of a processing job
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusSyncing    Status = "syncing"
	StatusSynced     Status = "synced"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// MaxRetries is the number of times a failed job may be re-queued
const MaxRetries = 3

// validTransitions defines the allowed state machine edges.
// synced and cancelled are terminal; failed is terminal except for retry,
// which is modelled as failed -> queued.
var validTransitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusProcessed, StatusFailed, StatusCancelled},
	StatusProcessed:  {StatusSyncing},
	StatusSyncing:    {StatusSynced, StatusFailed},
	StatusFailed:     {StatusQueued},
}

// ParseStatus validates a status string received from the outside
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusQueued, StatusProcessing, StatusProcessed,
		StatusSyncing, StatusSynced, StatusFailed, StatusCancelled:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// CanTransition reports whether moving from s to next is a legal edge
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
// failed counts as non-terminal because retry can re-queue it.
func (s Status) IsTerminal() bool {
	return s == StatusSynced || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

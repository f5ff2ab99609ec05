package claim

import (
	"errors"
	"fmt"

	"github.com/erazemk/factorclaim/internal/model"
)

var (
	// ErrNotFound matches every "record absent" error of this package.
	ErrNotFound = errors.New("not found")

	ErrClaimNotFound    = fmt.Errorf("claim %w", ErrNotFound)
	ErrItemNotFound     = fmt.Errorf("item %w", ErrNotFound)
	ErrRepNotFound      = fmt.Errorf("rep %w", ErrNotFound)
	ErrMerchantNotFound = fmt.Errorf("merchant %w", ErrNotFound)
	ErrPhotoNotFound    = fmt.Errorf("photo %w", ErrNotFound)

	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("invalid claim transition")

	// ErrConflict means no unique claim id could be allocated within the
	// configured number of attempts.
	ErrConflict = errors.New("could not allocate a unique claim id")
)

// Validation failure reasons.
const (
	ReasonItemsTooOld      = "items_too_old"
	ReasonInvalidInput     = "invalid_input"
	ReasonNoProductionDate = "no_production_date"
)

// ValidationError rejects a request before anything is written. Warnings
// lists every offending line so the caller can resubmit once with
// force_add set where intended.
type ValidationError struct {
	Reason   string
	Message  string
	Warnings []model.Warning
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidInput(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: ReasonInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// TransitionError reports an action attempted from the wrong status.
type TransitionError struct {
	ClaimID string
	Action  string
	Status  model.ClaimStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s claim %s in status %s", e.Action, e.ClaimID, e.Status)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

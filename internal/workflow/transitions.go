package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/citedocs-api/internal/models"
)

// ErrInvalidTransition is matched by every error ValidateTransition returns.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError names the rejected pair of states.
type InvalidTransitionError struct {
	From models.RequestStatus
	To   models.RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

var transitions = map[models.RequestStatus][]models.RequestStatus{
	models.RequestStatusPending:    {models.RequestStatusProcessing, models.RequestStatusRejected},
	models.RequestStatusProcessing: {models.RequestStatusApproved, models.RequestStatusRejected},
	models.RequestStatusApproved:   {models.RequestStatusCompleted},
	models.RequestStatusCompleted:  {},
	models.RequestStatusRejected:   {},
}

// CanTransition reports whether next may follow current. Retrying the current status is always allowed.
func CanTransition(current, next models.RequestStatus) bool {
	if !current.Valid() || !next.Valid() {
		return false
	}
	if current == next {
		return true
	}
	for _, allowed := range transitions[current] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns an *InvalidTransitionError when next may not follow current.
func ValidateTransition(current, next models.RequestStatus) error {
	if CanTransition(current, next) {
		return nil
	}
	return &InvalidTransitionError{From: current, To: next}
}

// AllowedNext lists the statuses a registrar may pick from current, excluding current itself.
func AllowedNext(current models.RequestStatus) []models.RequestStatus {
	next := transitions[current]
	out := make([]models.RequestStatus, len(next))
	copy(out, next)
	return out
}

// IsTerminal reports whether no status other than current can follow it.
func IsTerminal(status models.RequestStatus) bool {
	return status.Valid() && len(transitions[status]) == 0
}

// ResolveDateReady returns the dateReady to persist for a change to next.
//
// Changes to APPROVED always carry a date: the supplied one, or the calendar day of at.
// Any other target ignores supplied and returns nil, meaning "leave the stored value".
func ResolveDateReady(next models.RequestStatus, supplied *models.Date, at time.Time) *models.Date {
	if next != models.RequestStatusApproved {
		return nil
	}
	if supplied != nil && !supplied.IsZero() {
		d := *supplied
		return &d
	}
	d := models.NewDate(at)
	return &d
}

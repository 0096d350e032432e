package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/STop211650/HyphynessTracker/models"
)

var (
	ErrNotFound        = errors.New("bet not found")
	ErrForbidden       = errors.New("you do not have permission to settle this bet")
	ErrInvalidStatus   = errors.New("invalid status, must be one of: won, lost, push, void")
	ErrInvalidRecord   = errors.New("invalid bet record")
	ErrExtraction      = errors.New("bet extraction failed")
	ErrDuplicateTicket = errors.New("a bet with this ticket number already exists")
	ErrTicketMismatch  = errors.New("ticket number mismatch, this screenshot does not match the selected bet")
	ErrAlreadySettled  = errors.New("bet is already settled")
)

// AlreadySettledError carries the status the record already holds so callers
// can reconcile by hand.
type AlreadySettledError struct {
	BetID  string
	Status models.BetStatus
}

func (e *AlreadySettledError) Error() string {
	return fmt.Sprintf("bet %s is already settled with status: %s", e.BetID, e.Status)
}

func (e *AlreadySettledError) Unwrap() error { return ErrAlreadySettled }

// ValidationError collects every problem found in user input rather than
// stopping at the first one.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

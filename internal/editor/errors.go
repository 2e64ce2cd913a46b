package editor

import (
	"errors"
	"fmt"

	"github.com/raysh454/trimetric/internal/model"
)

// GenericSaveFailure is shown when a failed save carries no server message.
const GenericSaveFailure = "failed to save score, please try again"

var (
	ErrSessionOpen   = errors.New("another factor is already being edited")
	ErrNoSession     = errors.New("no factor is being edited")
	ErrSaveInFlight  = errors.New("a save is already in progress")
	ErrUnknownFactor = errors.New("factor is not part of the scoring schema")
)

// ValidationError rejects edit-buffer input before any request is made.
type ValidationError struct {
	Ref   model.FactorRef
	Input string
	Max   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("please enter a number between 0 and %g", e.Max)
}

// PersistenceError reports a failed save. Message is what the user sees.
type PersistenceError struct {
	Ref     model.FactorRef
	Message string
	Err     error
}

func (e *PersistenceError) Error() string { return e.Message }

func (e *PersistenceError) Unwrap() error { return e.Err }

func newPersistenceError(ref model.FactorRef, err error) *PersistenceError {
	msg := GenericSaveFailure
	var re *model.RemoteError
	if errors.As(err, &re) && re.Message != "" {
		msg = re.Message
	}
	return &PersistenceError{Ref: ref, Message: msg, Err: err}
}

// MissingDataError means the firm has no evaluation document to show.
type MissingDataError struct {
	FirmID string
	Err    error
}

func (e *MissingDataError) Error() string {
	return "no evaluation data found"
}

func (e *MissingDataError) Unwrap() error { return e.Err }

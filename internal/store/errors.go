package store

import (
	"errors"
	"fmt"

	"github.com/raysh454/trimetric/internal/model"
)

var (
	ErrFirmNotFound    = errors.New("firm not found")
	ErrScoresNotFound  = errors.New("no evaluation data found")
	ErrUnknownFactor   = errors.New("unknown factor")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrConflict        = errors.New("concurrent update conflict")
	ErrInvalidFirm     = errors.New("invalid firm")
	ErrDuplicateFirm   = errors.New("firm already exists")
)

// RangeError carries the bounds a rejected value was checked against.
type RangeError struct {
	Ref   model.FactorRef
	Value float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: value %g must be a number between 0 and %g", e.Ref, e.Value, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrValueOutOfRange }

package app

import (
	"errors"
	"net/http"

	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/store"
)

// HTTPStatus maps service errors to the status the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, store.ErrFirmNotFound), errors.Is(err, store.ErrScoresNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnknownFactor),
		errors.Is(err, store.ErrValueOutOfRange),
		errors.Is(err, store.ErrInvalidFirm):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrDuplicateFirm):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage is the client-facing text for err. Internal failures are not
// described beyond their status.
func ErrorMessage(err error) string {
	if HTTPStatus(err) >= http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// AsRemoteError renders err the way an HTTP client would see it.
func AsRemoteError(err error) *model.RemoteError {
	if err == nil {
		return nil
	}
	var re *model.RemoteError
	if errors.As(err, &re) {
		return re
	}
	return &model.RemoteError{Status: HTTPStatus(err), Message: ErrorMessage(err)}
}

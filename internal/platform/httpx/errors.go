// Package httpx provides HTTP response utilities shared by every module.
package httpx

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("service unavailable")
)

// messenger is implemented by errors that carry user-facing messages, such as a
// rejected sale listing every short item.
type messenger interface {
	Messages() []string
}

// RespondError maps domain errors to RFC7807 responses. Unmapped errors are logged
// and reported as a generic 500 so infrastructure details never reach the client.
func RespondError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: verr.Error(),
			Fields: verr.Fields,
		})
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrConflict):
		pd := ProblemDetail{Title: "Conflict", Status: http.StatusConflict, Detail: err.Error()}
		var m messenger
		if errors.As(err, &m) {
			pd.Messages = m.Messages()
		}
		JSON(w, http.StatusConflict, pd)
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, ErrUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		if log != nil {
			log.WithError(err).Error("unhandled request error")
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", "something went wrong, please try again")
	}
}

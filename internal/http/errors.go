package http

import (
	"errors"
	"net/http"

	"dompet/internal/core"
	"dompet/internal/log"
)

// errorResponse maps a service error onto its HTTP status and message.
// Anything outside the core taxonomy is an opaque 500.
func errorResponse(err error) *JSONResponseBuilder {
	var (
		validation  *core.ValidationError
		notFound    *core.NotFoundError
		resolution  *core.ResolutionError
		unavailable *core.StoreUnavailableError
	)
	switch {
	case errors.As(err, &validation):
		return BadRequestError(validation.Message)
	case errors.As(err, &notFound):
		return NotFoundError(notFound.Error())
	case errors.As(err, &resolution):
		return InternalServerError(resolution.Error())
	case errors.As(err, &unavailable):
		msg := "Store unavailable"
		if unavailable.Hint != "" {
			msg += ": " + unavailable.Hint
		}
		return ServiceUnavailableError(msg)
	default:
		return InternalServerError("Internal server error")
	}
}

// writeError logs err (5xx at error level, 4xx at warn) and writes its
// response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := errorResponse(err)
	logger := log.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		errorType := log.ErrorTypeInternal
		if resp.statusCode == http.StatusServiceUnavailable {
			errorType = log.ErrorTypeDatabase
		}
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, errorType, op, nil)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", log.FieldOperation, op, log.FieldError, err.Error())
	}
	resp.Write(w)
}

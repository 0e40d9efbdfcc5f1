package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// GenericErrorMessage is returned for server faults and prefixes the
// summary of validation errors.
const GenericErrorMessage = "Unable to complete your request."

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Invalid bool                          `json:"invalid"`
	Errors  simpleupload.ValidationErrors `json:"errors,omitempty"`
	Error   string                        `json:"error,omitempty"`
}

// Outcome labels used by metrics
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeDenied   = "denied"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// classify maps an error to its HTTP status, response body and outcome.
// summarize adds the "Errors with ..." line to validation failures.
func classify(err error, summarize bool) (int, ErrorResponse, string) {
	if verrs, ok := simpleupload.AsValidationErrors(err); ok {
		resp := ErrorResponse{Invalid: true, Errors: verrs}
		if summarize {
			resp.Error = GenericErrorMessage + " Errors with " + strings.Join(verrs.Fields(), ", ")
		}
		return http.StatusBadRequest, resp, OutcomeInvalid
	}
	if simpleupload.IsPermissionError(err) {
		return http.StatusForbidden, ErrorResponse{Invalid: true, Error: err.Error()}, OutcomeDenied
	}
	if errors.Is(err, simpleupload.ErrObjectNotFound) {
		return http.StatusBadRequest, ErrorResponse{Invalid: true, Error: simpleupload.NotFoundMessage}, OutcomeNotFound
	}
	return http.StatusInternalServerError, ErrorResponse{Error: GenericErrorMessage}, OutcomeError
}

// errorStyle selects how writeError presents client errors.
type errorStyle int

const (
	// styleAPI reports real status codes without a summary line.
	styleAPI errorStyle = iota
	// styleSign summarizes validation failures but keeps real status codes.
	styleSign
	// styleWidget summarizes validation failures and, with iframe
	// compatibility on, sends client errors with status 200 so iframe-based
	// uploaders can read the body.
	styleWidget
)

// writeError renders err in the given style.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, operation string, err error, style errorStyle) {
	status, resp, outcome := classify(err, style != styleAPI)
	h.metrics.Observe(operation, outcome)

	if status == http.StatusInternalServerError {
		h.logger.Error("Upload request failed", "operation", operation, "err", err)
	} else {
		h.logger.Debug("Upload request rejected", "operation", operation, "status", status, "err", err)
		if style == styleWidget && h.iframeCompat {
			status = http.StatusOK
		}
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

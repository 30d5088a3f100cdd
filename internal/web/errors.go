package web

// errors.go turns service errors into responses. The technical error is
// logged with the request id; the client gets core.MapError's message in
// JSON, or an alert fragment for HTMX requests.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/loadimport/internal/core"
	"github.com/JonMunkholm/loadimport/internal/logging"
	"github.com/JonMunkholm/loadimport/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Missing []string `json:"missing,omitempty"`
}

// respondError logs err and writes the user-facing message with the status
// statusFor picks.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)
	if errors.Is(err, errBadRequest) {
		userMsg = core.UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the uploaded file, template and mapping values",
			Code:    "REQ001",
		}
	}

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if errors.Is(err, core.ErrTooManyCommits) {
		w.Header().Set("Retry-After", "30")
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if rerr := templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w); rerr != nil {
			logger.Error("render error alert", "error", rerr)
		}
		return
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		resp.Missing = ve.Missing
	}
	writeJSONStatus(w, status, resp)
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var (
		fe *core.FormatError
		ve *core.ValidationError
		se *core.SystemError
		mb *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &mb):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &fe), errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrUnknownField),
		errors.Is(err, core.ErrUnknownColumn),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrMissingOwner),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyCommits), errors.As(err, &se):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/moroccoview/companion/internal/domain"
)

// Error codes carried in ErrorResponse.Error.Code.
const (
	codeNotFound        = "not_found"
	codeValidation      = "validation_error"
	codeConflict        = "conflict"
	codeTooLarge        = "payload_too_large"
	codeInternal        = "internal"
	internalMessageText = "internal server error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure class and carries a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// respondErr maps a service error onto the HTTP error contract.
// notFoundMsg is used for domain.ErrNotFound because the handler is the layer
// that knows what was being looked up. Unexpected errors are logged once here
// and hidden from the client.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, codeValidation, unwrapMessage(err))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, codeConflict, unwrapMessage(err))
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, internalMessageText)
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
//
//	"service.TourService.Create: validation error: name is required" → "name is required"
//	"repo.VenueRepo.Delete: venue \"m1\" is bookmarked: conflict"     → "venue \"m1\" is bookmarked"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrValidation, domain.ErrConflict} {
		marker := sentinel.Error() + ": "
		if i := strings.LastIndex(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	// Drop "layer.Type.Op: " prefixes; they never contain spaces or quotes.
	for {
		head, tail, ok := strings.Cut(msg, ": ")
		if !ok || strings.ContainsAny(head, " \"") {
			return msg
		}
		msg = tail
	}
}

// decodeJSON reads the request body into dst and runs struct validation.
// A body over the size limit yields a 413; everything else is a 422.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, unwrapMessage(err))
		return false
	}
	return true
}

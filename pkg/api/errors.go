package api

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/kintree/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodePersonNotFound:
		return http.StatusNotFound
	case errors.ErrCodeLocked:
		return http.StatusLocked
	case errors.ErrCodeSpouseConflict, errors.ErrCodeParentConflict, errors.ErrCodeDuplicateRelationship:
		return http.StatusConflict
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRelationship,
		errors.ErrCodeMissingName, errors.ErrCodeInvalidURL:
		return http.StatusBadRequest
	case errors.ErrCodeCancelled:
		return http.StatusConflict
	case errors.ErrCodePersistence:
		return http.StatusBadGateway
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MikeSquared-Agency/Crosscheck/internal/ahp"
	"github.com/MikeSquared-Agency/Crosscheck/internal/validation"
)

// Transport-level kinds; domain kinds come from package ahp.
const (
	kindRateLimited  ahp.ErrorKind = "RateLimited"
	kindUnauthorized ahp.ErrorKind = "Unauthorized"
	kindNotFound     ahp.ErrorKind = "NotFound"
	kindInternal     ahp.ErrorKind = "Internal"
)

type errorResponse struct {
	ErrorKind ahp.ErrorKind `json:"error_kind"`
	Message   string        `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind ahp.ErrorKind, message string) {
	writeJSON(w, status, errorResponse{ErrorKind: kind, Message: message})
}

// writeServiceError maps a validation-service error onto the wire.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, validation.ErrNoMatrices) {
		writeError(w, http.StatusBadRequest, ahp.KindBadRequest, err.Error())
		return
	}
	if ahp.IsKind(err, ahp.KindServiceUnavailable) {
		w.Header().Set("Retry-After", "30")
	}
	var e *ahp.Error
	if !errors.As(err, &e) {
		writeError(w, http.StatusInternalServerError, kindInternal, err.Error())
		return
	}
	writeError(w, statusForKind(e.Kind), e.Kind, e.Message)
}

func statusForKind(kind ahp.ErrorKind) int {
	switch kind {
	case ahp.KindShape, ahp.KindRange, ahp.KindReciprocity,
		ahp.KindDimensionMismatch, ahp.KindUnsupportedSize, ahp.KindConvergence:
		return http.StatusUnprocessableEntity
	case ahp.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case ahp.KindBadRequest:
		return http.StatusBadRequest
	case kindRateLimited:
		return http.StatusTooManyRequests
	case kindUnauthorized:
		return http.StatusUnauthorized
	case kindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"puttPracticeAPI/internal/apperr"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps the service error taxonomy onto HTTP status
// codes. Validation failures carry the full reason list so the client can
// show every problem at once.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "validation failed",
			"reasons": verr.Reasons,
		})
	case errors.Is(err, apperr.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrPermission):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrState):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

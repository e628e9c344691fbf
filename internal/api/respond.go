package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/surveypipe/surveypipe/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps domain error kinds onto HTTP statuses. Anything that is
// not a domain error is an internal failure and gets logged.
func writeError(w http.ResponseWriter, err error) {
	if derr, ok := domain.AsError(err); ok {
		writeJSON(w, statusForKind(derr.Kind), errorBody{Error: derr.Message, Kind: string(derr.Kind)})
		return
	}
	log.Printf("api: internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindDuplicate, domain.KindStateConflict:
		return http.StatusConflict
	case domain.KindUnavailable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewValidationError("", "invalid request body: "+err.Error())
	}
	return nil
}

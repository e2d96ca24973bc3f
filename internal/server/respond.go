package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/koradi/koradi-admin/internal/store"
)

// validationError is the 400 payload shape the admin UI expects.
type validationError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeValidation(w http.ResponseWriter, details string) {
	writeJSON(w, http.StatusBadRequest, validationError{Error: "Validation failed", Details: details})
}

// validationDetails flattens a validator error into one details string.
func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("field %s failed on the %s rule", fe.Field(), fe.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

// storeError maps the store sentinels onto HTTP statuses. Anything
// unexpected becomes a 500 with the detail kept out of the response body.
func storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrEngagementNotFound),
		errors.Is(err, store.ErrTranslationNotFound),
		errors.Is(err, store.ErrRosterEntryNotFound),
		errors.Is(err, store.ErrUnknownRoster):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, store.ErrEngagementExists),
		errors.Is(err, store.ErrTranslationExists):
		w.WriteHeader(http.StatusConflict)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Store operation failed")
		w.WriteHeader(http.StatusInternalServerError)
	}
}

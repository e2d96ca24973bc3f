package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
	"github.com/koradi/koradi-admin/internal/telemetry"
)

func (s *Server) createTranslation(w http.ResponseWriter, r *http.Request) {
	var tr models.Translation
	if err := json.NewDecoder(r.Body).Decode(&tr); err != nil {
		writeValidation(w, "invalid request body")
		return
	}
	if err := tr.Validate(); err != nil {
		writeValidation(w, validationDetails(err))
		return
	}
	tr.Sanitize()
	tr.ID = 0 // the store assigns the next sequence value

	if err := s.stores.Translations.Create(r.Context(), &tr); err != nil {
		storeError(w, r, err)
		return
	}

	countMutation(r.Context(), telemetry.GetMetrics().TranslationMutationsTotal, "create")
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) listTranslations(w http.ResponseWriter, r *http.Request) {
	filter, err := translationFilterFromQuery(r.URL.Query())
	if err != nil {
		writeValidation(w, err.Error())
		return
	}

	list, err := s.stores.Translations.List(r.Context(), filter)
	if err != nil {
		storeError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Translation{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) updateTranslation(w http.ResponseWriter, r *http.Request) {
	var tr models.Translation
	if err := json.NewDecoder(r.Body).Decode(&tr); err != nil {
		writeValidation(w, "invalid request body")
		return
	}
	if tr.ID == 0 {
		writeValidation(w, "id is required")
		return
	}
	if err := tr.Validate(); err != nil {
		writeValidation(w, validationDetails(err))
		return
	}
	tr.Sanitize()

	if err := s.stores.Translations.Update(r.Context(), &tr); err != nil {
		storeError(w, r, err)
		return
	}

	countMutation(r.Context(), telemetry.GetMetrics().TranslationMutationsTotal, "update")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) deleteTranslation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeValidation(w, "invalid translation id")
		return
	}

	if err := s.stores.Translations.Delete(r.Context(), id); err != nil {
		storeError(w, r, err)
		return
	}

	countMutation(r.Context(), telemetry.GetMetrics().TranslationMutationsTotal, "delete")
	w.WriteHeader(http.StatusOK)
}

// translationFilterFromQuery builds the list filter from query parameters.
// The translator parameter repeats; a translation matches when any of its
// translators is named.
func translationFilterFromQuery(q url.Values) (*store.TranslationFilter, error) {
	f := &store.TranslationFilter{}

	if v := q.Get("id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("id must be a positive integer")
		}
		f.ID = &id
	}
	if v := q.Get("name"); v != "" {
		f.Name = &v
	}
	if v := q.Get("stage"); v != "" {
		stage := models.Stage(v)
		if !stage.Valid() {
			return nil, fmt.Errorf("unknown stage %q", v)
		}
		f.Stage = &stage
	}
	for _, v := range q["translator"] {
		if v != "" {
			f.Translators = append(f.Translators, v)
		}
	}

	return f, nil
}

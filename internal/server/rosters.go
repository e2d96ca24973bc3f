package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/telemetry"
)

// rosterName decodes and sanitizes the name path segment the same way the
// stores expect it, so "<b>maria</b>" and "maria" are the same entry. The
// router hands the segment back percent-encoded when the request URL carried
// escapes.
func rosterName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return strings.TrimSpace(models.CleanString(name))
}

func (s *Server) listRoster(kind models.RosterKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := s.stores.Rosters.List(r.Context(), kind)
		if err != nil {
			storeError(w, r, err)
			return
		}
		if names == nil {
			names = []string{}
		}
		writeJSON(w, http.StatusOK, names)
	}
}

func (s *Server) addRosterEntry(kind models.RosterKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := rosterName(r)
		if name == "" {
			writeValidation(w, "name is required")
			return
		}

		if err := s.stores.Rosters.Add(r.Context(), kind, name); err != nil {
			storeError(w, r, err)
			return
		}

		countMutation(r.Context(), telemetry.GetMetrics().RosterMutationsTotal, "add",
			attribute.String("roster", string(kind)))
		w.WriteHeader(http.StatusCreated)
	}
}

func (s *Server) removeRosterEntry(kind models.RosterKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := rosterName(r)
		if name == "" {
			writeValidation(w, "name is required")
			return
		}

		if err := s.stores.Rosters.Remove(r.Context(), kind, name); err != nil {
			storeError(w, r, err)
			return
		}

		countMutation(r.Context(), telemetry.GetMetrics().RosterMutationsTotal, "remove",
			attribute.String("roster", string(kind)))
		w.WriteHeader(http.StatusOK)
	}
}

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
	"github.com/koradi/koradi-admin/internal/telemetry"
)

func (s *Server) createEngagement(w http.ResponseWriter, r *http.Request) {
	var eng models.Engagement
	if err := json.NewDecoder(r.Body).Decode(&eng); err != nil {
		writeValidation(w, "invalid request body")
		return
	}
	if err := eng.Validate(); err != nil {
		writeValidation(w, validationDetails(err))
		return
	}
	eng.Sanitize()
	eng.StampUpdate(time.Now())
	eng.ID = uuid.Nil // the store assigns

	if err := s.stores.Engagements.Create(r.Context(), &eng); err != nil {
		storeError(w, r, err)
		return
	}

	countMutation(r.Context(), telemetry.GetMetrics().EngagementMutationsTotal, "create")
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) listEngagements(w http.ResponseWriter, r *http.Request) {
	filter, err := engagementFilterFromQuery(r.URL.Query())
	if err != nil {
		writeValidation(w, err.Error())
		return
	}

	list, err := s.stores.Engagements.List(r.Context(), filter)
	if err != nil {
		storeError(w, r, err)
		return
	}
	if list == nil {
		list = []*models.Engagement{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) updateEngagement(w http.ResponseWriter, r *http.Request) {
	var eng models.Engagement
	if err := json.NewDecoder(r.Body).Decode(&eng); err != nil {
		writeValidation(w, "invalid request body")
		return
	}
	if eng.ID == uuid.Nil {
		writeValidation(w, "id is required")
		return
	}
	if err := eng.Validate(); err != nil {
		writeValidation(w, validationDetails(err))
		return
	}
	eng.Sanitize()
	eng.StampUpdate(time.Now())

	if err := s.stores.Engagements.Update(r.Context(), &eng); err != nil {
		storeError(w, r, err)
		return
	}

	countMutation(r.Context(), telemetry.GetMetrics().EngagementMutationsTotal, "update")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) deleteEngagement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeValidation(w, "invalid engagement id")
		return
	}

	if err := s.stores.Engagements.Delete(r.Context(), id); err != nil {
		storeError(w, r, err)
		return
	}

	countMutation(r.Context(), telemetry.GetMetrics().EngagementMutationsTotal, "delete")
	w.WriteHeader(http.StatusOK)
}

// engagementFilterFromQuery builds the list filter from query parameters.
// Absent parameters match everything; enum parameters are checked so a typo
// fails loudly instead of returning an empty list.
func engagementFilterFromQuery(q url.Values) (*store.EngagementFilter, error) {
	f := &store.EngagementFilter{}

	if v := q.Get("language"); v != "" {
		lang := models.Language(v)
		if !lang.Valid() {
			return nil, fmt.Errorf("unknown language %q", v)
		}
		f.Language = &lang
	}
	if v := q.Get("number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("number must be a positive integer")
		}
		f.Number = &n
	}
	if v := q.Get("activity_type"); v != "" {
		f.ActivityType = &v
	}
	if v := q.Get("instructor"); v != "" {
		f.Instructor = &v
	}
	if v := q.Get("host"); v != "" {
		f.Host = &v
	}
	if v := q.Get("date"); v != "" {
		f.Date = &v
	}
	if v := q.Get("status"); v != "" {
		st := models.EngagementStatus(v)
		if !st.Valid() {
			return nil, fmt.Errorf("unknown status %q", v)
		}
		f.Status = &st
	}
	if v := q.Get("host_status"); v != "" {
		hs := models.HostStatus(v)
		if !hs.Valid() {
			return nil, fmt.Errorf("unknown host status %q", v)
		}
		f.HostStatus = &hs
	}
	if v := q.Get("flyer_status"); v != "" {
		fs := models.FlyerStatus(v)
		if !fs.Valid() {
			return nil, fmt.Errorf("unknown flyer status %q", v)
		}
		f.FlyerStatus = &fs
	}

	return f, nil
}

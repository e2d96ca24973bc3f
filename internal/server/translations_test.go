package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koradi/koradi-admin/internal/models"
)

func translationPayload(overrides map[string]any) map[string]any {
	p := map[string]any{
		"name":           "Conference 1987-04",
		"stage":          "recording",
		"translators":    []string{"bob"},
		"due_date":       "2026-10-01",
		"file_url":       "https://recordings.example.com/conference-1987-04.mp3",
		"last_update_by": "bob",
	}
	for k, v := range overrides {
		p[k] = v
	}
	return p
}

func listTranslations(t *testing.T, h http.Handler, query string) []*models.Translation {
	t.Helper()
	rec := doJSON(t, h, http.MethodGet, "/translations"+query, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody[[]*models.Translation](t, rec)
}

func TestCreateTranslation(t *testing.T) {
	t.Run("ids come from the sequence", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		rec := doJSON(t, h, http.MethodPost, "/translations", translationPayload(nil))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Zero(t, rec.Body.Len())

		rec = doJSON(t, h, http.MethodPost, "/translations", translationPayload(map[string]any{"name": "Retreat 1988"}))
		require.Equal(t, http.StatusCreated, rec.Code)

		got := listTranslations(t, h, "")
		require.Len(t, got, 2)
		require.Equal(t, int64(1), got[0].ID)
		require.Equal(t, int64(2), got[1].ID)
	})

	t.Run("client supplied id is ignored", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		rec := doJSON(t, h, http.MethodPost, "/translations", translationPayload(map[string]any{"id": 99}))
		require.Equal(t, http.StatusCreated, rec.Code)

		got := listTranslations(t, h, "")
		require.Len(t, got, 1)
		require.Equal(t, int64(1), got[0].ID)
	})

	t.Run("unknown stage fails validation", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		rec := doJSON(t, h, http.MethodPost, "/translations", translationPayload(map[string]any{"stage": "daydreaming"}))
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[validationError](t, rec)
		require.Equal(t, "Validation failed", body.Error)
	})

	t.Run("blank translator fails validation", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		rec := doJSON(t, h, http.MethodPost, "/translations", translationPayload(map[string]any{"translators": []string{"bob", ""}}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad due date fails validation", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		rec := doJSON(t, h, http.MethodPost, "/translations", translationPayload(map[string]any{"due_date": "soon"}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListTranslationFilters(t *testing.T) {
	h := newTestHandler(t, Config{})

	seed := []map[string]any{
		translationPayload(map[string]any{"name": "Conference 1987-04", "due_date": "2026-03-01"}),
		translationPayload(map[string]any{"name": "Conference 1990-01", "due_date": "2026-01-01", "stage": "adaptation", "translators": []string{"carla"}}),
		translationPayload(map[string]any{"name": "Retreat 1988", "due_date": "2026-02-01", "translators": []string{"bob", "dana"}}),
	}
	for _, p := range seed {
		require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/translations", p).Code)
	}

	t.Run("sorted by due date", func(t *testing.T) {
		got := listTranslations(t, h, "")
		require.Len(t, got, 3)
		require.Equal(t, "Conference 1990-01", got[0].Name)
		require.Equal(t, "Retreat 1988", got[1].Name)
		require.Equal(t, "Conference 1987-04", got[2].Name)
	})

	t.Run("name substring", func(t *testing.T) {
		require.Len(t, listTranslations(t, h, "?name=Conference"), 2)
	})

	t.Run("stage", func(t *testing.T) {
		got := listTranslations(t, h, "?stage=adaptation")
		require.Len(t, got, 1)
		require.Equal(t, "Conference 1990-01", got[0].Name)
	})

	t.Run("stage wildcard", func(t *testing.T) {
		require.Len(t, listTranslations(t, h, "?stage=any"), 3)
	})

	t.Run("translator overlap", func(t *testing.T) {
		got := listTranslations(t, h, "?translator=carla&translator=zed")
		require.Len(t, got, 1)
		require.Equal(t, "Conference 1990-01", got[0].Name)
	})

	t.Run("id", func(t *testing.T) {
		got := listTranslations(t, h, "?id=2")
		require.Len(t, got, 1)
		require.Equal(t, "Conference 1990-01", got[0].Name)
	})

	t.Run("unknown stage value", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/translations?stage=bogus", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad id value", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/translations?id=first", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateTranslation(t *testing.T) {
	t.Run("replaces without stamping", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/translations", translationPayload(nil)).Code)

		rec := doJSON(t, h, http.MethodPatch, "/translations", translationPayload(map[string]any{
			"id":             1,
			"stage":          "final_editing",
			"last_update_by": "dana",
		}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Zero(t, rec.Body.Len())

		got := listTranslations(t, h, "")
		require.Len(t, got, 1)
		require.Equal(t, models.StageFinalEditing, got[0].Stage)
		// The attribution is stored as sent, no date appended.
		require.Equal(t, "dana", got[0].LastUpdatedBy)
	})

	t.Run("file url keeps its query string", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		url := "https://cdn.example.com/a.mp3?token=abc&expires=123"
		require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/translations", translationPayload(map[string]any{"file_url": url})).Code)

		got := listTranslations(t, h, "")
		require.Len(t, got, 1)
		require.Equal(t, url, got[0].FileURL)
	})

	t.Run("id is required", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		rec := doJSON(t, h, http.MethodPatch, "/translations", translationPayload(nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[validationError](t, rec)
		require.Equal(t, "id is required", body.Details)
	})

	t.Run("unknown id", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		rec := doJSON(t, h, http.MethodPatch, "/translations", translationPayload(map[string]any{"id": 42}))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteTranslation(t *testing.T) {
	t.Run("removes the translation", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/translations", translationPayload(nil)).Code)

		rec := doJSON(t, h, http.MethodDelete, "/translations/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/translations", nil)
		require.JSONEq(t, "[]", rec.Body.String())

		rec = doJSON(t, h, http.MethodDelete, "/translations/1", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		h := newTestHandler(t, Config{})

		rec := doJSON(t, h, http.MethodDelete, "/translations/abc", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

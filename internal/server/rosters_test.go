package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func listRosterNames(t *testing.T, h http.Handler, path string) []string {
	t.Helper()
	rec := doJSON(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decodeBody[[]string](t, rec)
}

func TestRosterLifecycle(t *testing.T) {
	h := newTestHandler(t, Config{})

	rec := doJSON(t, h, http.MethodGet, "/instructors", nil)
	require.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, "/instructors/maria", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"maria"}, listRosterNames(t, h, "/instructors"))

	// Adding the same name again is not an error.
	rec = doJSON(t, h, http.MethodPost, "/instructors/maria", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"maria"}, listRosterNames(t, h, "/instructors"))

	rec = doJSON(t, h, http.MethodPost, "/instructors/%3Cb%3Eluis%3C%2Fb%3E", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"luis", "maria"}, listRosterNames(t, h, "/instructors"))

	rec = doJSON(t, h, http.MethodDelete, "/instructors/maria", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"luis"}, listRosterNames(t, h, "/instructors"))

	rec = doJSON(t, h, http.MethodDelete, "/instructors/maria", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRosterNameValidation(t *testing.T) {
	h := newTestHandler(t, Config{})

	t.Run("blank name", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/instructors/%20%20", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[validationError](t, rec)
		require.Equal(t, "Validation failed", body.Error)
	})

	t.Run("name that is only markup", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/instructors/%3Cbr%3E", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRosterKindsIndependent(t *testing.T) {
	h := newTestHandler(t, Config{})

	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/instructors/alan", nil).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/hosts/betty", nil).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, h, http.MethodPost, "/translators/carla", nil).Code)

	require.Equal(t, []string{"alan"}, listRosterNames(t, h, "/instructors"))
	require.Equal(t, []string{"betty"}, listRosterNames(t, h, "/hosts"))
	require.Equal(t, []string{"carla"}, listRosterNames(t, h, "/translators"))
}

func TestRosterEncodedName(t *testing.T) {
	h := newTestHandler(t, Config{})

	rec := doJSON(t, h, http.MethodPost, "/translators/mar%C3%ADa%20l%C3%B3pez", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"maría lópez"}, listRosterNames(t, h, "/translators"))

	rec = doJSON(t, h, http.MethodDelete, "/translators/mar%C3%ADa%20l%C3%B3pez", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", doJSON(t, h, http.MethodGet, "/translators", nil).Body.String())
}

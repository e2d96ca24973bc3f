package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
)

func tr(name, dueDate string, translators ...string) *models.Translation {
	return &models.Translation{
		Name:          name,
		Stage:         models.StageRecording,
		Translators:   translators,
		DueDate:       dueDate,
		FileURL:       "https://recordings.example.com/" + name + ".mp3",
		LastUpdatedBy: "dana",
	}
}

func TestTranslationStoreCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns sequential IDs", func(t *testing.T) {
		s := NewTranslationStore()

		first := tr("a", "2026-01-01")
		second := tr("b", "2026-01-02")
		require.NoError(t, s.Create(ctx, first))
		require.NoError(t, s.Create(ctx, second))

		require.Equal(t, int64(1), first.ID)
		require.Equal(t, int64(2), second.ID)
	})

	t.Run("IDs are never reused after a delete", func(t *testing.T) {
		s := NewTranslationStore()

		first := tr("a", "2026-01-01")
		second := tr("b", "2026-01-02")
		require.NoError(t, s.Create(ctx, first))
		require.NoError(t, s.Create(ctx, second))
		require.NoError(t, s.Delete(ctx, second.ID))

		third := tr("c", "2026-01-03")
		require.NoError(t, s.Create(ctx, third))
		require.Equal(t, int64(3), third.ID)
	})

	t.Run("an explicit ID is kept and the sequence advanced", func(t *testing.T) {
		s := NewTranslationStore()

		restored := tr("restored", "2026-01-01")
		restored.ID = 10
		require.NoError(t, s.Create(ctx, restored))

		next := tr("next", "2026-01-02")
		require.NoError(t, s.Create(ctx, next))
		require.Equal(t, int64(11), next.ID)
	})

	t.Run("a duplicate explicit ID is rejected", func(t *testing.T) {
		s := NewTranslationStore()

		first := tr("a", "2026-01-01")
		require.NoError(t, s.Create(ctx, first))

		dup := tr("b", "2026-01-02")
		dup.ID = first.ID
		require.ErrorIs(t, s.Create(ctx, dup), store.ErrTranslationExists)
	})
}

func TestTranslationStoreList(t *testing.T) {
	ctx := context.Background()

	newStore := func(t *testing.T) *TranslationStore {
		t.Helper()
		s := NewTranslationStore()
		late := tr("Conference 1987-04", "2026-03-01", "bob")
		early := tr("Conference 1990-01", "2026-01-01", "carla")
		mid := tr("Retreat 1988", "2026-02-01", "bob", "dana")
		mid.Stage = models.StageAdaptation
		require.NoError(t, s.Create(ctx, late))
		require.NoError(t, s.Create(ctx, early))
		require.NoError(t, s.Create(ctx, mid))
		return s
	}

	t.Run("sorted by due date", func(t *testing.T) {
		s := newStore(t)

		listed, err := s.List(ctx, nil)
		require.NoError(t, err)
		require.Len(t, listed, 3)
		require.Equal(t, "Conference 1990-01", listed[0].Name)
		require.Equal(t, "Retreat 1988", listed[1].Name)
		require.Equal(t, "Conference 1987-04", listed[2].Name)
	})

	t.Run("name filter is a substring match", func(t *testing.T) {
		s := newStore(t)

		name := "Conference"
		listed, err := s.List(ctx, &store.TranslationFilter{Name: &name})
		require.NoError(t, err)
		require.Len(t, listed, 2)
	})

	t.Run("stage wildcard matches every stage", func(t *testing.T) {
		s := newStore(t)

		stage := models.StageAny
		listed, err := s.List(ctx, &store.TranslationFilter{Stage: &stage})
		require.NoError(t, err)
		require.Len(t, listed, 3)

		stage = models.StageAdaptation
		listed, err = s.List(ctx, &store.TranslationFilter{Stage: &stage})
		require.NoError(t, err)
		require.Len(t, listed, 1)
		require.Equal(t, "Retreat 1988", listed[0].Name)
	})

	t.Run("translator filter matches on overlap", func(t *testing.T) {
		s := newStore(t)

		listed, err := s.List(ctx, &store.TranslationFilter{Translators: []string{"bob", "nobody"}})
		require.NoError(t, err)
		require.Len(t, listed, 2)

		listed, err = s.List(ctx, &store.TranslationFilter{Translators: []string{"nobody"}})
		require.NoError(t, err)
		require.Empty(t, listed)
	})

	t.Run("listed translations are detached copies", func(t *testing.T) {
		s := newStore(t)

		listed, err := s.List(ctx, nil)
		require.NoError(t, err)
		listed[0].Translators[0] = "mutated"

		fresh, err := s.List(ctx, nil)
		require.NoError(t, err)
		require.Equal(t, "carla", fresh[0].Translators[0])
	})
}

func TestTranslationStoreUpdateDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("update replaces by ID", func(t *testing.T) {
		s := NewTranslationStore()
		created := tr("a", "2026-01-01")
		require.NoError(t, s.Create(ctx, created))

		edit := created.Clone()
		edit.Stage = models.StageFinalEditing
		require.NoError(t, s.Update(ctx, edit))

		listed, err := s.List(ctx, nil)
		require.NoError(t, err)
		require.Equal(t, models.StageFinalEditing, listed[0].Stage)
	})

	t.Run("update of an unknown ID fails with the sentinel", func(t *testing.T) {
		s := NewTranslationStore()
		missing := tr("a", "2026-01-01")
		missing.ID = 42
		require.ErrorIs(t, s.Update(ctx, missing), store.ErrTranslationNotFound)
	})

	t.Run("delete of an unknown ID fails with the sentinel", func(t *testing.T) {
		s := NewTranslationStore()
		require.ErrorIs(t, s.Delete(ctx, 42), store.ErrTranslationNotFound)
	})
}

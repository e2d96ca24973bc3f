package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func validEngagement() *Engagement {
	number := 3
	notes := "bring the projector"
	return &Engagement{
		ID:         uuid.New(),
		Instructor: "Maria Lopez",
		Host:       "Casa Koradi",
		Date:       "2026-09-12",
		Language:   LanguageSpanish,
		Title:      "Harmony in Practice",
		Part:       1,
		NumParts:   2,
		Status:     StatusPlanning,
		Notes:      &notes,
		Number:     &number,
	}
}

func TestEngagementValidate(t *testing.T) {
	t.Run("valid engagement passes", func(t *testing.T) {
		require.NoError(t, validEngagement().Validate())
	})

	t.Run("date must use the wire layout", func(t *testing.T) {
		for _, date := range []string{"2026/09/12", "12-09-2026", "2026-9-2", "not a date", ""} {
			e := validEngagement()
			e.Date = date
			require.Error(t, e.Validate(), "date %q", date)
		}
	})

	t.Run("part numbering is one-based and bounded", func(t *testing.T) {
		e := validEngagement()
		e.Part = 0
		require.Error(t, e.Validate())

		e = validEngagement()
		e.NumParts = 0
		require.Error(t, e.Validate())

		e = validEngagement()
		e.Part = 3
		e.NumParts = 2
		require.Error(t, e.Validate())

		e = validEngagement()
		e.Part = 2
		e.NumParts = 2
		require.NoError(t, e.Validate())
	})

	t.Run("the language wildcard is not storable", func(t *testing.T) {
		e := validEngagement()
		e.Language = LanguageAny
		require.Error(t, e.Validate())

		e.Language = Language("klingon")
		require.Error(t, e.Validate())
	})

	t.Run("required text fields", func(t *testing.T) {
		e := validEngagement()
		e.Instructor = ""
		require.Error(t, e.Validate())

		e = validEngagement()
		e.Title = ""
		require.Error(t, e.Validate())
	})

	t.Run("optional statuses are checked when present", func(t *testing.T) {
		e := validEngagement()
		hs := HostConfirmed
		fs := FlyerSent
		e.HostStatus = &hs
		e.FlyerStatus = &fs
		require.NoError(t, e.Validate())

		bad := HostStatus("maybe")
		e.HostStatus = &bad
		require.Error(t, e.Validate())
	})

	t.Run("number slot is one-based when present", func(t *testing.T) {
		e := validEngagement()
		zero := 0
		e.Number = &zero
		require.Error(t, e.Validate())

		e.Number = nil
		require.NoError(t, e.Validate())
	})
}

func TestEngagementSanitize(t *testing.T) {
	e := validEngagement()
	e.Instructor = "<script>alert(1)</script>Maria"
	e.Title = "Harmony <b>in</b> Practice"
	notes := "<img src=x onerror=alert(1)>say hi"
	e.Notes = &notes

	e.Sanitize()

	require.Equal(t, "Maria", e.Instructor)
	require.Equal(t, "Harmony in Practice", e.Title)
	require.Equal(t, "say hi", *e.Notes)
}

func TestEngagementStampUpdate(t *testing.T) {
	now := time.Date(2026, 8, 24, 15, 4, 5, 0, time.UTC)

	t.Run("appends the date to the editor", func(t *testing.T) {
		e := validEngagement()
		editor := "alice"
		e.LastUpdatedBy = &editor

		e.StampUpdate(now)
		require.Equal(t, "alice 2026-08-24", *e.LastUpdatedBy)
	})

	t.Run("bare date when no editor was sent", func(t *testing.T) {
		e := validEngagement()
		e.LastUpdatedBy = nil

		e.StampUpdate(now)
		require.Equal(t, "2026-08-24", *e.LastUpdatedBy)
	})
}

func TestEngagementClone(t *testing.T) {
	e := validEngagement()
	clone := e.Clone()

	*clone.Number = 99
	clone.Instructor = "someone else"

	require.Equal(t, 3, *e.Number)
	require.Equal(t, "Maria Lopez", e.Instructor)
}

func validTranslation() *Translation {
	return &Translation{
		ID:            1,
		Name:          "Conference 1987-04",
		Stage:         StageRecording,
		Translators:   []string{"bob", "carla"},
		DueDate:       "2026-10-01",
		FileURL:       "https://recordings.example.com/1987-04.mp3?sig=abc",
		LastUpdatedBy: "dana",
	}
}

func TestTranslationValidate(t *testing.T) {
	t.Run("valid translation passes", func(t *testing.T) {
		require.NoError(t, validTranslation().Validate())
	})

	t.Run("the stage wildcard is not storable", func(t *testing.T) {
		tr := validTranslation()
		tr.Stage = StageAny
		require.Error(t, tr.Validate())
	})

	t.Run("due date must use the wire layout", func(t *testing.T) {
		tr := validTranslation()
		tr.DueDate = "10/01/2026"
		require.Error(t, tr.Validate())
	})

	t.Run("translator names must be non-empty when present", func(t *testing.T) {
		tr := validTranslation()
		tr.Translators = []string{"bob", ""}
		require.Error(t, tr.Validate())

		tr.Translators = nil
		require.NoError(t, tr.Validate())
	})

	t.Run("name is required", func(t *testing.T) {
		tr := validTranslation()
		tr.Name = ""
		require.Error(t, tr.Validate())
	})
}

func TestTranslationSanitize(t *testing.T) {
	tr := validTranslation()
	tr.Name = "<i>Conference</i> 1987-04"
	tr.Translators = []string{"<b>bob</b>"}

	tr.Sanitize()

	require.Equal(t, "Conference 1987-04", tr.Name)
	require.Equal(t, []string{"bob"}, tr.Translators)
	// URLs keep their query strings.
	require.Equal(t, "https://recordings.example.com/1987-04.mp3?sig=abc", tr.FileURL)
}

func TestStageDescription(t *testing.T) {
	require.Equal(t, "Stage 1: AI Transcription (Spanish)", StageAITranscription.Description())
	require.Equal(t, "Stage 9: Final Editing (Bilingual Editor)", StageFinalEditing.Description())
	require.Equal(t, "All Stages", StageAny.Description())
}

func TestCleanStringEscapes(t *testing.T) {
	require.Equal(t, "Bob &amp; Alice", CleanString("Bob & Alice"))
}

func TestRosterKind(t *testing.T) {
	for _, kind := range RosterKinds() {
		require.True(t, kind.Valid())
	}
	require.False(t, RosterKind("members").Valid())
	require.Len(t, RosterKinds(), 3)
}

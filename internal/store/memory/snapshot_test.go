package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/koradi/koradi-admin/internal/models"
	"github.com/koradi/koradi-admin/internal/store"
)

func populatedStores(t *testing.T) *store.Stores {
	t.Helper()
	ctx := context.Background()
	s := NewStores()

	require.NoError(t, s.Engagements.Create(ctx, eng(1, "2026-01-01")))
	require.NoError(t, s.Engagements.Create(ctx, eng(0, "2026-02-01")))
	require.NoError(t, s.Translations.Create(ctx, tr("Conference 1990-01", "2026-01-15", "bob")))
	require.NoError(t, s.Rosters.Add(ctx, models.RosterInstructors, "maria"))
	require.NoError(t, s.Rosters.Add(ctx, models.RosterHosts, "casa"))
	require.NoError(t, s.Rosters.Add(ctx, models.RosterTranslators, "bob"))
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := populatedStores(t)

	snap, err := store.TakeSnapshot(ctx, src)
	require.NoError(t, err)
	require.False(t, snap.TakenAt.IsZero())
	require.Len(t, snap.Engagements, 2)
	require.Len(t, snap.Translations, 1)
	require.Equal(t, []string{"maria"}, snap.Instructors)
	require.Equal(t, []string{"casa"}, snap.Hosts)
	require.Equal(t, []string{"bob"}, snap.Translators)

	dst := NewStores()
	require.NoError(t, store.RestoreSnapshot(ctx, dst, snap))

	wantEngagements, err := src.Engagements.List(ctx, nil)
	require.NoError(t, err)
	gotEngagements, err := dst.Engagements.List(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, wantEngagements, gotEngagements)

	wantTranslations, err := src.Translations.List(ctx, nil)
	require.NoError(t, err)
	gotTranslations, err := dst.Translations.List(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, wantTranslations, gotTranslations)

	for _, kind := range models.RosterKinds() {
		want, err := src.Rosters.List(ctx, kind)
		require.NoError(t, err)
		got, err := dst.Rosters.List(ctx, kind)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestRestoreSnapshotSkipsNonEmpty(t *testing.T) {
	ctx := context.Background()

	snap, err := store.TakeSnapshot(ctx, populatedStores(t))
	require.NoError(t, err)

	dst := NewStores()
	live := eng(0, "2026-05-05")
	require.NoError(t, dst.Engagements.Create(ctx, live))
	require.NoError(t, dst.Rosters.Add(ctx, models.RosterHosts, "other"))

	require.NoError(t, store.RestoreSnapshot(ctx, dst, snap))

	// Engagements already had live data, so the backup must not touch them.
	listed, err := dst.Engagements.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, live.ID, listed[0].ID)

	hosts, err := dst.Rosters.List(ctx, models.RosterHosts)
	require.NoError(t, err)
	require.Equal(t, []string{"other"}, hosts)

	// Empty collections still restore.
	translations, err := dst.Translations.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, translations, 1)

	instructors, err := dst.Rosters.List(ctx, models.RosterInstructors)
	require.NoError(t, err)
	require.Equal(t, []string{"maria"}, instructors)
}

func TestRosterSeed(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "rosters.yaml")
	doc := `instructors:
  - maria
  - "  "
  - <b>luis</b>
hosts:
  - casa
translators:
  - bob
  - maria
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	seed, err := store.LoadRosterSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Instructors, 3)

	rosters := NewRosterStore()
	require.NoError(t, store.SeedRosters(ctx, rosters, seed))

	instructors, err := rosters.List(ctx, models.RosterInstructors)
	require.NoError(t, err)
	require.Equal(t, []string{"luis", "maria"}, instructors)

	translators, err := rosters.List(ctx, models.RosterTranslators)
	require.NoError(t, err)
	require.Equal(t, []string{"bob", "maria"}, translators)

	// Re-seeding is a no-op thanks to idempotent adds.
	require.NoError(t, store.SeedRosters(ctx, rosters, seed))
	again, err := rosters.List(ctx, models.RosterInstructors)
	require.NoError(t, err)
	require.Equal(t, instructors, again)
}

func TestLoadRosterSeedErrors(t *testing.T) {
	_, err := store.LoadRosterSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instructors: {not: a list}"), 0o600))
	_, err = store.LoadRosterSeed(path)
	require.Error(t, err)
}

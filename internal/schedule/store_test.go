// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), "", zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestStoreLoadMissingDocumentIsEmpty(t *testing.T) {
	store := newTestStore(t)
	doc := store.Load()
	require.Empty(t, doc.Events)
}

func TestStoreSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	events := []Event{
		{ID: 1, Name: "Monday Night Racing", StartTime: time.Date(2026, 8, 10, 20, 0, 0, 0, time.UTC)},
	}
	saved, err := store.Replace(events)
	require.NoError(t, err)
	require.Len(t, saved.Events, 1)
	require.False(t, saved.LastUpdated.IsZero())

	loaded := store.Load()
	require.Len(t, loaded.Events, 1)
	require.Equal(t, "Monday Night Racing", loaded.Events[0].Name)
	require.Equal(t, time.UTC, loaded.Events[0].StartTime.Location())
}

func TestStoreLoadNormalizesNonUTCStartTime(t *testing.T) {
	store := newTestStore(t)

	loc := time.FixedZone("UTC-5", -5*60*60)
	events := []Event{
		{ID: 1, Name: "Event", StartTime: time.Date(2026, 8, 10, 15, 0, 0, 0, loc)},
	}
	_, err := store.Replace(events)
	require.NoError(t, err)

	loaded := store.Load()
	require.Equal(t, time.UTC, loaded.Events[0].StartTime.Location())
	require.Equal(t, 20, loaded.Events[0].StartTime.Hour())
}

func TestStoreLoadCorruptDocumentIsEmpty(t *testing.T) {
	store := newTestStore(t)

	err := writeRaw(store, "{not valid json")
	require.NoError(t, err)

	doc := store.Load()
	require.Empty(t, doc.Events)
}

func TestStoreSaveRejectsInvalidSchedule(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Replace([]Event{
		{ID: 0, Name: "", StartTime: time.Time{}},
	})
	require.Error(t, err)
}

func TestStoreSaveRejectsMultipleActiveEvents(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC()
	_, err := store.Replace([]Event{
		{ID: 1, Name: "A", StartTime: now, IsActive: true},
		{ID: 2, Name: "B", StartTime: now, IsActive: true},
	})
	require.Error(t, err)
}

func TestStoreBackupWithoutDocument(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Backup()
	require.Error(t, err)
}

func TestStoreBackupCreatesTimestampedSibling(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Replace([]Event{
		{ID: 1, Name: "Event", StartTime: time.Now().UTC()},
	})
	require.NoError(t, err)

	backupPath, err := store.Backup()
	require.NoError(t, err)
	require.FileExists(t, backupPath)
	require.Equal(t, store.dataDir, filepath.Dir(backupPath))
}

// writeRaw bypasses Save's validation to exercise Load's corruption path.
func writeRaw(s *Store, content string) error {
	return s.atomicWrite([]byte(content))
}

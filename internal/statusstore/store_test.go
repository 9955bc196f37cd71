package statusstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shiptracker/internal/components/telemetry"
	"shiptracker/internal/shipment"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "last_status.json"), &telemetry.Recorder{})
	require.Equal(t, shipment.PersistedStatus{}, store.Load())
}

func TestLoadCorruptedFile(t *testing.T) {
	testCases := []string{
		`{"last_location": "Dubai"`,
		`not json at all`,
		`["an", "array"]`,
	}

	for _, contents := range testCases {
		path := filepath.Join(t.TempDir(), "last_status.json")
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

		rec := &telemetry.Recorder{}
		store := NewStore(path, rec)
		require.Equal(t, shipment.PersistedStatus{}, store.Load(), contents)
		require.Len(t, rec.Reports("warning"), 1, contents)
	}
}

func TestRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "state", "last_status.json"), &telemetry.Recorder{})

	record := shipment.StatusRecord{
		Date:       "2025-03-14",
		Time:       "09:30",
		Location:   "Port of Southampton",
		Status:     "Loaded on vessel",
		FullStatus: "In Transit",
		Timestamp:  "2025-03-14T10:00:00Z",
	}
	expected := shipment.Persist(record)

	require.NoError(t, store.Save(expected))
	loaded := store.Load()
	if diff := cmp.Diff(expected, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	_, err := os.Stat(store.Path() + ".tmp")
	require.True(t, os.IsNotExist(err))

	contents, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Contains(t, string(contents), "\n  \"last_location\": \"Port of Southampton\"")
}

func TestLoadLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_status.json")
	legacy := `{"last_location": "", "last_status": "", "last_check": ""}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	store := NewStore(path, &telemetry.Recorder{})
	require.Equal(t, shipment.PersistedStatus{}, store.Load())
}

func TestSaveFailure(t *testing.T) {
	dir := t.TempDir()
	// a directory where the file should be makes the rename fail
	path := filepath.Join(dir, "last_status.json")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0755))

	rec := &telemetry.Recorder{}
	store := NewStore(path, rec)
	err := store.Save(shipment.PersistedStatus{LastLocation: "x"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPersist))
	require.Equal(t, []string{"status_store: " + report_store_save}, rec.Broken())
}

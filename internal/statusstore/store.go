package statusstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shiptracker/internal/components/assert"
	"shiptracker/internal/components/telemetry"
	"shiptracker/internal/shipment"
)

// ErrPersist wraps any failure to write the status file, it is never fatal.
var ErrPersist = errors.New("persist error")

const (
	report_store_load = "store.load"
	report_store_save = "store.save"
)

// Store keeps the last notified shipment status in a single JSON file.
// It does no locking, runs are expected to be serialized by the scheduler.
type Store struct {
	path string
	tel  telemetry.API
}

func NewStore(path string, tel telemetry.API) Store {
	assert.NotEmptyStr("status file path", path)
	assert.NotNil("telemetry", tel)

	return Store{
		path: path,
		tel:  telemetry.NewScopedAPI("status_store", tel),
	}
}

func (s Store) Path() string {
	return s.path
}

// Load returns the persisted status. A missing or unparsable file is treated
// as "no prior state" and yields the empty record.
func (s Store) Load() shipment.PersistedStatus {
	contents, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.tel.ReportDebug("no status file yet", s.path)
		return shipment.PersistedStatus{}
	}
	if err != nil {
		s.tel.ReportWarning(report_store_load, fmt.Errorf("read: %w", err), s.path)
		return shipment.PersistedStatus{}
	}

	var status shipment.PersistedStatus
	err = json.Unmarshal(contents, &status)
	if err != nil {
		s.tel.ReportWarning(
			report_store_load,
			fmt.Errorf("corrupted status file, starting fresh: %w", err),
			s.path,
		)
		return shipment.PersistedStatus{}
	}
	return status
}

// Save overwrites the status file with status. The file is written to a
// temporary sibling first and renamed into place.
func (s Store) Save(status shipment.PersistedStatus) error {
	err := s.save(status)
	if err != nil {
		s.tel.ReportBroken(report_store_save, err, s.path)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s Store) save(status shipment.PersistedStatus) error {
	contents, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	contents = append(contents, '\n')

	err = os.MkdirAll(filepath.Dir(s.path), 0755)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	err = os.WriteFile(tmp, contents, 0644)
	if err != nil {
		return err
	}
	err = os.Rename(tmp, s.path)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

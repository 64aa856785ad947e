// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/tkprocat/WreckfestController/internal/ctlerrors"
)

// DocumentName is the normative filename for the persisted schedule
// document under the data directory (§6).
const DocumentName = "event-schedule.json"

// Store loads and saves the Schedule document. It is the single source of
// truth C9 reloads from on every sweep.
type Store struct {
	dataDir string
	logger  zerolog.Logger
}

// NewStore creates a Store rooted at dataDir, creating the directory on
// first use. If dataDir is empty, baseDir/Data is used (§4.C3: "a Data/
// directory next to the server's working dir, or the application dir if
// unset").
func NewStore(dataDir, baseDir string, logger zerolog.Logger) (*Store, error) {
	if dataDir == "" {
		if baseDir == "" {
			var err error
			baseDir, err = os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("resolve application dir: %w", err)
			}
		}
		dataDir = filepath.Join(baseDir, "Data")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir, logger: logger.With().Str("component", "schedule-store").Logger()}, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, DocumentName)
}

// Load reads the schedule document, normalizing all StartTime values to
// UTC (I3). A missing file yields an empty schedule; a structurally
// invalid document is logged and also yields an empty schedule - Load never
// returns an error to the scheduler (§4.C3 "never throws to callers").
func (s *Store) Load() *Schedule {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Msg("failed to read schedule document, starting empty")
		}
		return &Schedule{}
	}

	var doc Schedule
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Error().Err(err).Msg("schedule document is structurally invalid, starting empty")
		return &Schedule{}
	}

	normalize(&doc)
	return &doc
}

// normalize shifts every StartTime, and the document's LastUpdated, to UTC
// in place (I3).
func normalize(doc *Schedule) {
	for i := range doc.Events {
		doc.Events[i].StartTime = doc.Events[i].StartTime.UTC()
	}
	doc.LastUpdated = doc.LastUpdated.UTC()
}

// Save validates and atomically persists the schedule, stamping
// LastUpdated. Writes go to a ".tmp" file, the existing target is removed
// if present, and the tmp file is renamed into place.
func (s *Store) Save(doc *Schedule) (*Schedule, error) {
	if err := ValidateSchedule(doc); err != nil {
		return nil, err
	}

	normalize(doc)
	doc.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, ctlerrors.Wrap(ctlerrors.Fatal, "marshal schedule document", err)
	}

	if err := s.atomicWrite(data); err != nil {
		return nil, ctlerrors.Wrap(ctlerrors.Fatal, "persist schedule document", err)
	}

	return doc, nil
}

// Replace validates and saves a caller-supplied event list, preserving
// LastUpdated only as a fresh timestamp (§6 "Schedule replace").
func (s *Store) Replace(events []Event) (*Schedule, error) {
	doc := &Schedule{Events: events}
	return s.Save(doc)
}

// Backup copies the current document to a timestamped sibling file and
// returns its path. The suffix format is ".backup.<YYYYMMDD-HHMMSS>.json".
func (s *Store) Backup() (string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ctlerrors.New(ctlerrors.NotFound, "no schedule document to back up")
		}
		return "", ctlerrors.Wrap(ctlerrors.Fatal, "read schedule document for backup", err)
	}

	stamp := time.Now().UTC().Format("20060102-150405")
	backupPath := filepath.Join(s.dataDir, fmt.Sprintf("%s.backup.%s.json", baseNameNoExt(DocumentName), stamp))
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", ctlerrors.Wrap(ctlerrors.Fatal, "write schedule backup", err)
	}
	return backupPath, nil
}

func baseNameNoExt(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}

func (s *Store) atomicWrite(data []byte) error {
	target := s.path()
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if _, err := os.Stat(target); err == nil {
		if err := os.Remove(target); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("remove existing document: %w", err)
		}
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	return nil
}

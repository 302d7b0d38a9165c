package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

// DefaultDataDir is where snapshots live unless configured otherwise
const DefaultDataDir = "~/.local/share/him-waste"

// MaxChangeLog caps the number of changes kept in a snapshot
const MaxChangeLog = 50

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Snapshot is the persisted state for one property
type Snapshot struct {
	Schedule  *waste.Schedule `json:"schedule"`
	ChangeLog []*waste.Change `json:"change_log"` // most recent last
	UpdatedAt string          `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot for a property
func NewSnapshot(propertyID string) *Snapshot {
	return &Snapshot{
		Schedule:  waste.NewSchedule(propertyID),
		ChangeLog: make([]*waste.Change, 0),
	}
}

// Storage handles persistence of schedule snapshots
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// ExpandHome expands a leading ~/ to the user's home directory
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Dir returns the resolved data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// snapshotPath returns the path to the snapshot file of a property
func (s *Storage) snapshotPath(propertyID string) string {
	name := unsafeFilenameChars.ReplaceAllString(propertyID, "_")
	return filepath.Join(s.dataDir, fmt.Sprintf("schedule_%s.json", name))
}

// LoadSnapshot loads a snapshot from disk. A missing file yields an empty snapshot.
func (s *Storage) LoadSnapshot(propertyID string) (*Snapshot, error) {
	path := s.snapshotPath(propertyID)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSnapshot(propertyID), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	if snapshot.Schedule == nil {
		snapshot.Schedule = waste.NewSchedule(propertyID)
	}
	if snapshot.Schedule.Dates == nil {
		snapshot.Schedule.Dates = make(map[waste.Category]string)
	}
	if snapshot.ChangeLog == nil {
		snapshot.ChangeLog = make([]*waste.Change, 0)
	}

	return &snapshot, nil
}

// SaveSnapshot saves a snapshot to disk, replacing the previous file atomically
func (s *Storage) SaveSnapshot(snapshot *Snapshot) error {
	if snapshot == nil || snapshot.Schedule == nil {
		return fmt.Errorf("snapshot has no schedule")
	}
	path := s.snapshotPath(snapshot.Schedule.PropertyID)

	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dataDir, ".schedule-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// Record stores a freshly scraped schedule, appending any date changes against the
// previous snapshot to the change log. It returns the detected changes.
func (s *Storage) Record(schedule *waste.Schedule) ([]*waste.Change, error) {
	if schedule == nil {
		return nil, fmt.Errorf("schedule is nil")
	}

	snapshot, err := s.LoadSnapshot(schedule.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var changes []*waste.Change
	// An empty previous schedule means first run; don't log every category as new
	if !snapshot.Schedule.IsEmpty() {
		changes = waste.Diff(snapshot.Schedule, schedule)
		snapshot.ChangeLog = append(snapshot.ChangeLog, changes...)
		if len(snapshot.ChangeLog) > MaxChangeLog {
			snapshot.ChangeLog = snapshot.ChangeLog[len(snapshot.ChangeLog)-MaxChangeLog:]
		}
	}

	snapshot.Schedule = schedule.Clone()
	if err := s.SaveSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	return changes, nil
}

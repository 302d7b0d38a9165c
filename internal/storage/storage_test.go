package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

func schedule(propertyID string, dates map[waste.Category]string) *waste.Schedule {
	s := waste.NewSchedule(propertyID)
	for c, v := range dates {
		s.Dates[c] = v
	}
	s.LastRefresh = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	return s
}

func TestLoadSnapshot_Missing(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	snap, err := store.LoadSnapshot("12345")
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	if snap.Schedule == nil || snap.Schedule.PropertyID != "12345" {
		t.Errorf("LoadSnapshot() schedule = %+v, want empty schedule for 12345", snap.Schedule)
	}
	if !snap.Schedule.IsEmpty() {
		t.Error("LoadSnapshot() of missing file should be empty")
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	snap := NewSnapshot("12345")
	snap.Schedule = schedule("12345", map[waste.Category]string{
		waste.CategoryRest: "2026-03-12",
		waste.CategoryFood: "2026-03-05",
	})

	if err := store.SaveSnapshot(snap); err != nil {
		t.Fatalf("SaveSnapshot() error: %v", err)
	}
	if snap.UpdatedAt == "" {
		t.Error("SaveSnapshot() should set UpdatedAt")
	}

	loaded, err := store.LoadSnapshot("12345")
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	if got := loaded.Schedule.Value(waste.CategoryFood); got != "2026-03-05" {
		t.Errorf("loaded Value(mat) = %q, want 2026-03-05", got)
	}
	if !loaded.Schedule.LastRefresh.Equal(snap.Schedule.LastRefresh) {
		t.Errorf("LastRefresh = %v, want %v", loaded.Schedule.LastRefresh, snap.Schedule.LastRefresh)
	}

	entries, _ := os.ReadDir(store.Dir())
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "schedule_1.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.LoadSnapshot("1"); err == nil {
		t.Error("LoadSnapshot() of corrupt file should fail")
	}
}

func TestSnapshotPath_Sanitized(t *testing.T) {
	store := &Storage{dataDir: "/data"}
	got := store.snapshotPath("../../etc/passwd")
	if filepath.Dir(got) != "/data" {
		t.Errorf("snapshotPath() escaped data dir: %s", got)
	}
}

func TestRecord(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tests := []struct {
		name        string
		dates       map[waste.Category]string
		wantChanges int
	}{
		{
			name:        "first run records no changes",
			dates:       map[waste.Category]string{waste.CategoryRest: "2026-03-12", waste.CategoryFood: "2026-03-05"},
			wantChanges: 0,
		},
		{
			name:        "unchanged schedule",
			dates:       map[waste.Category]string{waste.CategoryRest: "2026-03-12", waste.CategoryFood: "2026-03-05"},
			wantChanges: 0,
		},
		{
			name:        "moved pickup",
			dates:       map[waste.Category]string{waste.CategoryRest: "2026-03-13", waste.CategoryFood: "2026-03-05"},
			wantChanges: 1,
		},
	}

	logged := 0
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := store.Record(schedule("12345", tt.dates))
			if err != nil {
				t.Fatalf("Record() error: %v", err)
			}
			if len(changes) != tt.wantChanges {
				t.Errorf("Record() returned %d changes, want %d", len(changes), tt.wantChanges)
			}
			logged += len(changes)

			snap, err := store.LoadSnapshot("12345")
			if err != nil {
				t.Fatalf("LoadSnapshot() error: %v", err)
			}
			if len(snap.ChangeLog) != logged {
				t.Errorf("change log has %d entries, want %d", len(snap.ChangeLog), logged)
			}
		})
	}
}

func TestRecord_CapsChangeLog(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxChangeLog+10; i++ {
		d := start.AddDate(0, 0, i).Format(waste.DateLayout)
		if _, err := store.Record(schedule("1", map[waste.Category]string{waste.CategoryRest: d})); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	snap, err := store.LoadSnapshot("1")
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	if len(snap.ChangeLog) != MaxChangeLog {
		t.Fatalf("change log has %d entries, want %d", len(snap.ChangeLog), MaxChangeLog)
	}
	last := snap.ChangeLog[len(snap.ChangeLog)-1]
	if want := start.AddDate(0, 0, MaxChangeLog+9).Format(waste.DateLayout); last.NewValue != want {
		t.Errorf("last change NewValue = %q, want %q", last.NewValue, want)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandHome("~/.local/share/him-waste")
	if err != nil {
		t.Fatalf("ExpandHome() error: %v", err)
	}
	if got != filepath.Join(home, ".local/share/him-waste") {
		t.Errorf("ExpandHome() = %q", got)
	}
	if got, _ := ExpandHome("/var/lib/him"); got != "/var/lib/him" {
		t.Errorf("ExpandHome() changed absolute path: %q", got)
	}
}

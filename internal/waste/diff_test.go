package waste

import "testing"

func TestDiff(t *testing.T) {
	previous := NewSchedule("1")
	previous.Set(CategoryRest, date(2026, 3, 12))
	previous.Set(CategoryFood, date(2026, 3, 5))
	previous.Set(CategoryPaper, date(2026, 3, 19))

	current := NewSchedule("1")
	current.Set(CategoryRest, date(2026, 3, 12))
	current.Set(CategoryFood, date(2026, 3, 6))
	current.Set(CategoryPlastic, date(2026, 3, 20))

	changes := Diff(previous, current)

	want := []struct {
		cat        Category
		changeType string
		oldValue   string
		newValue   string
	}{
		{CategoryFood, ChangeDate, "2026-03-05", "2026-03-06"},
		{CategoryPaper, ChangeRemoved, "2026-03-19", ""},
		{CategoryPlastic, ChangeNew, "", "2026-03-20"},
	}

	if len(changes) != len(want) {
		t.Fatalf("Diff() returned %d changes, want %d", len(changes), len(want))
	}
	for i, w := range want {
		c := changes[i]
		if c.Category != w.cat || c.ChangeType != w.changeType || c.OldValue != w.oldValue || c.NewValue != w.newValue {
			t.Errorf("change %d = %+v, want %+v", i, *c, w)
		}
		if c.DetectedAt.IsZero() {
			t.Errorf("change %d has zero DetectedAt", i)
		}
	}
}

func TestDiff_NilPrevious(t *testing.T) {
	changes := Diff(nil, testSchedule())
	if len(changes) != len(Categories) {
		t.Fatalf("Diff(nil, s) returned %d changes, want %d", len(changes), len(Categories))
	}
	for i, c := range changes {
		if c.ChangeType != ChangeNew {
			t.Errorf("change %d type = %q, want new", i, c.ChangeType)
		}
		if c.Category != Categories[i] {
			t.Errorf("change %d category = %q, want %q", i, c.Category, Categories[i])
		}
	}
}

func TestDiff_Identical(t *testing.T) {
	if changes := Diff(testSchedule(), testSchedule()); len(changes) != 0 {
		t.Errorf("Diff() of identical schedules returned %d changes", len(changes))
	}
}

package waste

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testSchedule() *Schedule {
	s := NewSchedule("12345")
	s.Set(CategoryRest, date(2026, 3, 12))
	s.Set(CategoryFood, date(2026, 3, 5))
	s.Set(CategoryPaper, date(2026, 3, 12))
	s.Set(CategoryPlastic, date(2026, 3, 19))
	s.Set(CategoryGlassMetal, date(2026, 4, 2))
	return s
}

func TestCategoryDisplay(t *testing.T) {
	tests := []struct {
		cat      Category
		wantName string
		wantIcon string
		label    string
	}{
		{CategoryRest, "Restavfall", "mdi:trash-can", "rest"},
		{CategoryFood, "Matavfall", "mdi:food-apple", "mat"},
		{CategoryGlassMetal, "Glass og metallavfall", "mdi:bottle-wine", "glass metall"},
		{Category("hage_avfall"), "Hage Avfall", "mdi:trash-can", "hage avfall"},
		{Category("ødelagt_ÆSKE"), "Ødelagt Æske", "mdi:trash-can", "ødelagt ÆSKE"},
		{Category("éé"), "Éé", "mdi:trash-can", "éé"},
	}

	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			if got := tt.cat.DisplayName(); got != tt.wantName {
				t.Errorf("DisplayName() = %q, want %q", got, tt.wantName)
			}
			if got := tt.cat.Icon(); got != tt.wantIcon {
				t.Errorf("Icon() = %q, want %q", got, tt.wantIcon)
			}
			if got := tt.cat.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
		})
	}
}

func TestSchedule_Value(t *testing.T) {
	s := NewSchedule("1")
	s.Set(CategoryRest, date(2026, 3, 12))

	if got := s.Value(CategoryRest); got != "2026-03-12" {
		t.Errorf("Value(rest) = %q, want 2026-03-12", got)
	}
	if got := s.Value(CategoryFood); got != Unknown {
		t.Errorf("Value(mat) = %q, want %q", got, Unknown)
	}

	var nilSchedule *Schedule
	if got := nilSchedule.Value(CategoryRest); got != Unknown {
		t.Errorf("nil Value() = %q, want %q", got, Unknown)
	}

	values := s.Values()
	if len(values) != len(Categories) {
		t.Errorf("Values() has %d entries, want %d", len(values), len(Categories))
	}
	if values["plast"] != Unknown {
		t.Errorf("Values()[plast] = %q, want %q", values["plast"], Unknown)
	}
}

func TestSchedule_Next(t *testing.T) {
	tests := []struct {
		name   string
		today  time.Time
		want   string
		wantOK bool
	}{
		{"before everything", date(2026, 3, 1), "2026-03-05", true},
		{"same day counts as upcoming", date(2026, 3, 12), "2026-03-12", true},
		{"between dates", date(2026, 3, 13), "2026-03-19", true},
		{"time of day is ignored", time.Date(2026, 3, 5, 23, 59, 0, 0, time.UTC), "2026-03-05", true},
		{"all in the past falls back to earliest", date(2026, 5, 1), "2026-03-05", true},
	}

	s := testSchedule()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Next(tt.today)
			if ok != tt.wantOK {
				t.Fatalf("Next() ok = %v, want %v", ok, tt.wantOK)
			}
			if FormatDate(got) != tt.want {
				t.Errorf("Next() = %s, want %s", FormatDate(got), tt.want)
			}
		})
	}

	empty := NewSchedule("1")
	empty.Dates[CategoryRest] = Unknown
	if _, ok := empty.Next(date(2026, 1, 1)); ok {
		t.Error("Next() on schedule without parseable dates should not be ok")
	}
}

func TestSchedule_Collections(t *testing.T) {
	cols := testSchedule().Collections()

	if len(cols) != 4 {
		t.Fatalf("Collections() returned %d, want 4", len(cols))
	}
	for i := 1; i < len(cols); i++ {
		if !cols[i-1].Date.Before(cols[i].Date) {
			t.Errorf("collections not sorted: %s before %s", FormatDate(cols[i-1].Date), FormatDate(cols[i].Date))
		}
	}

	shared := cols[1]
	if FormatDate(shared.Date) != "2026-03-12" {
		t.Fatalf("second collection date = %s, want 2026-03-12", FormatDate(shared.Date))
	}
	if len(shared.Categories) != 2 || shared.Categories[0] != CategoryRest || shared.Categories[1] != CategoryPaper {
		t.Errorf("categories = %v, want [rest papir]", shared.Categories)
	}
	if got := shared.Description(); got != "Restavfall, Papiravfall" {
		t.Errorf("Description() = %q", got)
	}
	if got := shared.Icon(); got != CollectionIcon {
		t.Errorf("Icon() = %q, want %q", got, CollectionIcon)
	}
	if got := cols[0].Icon(); got != "mdi:food-apple" {
		t.Errorf("single category Icon() = %q, want mdi:food-apple", got)
	}
	if !shared.Has(CategoryPaper) || shared.Has(CategoryFood) {
		t.Error("Has() returned wrong membership")
	}
}

func TestSchedule_Between(t *testing.T) {
	s := testSchedule()

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		wantDates []string
	}{
		{"whole range", date(2026, 1, 1), date(2027, 1, 1), []string{"2026-03-05", "2026-03-12", "2026-03-19", "2026-04-02"}},
		{"start inclusive", date(2026, 3, 12), date(2026, 3, 19), []string{"2026-03-12"}},
		{"end exclusive", date(2026, 3, 5), date(2026, 3, 12), []string{"2026-03-05"}},
		{"empty range", date(2026, 3, 6), date(2026, 3, 11), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Between(tt.start, tt.end)
			if len(got) != len(tt.wantDates) {
				t.Fatalf("Between() returned %d collections, want %d", len(got), len(tt.wantDates))
			}
			for i, col := range got {
				if FormatDate(col.Date) != tt.wantDates[i] {
					t.Errorf("collection %d = %s, want %s", i, FormatDate(col.Date), tt.wantDates[i])
				}
			}
		})
	}
}

func TestCollection_DaysFrom(t *testing.T) {
	col := Collection{Date: date(2026, 3, 12), Categories: []Category{CategoryRest}}
	if got := col.DaysFrom(time.Date(2026, 3, 11, 18, 30, 0, 0, time.UTC)); got != 1 {
		t.Errorf("DaysFrom() = %d, want 1", got)
	}
	if got := col.DaysFrom(date(2026, 3, 12)); got != 0 {
		t.Errorf("DaysFrom() same day = %d, want 0", got)
	}
}

func TestSchedule_Clone(t *testing.T) {
	s := testSchedule()
	c := s.Clone()
	c.Set(CategoryRest, date(2027, 1, 1))

	if s.Value(CategoryRest) != "2026-03-12" {
		t.Error("Clone() shares the Dates map with the original")
	}
}

package waste

import (
	"errors"
	"testing"
	"time"
)

func TestParseDayMonth(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		year      int
		wantMonth time.Month
		wantDay   int
		wantErr   bool
	}{
		{
			name:      "day and month",
			text:      "12. mars",
			year:      2026,
			wantMonth: time.March,
			wantDay:   12,
		},
		{
			name:      "uppercase and padding",
			text:      "  3. Desember ",
			year:      2026,
			wantMonth: time.December,
			wantDay:   3,
		},
		{
			name:      "extra separator is ignored by taking the last part",
			text:      "5. . juni",
			year:      2026,
			wantMonth: time.June,
			wantDay:   5,
		},
		{
			name:      "leap day in leap year",
			text:      "29. februar",
			year:      2028,
			wantMonth: time.February,
			wantDay:   29,
		},
		{
			name:    "no separator",
			text:    "12 mars",
			year:    2026,
			wantErr: true,
		},
		{
			name:    "unknown month",
			text:    "12. march",
			year:    2026,
			wantErr: true,
		},
		{
			name:    "zero day",
			text:    "0. mai",
			year:    2026,
			wantErr: true,
		},
		{
			name:    "non-numeric day",
			text:    "tolv. mai",
			year:    2026,
			wantErr: true,
		},
		{
			name:    "day past end of month",
			text:    "31. april",
			year:    2026,
			wantErr: true,
		},
		{
			name:    "leap day in common year",
			text:    "29. februar",
			year:    2026,
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "",
			year:    2026,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDayMonth(tt.text, tt.year)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDayMonth(%q) expected error, got %v", tt.text, got)
				}
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("ParseDayMonth(%q) error = %v, want ErrInvalidDate", tt.text, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDayMonth(%q) unexpected error: %v", tt.text, err)
			}
			if got.Year() != tt.year || got.Month() != tt.wantMonth || got.Day() != tt.wantDay {
				t.Errorf("ParseDayMonth(%q) = %s, want %d-%02d-%02d", tt.text, got.Format(DateLayout), tt.year, tt.wantMonth, tt.wantDay)
			}
			if got.Location() != time.UTC || got.Hour() != 0 {
				t.Errorf("ParseDayMonth(%q) = %v, want midnight UTC", tt.text, got)
			}
		})
	}
}

func TestMonthsTable(t *testing.T) {
	if len(Months) != 12 {
		t.Fatalf("Months has %d entries, want 12", len(Months))
	}
	seen := make(map[time.Month]bool)
	for name, m := range Months {
		if seen[m] {
			t.Errorf("month %s mapped twice (latest %q)", m, name)
		}
		seen[m] = true
	}
}

func TestParseISODate(t *testing.T) {
	if _, err := ParseISODate("2026-03-12"); err != nil {
		t.Errorf("ParseISODate() unexpected error: %v", err)
	}
	if _, err := ParseISODate(Unknown); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParseISODate(unknown) error = %v, want ErrInvalidDate", err)
	}
}

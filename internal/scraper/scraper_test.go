package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

var fixedNow = func() time.Time { return time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC) }

// calendarPage renders a page with one category block per label, in order
func calendarPage(labels ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="tommekalender">`)
	for i, label := range labels {
		fmt.Fprintf(&b, `
			<div class="tommekalender__next__category">
				<h3 class="tommekalender__next__title">Fraksjon %d</h3>
				<p class="tommekalender__next__date">%s</p>
			</div>`, i, label)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

var fullPage = calendarPage("12. mars", "5. mars", "12. mars", "19. mars", "2. april")

func TestFetchSchedule(t *testing.T) {
	tests := []struct {
		name        string
		htmlContent string
		statusCode  int
		wantError   bool
		wantDates   map[waste.Category]string
	}{
		{
			name:        "successful fetch",
			htmlContent: fullPage,
			statusCode:  http.StatusOK,
			wantDates: map[waste.Category]string{
				waste.CategoryRest:       "2026-03-12",
				waste.CategoryFood:       "2026-03-05",
				waste.CategoryPaper:      "2026-03-12",
				waste.CategoryPlastic:    "2026-03-19",
				waste.CategoryGlassMetal: "2026-04-02",
			},
		},
		{
			name:        "HTTP error",
			htmlContent: "",
			statusCode:  http.StatusServiceUnavailable,
			wantError:   true,
		},
		{
			name:        "empty page",
			htmlContent: `<html><body><p>Ingen data</p></body></html>`,
			statusCode:  http.StatusOK,
			wantError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if userAgent := r.Header.Get("User-Agent"); !strings.Contains(userAgent, "him-waste") {
					t.Errorf("User-Agent = %q, should contain 'him-waste'", userAgent)
				}
				if id := r.URL.Query().Get(PropertyParam); id != "12345" {
					t.Errorf("%s = %q, want 12345", PropertyParam, id)
				}

				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.htmlContent))
			}))
			defer server.Close()

			s := New(WithBaseURL(server.URL+"/tommekalender/"), WithClock(fixedNow))

			schedule, err := s.FetchSchedule(context.Background(), "12345")
			if tt.wantError {
				if err == nil {
					t.Error("FetchSchedule() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchSchedule() unexpected error: %v", err)
			}
			if schedule.PropertyID != "12345" {
				t.Errorf("PropertyID = %q, want 12345", schedule.PropertyID)
			}
			for cat, want := range tt.wantDates {
				if got := schedule.Value(cat); got != want {
					t.Errorf("Value(%s) = %q, want %q", cat, got, want)
				}
			}
		})
	}
}

func TestFetchSchedule_EmptyPropertyID(t *testing.T) {
	s := New()
	if _, err := s.FetchSchedule(context.Background(), "  "); err == nil {
		t.Error("FetchSchedule() with blank property ID should fail")
	}
}

func TestFetchSchedule_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fullPage))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(WithBaseURL(server.URL))
	if _, err := s.FetchSchedule(ctx, "1"); !errors.Is(err, context.Canceled) {
		t.Errorf("FetchSchedule() error = %v, want context.Canceled", err)
	}
}

func TestFetchSchedule_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	s := New(WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))
	if _, err := s.FetchSchedule(context.Background(), "1"); err == nil {
		t.Error("FetchSchedule() expected timeout error")
	}
}

func TestParseSchedule_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		wantErr error
		check   func(*testing.T, *waste.Schedule)
	}{
		{
			name:    "too few categories",
			html:    calendarPage("12. mars", "5. mars", "12. mars"),
			wantErr: ErrIncompleteData,
		},
		{
			name: "missing date element",
			html: strings.Replace(fullPage,
				`<p class="tommekalender__next__date">19. mars</p>`, `<p>19. mars</p>`, 1),
			wantErr: ErrMissingDate,
		},
		{
			name:    "unknown month name",
			html:    calendarPage("12. mars", "5. mars", "12. march", "19. mars", "2. april"),
			wantErr: waste.ErrInvalidDate,
		},
		{
			name:    "label without separator",
			html:    calendarPage("12. mars", "5 mars", "12. mars", "19. mars", "2. april"),
			wantErr: waste.ErrInvalidDate,
		},
		{
			name: "extra category blocks are ignored",
			html: calendarPage("12. mars", "5. mars", "12. mars", "19. mars", "2. april", "not a date"),
			check: func(t *testing.T, s *waste.Schedule) {
				if len(s.Dates) != len(waste.Categories) {
					t.Errorf("got %d dates, want %d", len(s.Dates), len(waste.Categories))
				}
			},
		},
		{
			name: "nested markup and case",
			html: calendarPage("<span>1.</span> <strong>Januar</strong>", "5. mars", "12. mars", "19. mars", "2. april"),
			check: func(t *testing.T, s *waste.Schedule) {
				if got := s.Value(waste.CategoryRest); got != "2026-01-01" {
					t.Errorf("Value(rest) = %q, want 2026-01-01", got)
				}
			},
		},
		{
			name: "year comes from the clock",
			html: fullPage,
			check: func(t *testing.T, s *waste.Schedule) {
				d, ok := s.Date(waste.CategoryGlassMetal)
				if !ok || d.Year() != 2026 {
					t.Errorf("Date(glass_metall) = %v, %v; want year 2026", d, ok)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(WithClock(fixedNow))
			schedule, err := s.parseSchedule(strings.NewReader(tt.html), "1")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseSchedule() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSchedule() error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, schedule)
			}
		})
	}
}

func TestPropertyURL(t *testing.T) {
	s := New()
	got, err := s.PropertyURL("98 7")
	if err != nil {
		t.Fatalf("PropertyURL() error: %v", err)
	}
	if got != "https://him.as/tommekalender/?eiendomId=98+7" {
		t.Errorf("PropertyURL() = %q", got)
	}
}

func TestNew(t *testing.T) {
	s := New()

	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.client == nil {
		t.Error("scraper client is nil")
	}
	if s.client.Timeout != Timeout {
		t.Errorf("client timeout = %v, want %v", s.client.Timeout, Timeout)
	}
	if s.url != CalendarURL {
		t.Errorf("scraper url = %q, want %q", s.url, CalendarURL)
	}
}

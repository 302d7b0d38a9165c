package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/him-waste/internal/logger"
	"github.com/pfrederiksen/him-waste/internal/waste"
)

const (
	CalendarURL      = "https://him.as/tommekalender/"
	UserAgent        = "him-waste/1.0 (github.com/pfrederiksen/him-waste)"
	Timeout          = 30 * time.Second
	PropertyParam    = "eiendomId"
	CategorySelector = ".tommekalender__next__category"
	DateSelector     = ".tommekalender__next__date"
)

var (
	// ErrIncompleteData is returned when the page lists fewer category blocks than expected
	ErrIncompleteData = errors.New("incomplete category data in response")
	// ErrMissingDate is returned when a category block has no date element
	ErrMissingDate = errors.New("missing date element")
)

// Scraper handles fetching and parsing the waste calendar page
type Scraper struct {
	client *http.Client
	url    string
	now    func() time.Time
}

// Option configures a Scraper
type Option func(*Scraper)

// WithBaseURL points the scraper at a different calendar page
func WithBaseURL(u string) Option {
	return func(s *Scraper) {
		if u != "" {
			s.url = u
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithClock overrides the clock used to pick the year for parsed dates
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) {
		s.now = now
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url: CalendarURL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PropertyURL returns the calendar page URL for a property
func (s *Scraper) PropertyURL(propertyID string) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	q := u.Query()
	q.Set(PropertyParam, propertyID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchSchedule fetches the calendar page for a property and parses every category date
func (s *Scraper) FetchSchedule(ctx context.Context, propertyID string) (*waste.Schedule, error) {
	if strings.TrimSpace(propertyID) == "" {
		return nil, fmt.Errorf("property ID is required")
	}

	pageURL, err := s.PropertyURL(propertyID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	logger.RecordTiming("scrape.fetch", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return s.parseSchedule(resp.Body, propertyID)
}

// parseSchedule extracts category dates from the calendar HTML
func (s *Scraper) parseSchedule(r io.Reader, propertyID string) (*waste.Schedule, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	blocks := doc.Find(CategorySelector)
	if blocks.Length() < len(waste.Categories) {
		return nil, fmt.Errorf("%w: found %d of %d categories", ErrIncompleteData, blocks.Length(), len(waste.Categories))
	}

	year := s.now().Year()
	schedule := waste.NewSchedule(propertyID)

	// Blocks beyond the known categories are ignored
	for i, cat := range waste.Categories {
		dateElem := blocks.Eq(i).Find(DateSelector).First()
		if dateElem.Length() == 0 {
			return nil, fmt.Errorf("%w for %s", ErrMissingDate, cat)
		}

		text := strings.TrimSpace(dateElem.Text())
		d, err := waste.ParseDayMonth(text, year)
		if err != nil {
			return nil, fmt.Errorf("parsing date for %s: %w", cat, err)
		}
		schedule.Set(cat, d)
	}

	return schedule, nil
}

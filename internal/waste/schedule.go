package waste

import (
	"sort"
	"strings"
	"time"
)

// Schedule holds the next pickup date per category for one property
type Schedule struct {
	PropertyID  string              `json:"property_id"`
	Dates       map[Category]string `json:"dates"` // category → YYYY-MM-DD
	LastRefresh time.Time           `json:"last_refresh,omitempty"`
}

// Collection is a single pickup day and the categories collected on it
type Collection struct {
	Date       time.Time  `json:"date"`
	Categories []Category `json:"categories"`
}

// NewSchedule creates an empty schedule for a property
func NewSchedule(propertyID string) *Schedule {
	return &Schedule{
		PropertyID: propertyID,
		Dates:      make(map[Category]string),
	}
}

// Set records the pickup date for a category
func (s *Schedule) Set(c Category, d time.Time) {
	if s.Dates == nil {
		s.Dates = make(map[Category]string)
	}
	s.Dates[c] = FormatDate(d)
}

// Value returns the ISO date for a category, or Unknown when none is known
func (s *Schedule) Value(c Category) string {
	if s == nil {
		return Unknown
	}
	if v, ok := s.Dates[c]; ok && v != "" {
		return v
	}
	return Unknown
}

// Date returns the parsed pickup date for a category
func (s *Schedule) Date(c Category) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	t, err := ParseISODate(s.Dates[c])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Values returns every known category mapped to its value, including Unknown entries.
func (s *Schedule) Values() map[string]string {
	out := make(map[string]string, len(Categories))
	for _, c := range Categories {
		out[string(c)] = s.Value(c)
	}
	if s != nil {
		for c, v := range s.Dates {
			if _, ok := out[string(c)]; !ok {
				out[string(c)] = v
			}
		}
	}
	return out
}

// IsEmpty reports whether the schedule holds no dates
func (s *Schedule) IsEmpty() bool {
	return s == nil || len(s.Dates) == 0
}

// Clone returns a deep copy of the schedule
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	out := &Schedule{
		PropertyID:  s.PropertyID,
		Dates:       make(map[Category]string, len(s.Dates)),
		LastRefresh: s.LastRefresh,
	}
	for c, v := range s.Dates {
		out.Dates[c] = v
	}
	return out
}

// Next returns the earliest pickup on or after today.
// If every known date is in the past, the earliest past date is returned instead.
func (s *Schedule) Next(today time.Time) (time.Time, bool) {
	today = Day(today)

	var earliest, earliestFuture time.Time
	for _, col := range s.Collections() {
		if earliest.IsZero() {
			earliest = col.Date
		}
		if earliestFuture.IsZero() && !col.Date.Before(today) {
			earliestFuture = col.Date
		}
	}

	if !earliestFuture.IsZero() {
		return earliestFuture, true
	}
	return earliest, !earliest.IsZero()
}

// Collections groups categories by pickup date, sorted by date.
// Categories with unparseable dates are skipped.
func (s *Schedule) Collections() []Collection {
	if s == nil {
		return nil
	}

	byDate := make(map[time.Time][]Category)
	for c := range s.Dates {
		d, ok := s.Date(c)
		if !ok {
			continue
		}
		byDate[d] = append(byDate[d], c)
	}

	collections := make([]Collection, 0, len(byDate))
	for d, cats := range byDate {
		sortCategories(cats)
		collections = append(collections, Collection{Date: d, Categories: cats})
	}
	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Date.Before(collections[j].Date)
	})
	return collections
}

// Between returns collections with start <= date < end
func (s *Schedule) Between(start, end time.Time) []Collection {
	start, end = Day(start), Day(end)

	var out []Collection
	for _, col := range s.Collections() {
		if !col.Date.Before(start) && col.Date.Before(end) {
			out = append(out, col)
		}
	}
	return out
}

// Has reports whether the collection includes category c
func (c Collection) Has(cat Category) bool {
	for _, x := range c.Categories {
		if x == cat {
			return true
		}
	}
	return false
}

// Names returns the display names of the collected categories
func (c Collection) Names() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.DisplayName())
	}
	return names
}

// Description joins the display names ("Restavfall, Matavfall")
func (c Collection) Description() string {
	return strings.Join(c.Names(), ", ")
}

// Icon returns the category icon for single-category days and the generic collection icon otherwise
func (c Collection) Icon() string {
	if len(c.Categories) == 1 {
		return c.Categories[0].Icon()
	}
	return CollectionIcon
}

// DaysFrom returns the number of whole days between today and the collection
func (c Collection) DaysFrom(today time.Time) int {
	return int(c.Date.Sub(Day(today)).Hours() / 24)
}

func sortCategories(cats []Category) {
	sort.Slice(cats, func(i, j int) bool {
		ii, jj := cats[i].index(), cats[j].index()
		if ii != jj {
			return ii < jj
		}
		return cats[i] < cats[j]
	})
}

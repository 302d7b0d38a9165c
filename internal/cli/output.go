package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Entry is one category line of the check output
type Entry struct {
	Category    waste.Category `json:"category"`
	DisplayName string         `json:"display_name"`
	Date        string         `json:"date"`
	DaysUntil   *int           `json:"days_until,omitempty"`
}

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt   time.Time          `json:"checked_at"`
	PropertyID  string             `json:"property_id"`
	Values      map[string]string  `json:"values"`
	Next        string             `json:"next"`
	Entries     []Entry            `json:"entries"`
	Collections []waste.Collection `json:"collections"`
	Changes     []*waste.Change    `json:"changes,omitempty"`
	LastRefresh time.Time          `json:"last_refresh"`
}

// entriesFor builds one entry per known category
func entriesFor(s *waste.Schedule, today time.Time) []Entry {
	entries := make([]Entry, 0, len(waste.Categories))
	for _, c := range waste.Categories {
		e := Entry{
			Category:    c,
			DisplayName: c.DisplayName(),
			Date:        s.Value(c),
		}
		if d, ok := s.Date(c); ok {
			days := waste.Collection{Date: d}.DaysFrom(today)
			e.DaysUntil = &days
		}
		entries = append(entries, e)
	}
	return entries
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	fmt.Fprintf(w, "Property %s, next collection: %s\n\n", result.PropertyID, result.Next)

	for _, e := range result.Entries {
		fmt.Fprintf(w, "  %-22s %s", e.DisplayName, e.Date)
		if verbose && e.DaysUntil != nil {
			fmt.Fprintf(w, "  (%s)", daysLabel(*e.DaysUntil))
		}
		fmt.Fprintln(w)
	}

	if len(result.Changes) > 0 {
		fmt.Fprintf(w, "\nChanges since last check:\n")
		for _, c := range result.Changes {
			fmt.Fprintf(w, "  %s\n", formatChange(c))
		}
	}

	if verbose && !result.LastRefresh.IsZero() {
		fmt.Fprintf(w, "\nLast refresh: %s\n", result.LastRefresh.Format(time.RFC3339))
	}
	return nil
}

func daysLabel(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

func formatChange(c *waste.Change) string {
	name := c.Category.DisplayName()
	switch c.ChangeType {
	case waste.ChangeNew:
		return fmt.Sprintf("NEW: %s %s", name, c.NewValue)
	case waste.ChangeRemoved:
		return fmt.Sprintf("REMOVED: %s (was %s)", name, c.OldValue)
	default:
		return fmt.Sprintf("CHANGED: %s %s -> %s", name, c.OldValue, c.NewValue)
	}
}

package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

// Notifier defines the interface for sending pickup reminders
type Notifier interface {
	// Notify sends one reminder per collection
	Notify(ctx context.Context, collections []waste.Collection) error
}

var weekdays = [...]string{"søndag", "mandag", "tirsdag", "onsdag", "torsdag", "fredag", "lørdag"}

var monthNames = [...]string{"", "januar", "februar", "mars", "april", "mai", "juni",
	"juli", "august", "september", "oktober", "november", "desember"}

// Due returns the collections exactly days days after today
func Due(s *waste.Schedule, today time.Time, days int) []waste.Collection {
	var due []waste.Collection
	for _, col := range s.Collections() {
		if col.DaysFrom(today) == days {
			due = append(due, col)
		}
	}
	return due
}

// FormatDate formats a date the way the calendar page does ("torsdag 12. mars")
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d. %s", weekdays[t.Weekday()], t.Day(), monthNames[t.Month()])
}

// relativeDay describes how far away a collection is
func relativeDay(days int) string {
	switch days {
	case 0:
		return "i dag"
	case 1:
		return "i morgen"
	default:
		return fmt.Sprintf("om %d dager", days)
	}
}

// formatReminder builds the plain-text reminder for a collection
func formatReminder(col waste.Collection, today time.Time) string {
	var b strings.Builder
	b.WriteString("🗑️ " + waste.CollectionSummary + " " + relativeDay(col.DaysFrom(today)) + "\n\n")
	b.WriteString("📅 " + FormatDate(col.Date) + "\n")
	for _, name := range col.Names() {
		b.WriteString("♻️ " + name + "\n")
	}
	return b.String()
}

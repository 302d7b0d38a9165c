// Package calendar turns waste schedules into calendar events and iCalendar feeds.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

const (
	ProductID = "-//HIM Waste//him-waste//NO"
	UIDDomain = "him.as"
	Timezone  = "Europe/Oslo"
)

// Event is one all-day collection event
type Event struct {
	Summary     string                  `json:"summary"`
	Description string                  `json:"description"`
	Start       time.Time               `json:"start"`
	End         time.Time               `json:"end"`
	Icon        string                  `json:"icon"`
	Categories  map[waste.Category]bool `json:"categories"`
}

// CategoryNames returns the display names of the event's categories in canonical order
func (e Event) CategoryNames() []string {
	names := make([]string, 0, len(e.Categories))
	for _, c := range waste.Categories {
		if e.Categories[c] {
			names = append(names, c.DisplayName())
		}
	}
	return names
}

// Options controls iCalendar generation
type Options struct {
	Name       string // X-WR-CALNAME, defaults to the collection summary
	AlarmHours int    // reminder this many hours before midnight of the pickup day, 0 disables
	SourceURL  string // URL attached to each event
	Now        func() time.Time
}

// NewEvent builds the calendar event of a collection day
func NewEvent(col waste.Collection) Event {
	cats := make(map[waste.Category]bool, len(col.Categories))
	for _, c := range col.Categories {
		cats[c] = true
	}
	return Event{
		Summary:     waste.CollectionSummary,
		Description: col.Description(),
		Start:       col.Date,
		End:         col.Date.AddDate(0, 0, 1),
		Icon:        col.Icon(),
		Categories:  cats,
	}
}

// Events returns one event per collection day with start <= day < end
func Events(s *waste.Schedule, start, end time.Time) []Event {
	cols := s.Between(start, end)
	events := make([]Event, 0, len(cols))
	for _, col := range cols {
		events = append(events, NewEvent(col))
	}
	return events
}

// NextEvent returns the event of the earliest known collection day.
// Unlike Schedule.Next it does not skip past days.
func NextEvent(s *waste.Schedule) (Event, bool) {
	cols := s.Collections()
	if len(cols) == 0 {
		return Event{}, false
	}
	return NewEvent(cols[0]), true
}

// GenerateICS generates an iCalendar (.ics) feed with one all-day event per collection day
func GenerateICS(s *waste.Schedule, opts Options) string {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	name := opts.Name
	if name == "" {
		name = waste.CollectionSummary
	}

	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(Timezone)

	stamp := now().UTC()
	for _, col := range s.Collections() {
		evt := NewEvent(col)

		ve := cal.AddEvent(eventUID(s.PropertyID, col.Date))
		ve.SetDtStampTime(stamp)
		ve.SetAllDayStartAt(evt.Start)
		ve.SetAllDayEndAt(evt.End)
		ve.SetSummary(evt.Summary)
		ve.SetDescription(evt.Description)
		ve.SetProperty(ical.ComponentPropertyCategories, strings.Join(col.Names(), ","))
		ve.SetProperty(ical.ComponentPropertyStatus, "CONFIRMED")
		ve.SetProperty(ical.ComponentPropertyTransp, "TRANSPARENT")
		if opts.SourceURL != "" {
			ve.SetURL(opts.SourceURL)
		}

		if opts.AlarmHours > 0 {
			alarm := ve.AddAlarm()
			alarm.SetProperty(ical.ComponentPropertyAction, "DISPLAY")
			alarm.SetProperty(ical.ComponentPropertyTrigger, fmt.Sprintf("-PT%dH", opts.AlarmHours))
			alarm.SetProperty(ical.ComponentPropertyDescription, alarmText(opts.AlarmHours, evt.Description))
		}
	}

	return cal.Serialize(ical.WithNewLineWindows)
}

// alarmText names how many days before the pickup an alarm fires. An alarm
// hours before midnight goes off ceil(hours/24) days before the pickup day.
func alarmText(hours int, description string) string {
	days := (hours + 23) / 24
	when := "i morgen"
	if days > 1 {
		when = fmt.Sprintf("om %d dager", days)
	}
	return waste.CollectionSummary + " " + when + ": " + description
}

// eventUID is stable per property and day so calendar clients update instead of duplicating
func eventUID(propertyID string, day time.Time) string {
	return fmt.Sprintf("%s-%s@%s", day.Format("20060102"), propertyID, UIDDomain)
}

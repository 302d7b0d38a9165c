// Package cli implements the command-line interface for him-waste.
//
// The cli package provides the Cobra-based commands: check fetches the calendar once
// and prints the schedule, ics writes an iCalendar feed, remind sends pickup reminders,
// history shows the persisted change log and serve runs the refresh loop together with
// the HTTP API and the optional Home Assistant publisher.
package cli

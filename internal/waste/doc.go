// Package waste provides the domain model for HIM waste collection schedules.
//
// The waste package defines the fixed set of collection categories, the Norwegian
// month table used to read "day. month" labels from the calendar page, and the
// Schedule state holder mapping each category to its next pickup date. Schedules can
// be grouped into per-day collections, queried by date range, and diffed between
// refreshes to detect moved pickups.
package waste

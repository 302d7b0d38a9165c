package cli

import (
	"sort"

	"github.com/pfrederiksen/him-waste/internal/waste"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate     SortOrder = "date"
	SortByCategory SortOrder = "category"
)

// sortEntries sorts entries in place. Entries keep canonical category order
// unless sorted by date, where unknown dates go last.
func sortEntries(entries []Entry, order SortOrder) {
	if order != SortByDate {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return compareByDate(entries[i], entries[j])
	})
}

// compareByDate reports whether entry i should come before entry j
func compareByDate(i, j Entry) bool {
	known := func(e Entry) bool { return e.Date != waste.Unknown }

	if known(i) && known(j) {
		// ISO dates sort lexically
		return i.Date < j.Date
	}
	return known(i) && !known(j)
}

package waste

import "time"

// Change types reported by Diff
const (
	ChangeNew     = "new"
	ChangeDate    = "date"
	ChangeRemoved = "removed"
)

// Change represents a pickup date that differs between two schedules
type Change struct {
	Category   Category  `json:"category"`
	ChangeType string    `json:"change_type"` // "new", "date", "removed"
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	DetectedAt time.Time `json:"detected_at"`
}

// Diff compares two schedules and returns per-category changes in canonical category order
func Diff(previous, current *Schedule) []*Change {
	if previous == nil {
		previous = NewSchedule("")
	}
	if current == nil {
		current = NewSchedule(previous.PropertyID)
	}

	now := time.Now().UTC()
	seen := make(map[Category]bool)
	var cats []Category
	for c := range previous.Dates {
		if !seen[c] {
			seen[c] = true
			cats = append(cats, c)
		}
	}
	for c := range current.Dates {
		if !seen[c] {
			seen[c] = true
			cats = append(cats, c)
		}
	}
	sortCategories(cats)

	var changes []*Change
	for _, c := range cats {
		oldVal, hadOld := previous.Dates[c]
		newVal, hasNew := current.Dates[c]

		switch {
		case !hadOld && hasNew:
			changes = append(changes, &Change{Category: c, ChangeType: ChangeNew, NewValue: newVal, DetectedAt: now})
		case hadOld && !hasNew:
			changes = append(changes, &Change{Category: c, ChangeType: ChangeRemoved, OldValue: oldVal, DetectedAt: now})
		case oldVal != newVal:
			changes = append(changes, &Change{Category: c, ChangeType: ChangeDate, OldValue: oldVal, NewValue: newVal, DetectedAt: now})
		}
	}

	return changes
}

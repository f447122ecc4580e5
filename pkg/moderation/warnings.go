package moderation

import (
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/samber/lo"
)

// WarningList is the ordered warning history of one member in one guild.
// Insertion order is kept for chronological display.
type WarningList []models.Warn

// Add appends a warning. No deduplication is done.
func (l WarningList) Add(w models.Warn) WarningList {
	return append(l, w)
}

// Prune drops every non-permanent warning that expired at or before now.
func (l WarningList) Prune(now time.Time) WarningList {
	return lo.Filter(l, func(w models.Warn, _ int) bool {
		return w.ActiveAt(now)
	})
}

// ActivePoints sums the points of the warnings Prune would keep at now.
func (l WarningList) ActivePoints(now time.Time) int {
	return lo.SumBy(l.Prune(now), func(w models.Warn) int {
		return w.Points
	})
}

// Partition splits the list into active and expired warnings without
// modifying it.
func (l WarningList) Partition(now time.Time) (active, expired WarningList) {
	active, expired = WarningList{}, WarningList{}
	for _, w := range l {
		if w.ActiveAt(now) {
			active = append(active, w)
		} else {
			expired = append(expired, w)
		}
	}
	return active, expired
}

// Remove deletes the warning with the given id.
func (l WarningList) Remove(id string) (WarningList, models.Warn, bool) {
	for i, w := range l {
		if w.ID == id {
			out := make(WarningList, 0, len(l)-1)
			out = append(out, l[:i]...)
			out = append(out, l[i+1:]...)
			return out, w, true
		}
	}
	return l, models.Warn{}, false
}

// Find returns the warning with the given id
func (l WarningList) Find(id string) (models.Warn, bool) {
	return lo.Find(l, func(w models.Warn) bool { return w.ID == id })
}

// Package interest persists interests. Both stores enforce one interest per
// (tenant, room) pair and report a duplicate as sentinel.ErrConflict.
package interest

import (
	"sort"

	"rentmeroom/internal/interest/models"
)

func clone(i *models.Interest) *models.Interest {
	c := *i
	return &c
}

// fifo orders oldest first. Equal timestamps keep their input order.
func fifo(items []*models.Interest) {
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt.Before(items[b].CreatedAt)
	})
}

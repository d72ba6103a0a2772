package core

import "sort"

// SortByDateDesc orders expenses newest first. Ties are broken by
// creation time, newest first, so the order is stable across backends.
func SortByDateDesc(items []Expense) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date.Time) {
			return items[i].Date.After(items[j].Date.Time)
		}
		return items[i].CreatedAt > items[j].CreatedAt
	})
}

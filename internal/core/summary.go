package core

import (
	"sort"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// WeekAmount represents an amount aggregated by ISO week label.
type WeekAmount struct {
	Week   string  `json:"week"`
	Amount float64 `json:"amount"`
}

// Summary is a consistent snapshot of the ledger totals.
type Summary struct {
	Count        int              `json:"count"`
	TotalIncome  float64          `json:"total_income"`
	TotalExpense float64          `json:"total_expense"`
	Balance      float64          `json:"balance"`
	ByCategory   []CategoryAmount `json:"by_category"`
	ByWeek       []WeekAmount     `json:"by_week"`
}

// SortedCategories orders category totals by the fixed label order;
// labels outside the set (legacy records) go last, alphabetically.
func SortedCategories(m map[string]float64) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(m))
	for _, c := range Categories {
		if v, ok := m[c]; ok {
			out = append(out, CategoryAmount{Name: c, Amount: v})
		}
	}
	var extra []string
	for name := range m {
		if !IsCategory(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, CategoryAmount{Name: name, Amount: m[name]})
	}
	return out
}

// SortedWeeks orders week totals chronologically. ISO labels sort lexically.
func SortedWeeks(m map[string]float64) []WeekAmount {
	weeks := make([]string, 0, len(m))
	for w := range m {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)
	out := make([]WeekAmount, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, WeekAmount{Week: w, Amount: m[w]})
	}
	return out
}

package models

import (
	"testing"
	"time"
)

func TestBudgetWindow(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			t.Fatalf("bad date %q: %v", s, err)
		}
		return d
	}

	tests := []struct {
		name     string
		budget   Budget
		day      string
		from, to string
	}{
		{name: "monthly", budget: Budget{Period: BudgetMonthly}, day: "2024-02-14", from: "2024-02-01", to: "2024-02-29"},
		{name: "monthly on the last day", budget: Budget{Period: BudgetMonthly}, day: "2024-12-31", from: "2024-12-01", to: "2024-12-31"},
		{name: "weekly midweek", budget: Budget{Period: BudgetWeekly}, day: "2024-03-06", from: "2024-03-04", to: "2024-03-10"},
		{name: "weekly on sunday", budget: Budget{Period: BudgetWeekly}, day: "2024-03-10", from: "2024-03-04", to: "2024-03-10"},
		{name: "weekly across months", budget: Budget{Period: BudgetWeekly}, day: "2024-03-01", from: "2024-02-26", to: "2024-03-03"},
		{
			name:   "clipped to active dates",
			budget: Budget{Period: BudgetMonthly, StartDate: "2024-03-10", EndDate: "2024-03-20"},
			day:    "2024-03-15", from: "2024-03-10", to: "2024-03-20",
		},
		{
			name:   "active dates outside the period",
			budget: Budget{Period: BudgetWeekly, StartDate: "2024-01-01", EndDate: "2024-12-31"},
			day:    "2024-03-06", from: "2024-03-04", to: "2024-03-10",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := tt.budget.Window(day(tt.day))
			if err != nil {
				t.Fatalf("Window failed: %v", err)
			}
			if from != tt.from || to != tt.to {
				t.Errorf("Window(%s) = %s..%s, want %s..%s", tt.day, from, to, tt.from, tt.to)
			}
		})
	}

	if _, _, err := (&Budget{Period: "yearly"}).Window(day("2024-03-06")); err == nil {
		t.Error("expected error for unknown period")
	}
}

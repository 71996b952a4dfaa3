package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPeriod is the length of the window a budget limit applies to.
type BudgetPeriod string

const (
	BudgetMonthly BudgetPeriod = "monthly"
	BudgetWeekly  BudgetPeriod = "weekly"
)

// Valid reports whether p is a known period.
func (p BudgetPeriod) Valid() bool {
	return p == BudgetMonthly || p == BudgetWeekly
}

// Budget caps the owner's personal spending in one category, or across
// all categories when CategoryID is empty, per period.
type Budget struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`

	// CategoryID is the capped category; "" is an overall budget.
	CategoryID string `db:"category_id"`

	Period BudgetPeriod    `db:"period"`
	Amount decimal.Decimal `db:"amount"`

	// StartDate and EndDate optionally bound when the budget is active,
	// formatted with DateLayout.
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`

	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`
}

// Window returns the first and last day of the budget period containing
// day, clipped to StartDate and EndDate. Weeks start on Monday.
func (b *Budget) Window(day time.Time) (from, to string, err error) {
	y, m, d := day.Date()
	var start, end time.Time
	switch b.Period {
	case BudgetMonthly:
		start = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, -1)
	case BudgetWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start = time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 6)
	default:
		return "", "", fmt.Errorf("unknown budget period %q", b.Period)
	}

	from, to = start.Format(DateLayout), end.Format(DateLayout)
	if b.StartDate != "" && b.StartDate > from {
		from = b.StartDate
	}
	if b.EndDate != "" && b.EndDate < to {
		to = b.EndDate
	}
	return from, to, nil
}

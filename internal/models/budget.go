package models

import "github.com/shopspring/decimal"

// EntryKind distinguishes incomes from fixed costs.
type EntryKind string

const (
	KindIncome    EntryKind = "income"
	KindFixedCost EntryKind = "fixed_cost"
)

// Valid reports whether k is a known entry kind.
func (k EntryKind) Valid() bool {
	return k == KindIncome || k == KindFixedCost
}

// BudgetEntry is a recurring monthly income or fixed cost.
type BudgetEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	// OwnerID is the user the entry belongs to.
	OwnerID string

	Kind  EntryKind
	Label string

	// Amount is the monthly amount, always positive.
	Amount decimal.Decimal

	CreatedAt int64
}

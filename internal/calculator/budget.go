package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/billplanner/internal/models"
)

// Summary is the monthly budget picture for one user.
type Summary struct {
	Income      decimal.Decimal
	FixedCosts  decimal.Decimal
	OpenBills   decimal.Decimal // Sum of all open installments
	PaidBills   decimal.Decimal
	Available   decimal.Decimal // Income - FixedCosts - OpenBills, may be negative
	OpenCount   int             // Number of open installments
	BillsActive int             // Bills with at least one open installment
}

// Summarize aggregates budget entries and bills into a Summary.
//
// Algorithm:
// - Income and fixed costs are summed by entry kind
// - Each open installment adds its amount to OpenBills
// - Each bill's PaidAmount adds to PaidBills
// - Available = Income - FixedCosts - OpenBills
func Summarize(entries []*models.BudgetEntry, bills []*models.Bill) Summary {
	s := Summary{
		Income:     decimal.Zero,
		FixedCosts: decimal.Zero,
		OpenBills:  decimal.Zero,
		PaidBills:  decimal.Zero,
	}

	for _, e := range entries {
		switch e.Kind {
		case models.KindIncome:
			s.Income = s.Income.Add(e.Amount)
		case models.KindFixedCost:
			s.FixedCosts = s.FixedCosts.Add(e.Amount)
		}
	}

	for _, bill := range bills {
		active := false
		for _, inst := range bill.Installments {
			if inst.IsPaid() {
				continue
			}
			s.OpenBills = s.OpenBills.Add(inst.Amount)
			s.OpenCount++
			active = true
		}
		if active {
			s.BillsActive++
		}
		s.PaidBills = s.PaidBills.Add(bill.PaidAmount)
	}

	s.Available = s.Income.Sub(s.FixedCosts).Sub(s.OpenBills)
	return s
}

// Package allocator splits bill totals into installments and keeps the sum of
// a bill's installments equal to its total through edits and payments.
//
// Every function here is pure: it validates first, then returns a new bill
// value. Callers persist the result as a whole or not at all.
package allocator

import (
	"errors"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billplanner/internal/models"
)

var (
	ErrNegativeAmount        = errors.New("amount must not be negative")
	ErrInvalidPartsCount     = errors.New("parts count must be at least 1")
	ErrInstallmentNotFound   = errors.New("installment not found")
	ErrInstallmentPaid       = errors.New("installment already paid")
	ErrNoOpenInstallments    = errors.New("no open installments")
	ErrExceedsRemaining      = errors.New("amount exceeds remaining total")
	ErrInconsistentRemainder = errors.New("remaining amount has no open installment to go to")
	ErrBelowPaid             = errors.New("total is below the amount already paid")
	ErrTooFewParts           = errors.New("parts count is below the number of paid installments")
	ErrTooPrecise            = errors.New("amount has more than two decimal places")
)

// Allocate splits total into count installments. The first count-1 get
// round2(total/count) and the last takes the remainder, so the amounts always
// add up to total exactly.
func Allocate(total decimal.Decimal, count int) ([]decimal.Decimal, error) {
	if total.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if count < 1 {
		return nil, ErrInvalidPartsCount
	}

	total = total.Round(2)
	n := decimal.NewFromInt(int64(count))
	rest := decimal.NewFromInt(int64(count - 1))

	even := total.Div(n).Round(2)
	// Rounding up can push the last share below zero for tiny totals
	// (0.02 over 4 parts); truncating keeps it non-negative.
	if even.Mul(rest).GreaterThan(total) {
		even = total.Div(n).Truncate(2)
	}

	amounts := make([]decimal.Decimal, count)
	for i := 0; i < count-1; i++ {
		amounts[i] = even
	}
	amounts[count-1] = total.Sub(even.Mul(rest))
	return amounts, nil
}

// NewBill builds a bill with its installments allocated. When inParts is
// false the bill gets a single installment regardless of partsCount.
func NewBill(ownerID, title string, total decimal.Decimal, inParts bool, partsCount int, dueAt int64) (*models.Bill, error) {
	if !inParts {
		partsCount = 1
	}
	amounts, err := Allocate(total, partsCount)
	if err != nil {
		return nil, err
	}

	bill := &models.Bill{
		OwnerID:      ownerID,
		Title:        title,
		TotalAmount:  total.Round(2),
		PaidAmount:   decimal.Zero,
		InParts:      inParts,
		PartsCount:   partsCount,
		DueAt:        dueAt,
		Installments: make([]models.Installment, partsCount),
	}
	for i, amount := range amounts {
		bill.Installments[i] = models.Installment{
			Index:  i + 1,
			Amount: amount,
			Status: models.StatusOpen,
		}
	}
	return bill, nil
}

// Rebalance sets one open installment to newAmount and spreads what is left
// of the total across the other open installments. Paid installments are
// never touched.
func Rebalance(bill *models.Bill, installmentID string, newAmount decimal.Decimal) (*models.Bill, error) {
	if newAmount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if !newAmount.Equal(newAmount.Round(2)) {
		return nil, ErrTooPrecise
	}
	newAmount = newAmount.Round(2)

	out := bill.Clone()
	sortByIndex(out.Installments)

	target := -1
	var others []int
	paidSum := decimal.Zero
	for i, inst := range out.Installments {
		switch {
		case inst.IsPaid():
			paidSum = paidSum.Add(inst.Amount)
		case inst.ID == installmentID:
			target = i
		default:
			others = append(others, i)
		}
	}

	if target < 0 {
		if len(others) == 0 {
			return nil, ErrNoOpenInstallments
		}
		if containsID(out.Installments, installmentID) {
			return nil, ErrInstallmentPaid
		}
		return nil, ErrInstallmentNotFound
	}

	remaining := out.TotalAmount.Sub(paidSum).Sub(newAmount)
	if remaining.IsNegative() {
		return nil, ErrExceedsRemaining
	}

	out.Installments[target].Amount = newAmount
	if len(others) == 0 {
		if !remaining.IsZero() {
			return nil, ErrInconsistentRemainder
		}
		return out, nil
	}

	amounts, err := Allocate(remaining, len(others))
	if err != nil {
		return nil, err
	}
	for i, idx := range others {
		out.Installments[idx].Amount = amounts[i]
	}
	return out, nil
}

// Regenerate applies a new total and part count to a bill. The open subset is
// resized to partsCount minus the paid installments and re-allocated over the
// unpaid remainder.
func Regenerate(bill *models.Bill, total decimal.Decimal, inParts bool, partsCount int) (*models.Bill, error) {
	if total.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if !inParts {
		partsCount = 1
	}
	if partsCount < 1 {
		return nil, ErrInvalidPartsCount
	}
	total = total.Round(2)

	var paid, open []models.Installment
	paidSum := decimal.Zero
	maxIndex := 0
	for _, inst := range bill.Installments {
		if inst.Index > maxIndex {
			maxIndex = inst.Index
		}
		if inst.IsPaid() {
			paid = append(paid, inst)
			paidSum = paidSum.Add(inst.Amount)
		} else {
			open = append(open, inst)
		}
	}
	sortByIndex(open)

	if total.LessThan(paidSum) {
		return nil, ErrBelowPaid
	}
	if partsCount < len(paid) {
		return nil, ErrTooFewParts
	}

	openCount := partsCount - len(paid)
	remaining := total.Sub(paidSum)
	if openCount == 0 && !remaining.IsZero() {
		return nil, ErrInconsistentRemainder
	}

	var amounts []decimal.Decimal
	if openCount > 0 {
		var err error
		if amounts, err = Allocate(remaining, openCount); err != nil {
			return nil, err
		}
	}

	out := bill.Clone()
	out.TotalAmount = total
	out.PaidAmount = paidSum
	out.InParts = inParts
	out.PartsCount = partsCount
	out.Installments = append(make([]models.Installment, 0, partsCount), paid...)
	for i := 0; i < openCount; i++ {
		var inst models.Installment
		if i < len(open) {
			inst = open[i]
		} else {
			maxIndex++
			inst = models.Installment{BillID: bill.ID, Index: maxIndex, Status: models.StatusOpen}
		}
		inst.Amount = amounts[i]
		out.Installments = append(out.Installments, inst)
	}
	sortByIndex(out.Installments)
	return out, nil
}

func sortByIndex(insts []models.Installment) {
	slices.SortFunc(insts, func(a, b models.Installment) int {
		return a.Index - b.Index
	})
}

func containsID(insts []models.Installment, id string) bool {
	return slices.ContainsFunc(insts, func(inst models.Installment) bool {
		return inst.ID == id
	})
}

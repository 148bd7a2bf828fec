package allocator

import (
	"github.com/mmynk/billplanner/internal/models"
)

// SettlePart marks one open installment paid and adds its recorded amount to
// the bill's paid amount.
func SettlePart(bill *models.Bill, installmentID string, now int64) (*models.Bill, error) {
	out := bill.Clone()
	for i := range out.Installments {
		inst := &out.Installments[i]
		if inst.ID != installmentID {
			continue
		}
		if inst.IsPaid() {
			return nil, ErrInstallmentPaid
		}
		paid := out.PaidAmount.Add(inst.Amount)
		if paid.GreaterThan(out.TotalAmount) {
			return nil, ErrExceedsRemaining
		}
		inst.Status = models.StatusPaid
		inst.PaidAt = now
		out.PaidAmount = paid
		return out, nil
	}
	return nil, ErrInstallmentNotFound
}

// SettleFull pays every open installment and sets the paid amount to the
// total. The second return value is false when the bill was already settled,
// in which case the bill is returned unchanged.
func SettleFull(bill *models.Bill, now int64) (*models.Bill, bool) {
	if bill.IsSettled() {
		return bill, false
	}
	out := bill.Clone()
	for i := range out.Installments {
		if !out.Installments[i].IsPaid() {
			out.Installments[i].Status = models.StatusPaid
			out.Installments[i].PaidAt = now
		}
	}
	out.PaidAmount = out.TotalAmount
	return out, true
}

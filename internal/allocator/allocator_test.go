package allocator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billplanner/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func installmentSum(bill *models.Bill) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range bill.Installments {
		total = total.Add(inst.Amount)
	}
	return total
}

// billWithIDs allocates a bill and gives installments stable IDs "i1".."iN".
func billWithIDs(t *testing.T, total string, parts int) *models.Bill {
	t.Helper()
	bill, err := NewBill("owner", "Rent", d(total), parts > 1, parts, 0)
	require.NoError(t, err)
	bill.ID = "bill"
	for i := range bill.Installments {
		bill.Installments[i].ID = "i" + string(rune('0'+i+1))
		bill.Installments[i].BillID = bill.ID
	}
	return bill
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name  string
		total string
		count int
		want  []string
	}{
		{"hundred in three", "100.00", 3, []string{"33.33", "33.33", "33.34"}},
		{"single part", "42.50", 1, []string{"42.5"}},
		{"even split", "90", 3, []string{"30", "30", "30"}},
		{"rounds even share up", "2", 3, []string{"0.67", "0.67", "0.66"}},
		{"tiny total truncates", "0.02", 4, []string{"0", "0", "0", "0.02"}},
		{"zero total", "0", 2, []string{"0", "0"}},
		{"total rounded first", "10.005", 2, []string{"5.01", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Allocate(d(tt.total), tt.count)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i, w := range tt.want {
				assert.True(t, d(w).Equal(got[i]), "installment %d: got %s, want %s", i+1, got[i], w)
			}
		})
	}
}

func TestAllocate_Errors(t *testing.T) {
	_, err := Allocate(d("-1"), 2)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Allocate(d("10"), 0)
	assert.ErrorIs(t, err, ErrInvalidPartsCount)
}

func TestAllocate_SumAndShape(t *testing.T) {
	totals := []string{"0", "0.01", "0.02", "0.99", "1", "9.99", "100", "100.01", "1234.56", "99999.99"}
	for _, total := range totals {
		for count := 1; count <= 13; count++ {
			amounts, err := Allocate(d(total), count)
			require.NoError(t, err)

			assert.True(t, sum(amounts).Equal(d(total)), "sum of %s/%d = %s", total, count, sum(amounts))
			for i, a := range amounts {
				assert.False(t, a.IsNegative(), "%s/%d installment %d negative: %s", total, count, i+1, a)
				if i > 0 && i < count-1 {
					assert.True(t, a.Equal(amounts[0]), "%s/%d installment %d differs from even share", total, count, i+1)
				}
			}
		}
	}
}

func TestNewBill(t *testing.T) {
	bill, err := NewBill("u1", "Phone", d("100"), true, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, bill.PartsCount)
	require.Len(t, bill.Installments, 3)
	assert.Equal(t, 1, bill.Installments[0].Index)
	assert.Equal(t, models.StatusOpen, bill.Installments[2].Status)
	assert.True(t, installmentSum(bill).Equal(bill.TotalAmount))
	assert.True(t, bill.PaidAmount.IsZero())

	single, err := NewBill("u1", "Gas", d("80"), false, 6, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, single.PartsCount)
	require.Len(t, single.Installments, 1)
	assert.True(t, d("80").Equal(single.Installments[0].Amount))
}

func TestRebalance(t *testing.T) {
	bill := billWithIDs(t, "100.00", 3)

	got, err := Rebalance(bill, "i1", d("40.00"))
	require.NoError(t, err)

	assert.True(t, d("40").Equal(got.Installments[0].Amount))
	assert.True(t, d("30").Equal(got.Installments[1].Amount))
	assert.True(t, d("30").Equal(got.Installments[2].Amount))
	assert.True(t, installmentSum(got).Equal(got.TotalAmount))

	// the input bill is left as it was
	assert.True(t, d("33.33").Equal(bill.Installments[0].Amount))
}

func TestRebalance_SkipsPaid(t *testing.T) {
	bill := billWithIDs(t, "100.00", 4)
	bill, err := SettlePart(bill, "i1", 1000)
	require.NoError(t, err)

	got, err := Rebalance(bill, "i2", d("10"))
	require.NoError(t, err)

	assert.True(t, d("25").Equal(got.Installments[0].Amount), "paid installment must not move")
	assert.True(t, d("10").Equal(got.Installments[1].Amount))
	// 100 - 25 paid - 10 = 65 over two open installments
	assert.True(t, d("32.5").Equal(got.Installments[2].Amount))
	assert.True(t, d("32.5").Equal(got.Installments[3].Amount))
	assert.True(t, installmentSum(got).Equal(got.TotalAmount))
}

func TestRebalance_Errors(t *testing.T) {
	bill := billWithIDs(t, "100.00", 3)

	_, err := Rebalance(bill, "i1", d("-5"))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Rebalance(bill, "i1", d("100.01"))
	assert.ErrorIs(t, err, ErrExceedsRemaining)

	_, err = Rebalance(bill, "missing", d("1"))
	assert.ErrorIs(t, err, ErrInstallmentNotFound)

	paid, err := SettlePart(bill, "i1", 1)
	require.NoError(t, err)
	_, err = Rebalance(paid, "i1", d("1"))
	assert.ErrorIs(t, err, ErrInstallmentPaid)

	// 33.33 paid, 66.67 left: 66.68 on one installment overshoots
	_, err = Rebalance(paid, "i2", d("66.68"))
	assert.ErrorIs(t, err, ErrExceedsRemaining)
}

func TestRebalance_Precision(t *testing.T) {
	bill := billWithIDs(t, "100.00", 3)

	_, err := Rebalance(bill, "i1", d("10.005"))
	assert.ErrorIs(t, err, ErrTooPrecise)

	got, err := Rebalance(bill, "i1", d("10.5000"))
	require.NoError(t, err, "trailing zeros are not extra precision")
	assert.True(t, d("10.50").Equal(got.Installments[0].Amount))
	assert.True(t, installmentSum(got).Equal(got.TotalAmount))
}

func TestRebalance_LastOpenInstallment(t *testing.T) {
	bill := billWithIDs(t, "50.00", 2)
	bill, err := SettlePart(bill, "i1", 1)
	require.NoError(t, err)

	got, err := Rebalance(bill, "i2", d("25"))
	require.NoError(t, err)
	assert.True(t, installmentSum(got).Equal(d("50")))

	_, err = Rebalance(bill, "i2", d("20"))
	assert.ErrorIs(t, err, ErrInconsistentRemainder)
}

func TestRebalance_FullySettled(t *testing.T) {
	bill := billWithIDs(t, "50.00", 2)
	settled, changed := SettleFull(bill, 1)
	require.True(t, changed)

	_, err := Rebalance(settled, "i2", d("10"))
	assert.ErrorIs(t, err, ErrNoOpenInstallments)
}

func TestRegenerate(t *testing.T) {
	t.Run("grows open subset", func(t *testing.T) {
		bill := billWithIDs(t, "90", 3)
		bill, err := SettlePart(bill, "i1", 1)
		require.NoError(t, err)

		got, err := Regenerate(bill, d("150"), true, 5)
		require.NoError(t, err)

		require.Len(t, got.Installments, 5)
		assert.True(t, d("30").Equal(got.Installments[0].Amount))
		assert.True(t, got.Installments[0].IsPaid())
		for _, inst := range got.Installments[1:] {
			assert.True(t, d("30").Equal(inst.Amount), "installment %d = %s", inst.Index, inst.Amount)
			assert.False(t, inst.IsPaid())
		}
		assert.Equal(t, "i2", got.Installments[1].ID, "existing open installments are reused")
		assert.Empty(t, got.Installments[4].ID)
		assert.Equal(t, 5, got.Installments[4].Index)
		assert.True(t, installmentSum(got).Equal(got.TotalAmount))
		assert.True(t, d("30").Equal(got.PaidAmount))
	})

	t.Run("shrinks open subset", func(t *testing.T) {
		bill := billWithIDs(t, "100", 4)
		got, err := Regenerate(bill, d("100"), true, 2)
		require.NoError(t, err)
		require.Len(t, got.Installments, 2)
		assert.Equal(t, "i1", got.Installments[0].ID)
		assert.Equal(t, "i2", got.Installments[1].ID)
		assert.True(t, d("50").Equal(got.Installments[1].Amount))
	})

	t.Run("not in parts collapses to one", func(t *testing.T) {
		bill := billWithIDs(t, "100", 4)
		got, err := Regenerate(bill, d("120"), false, 4)
		require.NoError(t, err)
		assert.Equal(t, 1, got.PartsCount)
		require.Len(t, got.Installments, 1)
		assert.True(t, d("120").Equal(got.Installments[0].Amount))
	})

	t.Run("rejects invalid edits", func(t *testing.T) {
		bill := billWithIDs(t, "100", 4)
		bill, err := SettlePart(bill, "i1", 1)
		require.NoError(t, err)
		bill, err = SettlePart(bill, "i2", 1)
		require.NoError(t, err)

		_, err = Regenerate(bill, d("49.99"), true, 4)
		assert.ErrorIs(t, err, ErrBelowPaid)

		_, err = Regenerate(bill, d("100"), true, 1)
		assert.ErrorIs(t, err, ErrTooFewParts)

		_, err = Regenerate(bill, d("60"), true, 2)
		assert.ErrorIs(t, err, ErrInconsistentRemainder)

		_, err = Regenerate(bill, d("-1"), true, 2)
		assert.ErrorIs(t, err, ErrNegativeAmount)

		got, err := Regenerate(bill, d("50"), true, 2)
		require.NoError(t, err)
		assert.Len(t, got.Installments, 2)
	})
}

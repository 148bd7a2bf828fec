package models

import "github.com/shopspring/decimal"

// InstallmentStatus is the lifecycle state of an installment.
type InstallmentStatus string

const (
	StatusOpen InstallmentStatus = "open"
	StatusPaid InstallmentStatus = "paid"
)

// Bill represents a payable amount owned by one user.
// It is split into PartsCount installments when InParts is set, otherwise
// it carries a single installment.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// OwnerID is the user who created the bill.
	OwnerID string

	// Title is the human-readable name for the bill (e.g., "Electricity").
	Title string

	// TotalAmount is the full amount of the bill.
	TotalAmount decimal.Decimal

	// PaidAmount is the sum of all paid installments. Never exceeds TotalAmount.
	PaidAmount decimal.Decimal

	// InParts reports whether the bill is paid in several installments.
	InParts bool

	// PartsCount is the number of installments (1 when InParts is false).
	PartsCount int

	// DueAt is an optional Unix timestamp for the first due date (0 = none).
	DueAt int64

	// Installments are ordered by Index.
	Installments []Installment

	// Revision starts at 1 and grows by one with every stored change.
	Revision int64

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Installment is one scheduled portion of a bill's total amount.
type Installment struct {
	ID     string
	BillID string

	// Index is the 1-based position of the installment within its bill.
	Index int

	Amount decimal.Decimal
	Status InstallmentStatus

	// PaidAt is the Unix timestamp the installment was settled (0 while open).
	PaidAt int64
}

// IsPaid reports whether the installment has been settled.
func (i Installment) IsPaid() bool {
	return i.Status == StatusPaid
}

// Clone returns a deep copy of the bill so callers can derive a new state
// without touching the original.
func (b *Bill) Clone() *Bill {
	out := *b
	out.Installments = make([]Installment, len(b.Installments))
	copy(out.Installments, b.Installments)
	return &out
}

// OpenAmount is the part of the total that is still unpaid.
func (b *Bill) OpenAmount() decimal.Decimal {
	return b.TotalAmount.Sub(b.PaidAmount)
}

// IsSettled reports whether every installment has been paid.
func (b *Bill) IsSettled() bool {
	for _, inst := range b.Installments {
		if !inst.IsPaid() {
			return false
		}
	}
	return b.PaidAmount.Equal(b.TotalAmount)
}

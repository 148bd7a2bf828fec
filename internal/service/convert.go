package service

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/billplanner/internal/allocator"
	"github.com/mmynk/billplanner/internal/api"
	"github.com/mmynk/billplanner/internal/calculator"
	"github.com/mmynk/billplanner/internal/models"
	"github.com/mmynk/billplanner/internal/storage"
)

// errNotOwner is returned when a caller touches another user's record.
var errNotOwner = errors.New("record belongs to another user")

// requireUser returns the authenticated user ID or an Unauthenticated error.
func requireUser(userID string) error {
	if userID == "" {
		return connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	return nil
}

// toConnectError maps domain and storage errors onto Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, errNotOwner):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, allocator.ErrInstallmentNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, allocator.ErrNegativeAmount),
		errors.Is(err, allocator.ErrInvalidPartsCount),
		errors.Is(err, allocator.ErrTooPrecise):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, allocator.ErrExceedsRemaining),
		errors.Is(err, allocator.ErrInstallmentPaid),
		errors.Is(err, allocator.ErrNoOpenInstallments),
		errors.Is(err, allocator.ErrInconsistentRemainder),
		errors.Is(err, allocator.ErrBelowPaid),
		errors.Is(err, allocator.ErrTooFewParts):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func toAPIUser(user *models.User) *api.User {
	return &api.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}

func toAPIBill(bill *models.Bill) *api.Bill {
	out := &api.Bill{
		ID:           bill.ID,
		Title:        bill.Title,
		TotalAmount:  bill.TotalAmount,
		PaidAmount:   bill.PaidAmount,
		OpenAmount:   bill.OpenAmount(),
		InParts:      bill.InParts,
		PartsCount:   bill.PartsCount,
		DueAt:        bill.DueAt,
		Installments: make([]*api.Installment, len(bill.Installments)),
		Revision:     bill.Revision,
		CreatedAt:    bill.CreatedAt,
		UpdatedAt:    bill.UpdatedAt,
	}
	for i, inst := range bill.Installments {
		out.Installments[i] = &api.Installment{
			ID:     inst.ID,
			Index:  inst.Index,
			Amount: inst.Amount,
			Status: string(inst.Status),
			PaidAt: inst.PaidAt,
		}
	}
	return out
}

func toAPIBills(bills []*models.Bill) []*api.Bill {
	out := make([]*api.Bill, len(bills))
	for i, bill := range bills {
		out[i] = toAPIBill(bill)
	}
	return out
}

func toAPIEntry(entry *models.BudgetEntry) *api.BudgetEntry {
	return &api.BudgetEntry{
		ID:        entry.ID,
		Kind:      string(entry.Kind),
		Label:     entry.Label,
		Amount:    entry.Amount,
		CreatedAt: entry.CreatedAt,
	}
}

func toAPIEntries(entries []*models.BudgetEntry) []*api.BudgetEntry {
	out := make([]*api.BudgetEntry, len(entries))
	for i, entry := range entries {
		out[i] = toAPIEntry(entry)
	}
	return out
}

func toAPISummary(s calculator.Summary) *api.BudgetSummary {
	return &api.BudgetSummary{
		Income:           s.Income,
		FixedCosts:       s.FixedCosts,
		OpenBills:        s.OpenBills,
		PaidBills:        s.PaidBills,
		Available:        s.Available,
		OpenInstallments: s.OpenCount,
		ActiveBills:      s.BillsActive,
	}
}

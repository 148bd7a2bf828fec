package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/billplanner/internal/allocator"
	"github.com/mmynk/billplanner/internal/api"
	"github.com/mmynk/billplanner/internal/feed"
	"github.com/mmynk/billplanner/internal/middleware"
	"github.com/mmynk/billplanner/internal/models"
	"github.com/mmynk/billplanner/internal/storage"
)

// maxParts bounds the number of installments (and so writes) per bill.
const maxParts = 120

// BillService implements the Connect BillService
type BillService struct {
	store storage.Store
	hub   *feed.Hub
	now   func() time.Time
}

var _ api.BillServiceHandler = (*BillService)(nil)

// NewBillService creates a new BillService with the given storage backend.
// Changes are published to hub.
func NewBillService(store storage.Store, hub *feed.Hub) *BillService {
	return &BillService{store: store, hub: hub, now: time.Now}
}

// validateBillInput checks the fields shared by create and update.
func validateBillInput(title string, total *decimal.Decimal, inParts bool, partsCount int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title required")
	}
	if total == nil {
		return fmt.Errorf("total_amount required")
	}
	if total.IsNegative() {
		return allocator.ErrNegativeAmount
	}
	if inParts && (partsCount < 1 || partsCount > maxParts) {
		return fmt.Errorf("parts_count must be between 1 and %d", maxParts)
	}
	return nil
}

// ownedBy wraps a mutation with an ownership check that runs inside the
// storage transaction.
func ownedBy(userID string, fn storage.BillMutation) storage.BillMutation {
	return func(current *models.Bill) (*models.Bill, error) {
		if current.OwnerID != userID {
			return nil, errNotOwner
		}
		return fn(current)
	}
}

func (s *BillService) publish(userID string, bill *models.Bill) {
	s.hub.Publish(userID, feed.Change{
		Collection: feed.CollectionBills,
		Type:       feed.ChangeUpsert,
		ID:         bill.ID,
		Record:     toAPIBill(bill),
	})
}

// mutate runs fn against the caller's bill inside a storage transaction.
func (s *BillService) mutate(ctx context.Context, op, billID string, fn storage.BillMutation) (*models.Bill, error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if billID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("bill_id required"))
	}

	bill, err := s.store.MutateBill(ctx, billID, ownedBy(userID, fn))
	if err != nil {
		slog.Warn(op+" failed", "bill_id", billID, "error", err)
		return nil, toConnectError(err)
	}
	return bill, nil
}

// CreateBill splits a new bill into installments and persists both.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	msg := req.Msg
	if err := validateBillInput(msg.Title, msg.TotalAmount, msg.InParts, msg.PartsCount); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	bill, err := allocator.NewBill(userID, strings.TrimSpace(msg.Title), *msg.TotalAmount, msg.InParts, msg.PartsCount, msg.DueAt)
	if err != nil {
		return nil, toConnectError(err)
	}

	// Save to storage (generates IDs and timestamps)
	if err := s.store.CreateBill(ctx, bill); err != nil {
		slog.Error("CreateBill failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Debug("Bill created",
		"bill_id", bill.ID,
		"total", bill.TotalAmount,
		"parts", bill.PartsCount,
	)
	s.publish(userID, bill)

	return connect.NewResponse(&api.CreateBillResponse{Bill: toAPIBill(bill)}), nil
}

// GetBill retrieves one of the caller's bills.
func (s *BillService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	bill, err := s.store.GetBill(ctx, req.Msg.BillID)
	if err != nil {
		slog.Error("GetBill failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}
	if bill.OwnerID != userID {
		return nil, toConnectError(errNotOwner)
	}

	return connect.NewResponse(&api.GetBillResponse{Bill: toAPIBill(bill)}), nil
}

// ListBills retrieves all of the caller's bills.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	bills, err := s.store.ListBills(ctx, userID)
	if err != nil {
		slog.Error("ListBills failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.ListBillsResponse{Bills: toAPIBills(bills)}), nil
}

// UpdateBill changes a bill's title, total or split. Paid installments stay
// as they are and the open ones are regenerated.
func (s *BillService) UpdateBill(ctx context.Context, req *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	msg := req.Msg
	if err := validateBillInput(msg.Title, msg.TotalAmount, msg.InParts, msg.PartsCount); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	bill, err := s.mutate(ctx, "UpdateBill", msg.BillID, func(current *models.Bill) (*models.Bill, error) {
		next, err := allocator.Regenerate(current, *msg.TotalAmount, msg.InParts, msg.PartsCount)
		if err != nil {
			return nil, err
		}
		next.Title = strings.TrimSpace(msg.Title)
		next.DueAt = msg.DueAt
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(bill.OwnerID, bill)

	return connect.NewResponse(&api.UpdateBillResponse{Bill: toAPIBill(bill)}), nil
}

// DeleteBill deletes a bill together with its installments.
func (s *BillService) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if req.Msg.BillID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("bill_id required"))
	}

	// First, get the existing bill to check ownership
	existing, err := s.store.GetBill(ctx, req.Msg.BillID)
	if err != nil {
		slog.Error("DeleteBill: failed to get existing bill", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}
	if existing.OwnerID != userID {
		return nil, toConnectError(errNotOwner)
	}

	if err := s.store.DeleteBill(ctx, req.Msg.BillID); err != nil {
		slog.Error("DeleteBill failed", "error", err)
		return nil, toConnectError(err)
	}

	s.hub.Publish(userID, feed.Change{
		Collection: feed.CollectionBills,
		Type:       feed.ChangeDelete,
		ID:         req.Msg.BillID,
	})
	return connect.NewResponse(&api.DeleteBillResponse{}), nil
}

// EditInstallment sets one open installment's amount and rebalances the
// other open installments so the bill total is preserved.
func (s *BillService) EditInstallment(ctx context.Context, req *connect.Request[api.EditInstallmentRequest]) (*connect.Response[api.EditInstallmentResponse], error) {
	msg := req.Msg
	if msg.InstallmentID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("installment_id required"))
	}
	if msg.Amount == nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("amount required"))
	}

	bill, err := s.mutate(ctx, "EditInstallment", msg.BillID, func(current *models.Bill) (*models.Bill, error) {
		return allocator.Rebalance(current, msg.InstallmentID, *msg.Amount)
	})
	if err != nil {
		return nil, err
	}
	s.publish(bill.OwnerID, bill)

	return connect.NewResponse(&api.EditInstallmentResponse{Bill: toAPIBill(bill)}), nil
}

// PayInstallment marks one open installment paid.
func (s *BillService) PayInstallment(ctx context.Context, req *connect.Request[api.PayInstallmentRequest]) (*connect.Response[api.PayInstallmentResponse], error) {
	msg := req.Msg
	if msg.InstallmentID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("installment_id required"))
	}

	now := s.now().Unix()
	bill, err := s.mutate(ctx, "PayInstallment", msg.BillID, func(current *models.Bill) (*models.Bill, error) {
		return allocator.SettlePart(current, msg.InstallmentID, now)
	})
	if err != nil {
		return nil, err
	}
	s.publish(bill.OwnerID, bill)

	return connect.NewResponse(&api.PayInstallmentResponse{Bill: toAPIBill(bill)}), nil
}

// PayRemaining pays every open installment of a bill. Calling it on a
// settled bill changes nothing.
func (s *BillService) PayRemaining(ctx context.Context, req *connect.Request[api.PayRemainingRequest]) (*connect.Response[api.PayRemainingResponse], error) {
	now := s.now().Unix()
	changed := false
	bill, err := s.mutate(ctx, "PayRemaining", req.Msg.BillID, func(current *models.Bill) (*models.Bill, error) {
		next, ok := allocator.SettleFull(current, now)
		changed = ok
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.publish(bill.OwnerID, bill)
	}

	return connect.NewResponse(&api.PayRemainingResponse{
		Bill:    toAPIBill(bill),
		Changed: changed,
	}), nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/billplanner/internal/api"
	"github.com/mmynk/billplanner/internal/calculator"
	"github.com/mmynk/billplanner/internal/feed"
	"github.com/mmynk/billplanner/internal/middleware"
	"github.com/mmynk/billplanner/internal/models"
	"github.com/mmynk/billplanner/internal/storage"
)

// BudgetService implements the Connect BudgetService
type BudgetService struct {
	store storage.Store
	hub   *feed.Hub
}

var _ api.BudgetServiceHandler = (*BudgetService)(nil)

// NewBudgetService creates a new BudgetService with the given storage backend.
func NewBudgetService(store storage.Store, hub *feed.Hub) *BudgetService {
	return &BudgetService{store: store, hub: hub}
}

// AddEntry records a monthly income or fixed cost.
func (s *BudgetService) AddEntry(ctx context.Context, req *connect.Request[api.AddEntryRequest]) (*connect.Response[api.AddEntryResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	kind := models.EntryKind(req.Msg.Kind)
	if !kind.Valid() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("kind must be %q or %q", models.KindIncome, models.KindFixedCost))
	}
	label := strings.TrimSpace(req.Msg.Label)
	if label == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("label required"))
	}
	if req.Msg.Amount == nil || !req.Msg.Amount.IsPositive() {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("amount must be greater than zero"))
	}

	entry := &models.BudgetEntry{
		OwnerID: userID,
		Kind:    kind,
		Label:   label,
		Amount:  req.Msg.Amount.Round(2),
	}
	if err := s.store.CreateEntry(ctx, entry); err != nil {
		slog.Error("AddEntry failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Debug("Budget entry added", "entry_id", entry.ID, "kind", entry.Kind)
	s.hub.Publish(userID, feed.Change{
		Collection: feed.CollectionBudget,
		Type:       feed.ChangeUpsert,
		ID:         entry.ID,
		Record:     toAPIEntry(entry),
	})

	return connect.NewResponse(&api.AddEntryResponse{Entry: toAPIEntry(entry)}), nil
}

// ListEntries returns the caller's budget entries.
func (s *BudgetService) ListEntries(ctx context.Context, req *connect.Request[api.ListEntriesRequest]) (*connect.Response[api.ListEntriesResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	entries, err := s.store.ListEntries(ctx, userID)
	if err != nil {
		slog.Error("ListEntries failed", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&api.ListEntriesResponse{Entries: toAPIEntries(entries)}), nil
}

// DeleteEntry removes one of the caller's budget entries.
func (s *BudgetService) DeleteEntry(ctx context.Context, req *connect.Request[api.DeleteEntryRequest]) (*connect.Response[api.DeleteEntryResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if req.Msg.EntryID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("entry_id required"))
	}

	entry, err := s.store.GetEntry(ctx, req.Msg.EntryID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if entry.OwnerID != userID {
		return nil, toConnectError(errNotOwner)
	}

	if err := s.store.DeleteEntry(ctx, entry.ID); err != nil {
		slog.Error("DeleteEntry failed", "entry_id", entry.ID, "error", err)
		return nil, toConnectError(err)
	}

	s.hub.Publish(userID, feed.Change{
		Collection: feed.CollectionBudget,
		Type:       feed.ChangeDelete,
		ID:         entry.ID,
	})
	return connect.NewResponse(&api.DeleteEntryResponse{}), nil
}

// GetSummary computes the caller's monthly budget from entries and open bills.
func (s *BudgetService) GetSummary(ctx context.Context, req *connect.Request[api.GetSummaryRequest]) (*connect.Response[api.GetSummaryResponse], error) {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	entries, err := s.store.ListEntries(ctx, userID)
	if err != nil {
		slog.Error("GetSummary: failed to list entries", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	bills, err := s.store.ListBills(ctx, userID)
	if err != nil {
		slog.Error("GetSummary: failed to list bills", "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	summary := calculator.Summarize(entries, bills)
	return connect.NewResponse(&api.GetSummaryResponse{Summary: toAPISummary(summary)}), nil
}

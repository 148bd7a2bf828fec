package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/billplanner/internal/api"
	"github.com/mmynk/billplanner/internal/feed"
	"github.com/mmynk/billplanner/internal/middleware"
	"github.com/mmynk/billplanner/internal/storage"
)

// ErrSubscriberLagged ends a stream whose client could not keep up. The
// client should resubscribe to receive a fresh snapshot.
var ErrSubscriberLagged = errors.New("subscriber fell behind; resubscribe")

// FeedService streams a collection snapshot followed by live changes.
type FeedService struct {
	store       storage.Store
	hub         *feed.Hub
	subscribers *prometheus.GaugeVec
}

var _ api.FeedServiceHandler = (*FeedService)(nil)

// NewFeedService creates a FeedService. subscribers may be nil.
func NewFeedService(store storage.Store, hub *feed.Hub, subscribers *prometheus.GaugeVec) *FeedService {
	return &FeedService{store: store, hub: hub, subscribers: subscribers}
}

// Subscribe sends a snapshot of the requested collection, then one event per
// change until the client disconnects.
func (s *FeedService) Subscribe(ctx context.Context, req *connect.Request[api.SubscribeRequest], stream *connect.ServerStream[api.FeedEvent]) error {
	userID := middleware.GetUserID(ctx)
	if err := requireUser(userID); err != nil {
		return err
	}

	collection := feed.Collection(req.Msg.Collection)
	if !collection.Valid() {
		return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown collection %q", req.Msg.Collection))
	}

	// Subscribe before reading the snapshot so no change falls in between.
	// A change that is already in the snapshot is re-sent as an upsert.
	// Clients keep the highest bill revision they have seen, so repeats and
	// late deliveries are harmless.
	sub := s.hub.Subscribe(userID, collection)
	defer sub.Close()

	if s.subscribers != nil {
		gauge := s.subscribers.WithLabelValues(string(collection))
		gauge.Inc()
		defer gauge.Dec()
	}

	snapshot, err := s.snapshot(ctx, userID, collection)
	if err != nil {
		slog.Error("Subscribe: snapshot failed", "collection", collection, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}
	if err := stream.Send(snapshot); err != nil {
		return err
	}
	slog.Debug("Subscriber attached", "user_id", userID, "collection", collection)

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-sub.C():
			if !ok {
				return connect.NewError(connect.CodeUnavailable, ErrSubscriberLagged)
			}
			if err := stream.Send(eventFromChange(change)); err != nil {
				return err
			}
		}
	}
}

func (s *FeedService) snapshot(ctx context.Context, userID string, collection feed.Collection) (*api.FeedEvent, error) {
	event := &api.FeedEvent{Type: api.EventSnapshot, Collection: string(collection)}
	switch collection {
	case feed.CollectionBills:
		bills, err := s.store.ListBills(ctx, userID)
		if err != nil {
			return nil, err
		}
		event.Bills = toAPIBills(bills)
	case feed.CollectionBudget:
		entries, err := s.store.ListEntries(ctx, userID)
		if err != nil {
			return nil, err
		}
		event.Entries = toAPIEntries(entries)
	}
	return event, nil
}

func eventFromChange(change feed.Change) *api.FeedEvent {
	event := &api.FeedEvent{Collection: string(change.Collection)}
	if change.Type == feed.ChangeDelete {
		event.Type = api.EventDelete
		event.DeletedID = change.ID
		return event
	}

	event.Type = api.EventUpsert
	switch rec := change.Record.(type) {
	case *api.Bill:
		event.Bills = []*api.Bill{rec}
	case *api.BudgetEntry:
		event.Entries = []*api.BudgetEntry{rec}
	}
	return event
}

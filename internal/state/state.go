// Package state holds a client's local copy of the collections it watches.
//
// A Store is fed by FeedService events: a snapshot replaces a collection,
// upserts and deletes patch it. Events may arrive out of order, so an upsert
// older than the bill revision already held is dropped, and a deleted record
// is never brought back by a late upsert. The derived View is recomputed on
// demand and never written back.
package state

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billplanner/internal/api"
)

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	bills   map[string]*api.Bill
	entries map[string]*api.BudgetEntry
	synced  map[string]bool

	// IDs are never reused, so deletions are remembered across snapshots.
	deleted map[string]bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		bills:   make(map[string]*api.Bill),
		entries: make(map[string]*api.BudgetEntry),
		synced:  make(map[string]bool),
		deleted: make(map[string]bool),
	}
}

// Apply folds one feed event into the store. Events for a collection that
// has not seen a snapshot yet are rejected.
func (s *Store) Apply(event *api.FeedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case api.EventSnapshot:
		s.applySnapshotLocked(event)
		return nil
	case api.EventUpsert, api.EventDelete:
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}

	if !s.synced[event.Collection] {
		return fmt.Errorf("%s event for %q before snapshot", event.Type, event.Collection)
	}

	switch event.Collection {
	case "bills":
		if event.Type == api.EventDelete {
			delete(s.bills, event.DeletedID)
			s.deleted[event.DeletedID] = true
			return nil
		}
		for _, b := range event.Bills {
			if s.deleted[b.ID] {
				continue
			}
			if held, ok := s.bills[b.ID]; ok && b.Revision < held.Revision {
				continue
			}
			s.bills[b.ID] = b
		}
	case "budget":
		if event.Type == api.EventDelete {
			delete(s.entries, event.DeletedID)
			s.deleted[event.DeletedID] = true
			return nil
		}
		for _, e := range event.Entries {
			if !s.deleted[e.ID] {
				s.entries[e.ID] = e
			}
		}
	default:
		return fmt.Errorf("unknown collection %q", event.Collection)
	}
	return nil
}

// ApplySnapshot replaces a whole collection.
func (s *Store) ApplySnapshot(event *api.FeedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applySnapshotLocked(event)
}

func (s *Store) applySnapshotLocked(event *api.FeedEvent) {
	switch event.Collection {
	case "bills":
		s.bills = make(map[string]*api.Bill, len(event.Bills))
		for _, b := range event.Bills {
			s.bills[b.ID] = b
		}
	case "budget":
		s.entries = make(map[string]*api.BudgetEntry, len(event.Entries))
		for _, e := range event.Entries {
			s.entries[e.ID] = e
		}
	default:
		return
	}
	s.synced[event.Collection] = true
}

// Reset forgets a collection, e.g. before resubscribing after a lag.
func (s *Store) Reset(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.synced, collection)
}

// View is a read-only projection of the store.
type View struct {
	Bills       []*api.Bill
	Entries     []*api.BudgetEntry
	OpenBalance decimal.Decimal
	PaidTotal   decimal.Decimal
	Income      decimal.Decimal
	FixedCosts  decimal.Decimal
}

// View computes the current projection. Bills are ordered by creation time,
// entries by kind then label.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Bills:       make([]*api.Bill, 0, len(s.bills)),
		Entries:     make([]*api.BudgetEntry, 0, len(s.entries)),
		OpenBalance: decimal.Zero,
		PaidTotal:   decimal.Zero,
		Income:      decimal.Zero,
		FixedCosts:  decimal.Zero,
	}

	for _, b := range s.bills {
		v.Bills = append(v.Bills, b)
		v.OpenBalance = v.OpenBalance.Add(b.OpenAmount)
		v.PaidTotal = v.PaidTotal.Add(b.PaidAmount)
	}
	slices.SortFunc(v.Bills, func(a, b *api.Bill) int {
		if c := cmp.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	for _, e := range s.entries {
		v.Entries = append(v.Entries, e)
		switch e.Kind {
		case "income":
			v.Income = v.Income.Add(e.Amount)
		case "fixed_cost":
			v.FixedCosts = v.FixedCosts.Add(e.Amount)
		}
	}
	slices.SortFunc(v.Entries, func(a, b *api.BudgetEntry) int {
		if c := strings.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})

	return v
}

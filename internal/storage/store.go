// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/billplanner/internal/models"
)

var (
	// ErrNotFound is returned (wrapped) when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned (wrapped) on a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
)

// BillMutation derives a new bill state from the current one. It must not
// perform I/O; returning an error aborts the surrounding transaction.
// Returning current itself signals that nothing changed.
type BillMutation func(current *models.Bill) (*models.Bill, error)

// Store defines the interface for billplanner storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser inserts a new user. GetUserByEmail and GetUserByID return
	// nil, nil when the user does not exist.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateBill persists a bill together with its installments in one
	// transaction. Missing IDs and timestamps are filled in by the store.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill and its installments ordered by index.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// ListBills returns all bills owned by ownerID, oldest first.
	ListBills(ctx context.Context, ownerID string) ([]*models.Bill, error)

	// MutateBill reads a bill, applies fn and writes the bill row and its
	// full installment set back, all inside one transaction. Installments
	// missing from the result are removed; ones without an ID are created.
	MutateBill(ctx context.Context, billID string, fn BillMutation) (*models.Bill, error)

	// DeleteBill removes a bill and its installments.
	DeleteBill(ctx context.Context, billID string) error

	// CreateEntry, ListEntries and DeleteEntry manage budget entries.
	CreateEntry(ctx context.Context, entry *models.BudgetEntry) error
	GetEntry(ctx context.Context, entryID string) (*models.BudgetEntry, error)
	ListEntries(ctx context.Context, ownerID string) ([]*models.BudgetEntry, error)
	DeleteEntry(ctx context.Context, entryID string) error

	// Close releases any resources held by the store.
	Close() error
}

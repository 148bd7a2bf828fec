package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billplanner/internal/allocator"
	"github.com/mmynk/billplanner/internal/models"
	"github.com/mmynk/billplanner/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "billplanner-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *SQLiteStore, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, "Test", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func newBill(t *testing.T, ownerID, total string, parts int) *models.Bill {
	t.Helper()
	bill, err := allocator.NewBill(ownerID, "Internet", decimal.RequireFromString(total), parts > 1, parts, 0)
	if err != nil {
		t.Fatalf("NewBill failed: %v", err)
	}
	return bill
}

func TestSQLiteStore_Bills(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createUser(t, store, "alice@example.com")

	t.Run("CreateBill generates IDs", func(t *testing.T) {
		bill := newBill(t, owner.ID, "100.00", 3)
		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		if bill.ID == "" {
			t.Error("Expected bill ID to be generated")
		}
		if bill.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		for _, inst := range bill.Installments {
			if inst.ID == "" || inst.BillID != bill.ID {
				t.Errorf("Installment %d not linked: id=%q bill=%q", inst.Index, inst.ID, inst.BillID)
			}
		}
	})

	t.Run("GetBill round-trips amounts exactly", func(t *testing.T) {
		original := newBill(t, owner.ID, "100.00", 3)
		if err := store.CreateBill(ctx, original); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		got, err := store.GetBill(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}

		if !got.TotalAmount.Equal(original.TotalAmount) {
			t.Errorf("TotalAmount mismatch: got %s, want %s", got.TotalAmount, original.TotalAmount)
		}
		if !got.InParts || got.PartsCount != 3 {
			t.Errorf("Parts mismatch: in_parts=%v count=%d", got.InParts, got.PartsCount)
		}
		if len(got.Installments) != 3 {
			t.Fatalf("Installments count mismatch: got %d, want 3", len(got.Installments))
		}
		if !got.Installments[2].Amount.Equal(decimal.RequireFromString("33.34")) {
			t.Errorf("Last installment = %s, want 33.34", got.Installments[2].Amount)
		}
		for i, inst := range got.Installments {
			if inst.Index != i+1 {
				t.Errorf("Installment order: position %d has index %d", i, inst.Index)
			}
		}
	})

	t.Run("GetBill returns ErrNotFound for nonexistent bill", func(t *testing.T) {
		_, err := store.GetBill(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("MutateBill persists rebalance and payment", func(t *testing.T) {
		bill := newBill(t, owner.ID, "100.00", 3)
		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}
		first := bill.Installments[0].ID

		_, err := store.MutateBill(ctx, bill.ID, func(current *models.Bill) (*models.Bill, error) {
			return allocator.Rebalance(current, first, decimal.NewFromInt(40))
		})
		if err != nil {
			t.Fatalf("MutateBill rebalance failed: %v", err)
		}
		_, err = store.MutateBill(ctx, bill.ID, func(current *models.Bill) (*models.Bill, error) {
			return allocator.SettlePart(current, first, 1700000000)
		})
		if err != nil {
			t.Fatalf("MutateBill settle failed: %v", err)
		}

		got, err := store.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if !got.PaidAmount.Equal(decimal.NewFromInt(40)) {
			t.Errorf("PaidAmount = %s, want 40", got.PaidAmount)
		}
		if got.Installments[0].Status != models.StatusPaid || got.Installments[0].PaidAt != 1700000000 {
			t.Errorf("First installment not paid: %+v", got.Installments[0])
		}
		if !got.Installments[1].Amount.Equal(decimal.NewFromInt(30)) {
			t.Errorf("Second installment = %s, want 30", got.Installments[1].Amount)
		}
	})

	t.Run("MutateBill regenerates installment set", func(t *testing.T) {
		bill := newBill(t, owner.ID, "100.00", 4)
		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		shrunk, err := store.MutateBill(ctx, bill.ID, func(current *models.Bill) (*models.Bill, error) {
			return allocator.Regenerate(current, decimal.NewFromInt(60), true, 2)
		})
		if err != nil {
			t.Fatalf("MutateBill shrink failed: %v", err)
		}
		if len(shrunk.Installments) != 2 {
			t.Fatalf("Expected 2 installments, got %d", len(shrunk.Installments))
		}

		_, err = store.MutateBill(ctx, bill.ID, func(current *models.Bill) (*models.Bill, error) {
			return allocator.Regenerate(current, decimal.NewFromInt(60), true, 5)
		})
		if err != nil {
			t.Fatalf("MutateBill grow failed: %v", err)
		}

		got, err := store.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if len(got.Installments) != 5 {
			t.Fatalf("Expected 5 installments, got %d", len(got.Installments))
		}
		sum := decimal.Zero
		for _, inst := range got.Installments {
			sum = sum.Add(inst.Amount)
		}
		if !sum.Equal(decimal.NewFromInt(60)) {
			t.Errorf("Installment sum = %s, want 60", sum)
		}
	})

	t.Run("MutateBill rolls back on error", func(t *testing.T) {
		bill := newBill(t, owner.ID, "50", 2)
		if err := store.CreateBill(ctx, bill); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		_, err := store.MutateBill(ctx, bill.ID, func(current *models.Bill) (*models.Bill, error) {
			return allocator.Rebalance(current, current.Installments[0].ID, decimal.NewFromInt(51))
		})
		if !errors.Is(err, allocator.ErrExceedsRemaining) {
			t.Fatalf("Expected ErrExceedsRemaining, got %v", err)
		}

		got, err := store.GetBill(ctx, bill.ID)
		if err != nil {
			t.Fatalf("GetBill failed: %v", err)
		}
		if !got.Installments[0].Amount.Equal(decimal.NewFromInt(25)) {
			t.Errorf("Installment changed despite error: %s", got.Installments[0].Amount)
		}
	})

	t.Run("ListBills and DeleteBill", func(t *testing.T) {
		other := createUser(t, store, "bob@example.com")
		mine := newBill(t, other.ID, "10", 1)
		if err := store.CreateBill(ctx, mine); err != nil {
			t.Fatalf("CreateBill failed: %v", err)
		}

		bills, err := store.ListBills(ctx, other.ID)
		if err != nil {
			t.Fatalf("ListBills failed: %v", err)
		}
		if len(bills) != 1 || len(bills[0].Installments) != 1 {
			t.Fatalf("Expected 1 bill with 1 installment, got %+v", bills)
		}

		if err := store.DeleteBill(ctx, mine.ID); err != nil {
			t.Fatalf("DeleteBill failed: %v", err)
		}
		if err := store.DeleteBill(ctx, mine.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
		bills, err = store.ListBills(ctx, other.ID)
		if err != nil {
			t.Fatalf("ListBills failed: %v", err)
		}
		if len(bills) != 0 {
			t.Errorf("Expected no bills after delete, got %d", len(bills))
		}
	})
}

func TestSQLiteStore_ConcurrentMutations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createUser(t, store, "alice@example.com")

	bill := newBill(t, owner.ID, "1000", 10)
	if err := store.CreateBill(ctx, bill); err != nil {
		t.Fatalf("CreateBill failed: %v", err)
	}

	const workers = 40
	var (
		wg      sync.WaitGroup
		written atomic.Int64
	)
	errs := make(chan error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.MutateBill(ctx, bill.ID, func(current *models.Bill) (*models.Bill, error) {
				open, paid := "", 0
				for _, inst := range current.Installments {
					if inst.IsPaid() {
						paid++
					} else if open == "" {
						open = inst.ID
					}
				}
				switch i % 3 {
				case 0:
					return allocator.Rebalance(current, open, decimal.New(int64(i*100+33), -2))
				case 1:
					return allocator.SettlePart(current, open, int64(i+1))
				default:
					return allocator.Regenerate(current, current.TotalAmount, true, paid+1+i%4)
				}
			})
			switch {
			case err == nil:
				written.Add(1)
			case errors.Is(err, allocator.ErrNoOpenInstallments),
				errors.Is(err, allocator.ErrInstallmentNotFound),
				errors.Is(err, allocator.ErrExceedsRemaining):
			default:
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("MutateBill failed: %v", err)
	}

	got, err := store.GetBill(ctx, bill.ID)
	if err != nil {
		t.Fatalf("GetBill failed: %v", err)
	}
	if written.Load() == 0 {
		t.Fatal("no mutation was written")
	}
	if got.Revision != 1+written.Load() {
		t.Errorf("Revision = %d, want %d", got.Revision, 1+written.Load())
	}

	sum, paidSum := decimal.Zero, decimal.Zero
	for i, inst := range got.Installments {
		if i > 0 && inst.Index <= got.Installments[i-1].Index {
			t.Errorf("installment indexes out of order: %d after %d", inst.Index, got.Installments[i-1].Index)
		}
		if inst.Amount.IsNegative() {
			t.Errorf("installment %d has negative amount %s", inst.Index, inst.Amount)
		}
		sum = sum.Add(inst.Amount)
		if inst.IsPaid() {
			paidSum = paidSum.Add(inst.Amount)
		}
	}
	if !sum.Equal(got.TotalAmount) {
		t.Errorf("installments sum to %s, total is %s", sum, got.TotalAmount)
	}
	if !paidSum.Equal(got.PaidAmount) {
		t.Errorf("paid installments sum to %s, PaidAmount is %s", paidSum, got.PaidAmount)
	}
	if len(got.Installments) != got.PartsCount {
		t.Errorf("%d installments, PartsCount %d", len(got.Installments), got.PartsCount)
	}
}

func TestNew_AddsRevisionToExistingBills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE bills (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		in_parts INTEGER NOT NULL,
		parts_count INTEGER NOT NULL,
		due_at INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create old schema: %v", err)
	}
	_, err = db.Exec(`INSERT INTO bills VALUES ('old', 'nobody', 'Water', '12', '0', 0, 1, 0, 1, 1)`)
	if err != nil {
		t.Fatalf("insert old bill: %v", err)
	}
	db.Close()

	store, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	got, err := store.GetBill(context.Background(), "old")
	if err != nil {
		t.Fatalf("GetBill failed: %v", err)
	}
	if got.Revision != 1 {
		t.Errorf("Revision = %d, want 1", got.Revision)
	}
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createUser(t, store, "carol@example.com")

	got, err := store.GetUserByEmail(ctx, "Carol@Example.com")
	if err != nil || got == nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("ID mismatch: got %s, want %s", got.ID, user.ID)
	}

	missing, err := store.GetUserByID(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing user, got %v, %v", missing, err)
	}

	dup := models.NewUser("CAROL@example.com", "Other", "hash")
	if err := store.CreateUser(ctx, dup); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Errorf("Expected ErrAlreadyExists, got %v", err)
	}
}

func TestSQLiteStore_Entries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := createUser(t, store, "dave@example.com")

	salary := &models.BudgetEntry{OwnerID: owner.ID, Kind: models.KindIncome, Label: "Salary", Amount: decimal.RequireFromString("2500.75")}
	rent := &models.BudgetEntry{OwnerID: owner.ID, Kind: models.KindFixedCost, Label: "Rent", Amount: decimal.NewFromInt(900)}
	for _, e := range []*models.BudgetEntry{salary, rent} {
		if err := store.CreateEntry(ctx, e); err != nil {
			t.Fatalf("CreateEntry failed: %v", err)
		}
	}

	entries, err := store.ListEntries(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	got, err := store.GetEntry(ctx, salary.ID)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Kind != models.KindIncome || !got.Amount.Equal(salary.Amount) {
		t.Errorf("Entry mismatch: %+v", got)
	}

	if err := store.DeleteEntry(ctx, rent.ID); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	if _, err := store.GetEntry(ctx, rent.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

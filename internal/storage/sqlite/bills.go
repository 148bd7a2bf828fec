package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billplanner/internal/models"
	"github.com/mmynk/billplanner/internal/storage"
)

const billColumns = "id, owner_id, title, total_amount, paid_amount, in_parts, parts_count, due_at, revision, created_at, updated_at"

// CreateBill persists a new bill and its installments to the database.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	// Generate IDs if not set
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if bill.CreatedAt == 0 {
		bill.CreatedAt = now
	}
	bill.UpdatedAt = now
	bill.Revision = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO bills ("+billColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		bill.ID, bill.OwnerID, bill.Title, bill.TotalAmount, bill.PaidAmount,
		boolToInt(bill.InParts), bill.PartsCount, bill.DueAt, bill.Revision, bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	for i := range bill.Installments {
		inst := &bill.Installments[i]
		inst.BillID = bill.ID
		if err := insertInstallment(ctx, tx, inst); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBill retrieves a bill by ID, including its installments.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	return getBill(ctx, s.db, billID)
}

// ListBills retrieves every bill owned by the given user, oldest first.
func (s *SQLiteStore) ListBills(ctx context.Context, ownerID string) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+billColumns+" FROM bills WHERE owner_id = ? ORDER BY created_at, id",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}

	var bills []*models.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}

	// Installments are loaded after the bill cursor is closed; the pool
	// holds a single connection.
	for _, bill := range bills {
		if bill.Installments, err = getInstallments(ctx, s.db, bill.ID); err != nil {
			return nil, err
		}
	}

	return bills, nil
}

// MutateBill applies fn to the current bill state and persists the result
// atomically. Every write bumps the bill's revision.
func (s *SQLiteStore) MutateBill(ctx context.Context, billID string, fn storage.BillMutation) (*models.Bill, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := getBill(ctx, tx, billID)
	if err != nil {
		return nil, err
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == current {
		return current, nil
	}
	next.ID = current.ID
	next.OwnerID = current.OwnerID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().Unix()
	next.Revision = current.Revision + 1

	res, err := tx.ExecContext(ctx,
		`UPDATE bills SET title = ?, total_amount = ?, paid_amount = ?, in_parts = ?, parts_count = ?, due_at = ?, revision = ?, updated_at = ?
		 WHERE id = ? AND revision = ?`,
		next.Title, next.TotalAmount, next.PaidAmount, boolToInt(next.InParts), next.PartsCount, next.DueAt, next.Revision, next.UpdatedAt,
		billID, current.Revision,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}

	// Remove installments dropped by fn before writing the rest, so index
	// uniqueness holds at every step.
	keep := make(map[string]bool, len(next.Installments))
	for _, inst := range next.Installments {
		if inst.ID != "" {
			keep[inst.ID] = true
		}
	}
	for _, inst := range current.Installments {
		if keep[inst.ID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM installments WHERE id = ?", inst.ID); err != nil {
			return nil, fmt.Errorf("failed to delete installment: %w", err)
		}
	}

	for i := range next.Installments {
		inst := &next.Installments[i]
		inst.BillID = billID
		if inst.ID == "" {
			if err := insertInstallment(ctx, tx, inst); err != nil {
				return nil, err
			}
			continue
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE installments SET idx = ?, amount = ?, status = ?, paid_at = ? WHERE id = ? AND bill_id = ?",
			inst.Index, inst.Amount, string(inst.Status), nullableUnix(inst.PaidAt), inst.ID, billID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update installment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return next, nil
}

// DeleteBill removes a bill by ID. Installments cascade.
func (s *SQLiteStore) DeleteBill(ctx context.Context, billID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", billID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	return nil
}

func getBill(ctx context.Context, q querier, billID string) (*models.Bill, error) {
	row := q.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bills WHERE id = ?", billID)
	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	if bill.Installments, err = getInstallments(ctx, q, billID); err != nil {
		return nil, err
	}
	return bill, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(row scanner) (*models.Bill, error) {
	bill := &models.Bill{}
	var inParts int
	err := row.Scan(&bill.ID, &bill.OwnerID, &bill.Title, &bill.TotalAmount, &bill.PaidAmount,
		&inParts, &bill.PartsCount, &bill.DueAt, &bill.Revision, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return nil, err
	}
	bill.InParts = inParts != 0
	return bill, nil
}

func getInstallments(ctx context.Context, q querier, billID string) ([]models.Installment, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, bill_id, idx, amount, status, paid_at FROM installments WHERE bill_id = ? ORDER BY idx",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get installments: %w", err)
	}
	defer rows.Close()

	var installments []models.Installment
	for rows.Next() {
		var inst models.Installment
		var status string
		var paidAt sql.NullInt64
		if err := rows.Scan(&inst.ID, &inst.BillID, &inst.Index, &inst.Amount, &status, &paidAt); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		inst.Status = models.InstallmentStatus(status)
		if paidAt.Valid {
			inst.PaidAt = paidAt.Int64
		}
		installments = append(installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installments: %w", err)
	}
	return installments, nil
}

func insertInstallment(ctx context.Context, q querier, inst *models.Installment) error {
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	if inst.Status == "" {
		inst.Status = models.StatusOpen
	}
	_, err := q.ExecContext(ctx,
		"INSERT INTO installments (id, bill_id, idx, amount, status, paid_at) VALUES (?, ?, ?, ?, ?, ?)",
		inst.ID, inst.BillID, inst.Index, inst.Amount, string(inst.Status), nullableUnix(inst.PaidAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert installment: %w", err)
	}
	return nil
}

func nullableUnix(ts int64) any {
	if ts == 0 {
		return nil
	}
	return ts
}

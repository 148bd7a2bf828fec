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

// CreateEntry persists a new budget entry.
func (s *SQLiteStore) CreateEntry(ctx context.Context, entry *models.BudgetEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budget_entries (id, owner_id, kind, label, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.OwnerID, string(entry.Kind), entry.Label, entry.Amount, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget entry: %w", err)
	}
	return nil
}

// GetEntry retrieves a budget entry by ID.
func (s *SQLiteStore) GetEntry(ctx context.Context, entryID string) (*models.BudgetEntry, error) {
	entry, err := scanEntry(s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, kind, label, amount, created_at FROM budget_entries WHERE id = ?",
		entryID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget entry %s: %w", entryID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget entry: %w", err)
	}
	return entry, nil
}

// ListEntries retrieves all budget entries for a user, oldest first.
func (s *SQLiteStore) ListEntries(ctx context.Context, ownerID string) ([]*models.BudgetEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, kind, label, amount, created_at
		 FROM budget_entries WHERE owner_id = ? ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.BudgetEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budget entries: %w", err)
	}
	return entries, nil
}

// DeleteEntry removes a budget entry by ID.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, entryID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM budget_entries WHERE id = ?", entryID)
	if err != nil {
		return fmt.Errorf("failed to delete budget entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("budget entry %s: %w", entryID, storage.ErrNotFound)
	}
	return nil
}

func scanEntry(row scanner) (*models.BudgetEntry, error) {
	entry := &models.BudgetEntry{}
	var kind string
	if err := row.Scan(&entry.ID, &entry.OwnerID, &kind, &entry.Label, &entry.Amount, &entry.CreatedAt); err != nil {
		return nil, err
	}
	entry.Kind = models.EntryKind(kind)
	return entry, nil
}

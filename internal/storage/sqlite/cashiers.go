package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/billpay/internal/models"
)

// CreateCashier inserts a new cashier.
func (s *SQLiteStore) CreateCashier(ctx context.Context, cashier *models.Cashier) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cashiers (id, username, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cashier.ID,
		cashier.Username,
		cashier.DisplayName,
		cashier.PasswordHash,
		cashier.CreatedAt,
		cashier.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cashier: %w", err)
	}
	return nil
}

// GetCashierByUsername retrieves a cashier by login name.
// Returns nil, nil when no cashier matches.
func (s *SQLiteStore) GetCashierByUsername(ctx context.Context, username string) (*models.Cashier, error) {
	return s.getCashier(ctx, "username", username)
}

// GetCashierByID retrieves a cashier by ID.
// Returns nil, nil when no cashier matches.
func (s *SQLiteStore) GetCashierByID(ctx context.Context, id string) (*models.Cashier, error) {
	return s.getCashier(ctx, "id", id)
}

func (s *SQLiteStore) getCashier(ctx context.Context, column, value string) (*models.Cashier, error) {
	query := `
		SELECT id, username, display_name, password_hash, created_at, updated_at
		FROM cashiers
		WHERE ` + column + ` = ?`

	cashier := &models.Cashier{}
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&cashier.ID,
		&cashier.Username,
		&cashier.DisplayName,
		&cashier.PasswordHash,
		&cashier.CreatedAt,
		&cashier.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cashier by %s: %w", column, err)
	}

	return cashier, nil
}

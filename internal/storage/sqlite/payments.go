package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/billpay/internal/models"
)

// RecordPaymentAttempt persists a payment attempt.
func (s *SQLiteStore) RecordPaymentAttempt(ctx context.Context, attempt *models.PaymentAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.CreatedAt == 0 {
		attempt.CreatedAt = time.Now().Unix()
	}

	items, err := json.Marshal(attempt.Items)
	if err != nil {
		return fmt.Errorf("failed to encode paid items: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO payment_attempts
		 (id, consommation_id, amount, items, method, collector_id, status, bill_payment_id, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID, attempt.ConsommationID, attempt.Amount.String(), string(items),
		string(attempt.Method), attempt.CollectorID, string(attempt.Status),
		nullable(attempt.BillPaymentID), nullable(attempt.Error), attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment attempt: %w", err)
	}

	return nil
}

// ListPaymentAttempts retrieves all attempts for a consommation, newest first.
func (s *SQLiteStore) ListPaymentAttempts(ctx context.Context, consommationID string) ([]*models.PaymentAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, consommation_id, amount, items, method, collector_id, status, bill_payment_id, error, created_at
		 FROM payment_attempts WHERE consommation_id = ? ORDER BY created_at DESC, rowid DESC`,
		consommationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*models.PaymentAttempt
	for rows.Next() {
		attempt := &models.PaymentAttempt{}
		var (
			items         string
			method        string
			status        string
			billPaymentID sql.NullString
			errMsg        sql.NullString
		)

		if err := rows.Scan(&attempt.ID, &attempt.ConsommationID, &attempt.Amount, &items, &method,
			&attempt.CollectorID, &status, &billPaymentID, &errMsg, &attempt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &attempt.Items); err != nil {
			return nil, fmt.Errorf("failed to decode paid items of %s: %w", attempt.ID, err)
		}

		attempt.Method = models.PaymentMethod(method)
		attempt.Status = models.AttemptStatus(status)
		attempt.BillPaymentID = billPaymentID.String
		attempt.Error = errMsg.String

		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment attempts: %w", err)
	}

	return attempts, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

package database

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger-go/internal/models"
)

// outboxLease is how long a claimed event stays invisible to other pollers.
const outboxLease = time.Minute

// ClaimOutbox returns due events and leases them so a concurrent poller
// does not pick them up again before they are marked.
func (s *Service) ClaimOutbox(ctx context.Context, limit int, at time.Time) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin outbox claim: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, querySelectDueOutbox, at.UnixMilli(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select due outbox events: %w", err)
	}
	for rows.Next() {
		event, err := scanOutbox(rows)
		if err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}
	closeRows(rows)

	leaseUntil := at.Add(outboxLease).UnixMilli()
	for _, event := range events {
		if _, err := tx.ExecContext(ctx, queryLeaseOutbox, leaseUntil, event.Id); err != nil {
			return nil, fmt.Errorf("failed to lease outbox event %s: %w", event.Id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit outbox claim: %w", err)
	}
	return events, nil
}

func (s *Service) MarkOutboxSent(ctx context.Context, eventId string) error {
	if _, err := s.db.ExecContext(ctx, queryMarkOutboxSent, now().UnixMilli(), eventId); err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}
	return nil
}

func (s *Service) MarkOutboxRetry(ctx context.Context, eventId string, lastErr string, nextAttempt time.Time, failed bool) error {
	status := models.OutboxStatusPending
	if failed {
		status = models.OutboxStatusFailed
	}
	_, err := s.db.ExecContext(ctx, queryMarkOutboxRetry, status, lastErr, nextAttempt.UnixMilli(), now().UnixMilli(), eventId)
	if err != nil {
		return fmt.Errorf("failed to reschedule outbox event: %w", err)
	}
	return nil
}

func (s *Service) PurgeOutbox(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryPurgeOutbox, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge outbox: %w", err)
	}
	return result.RowsAffected()
}

func scanOutbox(row rowScanner) (*models.OutboxEvent, error) {
	var event models.OutboxEvent
	var payload string
	var nextAttempt, createdAt, updatedAt int64
	err := row.Scan(&event.Id, &event.Kind, &event.TransactionId, &payload, &event.Status,
		&event.Attempts, &event.LastError, &nextAttempt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	event.Payload = []byte(payload)
	event.NextAttemptAt = time.UnixMilli(nextAttempt).UTC()
	event.CreatedAt = time.UnixMilli(createdAt).UTC()
	event.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &event, nil
}

package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wallet-ledger-go/internal/models"

	"github.com/jackc/pgx/v5"
)

const outboxLease = time.Minute

func (s *Service) ClaimOutbox(ctx context.Context, limit int, at time.Time) ([]models.OutboxEvent, error) {
	rows, err := s.pool.Query(ctx, queryClaimOutbox, at.Add(outboxLease).UTC(), at.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox events: %w", err)
	}
	defer rows.Close()

	var events []models.OutboxEvent
	for rows.Next() {
		event, err := scanOutbox(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}

	// RETURNING does not preserve the subquery order
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].Id < events[j].Id
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

func (s *Service) MarkOutboxSent(ctx context.Context, eventId string) error {
	if _, err := s.pool.Exec(ctx, queryMarkOutboxSent, now(), eventId); err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}
	return nil
}

func (s *Service) MarkOutboxRetry(ctx context.Context, eventId string, lastErr string, nextAttempt time.Time, failed bool) error {
	status := models.OutboxStatusPending
	if failed {
		status = models.OutboxStatusFailed
	}
	if _, err := s.pool.Exec(ctx, queryMarkOutboxRetry, status, lastErr, nextAttempt.UTC(), now(), eventId); err != nil {
		return fmt.Errorf("failed to reschedule outbox event: %w", err)
	}
	return nil
}

func (s *Service) PurgeOutbox(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, queryPurgeOutbox, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanOutbox(row pgx.Row) (*models.OutboxEvent, error) {
	var event models.OutboxEvent
	var payload []byte
	err := row.Scan(&event.Id, &event.Kind, &event.TransactionId, &payload, &event.Status,
		&event.Attempts, &event.LastError, &event.NextAttemptAt, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, err
	}
	event.Payload = payload
	return &event, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"buildcheck/internal/domain"
	"buildcheck/internal/repository/contact"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

type ContactRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
	limit   int
}

func NewContactRepository(db *dbpg.DB, retries retry.Strategy, limit int) *ContactRepository {
	if limit <= 0 {
		limit = domain.MaxContactEntries
	}
	return &ContactRepository{
		db:      db,
		retries: retries,
		limit:   limit,
	}
}

func (r *ContactRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS contact_submissions (
			id            BIGSERIAL PRIMARY KEY,
			name          TEXT NOT NULL,
			phone         TEXT NOT NULL,
			message       TEXT NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL
		)
	`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query); err != nil {
		return fmt.Errorf("failed to create contact_submissions table: %w", err)
	}
	return nil
}

// Add stores the entry and trims the table back to the newest limit rows.
func (r *ContactRepository) Add(ctx context.Context, entry domain.ContactEntry) error {
	registeredAt, err := time.Parse(time.RFC3339, entry.RegisteredAt)
	if err != nil {
		registeredAt = time.Now().UTC()
	}

	query := `
		INSERT INTO contact_submissions (name, phone, message, registered_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, query,
		entry.Name,
		entry.Phone,
		entry.Message,
		registeredAt,
	); err != nil {
		return fmt.Errorf("%w: %v", contact.ErrPersist, err)
	}

	trim := `
		DELETE FROM contact_submissions
		WHERE id NOT IN (
			SELECT id FROM contact_submissions ORDER BY id DESC LIMIT $1
		)
	`

	if _, err := r.db.ExecWithRetry(ctx, r.retries, trim, r.limit); err != nil {
		return fmt.Errorf("%w: trim: %v", contact.ErrPersist, err)
	}

	return nil
}

func (r *ContactRepository) List(ctx context.Context) ([]domain.ContactEntry, error) {
	query := `
		SELECT name, phone, message, registered_at
		FROM contact_submissions
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, r.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contact.ErrLoad, err)
	}
	defer rows.Close()

	entries := make([]domain.ContactEntry, 0)
	for rows.Next() {
		var (
			e            domain.ContactEntry
			registeredAt time.Time
		)
		if err := rows.Scan(&e.Name, &e.Phone, &e.Message, &registeredAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact submission: %w", err)
		}
		e.RegisteredAt = registeredAt.UTC().Format(time.RFC3339)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contact submissions: %w", err)
	}

	return entries, nil
}

func (r *ContactRepository) Close() error {
	return r.db.Master.Close()
}

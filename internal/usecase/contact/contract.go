package contact

import (
	"context"

	"buildcheck/internal/domain"
)

type contactRepository interface {
	Add(ctx context.Context, entry domain.ContactEntry) error
	List(ctx context.Context) ([]domain.ContactEntry, error)
}

type sessionStore interface {
	Create(ctx context.Context, s domain.AdminSession) error
	Valid(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

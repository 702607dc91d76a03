package contact

import (
	"context"

	"buildcheck/internal/domain"
	contact_uc "buildcheck/internal/usecase/contact"
)

type contactUsecase interface {
	Submit(ctx context.Context, in contact_uc.Submission) (domain.ContactEntry, error)
	List(ctx context.Context) ([]domain.ContactEntry, error)
}

type adminAuth interface {
	LoginConfigured() bool
	Configured() bool
	Login(ctx context.Context, username, password string) (domain.AdminSession, error)
	Logout(ctx context.Context, sessionID string) error
	Authorize(ctx context.Context, sessionID, token string) error
}

package contact

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"buildcheck/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

const sessionIDBytes = 24

type AdminAuth struct {
	username string
	password string
	token    string
	sessions sessionStore
	logger   *zlog.Zerolog
	now      func() time.Time
}

func NewAdminAuth(username, password, token string, sessions sessionStore, logger *zlog.Zerolog) *AdminAuth {
	return &AdminAuth{
		username: strings.TrimSpace(username),
		password: strings.TrimSpace(password),
		token:    strings.TrimSpace(token),
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

func (a *AdminAuth) LoginConfigured() bool {
	return a.username != "" && a.password != ""
}

// Configured reports whether any way to reach the admin endpoints exists.
func (a *AdminAuth) Configured() bool {
	return a.LoginConfigured() || a.token != ""
}

func (a *AdminAuth) Login(ctx context.Context, username, password string) (domain.AdminSession, error) {
	if !a.LoginConfigured() {
		return domain.AdminSession{}, ErrAdminNotConfigured
	}

	userOK := equal(strings.TrimSpace(username), a.username)
	passOK := equal(strings.TrimSpace(password), a.password)
	if !userOK || !passOK {
		a.logger.Warn().Msg("Admin login rejected")
		return domain.AdminSession{}, ErrUnauthorized
	}

	id, err := newSessionID()
	if err != nil {
		return domain.AdminSession{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	sess := domain.AdminSession{ID: id, ExpiresAt: a.now().Add(domain.AdminSessionTTL)}
	if err := a.sessions.Create(ctx, sess); err != nil {
		a.logger.Error().Err(err).Msg("Failed to persist admin session")
		return domain.AdminSession{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	a.logger.Info().Msg("Admin logged in")
	return sess, nil
}

func (a *AdminAuth) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		a.logger.Error().Err(err).Msg("Failed to delete admin session")
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Authorize accepts either a live session or the static admin token.
func (a *AdminAuth) Authorize(ctx context.Context, sessionID, token string) error {
	if !a.Configured() {
		return ErrAdminNotConfigured
	}

	if sessionID != "" {
		ok, err := a.sessions.Valid(ctx, sessionID)
		if err != nil {
			a.logger.Warn().Err(err).Msg("Session lookup failed")
		}
		if ok {
			return nil
		}
	}

	token = strings.TrimSpace(token)
	if a.token != "" && token != "" && equal(token, a.token) {
		return nil
	}

	return ErrUnauthorized
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 UhaiLink Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/uhailink/uhailink/internal/access"
	"github.com/uhailink/uhailink/pkg/errutil"
)

// dummyPasswordHash keeps sign-in timing constant for unknown emails. It is
// not a credential and never matches any password.
//
//nolint:gosec // G101: intentionally fake hash
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// ProfileCreator creates the profile record that accompanies a new account.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, userID ulid.ULID, fullName, phone, email string) error
}

// SignUpRequest carries the fields collected at registration.
type SignUpRequest struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// Service signs accounts in and out and validates session tokens.
type Service struct {
	accounts AccountRepository
	sessions SessionRepository
	hasher   PasswordHasher
	profiles ProfileCreator
	hub      *Hub
	ttl      time.Duration
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSessionTTL overrides SessionTTL.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithProfileCreator creates a profile for every new account.
func WithProfileCreator(p ProfileCreator) ServiceOption {
	return func(s *Service) { s.profiles = p }
}

// NewService creates a Service. hub may be nil when nothing observes
// session changes.
func NewService(accounts AccountRepository, sessions SessionRepository, hasher PasswordHasher, hub *Hub, opts ...ServiceOption) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("account repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("session repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	s := &Service{
		accounts: accounts,
		sessions: sessions,
		hasher:   hasher,
		hub:      hub,
		ttl:      SessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) publish(kind access.ChangeKind, accountID ulid.ULID) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(access.ChangeEvent{Kind: kind, UserID: accountID.String()})
}

// SignUp registers an account. Every new account gets a profile with the
// user role; failing to create it is logged but does not undo the account,
// since role lookups fall back to user anyway.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Account, error) {
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").With("operation", "hash password").Wrap(err)
	}
	account, err := NewAccount(req.Email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, oops.Code("AUTH_EMAIL_TAKEN").With("email", account.Email).
				Errorf("an account with this email already exists")
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").With("operation", "create account").Wrap(err)
	}

	if s.profiles != nil {
		if err := s.profiles.CreateProfile(ctx, account.ID, req.FullName, req.Phone, account.Email); err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "profile creation failed after sign-up", err)
		}
	}

	slog.InfoContext(ctx, "account created", "account_id", account.ID.String())
	return account, nil
}

// SignIn authenticates by email and password and opens a session. The
// plaintext token is returned once and never stored.
func (s *Service) SignIn(ctx context.Context, email, password, userAgent, ipAddress string) (*Session, string, error) {
	invalid := oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")

	normalized, normErr := NormalizeEmail(email)
	var account *Account
	var lookupErr error
	if normErr == nil {
		account, lookupErr = s.accounts.GetByEmail(ctx, normalized)
	} else {
		lookupErr = ErrNotFound
	}

	targetHash := dummyPasswordHash
	switch {
	case lookupErr == nil:
		targetHash = account.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		account = nil
	default:
		return nil, "", oops.Code("AUTH_SIGNIN_FAILED").With("operation", "get account by email").Wrap(lookupErr)
	}

	// Verification runs even for unknown emails so timing does not reveal
	// which addresses are registered.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if account == nil {
		return nil, "", invalid
	}
	if verifyErr != nil {
		return nil, "", oops.Code("AUTH_SIGNIN_FAILED").With("operation", "verify password").Wrap(verifyErr)
	}

	if account.IsLocked() {
		return nil, "", oops.Code("AUTH_ACCOUNT_LOCKED").
			With("locked_until", account.LockedUntil).
			Errorf("account is temporarily locked")
	}

	if !valid {
		account.RecordFailure()
		if err := s.accounts.Update(ctx, account); err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "failed to record sign-in failure", err)
		}
		return nil, "", invalid
	}

	if account.FailedAttempts > 0 || account.LockedUntil != nil {
		account.RecordSuccess()
		if err := s.accounts.Update(ctx, account); err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "failed to reset sign-in failures", err)
		}
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_SIGNIN_FAILED").With("operation", "generate session token").Wrap(err)
	}
	session, err := NewSession(account.ID, tokenHash, userAgent, ipAddress, s.now().Add(s.ttl))
	if err != nil {
		return nil, "", oops.Code("AUTH_SIGNIN_FAILED").With("operation", "build session").Wrap(err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("AUTH_SESSION_CREATE_FAILED").Wrap(err)
	}

	s.publish(access.ChangeSignedIn, account.ID)
	return session, token, nil
}

// SignOut ends the session identified by token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}
	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").Wrap(err)
		}
		return oops.Code("AUTH_SIGNOUT_FAILED").With("operation", "get session").Wrap(err)
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_SIGNOUT_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}

	s.publish(access.ChangeSignedOut, session.AccountID)
	return nil
}

// ValidateSession returns the live session for token and refreshes its
// last-seen time on a best-effort basis.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").With("operation", "get session by token hash").Wrap(err)
	}

	if session.IsExpiredAt(s.now()) {
		return nil, oops.Code("SESSION_EXPIRED").Errorf("session has expired")
	}

	_ = s.sessions.UpdateLastSeen(ctx, session.ID, s.now()) //nolint:errcheck // best effort
	return session, nil
}

// PurgeExpired deletes expired sessions and notifies subscribers for each
// affected account.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	accounts, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").Wrap(err)
	}
	for _, id := range accounts {
		s.publish(access.ChangeExpired, id)
	}
	return len(accounts), nil
}

// RunPurger calls PurgeExpired every interval until ctx ends.
func (s *Service) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				errutil.LogErrorContext(ctx, slog.Default(), "session purge failed", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}

// SessionSource returns an access.SessionSource for the holder of token.
// An empty, unknown, or expired token reads as signed out.
func (s *Service) SessionSource(token string) access.SessionSource {
	return access.SessionSourceFunc(func(ctx context.Context) (*access.Session, error) {
		if token == "" {
			return nil, nil
		}
		session, err := s.ValidateSession(ctx, token)
		if err != nil {
			switch errutil.Code(err) {
			case "SESSION_INVALID", "SESSION_EXPIRED":
				return nil, nil
			}
			return nil, err
		}
		return &access.Session{ID: session.ID.String(), UserID: session.AccountID.String()}, nil
	})
}

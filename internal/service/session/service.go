package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"storefront-api/internal/domain"
	sessionrepo "storefront-api/internal/repository/session"
)

// TTL is the sliding session window; every validated interaction extends the
// expiry by this much.
const TTL = 30 * 24 * time.Hour

// Service issues, verifies and renews shopper sessions. The cookie token is
// stateless (signed id + expiry); the session record carries status and the
// sliding expiry, so revocation and pruning stay server-side.
type Service struct {
	repo   sessionrepo.Repository
	secret []byte
	now    func() time.Time
}

// New fails on an empty secret: every code path that signs or verifies
// tokens treats a missing secret as a fatal configuration error.
func New(repo sessionrepo.Repository, secret string) (*Service, error) {
	if secret == "" {
		return nil, errors.New("session secret required")
	}
	return &Service{repo: repo, secret: []byte(secret), now: time.Now}, nil
}

// EnsureResult carries the session plus the (re-)signed cookie token.
type EnsureResult struct {
	Session *domain.Session
	Token   string
}

// Ensure resolves the caller's session from the cookie token, minting a new
// identity when the token is absent or invalid. A valid token whose backing
// record is missing, revoked or expired heals to a fresh record under the
// same session id, so the client keeps its identity (and cart) instead of
// silently rotating.
func (s *Service) Ensure(ctx context.Context, token, clientHash string) (*EnsureResult, error) {
	now := s.now()

	if token != "" {
		sessionID, err := parseToken(s.secret, token, now)
		if err == nil {
			sess, err := s.repo.Get(ctx, sessionID)
			switch {
			case err == nil && sess.Usable(now):
				touched, err := s.repo.Touch(ctx, sessionID, now.Add(TTL), clientHash)
				if err != nil {
					return nil, err
				}
				return &EnsureResult{Session: touched, Token: signToken(s.secret, sessionID, touched.ExpiresAt)}, nil
			case err == nil || errors.Is(err, domain.ErrNotFound):
				return s.heal(ctx, sessionID, clientHash, now)
			default:
				return nil, err
			}
		}
	}

	return s.mint(ctx, clientHash, now)
}

// Get is the read-only variant: it never creates anything. The second return
// reports that the cookie should be cleared because the backing record is
// gone, revoked or expired.
func (s *Service) Get(ctx context.Context, token string) (*domain.Session, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	sessionID, err := parseToken(s.secret, token, s.now())
	if err != nil {
		return nil, true, nil
	}
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, true, nil
		}
		return nil, false, err
	}
	if !sess.Usable(s.now()) {
		return nil, true, nil
	}
	return sess, false, nil
}

// Revoke marks the session revoked; the caller clears the cookie.
func (s *Service) Revoke(ctx context.Context, sessionID string) error {
	err := s.repo.SetStatus(ctx, sessionID, domain.SessionStatusRevoked)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}

// AttachUser binds an authenticated shopper to the session at login.
func (s *Service) AttachUser(ctx context.Context, sessionID, userID string) error {
	return s.repo.AttachUser(ctx, sessionID, userID)
}

func (s *Service) mint(ctx context.Context, clientHash string, now time.Time) (*EnsureResult, error) {
	return s.put(ctx, uuid.NewString(), clientHash, now)
}

func (s *Service) heal(ctx context.Context, sessionID, clientHash string, now time.Time) (*EnsureResult, error) {
	return s.put(ctx, sessionID, clientHash, now)
}

func (s *Service) put(ctx context.Context, sessionID, clientHash string, now time.Time) (*EnsureResult, error) {
	sess, err := s.repo.Put(ctx, domain.Session{
		ID:         sessionID,
		Status:     domain.SessionStatusActive,
		ClientHash: clientHash,
		ExpiresAt:  now.Add(TTL),
	})
	if err != nil {
		return nil, err
	}
	return &EnsureResult{Session: sess, Token: signToken(s.secret, sess.ID, sess.ExpiresAt)}, nil
}

package anonymous

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

var ErrInvalidToken = errors.New("invalid token")

// Service issues and validates opaque bearer tokens for guest sessions.
type Service struct {
	tokens tokenrepo.Repository
	ttl    time.Duration
	now    func() time.Time
}

func New(tokens tokenrepo.Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{
		tokens: tokens,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issued is a freshly minted guest session.
type Issued struct {
	Token     string    `json:"token"`
	GuestID   string    `json:"guestId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Service) Issue(ctx context.Context) (*Issued, error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	out := &Issued{
		Token:     token,
		GuestID:   uuid.NewString(),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.tokens.Create(ctx, tokenrepo.Token{
		Token:     out.Token,
		GuestID:   out.GuestID,
		Kind:      tokenrepo.KindGuest,
		ExpiresAt: out.ExpiresAt,
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// LookupByToken returns the guest id for a live token. Expired tokens are
// removed on sight.
func (s *Service) LookupByToken(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	meta, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if meta.Kind != tokenrepo.KindGuest {
		return "", ErrInvalidToken
	}
	if !s.now().Before(meta.ExpiresAt) {
		if err := s.tokens.Delete(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", ErrInvalidToken
	}
	return meta.GuestID, nil
}

// PurgeExpired deletes every expired token and reports how many were removed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

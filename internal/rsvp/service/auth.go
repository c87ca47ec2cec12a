package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brudebord/rsvp/internal/rsvp/ratelimit"
	"github.com/brudebord/rsvp/internal/rsvp/store"
	"github.com/brudebord/rsvp/pkg/cryptox"
	"github.com/brudebord/rsvp/pkg/idx"
	"github.com/brudebord/rsvp/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

const defaultSessionTTL = 12 * time.Hour

// AuthService issues and verifies admin dashboard sessions. Sessions are
// HS256 JWTs; passwords are argon2id hashes.
type AuthService struct {
	Store   store.Store
	Limiter *ratelimit.Limiter

	Secret     []byte
	Issuer     string
	SessionTTL time.Duration

	LoginLimit  int
	LoginWindow time.Duration
}

// Login verifies credentials and returns a session token.
func (s *AuthService) Login(ctx context.Context, username, password, remoteIP string) (string, error) {
	log := slogx.FromContext(ctx)

	// 1. Login attempts are limited per IP before touching the store.
	limit := s.LoginLimit
	if limit <= 0 {
		limit = 10
	}
	window := s.LoginWindow
	if window <= 0 {
		window = 15 * time.Minute
	}
	res := s.Limiter.Check(ctx,
		ratelimit.Key(ratelimit.PurposeVerify, ratelimit.DimensionIP, remoteIP),
		limit, window)
	if res.Limited {
		log.Warn("admin login rate limited", slog.String("ip", remoteIP))
		return "", &RateLimitedError{RetryAfterSeconds: res.RetryAfterSeconds}
	}

	// 2. Look up the admin. A missing account and a bad password are
	// indistinguishable to the caller.
	admin, err := s.Store.Admins().GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		log.Error("failed to fetch admin", slog.Any("error", err))
		return "", err
	}

	if err := cryptox.VerifyPassword(password, admin.PasswordHash); err != nil {
		log.Warn("admin login failed", slog.String("username", username), slog.String("ip", remoteIP))
		return "", ErrInvalidCredentials
	}

	// 3. Mint the session token.
	ttl := s.SessionTTL
	if ttl == 0 {
		ttl = defaultSessionTTL
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   admin.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        idx.New().String(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		log.Error("failed to sign session token", slog.Any("error", err))
		return "", err
	}

	log.Info("admin logged in", slog.String("admin_id", admin.ID))
	return token, nil
}

// VerifySession validates a session token and returns the admin ID.
func (s *AuthService) VerifySession(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidSession
		}
		return s.Secret, nil
	}, jwt.WithIssuer(s.Issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}

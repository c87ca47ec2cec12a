package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/brudebord/rsvp/internal/rsvp/domain"
	"github.com/brudebord/rsvp/internal/rsvp/store"
	"github.com/brudebord/rsvp/pkg/cryptox"
	"github.com/brudebord/rsvp/pkg/idx"
	"github.com/brudebord/rsvp/pkg/slogx"
)

var ErrBootstrapAlready = errors.New("admin account already exists")

// BootstrapService creates the first admin account on an empty database.
type BootstrapService struct {
	Store store.Store

	// Username and Password come from config. An empty Password means one is
	// generated and logged once at startup.
	Username string
	Password string
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Admins().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the initial admin and returns its ID. Safe to call on
// every startup; it is a no-op once an admin exists.
func (s *BootstrapService) Bootstrap(ctx context.Context) (string, error) {
	log := slogx.FromContext(ctx)

	// 1. Skip when an admin already exists.
	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return "", err
	} else if bootstrapped {
		return "", ErrBootstrapAlready
	}

	username := s.Username
	if username == "" {
		username = "admin"
	}

	// 2. Generate a password when none is configured.
	password := s.Password
	generated := false
	if password == "" {
		var err error
		password, err = cryptox.GeneratePassword()
		if err != nil {
			log.Error("failed to generate admin password", slog.Any("error", err))
			return "", err
		}
		generated = true
	}

	passHash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash admin password", slog.Any("error", err))
		return "", err
	}

	// 3. Create the account.
	admin := domain.Admin{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: passHash,
	}
	if err := s.Store.Admins().CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return "", ErrBootstrapAlready
		}
		log.Error("failed to create admin", slog.Any("error", err))
		return "", err
	}

	if generated {
		// Logged exactly once; the operator is expected to change it.
		log.Warn("generated initial admin password",
			slog.String("username", username),
			slog.String("password", password),
		)
	}

	log.Info("admin account bootstrapped",
		slog.String("admin_id", admin.ID),
		slog.String("username", username),
	)
	return admin.ID, nil
}

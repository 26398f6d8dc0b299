package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"terramap/api/internal/auth"
	"terramap/api/internal/models"
	"terramap/api/internal/repository"
)

// RoleService owns every role transition in the system: the one-time
// first-admin bootstrap and admin-driven toggling. A user never mutates
// their own role through any other path.
type RoleService struct {
	users    UserStore
	sessions SessionStore
	log      zerolog.Logger
}

func NewRoleService(users UserStore, sessions SessionStore, log zerolog.Logger) *RoleService {
	return &RoleService{users: users, sessions: sessions, log: log}
}

func (s *RoleService) IsAdmin(identity auth.Identity) bool {
	return identity.Admin()
}

// CanClaimAdmin reports whether the bootstrap window is open for this
// caller: they are authenticated, the only user, and no admin exists yet.
func (s *RoleService) CanClaimAdmin(ctx context.Context, identity auth.Identity) (bool, error) {
	if !identity.Authenticated() {
		return false, nil
	}
	total, admins, err := s.users.Counts(ctx)
	if err != nil {
		return false, err
	}
	return total == 1 && admins == 0, nil
}

// ClaimAdmin promotes the caller to admin. The precondition is re-validated
// atomically by the store, not trusted from an earlier CanClaimAdmin call.
func (s *RoleService) ClaimAdmin(ctx context.Context, identity auth.Identity) error {
	if !identity.Authenticated() {
		return ErrDenied
	}

	promoted, err := s.users.PromoteFirstAdmin(ctx, identity.UserID)
	if err != nil {
		return err
	}
	if !promoted {
		return ErrDenied
	}

	s.log.Info().Str("user_id", identity.UserID).Msg("first admin claimed")
	return nil
}

// ToggleAdmin flips the target between user and admin. Self-targeting is
// rejected outright; the bootstrap claim is the only self-service path.
func (s *RoleService) ToggleAdmin(ctx context.Context, identity auth.Identity, targetUserID string) (models.Role, error) {
	if !identity.Admin() {
		return "", ErrDenied
	}
	if targetUserID == identity.UserID {
		return "", ErrDenied
	}

	target, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	newRole := target.Role.Toggled()
	if err := s.users.UpdateRole(ctx, target.ID, newRole); err != nil {
		return "", err
	}

	s.log.Info().
		Str("admin_id", identity.UserID).
		Str("user_id", target.ID).
		Str("role", string(newRole)).
		Msg("role toggled")
	return newRole, nil
}

func (s *RoleService) ListUsers(ctx context.Context, identity auth.Identity) ([]models.User, error) {
	if !identity.Admin() {
		return nil, ErrDenied
	}
	return s.users.List(ctx)
}

func (s *RoleService) UserCounts(ctx context.Context, identity auth.Identity) (total int, admins int, err error) {
	if !identity.Admin() {
		return 0, 0, ErrDenied
	}
	return s.users.Counts(ctx)
}

// DeleteUser removes an account. The store cascades the user's terrains;
// outstanding sessions are revoked here.
func (s *RoleService) DeleteUser(ctx context.Context, identity auth.Identity, targetUserID string) error {
	if !identity.Admin() {
		return ErrDenied
	}

	if err := s.users.Delete(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.sessions.DeleteByUser(ctx, targetUserID); err != nil {
		s.log.Warn().Err(err).Str("user_id", targetUserID).Msg("session revocation failed")
	}

	s.log.Info().Str("admin_id", identity.UserID).Str("user_id", targetUserID).Msg("user deleted")
	return nil
}

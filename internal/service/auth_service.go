package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"terramap/api/internal/config"
	"terramap/api/internal/ids"
	"terramap/api/internal/models"
	"terramap/api/internal/repository"
	"terramap/api/internal/security"
)

type AuthService struct {
	users    UserStore
	sessions SessionStore
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(users UserStore, sessions SessionStore, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates exactly one user row with role "user". Usernames and
// emails match case-sensitively, so duplicates are whatever the unique
// indexes say they are.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return models.User{}, invalidf("username is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return models.User{}, invalidf("invalid email address")
	}
	if len(input.Password) < s.cfg.Security.MinPasswordLength {
		return models.User{}, invalidf("password must be at least %d characters", s.cfg.Security.MinPasswordLength)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Username:     username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			return models.User{}, &ConflictError{Message: "username already taken"}
		case errors.Is(err, repository.ErrEmailTaken):
			return models.User{}, &ConflictError{Message: "email already registered"}
		}
		return models.User{}, err
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

type LoginResult struct {
	Token string
	User  models.User
}

func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}

	token, err := security.GenerateAccessToken(
		s.cfg.Security.TokenSecret,
		user.ID,
		sess.ID,
		string(user.Role),
		s.cfg.Security.TokenTTL,
	)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Token: token, User: user}, nil
}

// Logout destroys the session behind the token. Destroying an already-absent
// session succeeds.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

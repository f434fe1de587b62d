package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zerofy/zerofy-backend/internal/users"
	"github.com/zerofy/zerofy-backend/pkg/auth"
	"github.com/zerofy/zerofy-backend/pkg/auth/session"
	"github.com/zerofy/zerofy-backend/pkg/config"
	"github.com/zerofy/zerofy-backend/pkg/db"
	"github.com/zerofy/zerofy-backend/pkg/db/models"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/security"
)

type usersRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes the authentication operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponseDTO, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponseDTO, error)
	Refresh(ctx context.Context, rawToken string, input RefreshInput) (*TokenPairDTO, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	repo        usersRepository
	sessions    sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService builds the auth service.
func NewService(repo usersRepository, sessions sessionManager, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		repo:        repo,
		sessions:    sessions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var phone *string
	if p := strings.TrimSpace(input.Phone); p != "" {
		phone = &p
	}
	user, err := s.repo.Create(ctx, users.CreateUserDTO{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Phone:        phone,
		PasswordHash: hash,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email is already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.issue(ctx, user)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record login")
	}
	return s.issue(ctx, user)
}

// Refresh rotates the session named by the (possibly expired) access token.
// The signature and issuer are still verified; only expiry is waived.
func (s *service) Refresh(ctx context.Context, rawToken string, input RefreshInput) (*TokenPairDTO, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwtCfg, rawToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	access, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: claims.UserID,
		Role:   claims.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &TokenPairDTO{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// issue mints the access token and a refresh session for the user.
func (s *service) issue(ctx context.Context, user *models.User) (*AuthResponseDTO, error) {
	accessID := session.NewAccessID()
	access, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	return &AuthResponseDTO{
		TokenPairDTO: TokenPairDTO{AccessToken: access, RefreshToken: refresh},
		User:         users.FromModel(user),
	}, nil
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zerofy/zerofy-backend/internal/users"
	pkgauth "github.com/zerofy/zerofy-backend/pkg/auth"
	"github.com/zerofy/zerofy-backend/pkg/auth/session"
	"github.com/zerofy/zerofy-backend/pkg/config"
	"github.com/zerofy/zerofy-backend/pkg/db/models"
	"github.com/zerofy/zerofy-backend/pkg/enums"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/security"
)

var (
	testJWTCfg = config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "zerofy-test",
		ExpirationMinutes: 15,
	}
	testPasswordCfg = config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
)

type stubUsersRepo struct {
	created  *users.CreateUserDTO
	user     *models.User
	findErr  error
	createErr error

	lastLogin *time.Time
}

func (s *stubUsersRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &dto
	return &models.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: dto.PasswordHash,
		Role:         enums.MemberRoleUser,
		IsActive:     true,
	}, nil
}

func (s *stubUsersRepo) FindByEmail(context.Context, string) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.user, nil
}

func (s *stubUsersRepo) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.user, nil
}

func (s *stubUsersRepo) TouchLastLogin(_ context.Context, _ uuid.UUID, at time.Time) error {
	s.lastLogin = &at
	return nil
}

type stubSessions struct {
	rotateErr  error
	revoked    []string
	generated  []string
}

func (s *stubSessions) Generate(_ context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return "refresh-" + accessID, nil
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, _ string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return "new-" + oldAccessID, "new-refresh", nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func newTestAuthService(repo usersRepository, sessions sessionManager) Service {
	svc, err := NewService(repo, sessions, testJWTCfg, testPasswordCfg)
	if err != nil {
		panic(err)
	}
	return svc
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordCfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "seller@example.com",
		Name:         "Seller",
		PasswordHash: hash,
		Role:         enums.MemberRoleUser,
		IsActive:     true,
	}
}

func TestRegisterIssuesTokens(t *testing.T) {
	repo := &stubUsersRepo{}
	sessions := &stubSessions{}
	svc := newTestAuthService(repo, sessions)

	resp, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Seller@Example.com ",
		Password: "correct-horse",
		Name:     "Seller",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if repo.created == nil || repo.created.Email != "seller@example.com" {
		t.Fatalf("expected normalized email, got %+v", repo.created)
	}
	if repo.created.PasswordHash == "correct-horse" {
		t.Fatal("password must be hashed before storage")
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.Email != "seller@example.com" {
		t.Fatalf("unexpected user %+v", resp.User)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTCfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if len(sessions.generated) != 1 || claims.ID != sessions.generated[0] {
		t.Fatal("session must be keyed by the token's jti")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &stubUsersRepo{createErr: errors.New(`duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`)}
	svc := newTestAuthService(repo, &stubSessions{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "seller@example.com",
		Password: "correct-horse",
		Name:     "Seller",
	})
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := &stubUsersRepo{user: activeUser(t, "correct-horse")}
	svc := newTestAuthService(repo, &stubSessions{})

	resp, err := svc.Login(context.Background(), LoginInput{
		Email:    "seller@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if repo.lastLogin == nil {
		t.Fatal("expected last login timestamp update")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &stubUsersRepo{user: activeUser(t, "correct-horse")}
	svc := newTestAuthService(repo, &stubSessions{})

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "seller@example.com",
		Password: "wrong",
	})
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	repo := &stubUsersRepo{findErr: gorm.ErrRecordNotFound}
	svc := newTestAuthService(repo, &stubSessions{})

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unknown email must look like a bad password, got %v", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	user := activeUser(t, "correct-horse")
	user.IsActive = false
	repo := &stubUsersRepo{user: user}
	svc := newTestAuthService(repo, &stubSessions{})

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "seller@example.com",
		Password: "correct-horse",
	})
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	user := activeUser(t, "correct-horse")
	token, err := pkgauth.MintAccessToken(testJWTCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    "old-session",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	svc := newTestAuthService(&stubUsersRepo{user: user}, &stubSessions{})
	pair, err := svc.Refresh(context.Background(), token, RefreshInput{RefreshToken: "refresh"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.RefreshToken != "new-refresh" {
		t.Fatalf("unexpected refresh token %q", pair.RefreshToken)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTCfg, pair.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.ID != "new-old-session" {
		t.Fatalf("expected rotated jti, got %q", claims.ID)
	}
	if claims.UserID != user.ID {
		t.Fatal("rotated token must keep the user id")
	}
}

func TestRefreshRejectsInvalidSession(t *testing.T) {
	user := activeUser(t, "correct-horse")
	token, err := pkgauth.MintAccessToken(testJWTCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	svc := newTestAuthService(&stubUsersRepo{user: user}, &stubSessions{rotateErr: session.ErrInvalidRefreshToken})
	_, err = svc.Refresh(context.Background(), token, RefreshInput{RefreshToken: "stolen"})
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestRefreshRejectsForeignToken(t *testing.T) {
	otherCfg := testJWTCfg
	otherCfg.Secret = "other-secret"
	token, err := pkgauth.MintAccessToken(otherCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.MemberRoleUser,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	svc := newTestAuthService(&stubUsersRepo{}, &stubSessions{})
	_, err = svc.Refresh(context.Background(), token, RefreshInput{RefreshToken: "refresh"})
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED for foreign signature, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessions{}
	svc := newTestAuthService(&stubUsersRepo{}, sessions)

	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "session-1" {
		t.Fatalf("expected revoke call, got %v", sessions.revoked)
	}
}

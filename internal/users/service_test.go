package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	"github.com/zerofy/zerofy-backend/pkg/enums"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/pagination"
)

type stubUserRepo struct {
	user    *models.User
	users   []models.User
	total   int64
	err     error
	listErr error

	setActiveCalls int
	lastActive     bool
}

func (s *stubUserRepo) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubUserRepo) SetActive(_ context.Context, _ uuid.UUID, active bool) error {
	s.setActiveCalls++
	s.lastActive = active
	return nil
}

func (s *stubUserRepo) List(context.Context, pagination.Params) ([]models.User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.users, nil
}

func (s *stubUserRepo) Count(context.Context) (int64, error) {
	return s.total, nil
}

func baseUser() *models.User {
	return &models.User{
		ID:        uuid.New(),
		Email:     "seller@example.com",
		Name:      "Seller",
		Role:      enums.MemberRoleUser,
		IsActive:  true,
		CreatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error creating service without repo")
	}
}

func TestGetByIDSuccess(t *testing.T) {
	user := baseUser()
	svc, err := NewService(&stubUserRepo{user: user})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if dto.ID != user.ID || dto.Email != user.Email {
		t.Fatalf("dto mismatch: %+v", dto)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc, err := NewService(&stubUserRepo{err: gorm.ErrRecordNotFound})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.GetByID(context.Background(), uuid.New())
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListReturnsPageAndCursor(t *testing.T) {
	rows := make([]models.User, 0, 4)
	for i := 0; i < 4; i++ {
		u := baseUser()
		u.CreatedAt = u.CreatedAt.Add(-time.Duration(i) * time.Hour)
		rows = append(rows, *u)
	}
	svc, err := NewService(&stubUserRepo{users: rows, total: 40})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.List(context.Background(), pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(result.Users))
	}
	if result.Total != 40 {
		t.Fatalf("expected total 40, got %d", result.Total)
	}
	if result.NextCursor == "" {
		t.Fatal("expected next cursor for over-fetched page")
	}

	cursor, err := pagination.ParseCursor(result.NextCursor)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if cursor.ID != rows[2].ID {
		t.Fatal("cursor must point at the last returned row")
	}
}

func TestListLastPageHasNoCursor(t *testing.T) {
	svc, err := NewService(&stubUserRepo{users: []models.User{*baseUser()}, total: 1})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	result, err := svc.List(context.Background(), pagination.Params{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if result.NextCursor != "" {
		t.Fatal("expected no cursor on the last page")
	}
}

func TestSetActive(t *testing.T) {
	repo := &stubUserRepo{user: baseUser()}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.SetActive(context.Background(), repo.user.ID, false)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}
	if repo.setActiveCalls != 1 || repo.lastActive {
		t.Fatalf("expected deactivation call, got calls=%d active=%v", repo.setActiveCalls, repo.lastActive)
	}
	if dto.IsActive {
		t.Fatal("dto must reflect the new state")
	}
}

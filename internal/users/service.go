package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/pagination"
)

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, params pagination.Params) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

// Service exposes account operations for the profile and admin surfaces.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, params pagination.Params) (*ListResult, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error)
}

// ListResult is one page of accounts plus the cursor for the next page.
type ListResult struct {
	Users      []UserDTO `json:"users"`
	Total      int64     `json:"total"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type service struct {
	repo userRepository
}

// NewService builds a user service with the provided repository.
func NewService(repo userRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*ListResult, error) {
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}

	page, hasMore := pagination.TrimPage(rows, params.Limit)
	result := &ListResult{
		Users: make([]UserDTO, 0, len(page)),
		Total: total,
	}
	for i := range page {
		result.Users = append(result.Users, *FromModel(&page[i]))
	}
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user state")
	}
	user.IsActive = active
	return FromModel(user), nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/inventra-labs/gatekeeper/internal/domain/user"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/persistence/models"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	appErrors "github.com/inventra-labs/gatekeeper/internal/shared/errors"
)

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, u *user.User) error {
	model := &models.UserModel{
		ID:           u.ID(),
		Email:        u.Email(),
		PasswordHash: u.PasswordHash(),
		Role:         string(u.Role()),
		CreatedAt:    u.CreatedAt(),
		UpdatedAt:    u.UpdatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if appErrors.IsDuplicateError(err) {
			return appErrors.NewConflictError("email already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepositoryImpl) ExistsWithRole(ctx context.Context, role authorization.Role) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).Where("role = ?", string(role)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepositoryImpl) first(ctx context.Context, query string, arg any) (*user.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUserEntity(&model)
}

func toUserEntity(m *models.UserModel) (*user.User, error) {
	role, err := authorization.ParseRole(m.Role)
	if err != nil {
		return nil, fmt.Errorf("user %s has corrupt role: %w", m.ID, err)
	}
	return user.Reconstruct(m.ID, m.Email, m.PasswordHash, role, m.CreatedAt, m.UpdatedAt)
}

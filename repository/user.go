package repository

import (
	"context"
	"errors"
	"fmt"

	"cashflow/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository 用户存储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户存储
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户，昵称重复时返回 ErrNicknameTaken
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("nickname = ?", user.Nickname).Count(&count).Error; err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	if count > 0 {
		return ErrNicknameTaken
	}

	if err := db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrNicknameTaken
		}
		return fmt.Errorf("创建用户失败: %w", err)
	}
	return nil
}

// FindByNickname 按昵称查找用户
func (r *UserRepository) FindByNickname(ctx context.Context, nickname string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("nickname = ?", nickname).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

// FindByID 按 ID 查找用户
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

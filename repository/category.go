package repository

import (
	"context"
	"errors"
	"fmt"

	"cashflow/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryInput 类别新增/修改参数，ID 为空表示新增
type CategoryInput struct {
	ID    *uuid.UUID
	Name  string
	Color string
}

// CategoryRepository 类别存储，所有操作按用户隔离
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建类别存储
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List 列出用户的全部类别，按 slug 排序
func (r *CategoryRepository) List(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	list := []models.Category{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("slug ASC, name ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}
	return list, nil
}

// Find 查找单个类别
func (r *CategoryRepository) Find(ctx context.Context, userID, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询类别失败: %w", err)
	}
	return &cat, nil
}

// FindByIDs 批量查找类别，不存在的 ID 不会出现在结果中
func (r *CategoryRepository) FindByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Category, error) {
	list := []models.Category{}
	if len(ids) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("批量查询类别失败: %w", err)
	}
	return list, nil
}

// Upsert 新增或修改类别，slug 由名称生成
func (r *CategoryRepository) Upsert(ctx context.Context, userID uuid.UUID, in CategoryInput) (*models.Category, error) {
	db := r.db.WithContext(ctx)

	if in.ID == nil {
		cat := models.Category{Name: in.Name, Color: in.Color, UserID: userID}
		if err := db.Create(&cat).Error; err != nil {
			return nil, fmt.Errorf("创建类别失败: %w", err)
		}
		return &cat, nil
	}

	cat, err := r.Find(ctx, userID, *in.ID)
	if err != nil {
		return nil, err
	}
	cat.Name = in.Name
	cat.Color = in.Color
	if err := db.Save(cat).Error; err != nil {
		return nil, fmt.Errorf("更新类别失败: %w", err)
	}
	return cat, nil
}

// Delete 删除类别；仍被记账条目引用时返回 ErrCategoryInUse
func (r *CategoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) (*models.Category, error) {
	cat, err := r.Find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	var refs int64
	if err := db.Model(&models.Budget{}).Where("category_id = ?", cat.ID).Count(&refs).Error; err != nil {
		return nil, fmt.Errorf("查询类别引用失败: %w", err)
	}
	if refs > 0 {
		return nil, ErrCategoryInUse
	}

	// 计数与删除之间可能有新条目写入，外键约束兜底
	if err := db.Where("id = ? AND user_id = ?", cat.ID, userID).Delete(&models.Category{}).Error; err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrCategoryInUse
		}
		return nil, fmt.Errorf("删除类别失败: %w", err)
	}
	return cat, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashflow/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CycleInput 周期参数
type CycleInput struct {
	Period models.Period
	End    *time.Time
}

// BudgetInput 记账条目新增/修改参数，ID 为空表示新增，Cycle 为空表示一次性条目
type BudgetInput struct {
	ID          *uuid.UUID
	Title       string
	Description string
	Amount      decimal.Decimal
	Day         time.Time
	Type        models.BudgetType
	CategoryID  uuid.UUID
	Cycle       *CycleInput
}

// BudgetRepository 记账条目与周期存储
type BudgetRepository struct {
	db *gorm.DB
}

// NewBudgetRepository 创建记账条目存储
func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// List 列出日期在窗口内的条目定义（不展开周期）
func (r *BudgetRepository) List(ctx context.Context, userID uuid.UUID, start, end *time.Time) ([]models.Budget, error) {
	query := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Cycle").
		Where("user_id = ?", userID)
	if start != nil {
		query = query.Where("day >= ?", start.UTC())
	}
	if end != nil {
		query = query.Where("day <= ?", end.UTC())
	}

	list := []models.Budget{}
	if err := query.Order("day DESC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("查询记账条目失败: %w", err)
	}
	return list, nil
}

// Find 查找单个条目，附带类别与周期
func (r *BudgetRepository) Find(ctx context.Context, userID, id uuid.UUID) (*models.Budget, error) {
	return findBudget(r.db.WithContext(ctx), userID, id)
}

// ListOneOff 一次性条目：start <= day <= upper
func (r *BudgetRepository) ListOneOff(ctx context.Context, userID uuid.UUID, start *time.Time, upper time.Time) ([]models.Budget, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND cycle_id IS NULL AND day <= ?", userID, upper.UTC())
	if start != nil {
		query = query.Where("day >= ?", start.UTC())
	}

	list := []models.Budget{}
	if err := query.Order("day ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("查询一次性条目失败: %w", err)
	}
	return list, nil
}

// ListRecurring 可能与窗口相交的周期条目：day <= upper 且周期未在 start 前结束
// 仅做粗过滤，精确筛选由展开后的窗口过滤完成
func (r *BudgetRepository) ListRecurring(ctx context.Context, userID uuid.UUID, start *time.Time, upper time.Time) ([]models.Budget, error) {
	db := r.db.WithContext(ctx)
	query := db.Preload("Cycle").
		Where("user_id = ? AND cycle_id IS NOT NULL AND day <= ?", userID, upper.UTC())
	if start != nil {
		active := db.Model(&models.Cycle{}).
			Select("id").
			Where("user_id = ? AND (end_date IS NULL OR end_date >= ?)", userID, start.UTC())
		query = query.Where("cycle_id IN (?)", active)
	}

	list := []models.Budget{}
	if err := query.Order("day ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("查询周期条目失败: %w", err)
	}
	return list, nil
}

// Upsert 在单个事务中保存条目及其周期
//   - 有周期：更新已关联的周期或新建周期
//   - 无周期：解除关联并删除旧周期
func (r *BudgetRepository) Upsert(ctx context.Context, userID uuid.UUID, in BudgetInput) (*models.Budget, error) {
	var saved *models.Budget
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.Select("id").Where("id = ? AND user_id = ?", in.CategoryID, userID).First(&cat).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidCategory
			}
			return fmt.Errorf("查询类别失败: %w", err)
		}

		budget := models.Budget{UserID: userID}
		if in.ID != nil {
			if err := tx.Where("id = ? AND user_id = ?", *in.ID, userID).First(&budget).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return fmt.Errorf("查询记账条目失败: %w", err)
			}
		}
		oldCycleID := budget.CycleID

		if in.Cycle != nil {
			cycleID, err := saveCycle(tx, userID, oldCycleID, in.Cycle)
			if err != nil {
				return err
			}
			budget.CycleID = &cycleID
		} else {
			budget.CycleID = nil
		}

		budget.Title = in.Title
		budget.Description = in.Description
		budget.Amount = in.Amount
		budget.Day = in.Day
		budget.Type = in.Type
		budget.CategoryID = cat.ID
		budget.Category = nil
		budget.Cycle = nil

		var err error
		if in.ID == nil {
			err = tx.Omit(clause.Associations).Create(&budget).Error
		} else {
			err = tx.Omit(clause.Associations).Save(&budget).Error
		}
		if err != nil {
			return fmt.Errorf("保存记账条目失败: %w", err)
		}

		// 先解除关联再删除旧周期，避免条目指向已删除的周期
		if in.Cycle == nil && oldCycleID != nil {
			if err := tx.Where("id = ? AND user_id = ?", *oldCycleID, userID).Delete(&models.Cycle{}).Error; err != nil {
				return fmt.Errorf("删除周期失败: %w", err)
			}
		}

		saved, err = findBudget(tx, userID, budget.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Delete 在单个事务中删除条目及其周期，返回被删除的条目
func (r *BudgetRepository) Delete(ctx context.Context, userID, id uuid.UUID) (*models.Budget, error) {
	var deleted *models.Budget
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		budget, err := findBudget(tx, userID, id)
		if err != nil {
			return err
		}

		if err := tx.Where("id = ? AND user_id = ?", budget.ID, userID).Delete(&models.Budget{}).Error; err != nil {
			return fmt.Errorf("删除记账条目失败: %w", err)
		}
		if budget.CycleID != nil {
			if err := tx.Where("id = ? AND user_id = ?", *budget.CycleID, userID).Delete(&models.Cycle{}).Error; err != nil {
				return fmt.Errorf("删除周期失败: %w", err)
			}
		}

		deleted = budget
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// saveCycle 更新已有周期或新建周期，返回周期 ID
func saveCycle(tx *gorm.DB, userID uuid.UUID, existing *uuid.UUID, in *CycleInput) (uuid.UUID, error) {
	var end *time.Time
	if in.End != nil {
		e := in.End.UTC()
		end = &e
	}

	if existing != nil {
		var cycle models.Cycle
		err := tx.Where("id = ? AND user_id = ?", *existing, userID).First(&cycle).Error
		switch {
		case err == nil:
			cycle.Period = in.Period
			cycle.End = end
			if err := tx.Save(&cycle).Error; err != nil {
				return uuid.Nil, fmt.Errorf("更新周期失败: %w", err)
			}
			return cycle.ID, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return uuid.Nil, fmt.Errorf("查询周期失败: %w", err)
		}
	}

	cycle := models.Cycle{Period: in.Period, End: end, UserID: userID}
	if err := tx.Create(&cycle).Error; err != nil {
		return uuid.Nil, fmt.Errorf("创建周期失败: %w", err)
	}
	return cycle.ID, nil
}

func findBudget(db *gorm.DB, userID, id uuid.UUID) (*models.Budget, error) {
	var budget models.Budget
	if err := db.Preload("Category").
		Preload("Cycle").
		Where("id = ? AND user_id = ?", id, userID).
		First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询记账条目失败: %w", err)
	}
	return &budget, nil
}

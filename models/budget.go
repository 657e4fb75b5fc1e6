package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetType 收支类型
type BudgetType string

const (
	// BudgetTypeInput 收入
	BudgetTypeInput BudgetType = "INPUT"
	// BudgetTypeOutput 支出
	BudgetTypeOutput BudgetType = "OUTPUT"
)

// Valid 是否为支持的收支类型
func (t BudgetType) Valid() bool {
	return t == BudgetTypeInput || t == BudgetTypeOutput
}

// Budget 记账条目
// 无周期时 Day 为发生日期；有周期时 Day 为周期展开的起点
type Budget struct {
	Model
	Title       string          `json:"title" gorm:"size:100;not null"`
	Description string          `json:"description" gorm:"size:255"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null" swaggertype:"string" example:"1000.00"`
	Day         time.Time       `json:"day" gorm:"index;not null"`
	Type        BudgetType      `json:"type" gorm:"size:10;not null" example:"OUTPUT"`
	CategoryID  uuid.UUID       `json:"categoryId" gorm:"type:char(36);index;not null"`
	Category    *Category       `json:"category,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	CycleID     *uuid.UUID      `json:"cycleId" gorm:"type:char(36);uniqueIndex"`
	Cycle       *Cycle          `json:"cycle,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	UserID      uuid.UUID       `json:"userId" gorm:"type:char(36);index;not null"`
}

func (Budget) TableName() string {
	return "budgets"
}

// IsRecurring 是否为周期条目
func (b *Budget) IsRecurring() bool {
	return b.CycleID != nil && b.Cycle != nil
}

// BeforeSave 去除标题空白，日期统一为 UTC
func (b *Budget) BeforeSave(_ *gorm.DB) error {
	b.Title = strings.TrimSpace(b.Title)
	b.Description = strings.TrimSpace(b.Description)
	b.Day = b.Day.UTC()
	return nil
}

// AfterFind 读取后统一转换为 UTC
func (b *Budget) AfterFind(tx *gorm.DB) error {
	_ = b.Model.AfterFind(tx)
	b.Day = b.Day.UTC()
	return nil
}

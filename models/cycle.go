package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Period 周期单位
type Period string

const (
	PeriodDay   Period = "DAY"
	PeriodWeek  Period = "WEEK"
	PeriodMonth Period = "MONTH"
	PeriodYear  Period = "YEAR"
)

// Periods 返回所有支持的周期
func Periods() []Period {
	return []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear}
}

// Valid 是否为支持的周期
func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// Cycle 周期定义，与记账条目一对一
type Cycle struct {
	Model
	Period Period     `json:"period" gorm:"size:10;not null" example:"MONTH"`
	End    *time.Time `json:"end" gorm:"column:end_date"` // 为空表示无截止日期
	UserID uuid.UUID  `json:"userId" gorm:"type:char(36);index;not null"`
}

func (Cycle) TableName() string {
	return "cycles"
}

// BeforeSave 截止日期统一为 UTC
func (c *Cycle) BeforeSave(_ *gorm.DB) error {
	if c.End != nil {
		end := c.End.UTC()
		c.End = &end
	}
	return nil
}

// AfterFind 读取后统一转换为 UTC
func (c *Cycle) AfterFind(tx *gorm.DB) error {
	_ = c.Model.AfterFind(tx)
	if c.End != nil {
		end := c.End.UTC()
		c.End = &end
	}
	return nil
}

package models

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCategoryColor 类别默认颜色（灰色）
const DefaultCategoryColor = "#64748b"

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Category 记账类别，归属于单个用户
type Category struct {
	Model
	Slug   string    `json:"slug" gorm:"size:100;index"`
	Name   string    `json:"name" gorm:"size:50;not null"`
	Color  string    `json:"color" gorm:"size:20;not null"` // 颜色代码，如 #ef4444
	UserID uuid.UUID `json:"userId" gorm:"type:char(36);index;not null"`
}

func (Category) TableName() string {
	return "categories"
}

// BeforeSave 规范化名称并根据名称生成 slug
func (c *Category) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = Slugify(c.Name)
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	return nil
}

// IsValidColor 校验十六进制颜色，支持 #rgb 与 #rrggbb
func IsValidColor(color string) bool {
	return colorPattern.MatchString(color)
}

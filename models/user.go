package models

import (
	"strings"

	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	Model
	Nickname string `json:"nickname" gorm:"uniqueIndex;size:50;not null"`
	Password string `json:"-" gorm:"size:255;not null"`
	Email    string `json:"email,omitempty" gorm:"size:100"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// BeforeSave 去除昵称首尾空白
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Nickname = strings.TrimSpace(u.Nickname)
	u.Email = strings.TrimSpace(u.Email)
	return nil
}

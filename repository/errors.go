package repository

import (
	"errors"
	"strings"

	"github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound 记录不存在或不属于当前用户
	ErrNotFound = errors.New("记录不存在")
	// ErrCategoryInUse 类别仍被记账条目引用
	ErrCategoryInUse = errors.New("类别正在被记账条目使用")
	// ErrInvalidCategory 条目引用的类别不存在或不属于当前用户
	ErrInvalidCategory = errors.New("类别不存在或不属于当前用户")
	// ErrNicknameTaken 昵称已被注册
	ErrNicknameTaken = errors.New("昵称已被使用")
)

const (
	mysqlRowIsReferenced = 1451
	mysqlDuplicateEntry  = 1062

	sqliteConstraintForeignKey = 787
	sqliteConstraintTrigger    = 1811 // 删除被引用行时驱动报告的扩展码
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// isForeignKeyViolation 判断是否为外键约束错误（mysql / sqlite）
// sqlite 扩展码不匹配时再按错误信息判断
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlRowIsReferenced
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteConstraintForeignKey, sqliteConstraintTrigger:
			return true
		}
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// isUniqueViolation 判断是否为唯一约束错误（mysql / sqlite）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

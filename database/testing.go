package database

import (
	"testing"

	"cashflow/config"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenTestDB 打开迁移完成的内存 sqlite 数据库，测试结束时自动关闭
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

package cmd

import (
	"fmt"

	"cashflow/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		Long:  `创建或更新用户、类别、周期与记账条目表结构，不启动服务。`,
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := database.Open(&cfg.Database)
			if err != nil {
				return fmt.Errorf("数据库初始化失败: %w", err)
			}
			defer closeDB(db)

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("数据库迁移失败: %w", err)
			}
			log.Info().Str("driver", cfg.Database.Driver).Msg("数据库迁移完成")
			return nil
		},
	}
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("关闭数据库连接失败")
	}
}

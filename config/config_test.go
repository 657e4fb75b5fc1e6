package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeErrorMessage(t *testing.T) {
	fallback := "操作失败"
	testErr := errors.New("internal database error")

	// nil err 返回 fallback
	assert.Equal(t, fallback, SafeErrorMessage(nil, fallback))

	// release 模式返回 fallback，不暴露错误详情
	GlobalConfig = &Config{Server: ServerConfig{Mode: "release"}}
	defer func() { GlobalConfig = nil }()
	assert.Equal(t, fallback, SafeErrorMessage(testErr, fallback))

	// debug 模式返回 err.Error()
	GlobalConfig = &Config{Server: ServerConfig{Mode: "debug"}}
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))

	// GlobalConfig 为 nil 时返回 err.Error()（视为开发环境）
	GlobalConfig = nil
	assert.Equal(t, "internal database error", SafeErrorMessage(testErr, fallback))
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "cashflow-auth", cfg.JWT.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.True(t, cfg.Budget.AmountLimit.Equal(decimal.NewFromInt(999999999)))
	assert.Same(t, cfg, GlobalConfig)
}

func TestLoadConfig_ExternalFileAndEnv(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: \"9090\"\n  mode: release\njwt:\n  expire_hours: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CASHFLOW_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// 端口自动补全冒号
	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 2*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Mode: "verbose"},
		Database: DatabaseConfig{Driver: "postgres"},
		Log:      LogConfig{Format: "xml"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	// 所有问题一次性返回
	assert.Contains(t, err.Error(), "server.mode")
	assert.Contains(t, err.Error(), "database.driver")
	assert.Contains(t, err.Error(), "jwt.secret")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "budget.amount_limit")

	ok := &Config{
		Server:   ServerConfig{Mode: "debug"},
		Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"},
		JWT:      JWTConfig{Secret: "s"},
		Budget:   BudgetConfig{AmountLimit: decimal.NewFromInt(10)},
	}
	assert.NoError(t, ok.Validate())
}

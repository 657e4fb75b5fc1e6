package logger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger 将 GORM 日志写入 zerolog
type GormLogger struct {
	logger        zerolog.Logger
	slowThreshold time.Duration
}

// NewGormLogger 创建 GORM 日志适配器，超过 slowThreshold 的查询记为慢查询
func NewGormLogger(slowThreshold time.Duration) *GormLogger {
	return &GormLogger{
		logger:        log.Logger.With().Str("component", "gorm").Logger(),
		slowThreshold: slowThreshold,
	}
}

func (l *GormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *GormLogger) Info(_ context.Context, s string, args ...interface{}) {
	l.logger.Info().Msgf(s, args...)
}

func (l *GormLogger) Warn(_ context.Context, s string, args ...interface{}) {
	l.logger.Warn().Msgf(s, args...)
}

func (l *GormLogger) Error(_ context.Context, s string, args ...interface{}) {
	l.logger.Error().Msgf(s, args...)
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := map[string]interface{}{
		"sql":      sql,
		"rows":     rows,
		"duration": elapsed,
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.Error().Err(err).Fields(fields).Msg("[GORM] query error")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold:
		l.logger.Warn().Fields(fields).Msg("[GORM] slow query")
	default:
		l.logger.Debug().Fields(fields).Msg("[GORM] query")
	}
}

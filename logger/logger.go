package logger

import (
	"io"
	"os"
	"strings"

	"cashflow/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup 根据配置初始化全局日志
// format 未设置时，debug 模式使用控制台格式，其余使用 JSON
func Setup(cfg config.LogConfig, mode string) {
	Configure(os.Stdout, cfg, mode)
}

// Configure 将全局日志输出到指定 writer
func Configure(w io.Writer, cfg config.LogConfig, mode string) {
	output := w
	if cfg.Format == "console" || (cfg.Format == "" && mode == "debug") {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level, mode))
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

func parseLevel(level, mode string) zerolog.Level {
	if level == "" {
		if mode == "debug" {
			return zerolog.DebugLevel
		}
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cashflow/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("", "debug"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("", "release"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("WARN", "debug"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("chatty", "debug"))
}

func TestConfigure_JSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	Configure(&buf, config.LogConfig{Level: "info", Format: "json"}, "release")

	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("shown")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestGormLogger_Trace(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	Configure(&buf, config.LogConfig{Level: "debug", Format: "json"}, "release")
	l := NewGormLogger(50 * time.Millisecond)
	fc := func() (string, int64) { return "SELECT 1", 1 }

	// 记录不存在不算错误
	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Contains(t, buf.String(), `"level":"debug"`)
	buf.Reset()

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "boom")
	buf.Reset()

	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.Contains(t, buf.String(), "slow query")
}

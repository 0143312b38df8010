package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amoylab/familia/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestGetLogLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"unknown": zapcore.InfoLevel,
	}
	for in, exp := range cases {
		assert.Equal(t, exp, getLogLevel(in), in)
	}
}

func TestSetLoggerDefaults(t *testing.T) {
	cfg := &config.LoggerConfig{Output: "file"}
	setLoggerDefaults(cfg)
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "./logs/apiserver.log", cfg.FilePath)
	assert.Equal(t, 100, cfg.MaxSize)
	assert.Equal(t, 3, cfg.MaxBackups)
	assert.Equal(t, 7, cfg.MaxAge)
	assert.Equal(t, "Local", cfg.TimeZone)
}

func TestResolveTimeZone(t *testing.T) {
	assert.Equal(t, time.Local, resolveTimeZone(""))
	assert.Equal(t, time.Local, resolveTimeZone("Not/AZone"))
	assert.Equal(t, "UTC", resolveTimeZone("UTC").String())
}

func TestNewLogger_Stdout(t *testing.T) {
	lg, err := NewLogger(&config.LoggerConfig{Format: "console", Color: true, Stacktrace: true})
	require.NoError(t, err)
	lg.Info("hello")
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	lg, err := NewLogger(&config.LoggerConfig{Output: "file", FilePath: path, TimeZone: "UTC"})
	require.NoError(t, err)
	lg.Info("written to file")
	_ = lg.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnv(t *testing.T) {
	t.Setenv("FAMILIA_PORT", "8080")

	out := resolveEnv([]byte("port: ${FAMILIA_PORT:5000}\nhost: ${FAMILIA_HOST:localhost}\nempty: ${FAMILIA_NOPE}"))
	assert.Equal(t, "port: 8080\nhost: localhost\nempty: ", string(out))
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "apiserver.yaml")
	content := `
server:
  port: ${TEST_API_PORT:7000}
jwt:
  secret_key: "0123456789abcdef0123456789abcdef"
database:
  type: sqlite
  dbname: ":memory:"
`
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o644))

	cfg, path, err := LoadConfig[APIServerConfig](cfgFile)
	require.NoError(t, err)
	assert.Equal(t, cfgFile, path)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 2500*time.Millisecond, cfg.Realtime.TypingTimeout)
	assert.Equal(t, "/ws", cfg.Realtime.Path)
	assert.Equal(t, 64, cfg.Realtime.SendBuffer)
	assert.Less(t, cfg.Realtime.PingInterval, cfg.Realtime.PongWait)
	assert.Equal(t, BusTypeMemory, cfg.Bus.Type)
	assert.False(t, cfg.Realtime.AllowClientNotificationPush)
}

func TestLoadConfig_RelativeUnderConfigs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	content := "jwt:\n  secret_key: abc\nbus:\n  type: redis\n  redis:\n    addr: 127.0.0.1:6379\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "test.yaml"), []byte(content), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, _, err := LoadConfig[APIServerConfig]("test.yaml")
	require.NoError(t, err)
	assert.Equal(t, BusTypeRedis, cfg.Bus.Type)
	assert.Equal(t, "familia:realtime", cfg.Bus.Redis.Topic)
}

func TestValidate(t *testing.T) {
	base := func() APIServerConfig {
		c := APIServerConfig{JWT: JWTConfig{SecretKey: "k"}}
		c.setDefaults()
		return c
	}

	c := base()
	assert.NoError(t, c.Validate())

	c = base()
	c.Database.Type = "oracle"
	assert.Error(t, c.Validate())

	c = base()
	c.Bus.Type = "redis"
	assert.Error(t, c.Validate())

	c = base()
	c.Bus.Type = "kafka"
	assert.Error(t, c.Validate())

	c = base()
	c.JWT.SecretKey = ""
	assert.Error(t, c.Validate())
}

func TestGetDSN(t *testing.T) {
	pg := DatabaseConfig{Type: "postgres", User: "u", Password: "p", Host: "h", Port: 5432, DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", pg.GetDSN())

	my := DatabaseConfig{Type: "mysql", User: "u", Password: "p", Host: "h", Port: 3306, DBName: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=Local", my.GetDSN())

	lite := DatabaseConfig{Type: "sqlite", DBName: filepath.Join(t.TempDir(), "sub", "x.db")}
	assert.Equal(t, lite.DBName, lite.GetDSN())
	_, err := os.Stat(filepath.Dir(lite.DBName))
	assert.NoError(t, err)

	assert.Equal(t, "", (&DatabaseConfig{Type: "none"}).GetDSN())
}

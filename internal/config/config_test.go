package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gungi-backend/internal/gungi"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Fills defaults for missing keys", func(t *testing.T) {
		// Given: a config file with only a log level
		path := writeConfig(t, "log-level: debug\n")

		// When: it is loaded
		conf, err := Load(path)

		// Then: every other key carries its default
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "7070", conf.SocketPort)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, gungi.DefaultDrawPolicy, conf.Rules.DrawPolicy())
		assert.Equal(t, "./archive", conf.Archive.Dir)
		assert.Equal(t, time.Hour, conf.Archive.Retention)
	})

	t.Run("Reads rules and archive sections", func(t *testing.T) {
		path := writeConfig(t, `
rules:
  move-limit: 120
  repetition-limit: 5
archive:
  dir: /tmp/games
  retention: 15m
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, gungi.DrawPolicy{MoveLimit: 120, RepetitionLimit: 5}, conf.Rules.DrawPolicy())
		assert.Equal(t, "/tmp/games", conf.Archive.Dir)
		assert.Equal(t, 15*time.Minute, conf.Archive.Retention)
	})

	t.Run("Fails on a missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.Error(t, err)
	})

	t.Run("MustLoad panics on a missing file", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "absent.yml"))
		})
	})
}

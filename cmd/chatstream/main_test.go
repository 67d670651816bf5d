package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fwojciec/chatstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	f, err := parseFlags([]string{
		"-provider", "gemini",
		"-model", "gemini-2.5-pro",
		"-store", "sqlite",
		"-session", "abc",
		"-no-search",
		"-log-level", "debug",
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini", f.provider)
	assert.Equal(t, "abc", f.session)
	assert.Equal(t, "debug", f.logLevel)
	assert.Equal(t, "text", f.logFormat)
	assert.Equal(t, "config.toml", filepath.Base(f.config))

	cfg := f.apply(chatstream.DefaultConfig())
	assert.Equal(t, "gemini", cfg.Backend.Provider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Backend.Model)
	assert.Equal(t, "sqlite", cfg.Store.Kind)
	assert.False(t, cfg.Search.Enabled)
}

func TestParseFlags_EmptyLeavesConfig(t *testing.T) {
	t.Parallel()

	f, err := parseFlags(nil)
	require.NoError(t, err)

	want := chatstream.DefaultConfig()
	assert.Equal(t, want, f.apply(want))
}

func TestParseFlags_Unknown(t *testing.T) {
	t.Parallel()
	_, err := parseFlags([]string{"-bogus"})
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json at debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger, err := newLogger(&buf, "json", "debug")
		require.NoError(t, err)
		logger.Debug("hello", "k", "v")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
		assert.Contains(t, buf.String(), `"service":"chatstream"`)
	})

	t.Run("text filters below level", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger, err := newLogger(&buf, "text", "warn")
		require.NoError(t, err)
		logger.Info("quiet")
		logger.Warn("loud")
		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "msg=loud")
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()
		_, err := newLogger(&bytes.Buffer{}, "xml", "info")
		require.ErrorIs(t, err, chatstream.ErrValidation)
		_, err = newLogger(&bytes.Buffer{}, "text", "loud")
		require.ErrorIs(t, err, chatstream.ErrValidation)
	})
}

func TestSetupTracing_Disabled(t *testing.T) {
	t.Parallel()
	shutdown, err := setupTracing("")
	require.NoError(t, err)
	assert.NoError(t, shutdown(t.Context()))
}

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/compresr/omni-transform/internal/config"
)

const helloEnvelope = `{
	"capability": "chat",
	"provider": {"preferred": ["ollama", "openai"]},
	"request": {"model": "llama3", "messages": [{"role": "user", "content": [{"type": "text", "text": "hello"}]}]}
}`

func embeddedConfig(t *testing.T) *config.Config {
	t.Helper()
	data, err := getEmbeddedConfig(defaultConfigName)
	require.NoError(t, err)
	cfg, err := config.LoadFromBytes(data)
	require.NoError(t, err)
	return cfg
}

func testApp(t *testing.T) *app {
	t.Helper()
	a, err := newApp(embeddedConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// =============================================================================
// TRANSFORM STREAM
// =============================================================================

func TestTransformStream_Success(t *testing.T) {
	a := testApp(t)
	var out bytes.Buffer

	require.NoError(t, a.transformStream(context.Background(), strings.NewReader(helloEnvelope), &out, false))

	assert.True(t, strings.HasSuffix(out.String(), "}\n"))
	assert.Contains(t, out.String(), "\n  \"ok\": true")
	assert.Equal(t, "ollama", gjson.Get(out.String(), "selected_provider").String())
	assert.Equal(t, `["openai"]`, gjson.Get(out.String(), "fallback_candidates").Raw)
	assert.Equal(t, "hello", gjson.Get(out.String(), "provider_payload.messages.0.content").String())
}

func TestTransformStream_Compact(t *testing.T) {
	a := testApp(t)
	var out bytes.Buffer

	require.NoError(t, a.transformStream(context.Background(), strings.NewReader(helloEnvelope), &out, true))

	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
	assert.True(t, gjson.Get(out.String(), "ok").Bool())
}

func TestTransformStream_DecodeFailure(t *testing.T) {
	a := testApp(t)
	var out bytes.Buffer

	require.NoError(t, a.transformStream(context.Background(), strings.NewReader(`{"capability": `), &out, true))

	assert.False(t, gjson.Get(out.String(), "ok").Bool())
	assert.Equal(t, "INVALID_CANONICAL_REQUEST", gjson.Get(out.String(), "error.code").String())
	assert.False(t, gjson.Get(out.String(), "error.retryable").Bool())
	assert.Equal(t, 1, int(a.observer.Metrics().Stats()["invalid"]))
}

func TestTransformStream_ReadFailure(t *testing.T) {
	a := testApp(t)
	var out bytes.Buffer

	require.NoError(t, a.transformStream(context.Background(), failingReader{err: errors.New("no such file")}, &out, true))

	assert.Equal(t, "INTERNAL_MAPPING_ERROR", gjson.Get(out.String(), "error.code").String())
	assert.True(t, gjson.Get(out.String(), "error.retryable").Bool())
	assert.Equal(t, "no such file", gjson.Get(out.String(), "error.details.error").String())
}

func TestTransformStream_ValidationFailureIsADocument(t *testing.T) {
	a := testApp(t)
	var out bytes.Buffer

	body := strings.Replace(helloEnvelope, `"model": "llama3"`, `"model": ""`, 1)
	require.NoError(t, a.transformStream(context.Background(), strings.NewReader(body), &out, true))

	assert.Equal(t, "INVALID_CANONICAL_REQUEST", gjson.Get(out.String(), "error.code").String())
	assert.Equal(t, "request.model must not be empty", gjson.Get(out.String(), "error.details.violations.0").String())
}

// =============================================================================
// TRANSFORM COMMAND
// =============================================================================

// isolateConfig makes config resolution fall through to the embedded default.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OMNI_TELEMETRY_LOG", "")
	t.Chdir(t.TempDir())
}

func TestRunTransform_IgnoresServerSettings(t *testing.T) {
	isolateConfig(t)
	t.Setenv("OMNI_PORT", "70000")
	var out bytes.Buffer

	code := runTransform([]string{"--compact"}, strings.NewReader(helloEnvelope), &out)

	assert.Equal(t, 0, code)
	assert.True(t, gjson.Get(out.String(), "ok").Bool())
	assert.Equal(t, "ollama", gjson.Get(out.String(), "selected_provider").String())
}

func TestRunTransform_StartupFailuresWriteADocument(t *testing.T) {
	dir := t.TempDir()
	badConfig := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badConfig, []byte("engine:\n  adapter_version: v1\n  providers:\n    anthropic: {enabled: true}\n"), 0o600))
	notADir := filepath.Join(dir, "plain-file")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o600))

	tests := []struct {
		name      string
		args      []string
		telemetry string
		wantStage string
		wantError string
	}{
		{"unknown flag", []string{"--nope"}, "", "flags", "nope"},
		{"missing config file", []string{"--config", filepath.Join(dir, "missing.yaml")}, "", "config", "missing.yaml"},
		{"invalid config", []string{"--config", badConfig}, "", "config", `unknown provider "anthropic"`},
		{"unwritable telemetry log", nil, filepath.Join(notADir, "logs", "telemetry.jsonl"), "init", "failed to open telemetry log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			t.Setenv("OMNI_TELEMETRY_LOG", tt.telemetry)
			var out bytes.Buffer

			code := runTransform(tt.args, strings.NewReader(helloEnvelope), &out)

			assert.Equal(t, 0, code)
			doc := out.String()
			require.True(t, gjson.Valid(doc), doc)
			assert.False(t, gjson.Get(doc, "ok").Bool())
			assert.Equal(t, "INTERNAL_MAPPING_ERROR", gjson.Get(doc, "error.code").String())
			assert.Equal(t, tt.wantStage, gjson.Get(doc, "error.details.stage").String())
			assert.Contains(t, gjson.Get(doc, "error.details.error").String(), tt.wantError)
			assert.Equal(t, "[]", gjson.Get(doc, "diagnostics.attempted_providers").Raw)
			assert.Equal(t, "[]", gjson.Get(doc, "fallback_candidates").Raw)
		})
	}
}

func TestRunTransform_HelpWritesNothing(t *testing.T) {
	var out bytes.Buffer

	assert.Equal(t, 0, runTransform([]string{"-h"}, strings.NewReader(""), &out))
	assert.Empty(t, out.String())
}

// =============================================================================
// CONFIG RESOLUTION
// =============================================================================

func TestEmbeddedDefaultConfig(t *testing.T) {
	cfg := embeddedConfig(t)

	assert.Equal(t, "v1", cfg.Engine.AdapterVersion)
	assert.Len(t, cfg.Engine.EnabledProviders(), 3)
	assert.Positive(t, cfg.Server.MaxBodyBytes)

	names, err := listEmbeddedConfigs()
	require.NoError(t, err)
	assert.Contains(t, names, defaultConfigName)
}

func TestResolveConfig_UserPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: {}"), 0o600))

	data, source, err := resolveConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, source)
	assert.Equal(t, "server: {}", string(data))

	_, _, err = resolveConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolveConfig_FallsBackToEmbedded(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	data, source, err := resolveConfig("")
	require.NoError(t, err)
	assert.Equal(t, "(embedded) default.yaml", source)
	assert.NotEmpty(t, data)
}

// =============================================================================
// ADAPTERS LISTING
// =============================================================================

func TestPrintAdapters(t *testing.T) {
	a := testApp(t)
	var out bytes.Buffer

	a.printAdapters(&out)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "KEY"))
	assert.True(t, strings.HasPrefix(lines[1], "gemini/chat/v1"))
	assert.True(t, strings.HasSuffix(lines[3], "yes"))
}

package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/checkin/internal/insight"
	"github.com/joescharf/checkin/internal/output"
)

// testEnv sets up isolated config dir, viper, store and output for testing.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	// Override configDirFunc for tests
	origFunc := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { configDirFunc = origFunc })

	// Reset viper
	viper.Reset()
	setDefaults(dir)
	viper.Set("insight.provider", "none")

	// Each test gets its own database under dir.
	closeStore()
	t.Cleanup(closeStore)

	dryRun = false
	ui = output.New()
	ui.Out = new(bytes.Buffer)
	ui.ErrOut = new(bytes.Buffer)
	logger = slog.New(slog.DiscardHandler)

	return dir
}

// stdout returns what the command under test printed.
func stdout(t *testing.T) string {
	t.Helper()
	return ui.Out.(*bytes.Buffer).String()
}

func stderr(t *testing.T) string {
	t.Helper()
	return ui.ErrOut.(*bytes.Buffer).String()
}

func TestConfigInitRun(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		force    bool
		dryRun   bool
		wantErr  string
		wantFile string
	}{
		{name: "creates file", wantFile: "checkin configuration"},
		{name: "refuses overwrite", existing: "organization: Acme\n", wantErr: "already exists", wantFile: "organization: Acme"},
		{name: "force overwrites", existing: "organization: Acme\n", force: true, wantFile: `organization: "Sooft"`},
		{name: "dry run writes nothing", dryRun: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testEnv(t)
			cfgPath := filepath.Join(dir, "config.yaml")
			if tt.existing != "" {
				require.NoError(t, os.WriteFile(cfgPath, []byte(tt.existing), 0644))
			}
			configForce = tt.force
			dryRun = tt.dryRun
			ui.DryRun = tt.dryRun
			t.Cleanup(func() { configForce, dryRun = false, false })

			err := configInitRun()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			data, readErr := os.ReadFile(cfgPath)
			if tt.wantFile == "" {
				assert.True(t, os.IsNotExist(readErr), "config file should not exist")
				assert.Contains(t, stdout(t), "checkin configuration", "template is still printed")
				return
			}
			require.NoError(t, readErr)
			assert.Contains(t, string(data), tt.wantFile)
		})
	}
}

func TestConfigInitRun_RendersCurrentValues(t *testing.T) {
	dir := testEnv(t)
	viper.Set("sheets.url", "https://script.example.com/exec")
	viper.Set("sheets.check_remote", true)

	require.NoError(t, configInitRun())

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	content := string(data)
	for _, want := range []string{
		`url: "https://script.example.com/exec"`,
		"check_remote: true",
		`provider: "none"`,
		"timeout: 10s",
		"timeout: 20s",
		"port: 8787",
		`model: "` + insight.DefaultGeminiModel + `"`,
	} {
		assert.Contains(t, content, want)
	}
	assert.NotContains(t, content, "api_key: \"", "secrets are never written")

	// The rendered file must round-trip through viper.
	viper.Reset()
	viper.SetConfigFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, viper.ReadInConfig())
	assert.Equal(t, "https://script.example.com/exec", viper.GetString("sheets.url"))
	assert.Equal(t, 10*time.Second, viper.GetDuration("sheets.timeout"))
	assert.Equal(t, "Sooft", viper.GetString("organization"))
}

func TestConfigShowRun(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		testEnv(t)
		require.NoError(t, configShowRun())
		out := stdout(t)
		assert.Contains(t, out, "Config file: (none)")
		assert.Contains(t, out, "sheets.check_remote")
		assert.Contains(t, out, "(default)")
		assert.NotContains(t, out, "(file)")
	})

	t.Run("with file", func(t *testing.T) {
		testEnv(t)
		require.NoError(t, configInitRun())
		require.NoError(t, configShowRun())
		assert.Contains(t, stdout(t), "(file)")
	})

	t.Run("masks secrets", func(t *testing.T) {
		testEnv(t)
		t.Setenv("CHECKIN_GEMINI_API_KEY", "AIzaSecretValue1234")
		viper.Set("gemini.api_key", "AIzaSecretValue1234")

		require.NoError(t, configShowRun())

		out := stdout(t)
		assert.Contains(t, out, "****1234")
		assert.Contains(t, out, "(env: CHECKIN_GEMINI_API_KEY)")
		assert.NotContains(t, out, "AIzaSecretValue1234")
	})
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "****", maskSecret("abc"))
	assert.Equal(t, "****wxyz", maskSecret("abcdefwxyz"))
}

func TestConfigKeys_EnvNames(t *testing.T) {
	for _, k := range configKeys {
		want := "CHECKIN_" + strings.ToUpper(strings.ReplaceAll(k.Key, ".", "_"))
		assert.Equal(t, want, k.EnvVar, k.Key)
	}
}

func TestConfigEditRun(t *testing.T) {
	t.Run("no editor", func(t *testing.T) {
		testEnv(t)
		t.Setenv("EDITOR", "")
		t.Setenv("VISUAL", "")

		err := configEditRun()
		assert.ErrorContains(t, err, "$EDITOR is not set")
	})

	t.Run("no config file", func(t *testing.T) {
		testEnv(t)
		t.Setenv("EDITOR", "true")

		err := configEditRun()
		assert.ErrorContains(t, err, "not found")
	})
}

func TestDetectSource(t *testing.T) {
	fileValues := map[string]bool{"sheets.url": true}
	t.Setenv("CHECKIN_ORGANIZATION", "Acme")

	assert.Equal(t, "(env: CHECKIN_ORGANIZATION)", detectSource("organization", "CHECKIN_ORGANIZATION", fileValues))
	assert.Equal(t, "(file)", detectSource("sheets.url", "CHECKIN_SHEETS_URL_UNSET", fileValues))
	assert.Equal(t, "(default)", detectSource("sheet.port", "CHECKIN_SHEET_PORT_UNSET", fileValues))
}

func TestReadConfigFileValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("organization: Acme\nsheets:\n  url: http://x\n  timeout: 5s\n"), 0644))

	got := readConfigFileValues(path)
	assert.Equal(t, map[string]bool{"organization": true, "sheets.url": true, "sheets.timeout": true}, got)

	assert.Empty(t, readConfigFileValues(filepath.Join(dir, "missing.yaml")))
}

package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"datadesk/internal/config"
	"datadesk/internal/logger"
	"datadesk/internal/platform/paths"
	"datadesk/internal/secrets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(paths.ConfigEnv, p)
	t.Setenv("DB_PASSWORD", "")
	return p
}

func runRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

func TestPasswordSourcePrefersEnv(t *testing.T) {
	isolateConfig(t)
	src := passwordSource(logger.Nop())

	assert.Equal(t, "", src())

	require.NoError(t, secrets.Set(secrets.DBPasswordKey, []byte("stored")))
	assert.Equal(t, "stored", src())

	t.Setenv("DB_PASSWORD", "from-env")
	assert.Equal(t, "from-env", src())
}

func TestDBPasswordCommands(t *testing.T) {
	isolateConfig(t)

	out, err := runRoot(t, "s3cret\n", "db-password", "set")
	require.NoError(t, err)
	assert.Contains(t, out, "password stored")

	got, err := secrets.Get(secrets.DBPasswordKey)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(got))

	_, err = runRoot(t, "", "db-password", "clear")
	require.NoError(t, err)
	_, err = secrets.Get(secrets.DBPasswordKey)
	assert.ErrorIs(t, err, secrets.ErrNotFound)

	_, err = runRoot(t, "\n", "db-password", "set")
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	p := isolateConfig(t)

	out, err := runRoot(t, "", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, p)
	require.FileExists(t, p)

	_, err = runRoot(t, "", "config", "init")
	assert.Error(t, err)

	cfg := config.Default()
	cfg.BearerToken = "top-secret"
	require.NoError(t, config.Save(cfg))

	out, err = runRoot(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "127.0.0.1:8000")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "top-secret")

	out, err = runRoot(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, p+"\n", out)
}

func TestConfigInitRefusesUnreadableFile(t *testing.T) {
	p := isolateConfig(t)
	require.NoError(t, os.WriteFile(p, []byte("apiListen: [\n"), 0o600))

	_, err := runRoot(t, "", "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")

	_, err = runRoot(t, "", "config", "init", "--force")
	require.NoError(t, err)
	_, err = config.Load()
	require.NoError(t, err)
}

func TestServeFlagsOverrideConfig(t *testing.T) {
	isolateConfig(t)

	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{
		"--listen", "127.0.0.1:9100",
		"--read-only",
		"--max-rows", "50",
		"--data-folder", "/srv/a",
		"--data-folder", "/srv/b",
	}))

	cfg, err := config.LoadWithFlags(root.Flags())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.APIListen)
	assert.True(t, cfg.SQL.ReadOnly)
	assert.Equal(t, 50, cfg.SQL.MaxRows)
	assert.Equal(t, []string{"/srv/a", "/srv/b"}, cfg.Files.DataFolders)
}

func TestLoadDotEnvKeepsExistingVars(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_HOST=from-file\nDB_NAME=sales\n"), 0o600))

	t.Setenv("DB_HOST", "from-shell")
	t.Setenv("DB_NAME", "")
	require.NoError(t, os.Unsetenv("DB_NAME"))

	loadDotEnv(envFile)
	t.Cleanup(func() { _ = os.Unsetenv("DB_NAME") })

	assert.Equal(t, "from-shell", os.Getenv("DB_HOST"))
	assert.Equal(t, "sales", os.Getenv("DB_NAME"))

	loadDotEnv(filepath.Join(dir, "missing.env"))
}

func TestServeLogsListenFailure(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("log directory is redirected through XDG_CONFIG_HOME")
	}
	isolateConfig(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	_, err = runRoot(t, "", "--listen", busy.Addr().String())
	require.Error(t, err)

	logPath, err := paths.LoggerFilePath()
	require.NoError(t, err)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[ERROR] server error")
}

func TestServiceEnvFileSitsBesideBinary(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	got := serviceEnvFile()
	assert.Equal(t, filepath.Dir(exe), filepath.Dir(got))
	assert.Equal(t, ".env", filepath.Base(got))
}

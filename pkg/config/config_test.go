package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCfg = `
runtime:
  env: "test"
  affinity:
    enabled: true
  allocator:
    budget_bytes: 1048576
  trace:
    enabled: true
    max_sites: 512
    event_ring_size: 256
    leak_report_interval: 5s
    leak_reports_per_min: 12
  watchdog:
    enabled: true
    stats_interval: 30s
  api:
    enabled: true
    name: "memtest"
    port: "9090"
`

func writeCfg(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtime.cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeCfg(t, testCfg))
	require.NoError(t, err)

	box := cfg.Runtime
	assert.Equal(t, Test, box.Env)
	assert.True(t, *box.Affinity.Enabled)
	assert.Equal(t, int64(1048576), box.Allocator.BudgetBytes)
	assert.True(t, box.Trace.Enabled)
	assert.Equal(t, int64(512), box.Trace.MaxSites)
	assert.Equal(t, 256, box.Trace.EventRingSize)
	assert.Equal(t, 5*time.Second, box.Trace.LeakReportInterval)
	assert.Equal(t, float64(12), box.Trace.LeakReportsPerMin)
	assert.Equal(t, 30*time.Second, box.Watchdog.StatsInterval)
	assert.Equal(t, "memtest", box.API.Name)
	assert.Equal(t, "9090", box.API.Port)
	assert.False(t, cfg.IsProd())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeCfg(t, "runtime:\n  affinity:\n    enabled: false\n"))
	require.NoError(t, err)

	box := cfg.Runtime
	assert.Equal(t, Dev, box.Env)
	assert.False(t, *box.Affinity.Enabled, "explicit false survives validation")
	assert.Equal(t, int64(4096), box.Trace.MaxSites)
	assert.Equal(t, 1024, box.Trace.EventRingSize)
	assert.Equal(t, 10*time.Second, box.Trace.LeakReportInterval)
	assert.Equal(t, time.Minute, box.Watchdog.StatsInterval)
	assert.Equal(t, 5*time.Minute, box.Watchdog.ForceGCInterval)
	assert.Equal(t, "advanced-memory", box.API.Name)
	assert.Equal(t, "8021", box.API.Port)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ADV_MEMORY_ENV", "prod")
	t.Setenv("ADV_MEMORY_API_PORT", "7070")
	t.Setenv("ADV_MEMORY_ALLOCATOR_BUDGET_BYTES", "2048")

	cfg, err := LoadConfig(writeCfg(t, testCfg))
	require.NoError(t, err)

	box := cfg.Runtime
	assert.Equal(t, Prod, box.Env)
	assert.Equal(t, "7070", box.API.Port)
	assert.Equal(t, int64(2048), box.Allocator.BudgetBytes)
	assert.True(t, cfg.IsProd())
}

func TestLoadConfig_AffinityDefaultsPerProfile(t *testing.T) {
	// Omitted key: on outside prod, off in prod.
	cfg, err := LoadConfig(writeCfg(t, "runtime:\n  env: \"dev\"\n"))
	require.NoError(t, err)
	assert.True(t, *cfg.Runtime.Affinity.Enabled)

	cfg, err = LoadConfig(writeCfg(t, "runtime:\n  env: \"prod\"\n"))
	require.NoError(t, err)
	assert.False(t, *cfg.Runtime.Affinity.Enabled)

	cfg, err = LoadConfig(writeCfg(t, "runtime:\n  env: \"dev\"\n  affinity:\n    enabled: false\n"))
	require.NoError(t, err)
	assert.False(t, *cfg.Runtime.Affinity.Enabled)
}

func TestLoadConfig_UnknownEnvRejected(t *testing.T) {
	_, err := LoadConfig(writeCfg(t, "runtime:\n  env: \"staging\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown runtime env")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_EmptyFile(t *testing.T) {
	_, err := LoadConfig(writeCfg(t, ""))
	require.Error(t, err)
}

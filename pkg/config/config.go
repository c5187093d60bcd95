package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	Prod = "prod"
	Dev  = "dev"
	Test = "test"
)

// Runtime is the top-level configuration of the ownership runtime.
type Runtime struct {
	Runtime RuntimeBox `yaml:"runtime"`
}

type RuntimeBox struct {
	Env       string    `yaml:"env"` // prod|dev|test
	Affinity  Affinity  `yaml:"affinity"`
	Allocator Allocator `yaml:"allocator"`
	Trace     Trace     `yaml:"trace"`
	Watchdog  Watchdog  `yaml:"watchdog"`
	API       API       `yaml:"api"`
}

// Affinity controls the goroutine-identity check on every primitive
// operation. On by default outside prod: the check costs a runtime.Stack
// header parse per operation. A pointer so an omitted key is told apart
// from an explicit false; validate() resolves it per profile.
type Affinity struct {
	Enabled *bool `yaml:"enabled"`
}

// Allocator bounds the byte budget of the default allocator.
// budget_bytes <= 0 means unbounded.
type Allocator struct {
	BudgetBytes int64 `yaml:"budget_bytes"`
}

// Trace configures the lifecycle tracer (see pkg/lifetrace).
type Trace struct {
	Enabled            bool          `yaml:"enabled"`
	MaxSites           int64         `yaml:"max_sites"`       // bounded site cache capacity
	EventRingSize      int           `yaml:"event_ring_size"` // power of 2
	LeakReportInterval time.Duration `yaml:"leak_report_interval"`
	LeakReportsPerMin  float64       `yaml:"leak_reports_per_min"`
}

// Watchdog configures the periodic runtime memory reporter.
type Watchdog struct {
	Enabled           bool          `yaml:"enabled"`
	StatsInterval     time.Duration `yaml:"stats_interval"`
	ForceGCInterval   time.Duration `yaml:"force_gc_interval"`
	FreeOsMemInterval time.Duration `yaml:"free_os_mem_interval"`
}

// API configures the debug/ops HTTP server.
type API struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
	Port    string `yaml:"port"`
}

// envPrefix is the viper prefix for overrides, e.g. ADV_MEMORY_API_PORT.
const envPrefix = "ADV_MEMORY"

// LoadConfig reads the yaml config at path, then applies environment
// overrides (a local .env file is honored when present).
func LoadConfig(path string) (*Runtime, error) {
	// Local development convenience; absence of .env is not an error.
	_ = godotenv.Load()

	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	path = filepath.Clean(path)

	if _, err = os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Runtime
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if cfg == nil {
		return nil, errors.New("empty config file: " + path)
	}

	cfg.applyEnvOverrides()

	if err = cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deploy environments tweak single keys without
// shipping a new yaml.
func (c *Runtime) applyEnvOverrides() {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if env := v.GetString("env"); env != "" {
		c.Runtime.Env = env
	}
	if port := v.GetString("api.port"); port != "" {
		c.Runtime.API.Port = port
	}
	if v.IsSet("trace.enabled") {
		c.Runtime.Trace.Enabled = v.GetBool("trace.enabled")
	}
	if v.IsSet("affinity.enabled") {
		enabled := v.GetBool("affinity.enabled")
		c.Runtime.Affinity.Enabled = &enabled
	}
	if budget := v.GetInt64("allocator.budget_bytes"); budget != 0 {
		c.Runtime.Allocator.BudgetBytes = budget
	}
}

func (c *Runtime) validate() error {
	box := &c.Runtime

	switch box.Env {
	case Prod, Dev, Test:
	case "":
		box.Env = Dev
	default:
		return errors.New("unknown runtime env: '" + box.Env + "'")
	}

	if box.Affinity.Enabled == nil {
		enabled := box.Env != Prod
		box.Affinity.Enabled = &enabled
	}

	if box.Trace.MaxSites <= 0 {
		box.Trace.MaxSites = 4096
	}
	if box.Trace.EventRingSize <= 0 {
		box.Trace.EventRingSize = 1024
	}
	if box.Trace.LeakReportInterval <= 0 {
		box.Trace.LeakReportInterval = 10 * time.Second
	}
	if box.Trace.LeakReportsPerMin <= 0 {
		box.Trace.LeakReportsPerMin = 6
	}
	if box.Watchdog.StatsInterval <= 0 {
		box.Watchdog.StatsInterval = time.Minute
	}
	if box.Watchdog.ForceGCInterval <= 0 {
		box.Watchdog.ForceGCInterval = 5 * time.Minute
	}
	if box.Watchdog.FreeOsMemInterval <= 0 {
		box.Watchdog.FreeOsMemInterval = 15 * time.Minute
	}
	if box.API.Name == "" {
		box.API.Name = "advanced-memory"
	}
	if box.API.Port == "" {
		box.API.Port = "8021"
	}
	return nil
}

// IsProd reports whether the runtime is configured for production.
func (c *Runtime) IsProd() bool { return c.Runtime.Env == Prod }

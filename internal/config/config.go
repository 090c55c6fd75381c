package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/billie-coop/labsync/internal/policy"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the labsync configuration
type Config struct {
	// Workload names a preset; the fields below override parts of it
	Workload string      `json:"workload"`
	Capacity int         `json:"capacity,omitempty"`
	Duration Duration    `json:"duration,omitempty"`
	Fairness policy.Mode `json:"fairness"`

	// Seed makes generated orders reproducible; 0 picks a fresh seed per run
	Seed uint64 `json:"seed,omitempty"`

	// UI preferences
	LogLevel string `json:"log_level"`
	Theme    string `json:"theme"`

	// Explicit worker lists replace the preset's list of the same kind
	Producers []Worker `json:"producers,omitempty"`
	Consumers []Worker `json:"consumers,omitempty"`
	Readers   []Worker `json:"readers,omitempty"`
	Writers   []Worker `json:"writers,omitempty"`
	Policies  []string `json:"policies,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Workload: "light",
		Fairness: policy.WriterPriority,
		LogLevel: "info",
		Theme:    "lab",
	}
}

// FromWorkload returns a config spelling out every part of w, so that
// resolving it reproduces w when w.Name is a preset
func FromWorkload(w Workload, mode policy.Mode) *Config {
	c := DefaultConfig()
	c.Workload = w.Name
	c.Capacity = w.Capacity
	c.Duration = Duration(w.Duration)
	c.Fairness = mode
	c.Producers = slices.Clone(w.Producers)
	c.Consumers = slices.Clone(w.Consumers)
	c.Readers = slices.Clone(w.Readers)
	c.Writers = slices.Clone(w.Writers)
	c.Policies = slices.Clone(w.Policies)
	return c
}

// Resolve merges the config over its preset and validates the result.
// Errors wrap ErrInvalidConfig.
func (c *Config) Resolve() (Workload, error) {
	w, err := Preset(c.Workload)
	if err != nil {
		return Workload{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Capacity != 0 {
		w.Capacity = c.Capacity
	}
	if c.Duration != 0 {
		w.Duration = time.Duration(c.Duration)
	}
	if len(c.Producers) > 0 {
		w.Producers = slices.Clone(c.Producers)
	}
	if len(c.Consumers) > 0 {
		w.Consumers = slices.Clone(c.Consumers)
	}
	if len(c.Readers) > 0 {
		w.Readers = slices.Clone(c.Readers)
	}
	if len(c.Writers) > 0 {
		w.Writers = slices.Clone(c.Writers)
	}
	if len(c.Policies) > 0 {
		w.Policies = slices.Clone(c.Policies)
	}

	if err := c.check(w); err != nil {
		return Workload{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return w, nil
}

// Validate reports whether the config resolves to a runnable workload
func (c *Config) Validate() error {
	_, err := c.Resolve()
	return err
}

func (c *Config) check(w Workload) error {
	if w.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", w.Capacity)
	}
	if w.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", w.Duration)
	}
	if c.Fairness != policy.WriterPriority && c.Fairness != policy.StrictFair {
		return fmt.Errorf("%w: %d", policy.ErrUnknownMode, int(c.Fairness))
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}

	seen := make(map[string]bool)
	for _, wk := range w.Workers() {
		name := strings.TrimSpace(wk.Name)
		if name == "" {
			return errors.New("worker name must not be empty")
		}
		if seen[name] {
			return fmt.Errorf("duplicate worker name %q", name)
		}
		seen[name] = true
		if wk.Interval < 0 {
			return fmt.Errorf("worker %s: negative interval %s", name, time.Duration(wk.Interval))
		}
	}
	for _, p := range w.Policies {
		if strings.TrimSpace(p) == "" {
			return errors.New("policy label must not be empty")
		}
	}
	return nil
}

// Manager handles configuration loading and saving
type Manager struct {
	projectPath string
	configPath  string
	config      *Config
}

// NewManager creates a new configuration manager rooted at projectPath
func NewManager(projectPath string) *Manager {
	return &Manager{
		projectPath: projectPath,
		configPath:  filepath.Join(projectPath, ".labsync", "config.json"),
		config:      DefaultConfig(),
	}
}

// Path returns the location of config.json
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk, writing defaults on first use.
// Fields missing from the file keep their default values.
func (m *Manager) Load() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create .labsync directory: %w", err)
	}

	if err := m.ensureGitignore(); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	if _, err := os.Stat(m.configPath); errors.Is(err, os.ErrNotExist) {
		return m.Save()
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}

	expandEnvVars(config)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("%s: %w", m.configPath, err)
	}

	m.config = config
	return nil
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	return m.config
}

// Set updates a configuration value, validates and saves.
// On error the configuration is left unchanged.
func (m *Manager) Set(key, value string) error {
	next := *m.config

	switch key {
	case "workload":
		next.Workload = value
	case "capacity":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("capacity: %w", err)
		}
		next.Capacity = n
	case "duration":
		if err := next.Duration.UnmarshalText([]byte(value)); err != nil {
			return err
		}
	case "fairness":
		if err := next.Fairness.UnmarshalText([]byte(value)); err != nil {
			return err
		}
	case "seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		next.Seed = n
	case "log_level":
		next.LogLevel = value
	case "theme":
		next.Theme = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	m.config = &next
	return m.Save()
}

func (m *Manager) ensureGitignore() error {
	gitignorePath := filepath.Join(filepath.Dir(m.configPath), ".gitignore")

	if _, err := os.Stat(gitignorePath); err == nil {
		return nil
	}

	content := `# labsync data directory
#
# config.json is meant to be committed; run reports and logs are not.

*.log
*.tmp
reports/

!config.json
!.gitignore
`
	return os.WriteFile(gitignorePath, []byte(content), 0o644)
}

// envVar matches $VAR or ${VAR}
var envVar = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandEnvVars(c *Config) {
	c.Workload = expandString(c.Workload)
	c.LogLevel = expandString(c.LogLevel)
	c.Theme = expandString(c.Theme)
	for i := range c.Policies {
		c.Policies[i] = expandString(c.Policies[i])
	}
}

// expandString replaces $VAR and ${VAR} with their environment values.
// Unset variables are left as written.
func expandString(s string) string {
	return envVar.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "$")
		name = strings.TrimSuffix(strings.TrimPrefix(name, "{"), "}")

		if value, ok := os.LookupEnv(name); ok && value != "" {
			return value
		}
		return match
	})
}

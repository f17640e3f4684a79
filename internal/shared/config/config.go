// Package config loads the orchestrator's configuration from
// ~/.auto-tundra/config.toml via viper, following the teacher's
// cmd/cobra_cli.go viper wiring (SetConfigName/AddConfigPath/ReadInConfig)
// adapted from JSON to TOML and from a single flat struct to the nested
// general/agents/security/daemon/kanban/providers/memory sections.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// General holds identity and workspace settings.
type General struct {
	ProjectName   string `mapstructure:"project_name"`
	LogLevel      string `mapstructure:"log_level"`
	WorkspaceRoot string `mapstructure:"workspace_root"`
}

// Agents bounds concurrent agent execution.
type Agents struct {
	MaxConcurrent         int  `mapstructure:"max_concurrent"`
	HeartbeatIntervalSecs int  `mapstructure:"heartbeat_interval_secs"`
	AutoRestart           bool `mapstructure:"auto_restart"`
	DirectMode            bool `mapstructure:"direct_mode"`
}

// ExecutionProfile names a named bundle of sandbox/shell restrictions an
// agent run can be pinned to (e.g. "balanced", "locked-down").
type ExecutionProfile struct {
	Name           string   `mapstructure:"name"`
	AllowShellExec bool     `mapstructure:"allow_shell_exec"`
	AllowedPaths   []string `mapstructure:"allowed_paths"`
}

// Security gates shell execution, sandboxing, and CORS origins.
type Security struct {
	AllowShellExec         bool               `mapstructure:"allow_shell_exec"`
	Sandbox                bool               `mapstructure:"sandbox"`
	AllowedPaths           []string           `mapstructure:"allowed_paths"`
	AllowedOrigins         []string           `mapstructure:"allowed_origins"`
	AutoLockTimeoutMins    int                `mapstructure:"auto_lock_timeout_mins"`
	SandboxMode            string             `mapstructure:"sandbox_mode"`
	ActiveExecutionProfile string             `mapstructure:"active_execution_profile"`
	ExecutionProfiles      []ExecutionProfile `mapstructure:"execution_profiles"`
}

// TLS configures the daemon's optional HTTPS listener.
type TLS struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// Daemon configures the HTTP/WebSocket surface's listener.
type Daemon struct {
	Port      int    `mapstructure:"port"`
	Host      string `mapstructure:"host"`
	TLS       TLS    `mapstructure:"tls"`
	AuthToken string `mapstructure:"auth_token"`
}

// PlanningPoker configures the kanban planning-poker session defaults.
type PlanningPoker struct {
	Enabled                bool   `mapstructure:"enabled"`
	DefaultDeck            string `mapstructure:"default_deck"`
	AllowCustomDeck        bool   `mapstructure:"allow_custom_deck"`
	RevealRequiresAllVotes bool   `mapstructure:"reveal_requires_all_votes"`
	RoundDurationSeconds   int    `mapstructure:"round_duration_seconds"`
}

// Kanban configures board display and planning poker.
type Kanban struct {
	ColumnMode    string        `mapstructure:"column_mode"`
	PlanningPoker PlanningPoker `mapstructure:"planning_poker"`
}

// Providers configures the local/offline model endpoint used when no
// external-client credentials are present.
type Providers struct {
	LocalBaseURL     string `mapstructure:"local_base_url"`
	LocalModel       string `mapstructure:"local_model"`
	LocalAPIKeyEnv   string `mapstructure:"local_api_key_env"`
	DefaultMaxTokens int    `mapstructure:"default_max_tokens"`
}

// Memory configures the optional cross-session memory store.
type Memory struct {
	EnableMemory            bool   `mapstructure:"enable_memory"`
	EnableAgentMemoryAccess bool   `mapstructure:"enable_agent_memory_access"`
	GraphitiServerURL       string `mapstructure:"graphiti_server_url"`
	EmbeddingProvider       string `mapstructure:"embedding_provider"`
	EmbeddingModel          string `mapstructure:"embedding_model"`
}

// Tracing configures the optional OpenTelemetry exporter for request/phase
// spans. Exporter is one of "otlp", "jaeger", "zipkin", or "none".
type Tracing struct {
	Exporter    string `mapstructure:"exporter"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

// Config is the fully-resolved configuration tree: spec.md §6's
// configuration table plus daemon.tls and the tracing section.
type Config struct {
	General   General   `mapstructure:"general"`
	Agents    Agents    `mapstructure:"agents"`
	Security  Security  `mapstructure:"security"`
	Daemon    Daemon    `mapstructure:"daemon"`
	Kanban    Kanban    `mapstructure:"kanban"`
	Providers Providers `mapstructure:"providers"`
	Memory    Memory    `mapstructure:"memory"`
	Tracing   Tracing   `mapstructure:"tracing"`
}

// Manager owns the viper instance and the last-loaded Config, the way the
// teacher's config.Manager wraps viper for the CLI's config subcommands.
type Manager struct {
	v   *viper.Viper
	cfg *Config
}

func defaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("agents.max_concurrent", 8)
	v.SetDefault("agents.heartbeat_interval_secs", 30)
	v.SetDefault("agents.auto_restart", true)
	v.SetDefault("security.auto_lock_timeout_mins", 15)
	v.SetDefault("security.active_execution_profile", "balanced")
	v.SetDefault("daemon.port", 9876)
	v.SetDefault("daemon.host", "127.0.0.1")
	v.SetDefault("kanban.planning_poker.round_duration_seconds", 300)
	v.SetDefault("providers.default_max_tokens", 16384)
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("tracing.service_name", "autotundra")
}

// NewManager loads ~/.auto-tundra/config.toml (falling back to built-in
// defaults if absent), with AUTO_TUNDRA_-prefixed environment overrides,
// mirroring cmd/cobra_cli.go's viper.SetConfigName/AddConfigPath wiring.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Join(home, ".auto-tundra"))
	v.AddConfigPath(".")
	v.SetEnvPrefix("AUTO_TUNDRA")
	v.AutomaticEnv()

	defaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	m := &Manager{v: v}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) reload() error {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	m.cfg = &cfg
	return nil
}

// GetConfig returns the resolved configuration tree.
func (m *Manager) GetConfig() *Config {
	return m.cfg
}

// Set assigns a single key (dotted path, e.g. "agents.max_concurrent") and
// re-unmarshals, matching the teacher's Manager.Set("tavilyApiKey", ...).
func (m *Manager) Set(key string, value any) error {
	m.v.Set(key, value)
	return m.reload()
}

// AllSettings returns every key viper knows about, including ones absent
// from the Config struct — the "unknown keys are retained but ignored"
// passthrough spec.md §6 requires.
func (m *Manager) AllSettings() map[string]any {
	return m.v.AllSettings()
}

// Save writes the current settings back to ~/.auto-tundra/config.toml.
func (m *Manager) Save() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".auto-tundra")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	path := filepath.Join(dir, "config.toml")
	if err := m.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Chmod(path, 0o600)
}

// HeartbeatInterval is a convenience accessor used by the agent executor's
// heartbeat goroutine.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Agents.HeartbeatIntervalSecs) * time.Second
}

// AutoLockTimeout is a convenience accessor used by C9's session middleware.
func (c *Config) AutoLockTimeout() time.Duration {
	return time.Duration(c.Security.AutoLockTimeoutMins) * time.Minute
}

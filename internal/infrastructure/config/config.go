// Package config provides process settings for the strdeploy application.
// Settings come from environment variables; the per-project strdeploy.yml
// descriptor is handled by the descriptor adapter.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable names.
const (
	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvGitBackend selects the repository probe: "cli" or "gogit".
	EnvGitBackend = "STRDEPLOY_GIT_BACKEND"

	// EnvGitBinary is the git executable used by the cli backend.
	EnvGitBinary = "STRDEPLOY_GIT_BINARY"

	// EnvBuildEngine selects the image builder: "cli" or "api".
	EnvBuildEngine = "STRDEPLOY_BUILD_ENGINE"

	// EnvDockerBinary is the docker executable used by the cli engine.
	EnvDockerBinary = "STRDEPLOY_DOCKER_BINARY"
)

// Backend and engine names.
const (
	GitBackendCLI   = "cli"
	GitBackendGoGit = "gogit"

	BuildEngineCLI = "cli"
	BuildEngineAPI = "api"
)

// Default values.
const (
	DefaultLogLevel     = "info"
	DefaultLogAppName   = "strdeploy"
	DefaultGitBackend   = GitBackendCLI
	DefaultGitBinary    = "git"
	DefaultBuildEngine  = BuildEngineCLI
	DefaultDockerBinary = "docker"
)

// ErrInvalidSetting indicates an environment variable holds an unsupported value.
var ErrInvalidSetting = errors.New("invalid setting")

// Config holds all process settings.
type Config struct {
	// LogLevel is the logging level (debug, info, error).
	LogLevel string `mapstructure:"log_level"`

	// LogAppName is the application name for log context.
	LogAppName string `mapstructure:"log_app_name"`

	// GitBackend selects how branch and build number are read.
	GitBackend string `mapstructure:"git_backend"`

	// GitBinary is the git executable for the cli backend.
	GitBinary string `mapstructure:"git_binary"`

	// BuildEngine selects how images are built and pushed.
	BuildEngine string `mapstructure:"build_engine"`

	// DockerBinary is the docker executable for the cli engine.
	DockerBinary string `mapstructure:"docker_binary"`
}

// bindings maps each setting key to its environment variable and default.
var bindings = []struct {
	key      string
	env      string
	fallback string
}{
	{"log_level", EnvLogLevel, DefaultLogLevel},
	{"log_app_name", EnvLogAppName, DefaultLogAppName},
	{"git_backend", EnvGitBackend, DefaultGitBackend},
	{"git_binary", EnvGitBinary, DefaultGitBinary},
	{"build_engine", EnvBuildEngine, DefaultBuildEngine},
	{"docker_binary", EnvDockerBinary, DefaultDockerBinary},
}

// Load reads the process settings from the environment.
// Returns ErrInvalidSetting if a backend or engine name is not recognized.
func Load() (*Config, error) {
	v := viper.New()

	for _, b := range bindings {
		v.SetDefault(b.key, b.fallback)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	cfg.GitBackend = strings.ToLower(strings.TrimSpace(cfg.GitBackend))
	cfg.BuildEngine = strings.ToLower(strings.TrimSpace(cfg.BuildEngine))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the backend and engine selections.
func (c *Config) Validate() error {
	switch c.GitBackend {
	case GitBackendCLI, GitBackendGoGit:
	default:
		return fmt.Errorf("%w: %s=%q (want %q or %q)",
			ErrInvalidSetting, EnvGitBackend, c.GitBackend, GitBackendCLI, GitBackendGoGit)
	}

	switch c.BuildEngine {
	case BuildEngineCLI, BuildEngineAPI:
	default:
		return fmt.Errorf("%w: %s=%q (want %q or %q)",
			ErrInvalidSetting, EnvBuildEngine, c.BuildEngine, BuildEngineCLI, BuildEngineAPI)
	}

	if c.GitBackend == GitBackendCLI && c.GitBinary == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidSetting, EnvGitBinary)
	}
	if c.BuildEngine == BuildEngineCLI && c.DockerBinary == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidSetting, EnvDockerBinary)
	}

	return nil
}

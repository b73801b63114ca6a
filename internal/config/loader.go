package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "OMNIDOC",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance,
// allowing integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "OMNIDOC",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (OMNIDOC_*)
// 3. Project config (.omnidoc.yaml in current directory)
// 4. User config (~/.config/omnidoc/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".omnidoc")
		l.v.SetConfigType("yaml")

		// Project config takes precedence over user config.
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "omnidoc"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("github.repo", "")
	l.v.SetDefault("github.command_timeout", "60s")

	l.v.SetDefault("llm.api_key", "")
	l.v.SetDefault("llm.base_url", "")
	l.v.SetDefault("llm.model", "gpt-4o")
	l.v.SetDefault("llm.temperature", 0.1)
	l.v.SetDefault("llm.embeddings", true)

	l.v.SetDefault("analysis.max_retries", 3)
	l.v.SetDefault("analysis.similarity_threshold", 0.8)
	l.v.SetDefault("analysis.max_doc_files", 25)
	l.v.SetDefault("analysis.max_doc_bytes", 262144)
	l.v.SetDefault("analysis.max_doc_file_size", 65536)
	l.v.SetDefault("analysis.timeout", "10m")
	l.v.SetDefault("analysis.enable_diagrams", false)

	l.v.SetDefault("report.dir", ".omnidoc/runs")

	l.v.SetDefault("state.db_path", defaultDBPath())

	l.v.SetDefault("server.addr", "127.0.0.1:8484")
	l.v.SetDefault("server.allowed_origins", []string{})
	l.v.SetDefault("server.read_timeout", "30s")
	l.v.SetDefault("server.write_timeout", "15m")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".omnidoc/runs.db"
	}
	return filepath.Join(home, ".local", "share", "omnidoc", "runs.db")
}

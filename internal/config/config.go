package config

import "time"

// Config is the root configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Report   ReportConfig   `mapstructure:"report"`
	State    StateConfig    `mapstructure:"state"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // auto, text, json
}

// GitHubConfig configures the GitHub adapter.
type GitHubConfig struct {
	// Repo is the default owner/repo for bare PR numbers.
	Repo string `mapstructure:"repo"`
	// CommandTimeout bounds each gh invocation.
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// LLMConfig configures the reasoning capability.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	// Embeddings enables the embedding-based similarity scorer; when
	// off, deduplication relies on semantic signatures alone.
	Embeddings bool `mapstructure:"embeddings"`
}

// AnalysisConfig tunes the engine.
type AnalysisConfig struct {
	MaxRetries          int           `mapstructure:"max_retries"`
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
	MaxDocFiles         int           `mapstructure:"max_doc_files"`
	MaxDocBytes         int           `mapstructure:"max_doc_bytes"`
	MaxDocFileSize      int           `mapstructure:"max_doc_file_size"`
	Timeout             time.Duration `mapstructure:"timeout"`
	EnableDiagrams      bool          `mapstructure:"enable_diagrams"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	// Dir is where run reports are written.
	Dir string `mapstructure:"dir"`
}

// StateConfig configures the run archive.
type StateConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// AllowedOrigins for CORS; empty allows none.
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Claude      ClaudeConfig     `toml:"claude"`
	Embeddings  EmbeddingsConfig `toml:"embeddings"`
	Retrieval   RetrievalConfig  `toml:"retrieval"`
	Docs        DocsConfig       `toml:"docs"` // Course documents loaded at startup
	Metrics     MetricsConfig    `toml:"metrics"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=1,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
	Dir        string   `toml:"dir"`         // Log file directory (default: <executable dir>/logs)
}

// ClaudeConfig contains Anthropic Claude API configuration for answer generation
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`                            // Anthropic API key
	Model       string  `toml:"model" validate:"required"`          // Completion model
	MaxTokens   int     `toml:"max_tokens" validate:"gt=0"`         // Maximum tokens per completion round
	Temperature float64 `toml:"temperature" validate:"gte=0,lte=1"` // Deterministic answers by default
	Timeout     string  `toml:"timeout"`                            // Per-request timeout as duration string
	RateLimit   string  `toml:"rate_limit"`                         // Minimum interval between completion calls
}

// EmbeddingsConfig selects the embedding backend used by the vector store
type EmbeddingsConfig struct {
	Provider  string `toml:"provider" validate:"oneof=hash gemini"` // "hash" (local) or "gemini"
	APIKey    string `toml:"api_key"`                               // Google Gemini API key (provider = gemini)
	Model     string `toml:"model"`                                 // Embedding model name
	Dimension int    `toml:"dimension" validate:"gt=0"`             // Embedding vector length
}

// RetrievalConfig holds the retrieval and chunking knobs
type RetrievalConfig struct {
	MaxResults   int    `toml:"max_results" validate:"gt=0"`    // Content hits per search
	ChunkSize    int    `toml:"chunk_size" validate:"gt=0"`     // Characters per chunk
	ChunkOverlap int    `toml:"chunk_overlap" validate:"gte=0"` // Characters shared by neighbouring chunks
	MaxHistory   int    `toml:"max_history" validate:"gte=0"`   // Exchanges remembered per session
	MaxSessions  int    `toml:"max_sessions" validate:"gte=0"`  // Live sessions kept in memory, 0 = unbounded
	SessionTTL   string `toml:"session_ttl"`                    // Idle time before a session is dropped, "0s" = never
}

// DocsConfig contains configuration for course documents
type DocsConfig struct {
	Dir           string   `toml:"dir"`             // Directory containing course files (default: "./docs")
	Extensions    []string `toml:"extensions"`      // File extensions to ingest
	LoadOnStartup bool     `toml:"load_on_startup"` // Ingest Dir before serving
}

// MetricsConfig toggles the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8000,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Claude: ClaudeConfig{
			APIKey:      "", // ANTHROPIC_API_KEY or config
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   800,
			Temperature: 0,
			Timeout:     "2m",
			RateLimit:   "0s", // No limit
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "hash",
			Model:     "gemini-embedding-001",
			Dimension: 768,
		},
		Retrieval: RetrievalConfig{
			MaxResults:   5,
			ChunkSize:    800,
			ChunkOverlap: 100,
			MaxHistory:   2,
			MaxSessions:  1000,
			SessionTTL:   "30m",
		},
		Docs: DocsConfig{
			Dir:           "./docs",
			Extensions:    []string{".txt", ".md"},
			LoadOnStartup: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied by the caller via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks ranges and required fields
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("invalid configuration: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Retrieval.ChunkOverlap, c.Retrieval.ChunkSize)
	}
	if c.Embeddings.Provider == "gemini" && c.Embeddings.APIKey == "" {
		return fmt.Errorf("invalid configuration: embeddings.api_key is required for the gemini provider")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SYLLABUS_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SYLLABUS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SYLLABUS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("SYLLABUS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SYLLABUS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dir := os.Getenv("SYLLABUS_LOG_DIR"); dir != "" {
		config.Logging.Dir = dir
	}
	if output := os.Getenv("SYLLABUS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("SYLLABUS_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // SYLLABUS_ prefix takes priority
	}
	if model := os.Getenv("SYLLABUS_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("SYLLABUS_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if rateLimit := os.Getenv("SYLLABUS_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}

	// Embeddings configuration
	if provider := os.Getenv("SYLLABUS_EMBEDDINGS_PROVIDER"); provider != "" {
		config.Embeddings.Provider = provider
	}
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Embeddings.APIKey = apiKey
	}
	if apiKey := os.Getenv("SYLLABUS_EMBEDDINGS_API_KEY"); apiKey != "" {
		config.Embeddings.APIKey = apiKey
	}

	// Retrieval configuration
	if maxResults := os.Getenv("SYLLABUS_MAX_RESULTS"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil {
			config.Retrieval.MaxResults = mr
		}
	}
	if chunkSize := os.Getenv("SYLLABUS_CHUNK_SIZE"); chunkSize != "" {
		if cs, err := strconv.Atoi(chunkSize); err == nil {
			config.Retrieval.ChunkSize = cs
		}
	}
	if chunkOverlap := os.Getenv("SYLLABUS_CHUNK_OVERLAP"); chunkOverlap != "" {
		if co, err := strconv.Atoi(chunkOverlap); err == nil {
			config.Retrieval.ChunkOverlap = co
		}
	}
	if maxHistory := os.Getenv("SYLLABUS_MAX_HISTORY"); maxHistory != "" {
		if mh, err := strconv.Atoi(maxHistory); err == nil {
			config.Retrieval.MaxHistory = mh
		}
	}
	if maxSessions := os.Getenv("SYLLABUS_MAX_SESSIONS"); maxSessions != "" {
		if ms, err := strconv.Atoi(maxSessions); err == nil {
			config.Retrieval.MaxSessions = ms
		}
	}
	if sessionTTL := os.Getenv("SYLLABUS_SESSION_TTL"); sessionTTL != "" {
		config.Retrieval.SessionTTL = sessionTTL
	}

	// Docs configuration
	if docsDir := os.Getenv("SYLLABUS_DOCS_DIR"); docsDir != "" {
		config.Docs.Dir = docsDir
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ParseDuration parses a duration string, falling back to def when empty or invalid
func ParseDuration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: CORTEX_RETRIEVE__CHAT_MAX_HITS sets retrieve.chat_max_hits.
const EnvPrefix = "CORTEX_"

// Config holds all configuration for cortex.
type Config struct {
	Library  LibraryConfig  `yaml:"library" koanf:"library"`
	Retrieve RetrieveConfig `yaml:"retrieve" koanf:"retrieve"`
	Chat     ChatConfig     `yaml:"chat" koanf:"chat"`
	Studio   StudioConfig   `yaml:"studio" koanf:"studio"`
	Sources  SourcesConfig  `yaml:"sources" koanf:"sources"`
	LLM      LLMConfig      `yaml:"llm" koanf:"llm"`
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Logging  LoggingConfig  `yaml:"logging" koanf:"logging"`
}

// LibraryConfig holds document library configuration.
type LibraryConfig struct {
	Path string `yaml:"path" koanf:"path"` // empty means .cortex/library.db under the root dir
}

// RetrieveConfig holds chunking and ranking configuration.
type RetrieveConfig struct {
	MaxChunkChars  int `yaml:"max_chunk_chars" koanf:"max_chunk_chars"`
	OverlapChars   int `yaml:"overlap_chars" koanf:"overlap_chars"`
	MinBreakOffset int `yaml:"min_break_offset" koanf:"min_break_offset"`
	MinTextChars   int `yaml:"min_text_chars" koanf:"min_text_chars"`
	ChatMaxHits    int `yaml:"chat_max_hits" koanf:"chat_max_hits"`
	StudioMaxHits  int `yaml:"studio_max_hits" koanf:"studio_max_hits"`
}

// ChatConfig holds citation-aware chat configuration.
type ChatConfig struct {
	PreviewChars    int `yaml:"preview_chars" koanf:"preview_chars"`
	OfflineBullets  int `yaml:"offline_bullets" koanf:"offline_bullets"`
	FallbackSources int `yaml:"fallback_sources" koanf:"fallback_sources"`
}

// StudioConfig holds artifact context configuration.
type StudioConfig struct {
	ContextChars        int `yaml:"context_chars" koanf:"context_chars"`
	FallbackSources     int `yaml:"fallback_sources" koanf:"fallback_sources"`
	FallbackSourceChars int `yaml:"fallback_source_chars" koanf:"fallback_source_chars"`
}

// SourcesConfig holds ingestion configuration.
type SourcesConfig struct {
	Includes     []string `yaml:"includes" koanf:"includes"`
	Excludes     []string `yaml:"excludes" koanf:"excludes"`
	MaxFileBytes int64    `yaml:"max_file_bytes" koanf:"max_file_bytes"`
}

// LLMConfig holds language model configuration.
type LLMConfig struct {
	Model          string  `yaml:"model" koanf:"model"` // e.g. "ollama:phi3", "gemini-2.0-flash-exp", "grok-2-latest"
	Temperature    float64 `yaml:"temperature" koanf:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	OllamaHost     string  `yaml:"ollama_host" koanf:"ollama_host"`
	OpenAIBaseURL  string  `yaml:"openai_base_url" koanf:"openai_base_url"`
	OpenAIKeyEnv   string  `yaml:"openai_key_env" koanf:"openai_key_env"`
	GeminiKeyEnv   string  `yaml:"gemini_key_env" koanf:"gemini_key_env"`
	XAIKeyEnv      string  `yaml:"xai_key_env" koanf:"xai_key_env"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr            string `yaml:"addr" koanf:"addr"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	CacheSize       int    `yaml:"cache_size" koanf:"cache_size"` // 0 disables the search cache
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" koanf:"cache_ttl_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" koanf:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Retrieve: RetrieveConfig{
			MaxChunkChars:  1200,
			OverlapChars:   200,
			MinBreakOffset: 300,
			MinTextChars:   40,
			ChatMaxHits:    6,
			StudioMaxHits:  8,
		},
		Chat: ChatConfig{
			PreviewChars:    900,
			OfflineBullets:  5,
			FallbackSources: 2,
		},
		Studio: StudioConfig{
			ContextChars:        5000,
			FallbackSources:     3,
			FallbackSourceChars: 1200,
		},
		Sources: SourcesConfig{
			Includes:     []string{"**/*.txt", "**/*.text", "**/*.log", "**/*.md", "**/*.markdown", "**/*.pdf"},
			Excludes:     []string{"**/.git/**", "**/.cortex/**", "**/node_modules/**", "**/vendor/**"},
			MaxFileBytes: 50 << 20,
		},
		LLM: LLMConfig{
			Temperature:    0.2,
			TimeoutSeconds: 120,
			OllamaHost:     "http://localhost:11434",
			OpenAIKeyEnv:   "OPENAI_API_KEY",
			GeminiKeyEnv:   "GEMINI_API_KEY",
			XAIKeyEnv:      "XAI_API_KEY",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8420",
			CacheSize:       100,
			CacheTTLSeconds: 300,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads configuration from a YAML file, then overlays CORTEX_*
// environment variables. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Lists replace the defaults instead of merging element by element.
	if k.Exists("sources.includes") {
		cfg.Sources.Includes = k.Strings("sources.includes")
	}
	if k.Exists("sources.excludes") {
		cfg.Sources.Excludes = k.Strings("sources.excludes")
	}

	// CORTEX_MODEL is accepted as a short form of CORTEX_LLM__MODEL.
	if model := strings.TrimSpace(os.Getenv("CORTEX_MODEL")); model != "" && !k.Exists("llm.model") {
		cfg.LLM.Model = model
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if !strings.Contains(key, "__") {
		return ""
	}
	return strings.ReplaceAll(key, "__", ".")
}

// LoadFromDir loads configuration from a directory (looks for cortex.yaml,
// then .cortex/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "cortex.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".cortex", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return Load("")
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	r := c.Retrieve
	if r.MaxChunkChars <= 0 {
		return fmt.Errorf("retrieve.max_chunk_chars must be positive, got %d", r.MaxChunkChars)
	}
	if r.OverlapChars < 0 || r.OverlapChars >= r.MaxChunkChars {
		return fmt.Errorf("retrieve.overlap_chars must be in [0, %d), got %d", r.MaxChunkChars, r.OverlapChars)
	}
	if r.MinBreakOffset < 0 {
		return fmt.Errorf("retrieve.min_break_offset must not be negative, got %d", r.MinBreakOffset)
	}
	if r.MinTextChars <= 0 {
		return fmt.Errorf("retrieve.min_text_chars must be positive, got %d", r.MinTextChars)
	}
	if c.Chat.PreviewChars <= 0 {
		return fmt.Errorf("chat.preview_chars must be positive, got %d", c.Chat.PreviewChars)
	}
	if c.Studio.ContextChars <= 0 {
		return fmt.Errorf("studio.context_chars must be positive, got %d", c.Studio.ContextChars)
	}
	if c.Server.CacheSize < 0 || c.Server.CacheTTLSeconds < 0 {
		return fmt.Errorf("server.cache_size and server.cache_ttl_seconds must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	return nil
}

// LibraryPath returns the path to the document library database.
func (c *Config) LibraryPath(dir string) string {
	if c.Library.Path != "" {
		if filepath.IsAbs(c.Library.Path) {
			return c.Library.Path
		}
		return filepath.Join(dir, c.Library.Path)
	}
	return filepath.Join(dir, ".cortex", "library.db")
}

// EnsureDataDir ensures the directory holding the library exists.
func (c *Config) EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Dir(c.LibraryPath(dir)), 0755)
}

// OpenAIKey returns the OpenAI API key from the configured environment variable.
func (c LLMConfig) OpenAIKey() string {
	return lookupKey(c.OpenAIKeyEnv)
}

// GeminiKey returns the Gemini API key from the configured environment variable.
func (c LLMConfig) GeminiKey() string {
	return lookupKey(c.GeminiKeyEnv)
}

// XAIKey returns the xAI key, falling back to GROK_API_KEY.
func (c LLMConfig) XAIKey() string {
	if key := lookupKey(c.XAIKeyEnv); key != "" {
		return key
	}
	return lookupKey("GROK_API_KEY")
}

func lookupKey(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

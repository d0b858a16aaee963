package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the proposal assistant service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Listen string `mapstructure:"listen"`
	Debug  bool   `mapstructure:"debug"`
}

// KnowledgeConfig points at the chunk file produced by the ingestion tooling.
type KnowledgeConfig struct {
	Path string `mapstructure:"path"`
}

// RetrievalConfig controls ranking of knowledge chunks against a brief.
type RetrievalConfig struct {
	Strategy     string        `mapstructure:"strategy"` // lexical or embedding
	DefaultK     int           `mapstructure:"default_k"`
	MaxK         int           `mapstructure:"max_k"`
	EmbedTimeout time.Duration `mapstructure:"embed_timeout"`
}

func (r RetrievalConfig) Validate() error {
	switch r.Strategy {
	case "lexical", "embedding":
	default:
		return fmt.Errorf("retrieval.strategy must be lexical or embedding, got %q", r.Strategy)
	}
	if r.DefaultK <= 0 {
		return errors.New("retrieval.default_k must be > 0")
	}
	if r.MaxK < r.DefaultK {
		return errors.New("retrieval.max_k must be >= retrieval.default_k")
	}
	return nil
}

// ProvidersConfig contains text-generation provider configurations.
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig configures the OpenAI-backed provider.
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
}

// CacheConfig configures the optional redis response cache. Empty host
// disables caching entirely.
type CacheConfig struct {
	Host string        `mapstructure:"host"`
	Port string        `mapstructure:"port"`
	Pass string        `mapstructure:"pass"`
	DB   int           `mapstructure:"db"`
	TTL  time.Duration `mapstructure:"ttl"`
}

func (c CacheConfig) Enabled() bool { return strings.TrimSpace(c.Host) != "" }

func (c CacheConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("cache.port required when cache.host is set")
	}
	return nil
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

// LoadConfig loads config from file, falling back to defaults and
// PROPOSALKIT_* environment variables when no file is found.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("general.listen", ":8080")
	viper.SetDefault("knowledge.path", "data/processed/context.jsonl")
	viper.SetDefault("retrieval.strategy", "lexical")
	viper.SetDefault("retrieval.default_k", 6)
	viper.SetDefault("retrieval.max_k", 24)
	viper.SetDefault("retrieval.embed_timeout", 10*time.Second)
	viper.SetDefault("providers.openai.completion_model", "gpt-4o-mini")
	viper.SetDefault("providers.openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("providers.openai.temperature", 0.4)
	viper.SetDefault("providers.openai.max_tokens", 2048)
	viper.SetDefault("providers.openai.timeout", 60*time.Second)
	viper.SetDefault("providers.openai.max_retries", 2)
	viper.SetDefault("cache.ttl", 15*time.Minute)
	viper.SetDefault("telemetry.metrics_enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("PROPOSALKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Defaults plus env are a complete configuration; only an explicitly
		// named file is required to exist.
		if path != "" || !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Retrieval.Validate(); err != nil {
		panic(err)
	}
	if err := config.Cache.Validate(); err != nil {
		panic(err)
	}
	return &config
}

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
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	LLM       LLMConfig
	Embedding EmbeddingConfig
	Redis     RedisConfig
	Index     IndexConfig
	Chunking  ChunkingConfig
	Session   SessionConfig
	Quiz      QuizConfig
	Tutor     TutorConfig
	Query     QueryConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
}

type LoggerConfig struct {
	Env   string
	Level string
}

// LLMConfig selects the chat model used for every generation call.
type LLMConfig struct {
	Provider  string // ollama | openai
	ServerURL string
	Model     string
	APIKey    string
	Timeout   time.Duration
}

type EmbeddingConfig struct {
	Source   string // ollama | openai
	CacheTTL time.Duration
	Ollama   OllamaEmbeddingConfig
	OpenAI   OpenAIEmbeddingConfig
}

type OllamaEmbeddingConfig struct {
	ServerURL string
	Model     string
}

type OpenAIEmbeddingConfig struct {
	APIKey string
	Model  string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// IndexConfig holds vector index settings and the score floors used by the
// retrieval cascade.
type IndexConfig struct {
	Backend          string // memory | redis
	Collection       string
	TopK             int
	MinScore         float64
	RelaxedMinScore  float64
	FallbackMinScore float64
}

type ChunkingConfig struct {
	Size          int
	Overlap       int
	TokenizerName string
}

type SessionConfig struct {
	TTL      time.Duration
	MaxHints int
}

type QuizConfig struct {
	DefaultQuestions int
	MaxQuestions     int
	Concurrency      int
	// Judgements of answers at least this similar to an earlier answer for
	// the same question are reused from the cache.
	FeedbackSimilarityThreshold float64
	FeedbackCacheTTL            time.Duration
}

type TutorConfig struct {
	GeneralKnowledgeFallback bool
}

// QueryConfig controls reuse of pipeline answers. A zero CacheTTL disables
// the answer cache.
type QueryConfig struct {
	CacheTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.body_limit_mb", 50)

	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.level", "info")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("llm.timeout", "60s")

	v.SetDefault("embedding.source", "ollama")
	v.SetDefault("embedding.cache_ttl", "168h")
	v.SetDefault("embedding.ollama.server_url", "http://localhost:11434")
	v.SetDefault("embedding.ollama.model", "nomic-embed-text")
	v.SetDefault("embedding.openai.model", "text-embedding-3-small")

	v.SetDefault("index.backend", "memory")
	v.SetDefault("index.collection", "neuroanatomy")
	v.SetDefault("index.top_k", 5)
	v.SetDefault("index.min_score", 0.7)
	v.SetDefault("index.relaxed_min_score", 0.3)
	v.SetDefault("index.fallback_min_score", 0.2)

	v.SetDefault("chunking.size", 600)
	v.SetDefault("chunking.overlap", 100)
	v.SetDefault("chunking.tokenizer", "gpt-4")

	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.max_hints", 3)

	v.SetDefault("quiz.default_questions", 5)
	v.SetDefault("quiz.max_questions", 20)
	v.SetDefault("quiz.concurrency", 4)
	v.SetDefault("quiz.feedback_similarity_threshold", 0.95)
	v.SetDefault("quiz.feedback_cache_ttl", "24h")

	v.SetDefault("tutor.general_knowledge_fallback", false)

	v.SetDefault("query.cache_ttl", "1h")
}

// LoadConfig reads config.yaml (optional) and the environment. A .env file in
// the working directory is loaded first so its values act as environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := fromViper(v)

	// Provider keys conventionally live outside the config namespace.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = key
		}
		if cfg.Embedding.OpenAI.APIKey == "" {
			cfg.Embedding.OpenAI.APIKey = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			BodyLimitMB:  v.GetInt("server.body_limit_mb"),
		},
		Logger: LoggerConfig{
			Env:   v.GetString("logger.env"),
			Level: v.GetString("logger.level"),
		},
		LLM: LLMConfig{
			Provider:  v.GetString("llm.provider"),
			ServerURL: v.GetString("llm.server_url"),
			Model:     v.GetString("llm.model"),
			APIKey:    v.GetString("llm.api_key"),
			Timeout:   v.GetDuration("llm.timeout"),
		},
		Embedding: EmbeddingConfig{
			Source:   v.GetString("embedding.source"),
			CacheTTL: v.GetDuration("embedding.cache_ttl"),
			Ollama: OllamaEmbeddingConfig{
				ServerURL: v.GetString("embedding.ollama.server_url"),
				Model:     v.GetString("embedding.ollama.model"),
			},
			OpenAI: OpenAIEmbeddingConfig{
				APIKey: v.GetString("embedding.openai.api_key"),
				Model:  v.GetString("embedding.openai.model"),
			},
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Index: IndexConfig{
			Backend:          v.GetString("index.backend"),
			Collection:       v.GetString("index.collection"),
			TopK:             v.GetInt("index.top_k"),
			MinScore:         v.GetFloat64("index.min_score"),
			RelaxedMinScore:  v.GetFloat64("index.relaxed_min_score"),
			FallbackMinScore: v.GetFloat64("index.fallback_min_score"),
		},
		Chunking: ChunkingConfig{
			Size:          v.GetInt("chunking.size"),
			Overlap:       v.GetInt("chunking.overlap"),
			TokenizerName: v.GetString("chunking.tokenizer"),
		},
		Session: SessionConfig{
			TTL:      v.GetDuration("session.ttl"),
			MaxHints: v.GetInt("session.max_hints"),
		},
		Quiz: QuizConfig{
			DefaultQuestions: v.GetInt("quiz.default_questions"),
			MaxQuestions:     v.GetInt("quiz.max_questions"),
			Concurrency:      v.GetInt("quiz.concurrency"),

			FeedbackSimilarityThreshold: v.GetFloat64("quiz.feedback_similarity_threshold"),
			FeedbackCacheTTL:            v.GetDuration("quiz.feedback_cache_ttl"),
		},
		Tutor: TutorConfig{
			GeneralKnowledgeFallback: v.GetBool("tutor.general_knowledge_fallback"),
		},
		Query: QueryConfig{
			CacheTTL: v.GetDuration("query.cache_ttl"),
		},
	}
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, %d), got %d", c.Chunking.Size, c.Chunking.Overlap)
	}
	for name, s := range map[string]float64{
		"index.min_score":          c.Index.MinScore,
		"index.relaxed_min_score":  c.Index.RelaxedMinScore,
		"index.fallback_min_score": c.Index.FallbackMinScore,

		"quiz.feedback_similarity_threshold": c.Quiz.FeedbackSimilarityThreshold,
	} {
		if s < 0 || s > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", name, s)
		}
	}
	switch c.Index.Backend {
	case "memory":
	case "redis":
		if c.Redis.Address == "" {
			return fmt.Errorf("index.backend=redis requires redis.address")
		}
	default:
		return fmt.Errorf("unsupported index.backend: %q", c.Index.Backend)
	}
	if c.Quiz.MaxQuestions <= 0 {
		return fmt.Errorf("quiz.max_questions must be positive")
	}
	if c.Session.MaxHints < 0 {
		return fmt.Errorf("session.max_hints must not be negative")
	}
	return nil
}

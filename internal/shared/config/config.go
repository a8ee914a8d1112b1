package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultFileNamespace seeds content-addressed resume ids.
const DefaultFileNamespace = "f495f8a0-fa6b-44b6-987d-c7277ad67973"

// Config holds application configuration.
type Config struct {
	Port            string   `yaml:"port" env:"PORT" env-default:"8080"`
	Env             string   `yaml:"env" env:"ENV" env-default:"dev"`
	CORSAllowOrigin []string `yaml:"cors_allow_origins" env:"CORS_ALLOW_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
	DatabaseURL     string   `yaml:"database_url" env:"DATABASE_URL"`

	ObjectStoreType string `yaml:"object_store" env:"OBJECT_STORE" env-default:"local"`
	LocalStoreDir   string `yaml:"local_store_dir" env:"LOCAL_STORE_DIR" env-default:"./uploads"`
	AWSRegion       string `yaml:"aws_region" env:"AWS_REGION"`
	S3Bucket        string `yaml:"s3_bucket" env:"S3_BUCKET"`
	S3Prefix        string `yaml:"s3_prefix" env:"S3_PREFIX"`
	SSEKMSKeyID     string `yaml:"sse_kms_key_id" env:"SSE_KMS_KEY_ID"`
	MinIOEndpoint   string `yaml:"minio_endpoint" env:"MINIO_ENDPOINT"`
	MinIOAccessKey  string `yaml:"minio_access_key" env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey  string `yaml:"minio_secret_key" env:"MINIO_SECRET_KEY"`
	MinIOBucket     string `yaml:"minio_bucket" env:"MINIO_BUCKET" env-default:"resumes"`
	MinIOUseSSL     bool   `yaml:"minio_use_ssl" env:"MINIO_USE_SSL"`

	AllowedExtensions []string `yaml:"allowed_extensions" env:"ALLOWED_EXTENSIONS" env-separator:"," env-default:"pdf,docx,txt"`
	MaxFileSizeMB     int      `yaml:"max_file_size_mb" env:"MAX_FILE_SIZE_MB" env-default:"2"`
	FileUUIDNamespace string   `yaml:"file_uuid_namespace" env:"FILE_UUID_NAMESPACE" env-default:"f495f8a0-fa6b-44b6-987d-c7277ad67973"`

	LLMProvider     string        `yaml:"llm_provider" env:"LLM_PROVIDER" env-default:"openai"`
	LLMModel        string        `yaml:"llm_model" env:"LLM_MODEL"`
	LLMTimeout      time.Duration `yaml:"llm_timeout" env:"LLM_TIMEOUT" env-default:"120s"`
	OpenAIAPIKey    string        `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`
	GeminiAPIKey    string        `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	EmbeddingModel  string        `yaml:"embedding_model" env:"EMBEDDING_MODEL" env-default:"text-embedding-ada-002"`
	EmbeddingDim    int           `yaml:"embedding_dim" env:"EMBEDDING_DIM" env-default:"1536"`

	VectorStore         string `yaml:"vector_store" env:"VECTOR_STORE"`
	NERLanguage         string `yaml:"ner_language" env:"NER_LANGUAGE" env-default:"ru"`
	ResearchResultLimit int    `yaml:"research_result_limit" env:"RESEARCH_RESULT_LIMIT" env-default:"10"`
	ContextRefreshBound int    `yaml:"context_refresh_bound" env:"CONTEXT_REFRESH_BOUND" env-default:"10"`

	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS" env-default:"1"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" env-default:"5"`

	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from the first config file found, then the environment.
// Environment variables always win over file values.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		paths = defaultPaths()
	}

	var cfg Config
	var err error
	if path := firstExisting(paths); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg.Normalize()
	return cfg, nil
}

// Normalize canonicalizes enum-like values and fills derived defaults.
func (c *Config) Normalize() {
	c.Env = normalizeEnv(c.Env)
	c.ObjectStoreType = normalizeStoreType(c.ObjectStoreType)
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))
	c.CORSAllowOrigin = trimAll(c.CORSAllowOrigin)

	exts := trimAll(c.AllowedExtensions)
	for i := range exts {
		exts[i] = strings.TrimPrefix(strings.ToLower(exts[i]), ".")
	}
	c.AllowedExtensions = exts

	switch strings.ToLower(strings.TrimSpace(c.VectorStore)) {
	case "pgvector":
		c.VectorStore = "pgvector"
	case "memory":
		c.VectorStore = "memory"
	default:
		if strings.TrimSpace(c.DatabaseURL) != "" {
			c.VectorStore = "pgvector"
		} else {
			c.VectorStore = "memory"
		}
	}

	if strings.TrimSpace(c.LogFormat) == "" {
		if c.Env == "production" || c.Env == "staging" {
			c.LogFormat = "json"
		} else {
			c.LogFormat = "console"
		}
	}
}

// Validate reports settings that would make the service misbehave at runtime.
func (c Config) Validate() error {
	var errs []error
	if _, err := uuid.Parse(c.FileUUIDNamespace); err != nil {
		errs = append(errs, fmt.Errorf("FILE_UUID_NAMESPACE: %w", err))
	}
	if len(c.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("ALLOWED_EXTENSIONS must not be empty"))
	}
	if c.MaxFileSizeMB <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE_MB must be positive"))
	}
	if c.ResearchResultLimit <= 0 {
		errs = append(errs, errors.New("RESEARCH_RESULT_LIMIT must be positive"))
	}
	if c.ContextRefreshBound <= 0 {
		errs = append(errs, errors.New("CONTEXT_REFRESH_BOUND must be positive"))
	}
	switch c.LLMProvider {
	case "openai", "gemini", "anthropic", "none":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not supported", c.LLMProvider))
	}
	if c.Env == "production" && strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in production"))
	}
	return errors.Join(errs...)
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

func defaultPaths() []string {
	paths := []string{}
	if p := strings.TrimSpace(os.Getenv("CONFIG_FILE")); p != "" {
		paths = append(paths, p)
	}
	return append(paths, "config.yaml", ".env", "cmd/.env")
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

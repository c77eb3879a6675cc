package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AWS      AWSConfig      `yaml:"aws"`
	S3       S3Config       `yaml:"s3"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Bedrock  BedrockConfig  `yaml:"bedrock"`
	Meta     MetaConfig     `yaml:"meta"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Pattern  PatternConfig  `yaml:"pattern"`
	Imaging  ImagingConfig  `yaml:"imaging"`
	Worker   WorkerConfig   `yaml:"worker"`
	Schedule ScheduleConfig `yaml:"schedule"`
	LogLevel string         `yaml:"log_level"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port               int      `yaml:"port"`
	Host               string   `yaml:"host"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// GetHost returns the server host, listening on all interfaces in containers.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds the Redis used for cross-process run locks. An empty
// address disables Redis and locks fall back to PostgreSQL.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// AWSConfig holds the shared AWS region and optional static credentials.
type AWSConfig struct {
	Region     string `yaml:"region"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	AWSProfile string `yaml:"aws_profile"` // Empty uses the default credential chain
}

// HasStaticCredentials reports whether both static keys are set.
func (c AWSConfig) HasStaticCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// GetAWSProfile returns the AWS profile, ignoring it on ECS/Lambda where the task role applies.
func (c AWSConfig) GetAWSProfile() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// S3Config holds the bucket ad creatives are uploaded to
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// Enabled reports whether uploads are configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// DynamoDBConfig holds the run ledger table
type DynamoDBConfig struct {
	RunLedgerTable string `yaml:"run_ledger_table"`
	TTLDays        int    `yaml:"ttl_days"`
}

// BedrockConfig holds the Claude-on-Bedrock model settings
type BedrockConfig struct {
	ModelID        string `yaml:"model_id"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c BedrockConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MetaConfig holds ad library API configuration
type MetaConfig struct {
	AccessToken    string `yaml:"access_token"`
	BaseURL        string `yaml:"base_url"`
	APIVersion     string `yaml:"api_version"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageSize       int    `yaml:"page_size"`
	MaxRetries     int    `yaml:"max_retries"`

	// Shared across processes through Redis; zero disables a window.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerHour   int `yaml:"requests_per_hour"`
}

// Timeout returns the configured timeout as a duration
func (c MetaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ScoringConfig holds score weights and the success cutoff
type ScoringConfig struct {
	DurationWeight    float64 `yaml:"duration_weight"`
	ImpressionsWeight float64 `yaml:"impressions_weight"`
	SuccessPercentile int     `yaml:"success_percentile"`
	LockTTLSeconds    int     `yaml:"lock_ttl_seconds"`
}

// LockTTL returns how long a run lock is held before it expires.
func (c ScoringConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// PatternConfig holds pattern mining thresholds
type PatternConfig struct {
	MinSupport    int     `yaml:"min_support"`
	LiftThreshold float64 `yaml:"lift_threshold"`
	TopPatterns   int     `yaml:"top_patterns"`
}

// ImagingConfig bounds creatives before upload and analysis
type ImagingConfig struct {
	MaxDimension int   `yaml:"max_dimension"`
	MaxBytes     int64 `yaml:"max_bytes"`
}

// WorkerConfig holds background job settings
type WorkerConfig struct {
	Concurrency        int `yaml:"concurrency"`
	QueueSize          int `yaml:"queue_size"`
	TaskTimeoutSeconds int `yaml:"task_timeout_seconds"`
}

// TaskTimeout returns the per-task deadline.
func (c WorkerConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSeconds) * time.Second
}

// ScheduleConfig holds cron schedules. An empty RecomputeCron disables
// the scheduled recompute.
type ScheduleConfig struct {
	RecomputeCron     string `yaml:"recompute_cron"`
	MonitoringEnabled bool   `yaml:"monitoring_enabled"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.S3.Prefix == "" {
		cfg.S3.Prefix = "ads"
	}
	if cfg.DynamoDB.TTLDays == 0 {
		cfg.DynamoDB.TTLDays = 90
	}
	if cfg.Bedrock.ModelID == "" {
		cfg.Bedrock.ModelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}
	if cfg.Bedrock.MaxTokens == 0 {
		cfg.Bedrock.MaxTokens = 2048
	}
	if cfg.Bedrock.TimeoutSeconds == 0 {
		cfg.Bedrock.TimeoutSeconds = 120
	}
	if cfg.Meta.BaseURL == "" {
		cfg.Meta.BaseURL = "https://graph.facebook.com"
	}
	if cfg.Meta.APIVersion == "" {
		cfg.Meta.APIVersion = "v18.0"
	}
	if cfg.Meta.TimeoutSeconds == 0 {
		cfg.Meta.TimeoutSeconds = 30
	}
	if cfg.Meta.PageSize == 0 || cfg.Meta.PageSize > 100 {
		cfg.Meta.PageSize = 100
	}
	if cfg.Meta.MaxRetries == 0 {
		cfg.Meta.MaxRetries = 3
	}
	if cfg.Meta.RequestsPerHour == 0 {
		cfg.Meta.RequestsPerHour = 200
	}
	if cfg.Scoring.DurationWeight == 0 && cfg.Scoring.ImpressionsWeight == 0 {
		cfg.Scoring.DurationWeight = 0.4
		cfg.Scoring.ImpressionsWeight = 0.6
	}
	if cfg.Scoring.SuccessPercentile == 0 {
		cfg.Scoring.SuccessPercentile = 80
	}
	if cfg.Scoring.LockTTLSeconds == 0 {
		cfg.Scoring.LockTTLSeconds = 600
	}
	if cfg.Pattern.MinSupport == 0 {
		cfg.Pattern.MinSupport = 5
	}
	if cfg.Pattern.LiftThreshold == 0 {
		cfg.Pattern.LiftThreshold = 1.5
	}
	if cfg.Pattern.TopPatterns == 0 {
		cfg.Pattern.TopPatterns = 10
	}
	if cfg.Imaging.MaxDimension == 0 {
		cfg.Imaging.MaxDimension = 1568
	}
	if cfg.Imaging.MaxBytes == 0 {
		cfg.Imaging.MaxBytes = 10 << 20
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 4
	}
	if cfg.Worker.QueueSize == 0 {
		cfg.Worker.QueueSize = 100
	}
	if cfg.Worker.TaskTimeoutSeconds == 0 {
		cfg.Worker.TaskTimeoutSeconds = 1800
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file is loaded first when present, so secrets can live in .env
// locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.AWS.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.AWS.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if v := os.Getenv("DYNAMODB_RUN_LEDGER_TABLE"); v != "" {
		cfg.DynamoDB.RunLedgerTable = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.Bedrock.ModelID = v
	}
	if v := os.Getenv("META_ACCESS_TOKEN"); v != "" {
		cfg.Meta.AccessToken = v
	}
	if v := os.Getenv("META_API_VERSION"); v != "" {
		cfg.Meta.APIVersion = v
	}
	if v := os.Getenv("RECOMPUTE_CRON"); v != "" {
		cfg.Schedule.RecomputeCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	return cfg, nil
}

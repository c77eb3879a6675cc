package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://localhost/ads?sslmode=disable"
  max_open_conns: 10

redis:
  addr: "localhost:6379"

aws:
  region: "ap-northeast-2"

s3:
  bucket: "ad-creatives"

bedrock:
  model_id: "anthropic.claude-test"
  max_tokens: 4096

meta:
  access_token: "file-token"
  page_size: 50

scoring:
  duration_weight: 0.5
  impressions_weight: 0.5

pattern:
  min_support: 10
  lift_threshold: 2.0

schedule:
  recompute_cron: "0 3 * * *"

log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "postgres://localhost/ads?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "ap-northeast-2", cfg.AWS.Region)
	assert.True(t, cfg.S3.Enabled())
	assert.Equal(t, "anthropic.claude-test", cfg.Bedrock.ModelID)
	assert.Equal(t, 4096, cfg.Bedrock.MaxTokens)
	assert.Equal(t, "file-token", cfg.Meta.AccessToken)
	assert.Equal(t, 50, cfg.Meta.PageSize)
	assert.Equal(t, 0.5, cfg.Scoring.DurationWeight)
	assert.Equal(t, 0.5, cfg.Scoring.ImpressionsWeight)
	assert.Equal(t, 10, cfg.Pattern.MinSupport)
	assert.Equal(t, 2.0, cfg.Pattern.LiftThreshold)
	assert.Equal(t, "0 3 * * *", cfg.Schedule.RecomputeCron)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, "ads", cfg.S3.Prefix)
	assert.Equal(t, 0.4, cfg.Scoring.DurationWeight)
	assert.Equal(t, 0.6, cfg.Scoring.ImpressionsWeight)
	assert.Equal(t, 80, cfg.Scoring.SuccessPercentile)
	assert.Equal(t, 5, cfg.Pattern.MinSupport)
	assert.Equal(t, 1.5, cfg.Pattern.LiftThreshold)
	assert.Equal(t, 10, cfg.Pattern.TopPatterns)
	assert.Equal(t, 100, cfg.Meta.PageSize)
	assert.Equal(t, "v18.0", cfg.Meta.APIVersion)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, "", cfg.Schedule.RecomputeCron)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadClampsPageSize(t *testing.T) {
	cfg, err := Load(writeConfig(t, "meta:\n  page_size: 500\n"))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Meta.PageSize)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://file"
meta:
  access_token: "file-token"
`)

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("META_ACCESS_TOKEN", "env-token")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, "env-token", cfg.Meta.AccessToken)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.AWS.HasStaticCredentials())
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 45*time.Second, MetaConfig{TimeoutSeconds: 45}.Timeout())
	assert.Equal(t, 2*time.Minute, BedrockConfig{TimeoutSeconds: 120}.Timeout())
	assert.Equal(t, 10*time.Minute, ScoringConfig{LockTTLSeconds: 600}.LockTTL())
	assert.Equal(t, 30*time.Minute, WorkerConfig{TaskTimeoutSeconds: 1800}.TaskTimeout())
}

func TestGetHost(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "")
	t.Setenv("AWS_EXECUTION_ENV", "")
	t.Setenv("SERVER_HOST", "")
	assert.Equal(t, "127.0.0.1", ServerConfig{Host: "127.0.0.1"}.GetHost())

	t.Setenv("SERVER_HOST", "10.0.0.1")
	assert.Equal(t, "10.0.0.1", ServerConfig{Host: "127.0.0.1"}.GetHost())

	t.Setenv("AWS_EXECUTION_ENV", "AWS_ECS_FARGATE")
	assert.Equal(t, "0.0.0.0", ServerConfig{Host: "127.0.0.1"}.GetHost())
}

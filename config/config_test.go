package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "papers")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "papers")
	t.Setenv("ADMIN_KEY", "admin-secret")
	t.Setenv("PAPERS_S3_KEY", "key")
	t.Setenv("PAPERS_S3_SECRET", "secret")
	t.Setenv("PAPERS_S3_URL", "https://s3.example.test")
	t.Setenv("PAPERS_S3_REGION", "eu-central-1")
	t.Setenv("PAPERS_S3_BUCKET", "papers")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "keyword", cfg.Classifier)
	assert.Equal(t, int64(20), cfg.MaxUploadMB)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes())
	assert.Equal(t, 30, cfg.RejectedRetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.PurgeSchedule)
	assert.Equal(t, "https://api.openai.com/v1", cfg.InferenceBaseURL)
}

func TestLoadFailsWithoutAdminKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADMIN_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t,
		"host=localhost user=papers password=secret dbname=papers port=5432 sslmode=disable",
		cfg.DSN())
}

func TestClassifierOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CLASSIFIER", "inference")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "inference", cfg.Classifier)
}

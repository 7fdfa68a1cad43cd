package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"5000"`

	// Shared-Secret für die Admin-Endpunkte (Header x-admin-key).
	AdminKey string `envconfig:"ADMIN_KEY" required:"true"`

	// Maximale Upload-Größe in Megabyte.
	MaxUploadMB int64 `envconfig:"MAX_UPLOAD_MB" default:"20"`

	S3Key    string `envconfig:"PAPERS_S3_KEY" required:"true"`
	S3Secret string `envconfig:"PAPERS_S3_SECRET" required:"true"`
	S3URL    string `envconfig:"PAPERS_S3_URL" required:"true"`
	S3Region string `envconfig:"PAPERS_S3_REGION" required:"true"`
	S3Bucket string `envconfig:"PAPERS_S3_BUCKET" required:"true"`

	// Classifier-Konfiguration: "keyword" (offline) oder "inference" (externe API).
	Classifier       string `envconfig:"CLASSIFIER" default:"keyword"`
	InferenceBaseURL string `envconfig:"INFERENCE_BASE_URL" default:"https://api.openai.com/v1"`
	InferenceAPIKey  string `envconfig:"INFERENCE_API_KEY"`
	InferenceModel   string `envconfig:"INFERENCE_MODEL" default:"gpt-4o-mini"`

	// Purge-Job für alte abgelehnte Paper. Retention 0 deaktiviert den Job.
	PurgeSchedule         string `envconfig:"PURGE_SCHEDULE" default:"0 3 * * *"`
	RejectedRetentionDays int    `envconfig:"REJECTED_RETENTION_DAYS" default:"30"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// MaxUploadBytes gibt das Upload-Limit in Bytes zurück.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}

package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env        Env
	Server     ServerConfig
	Conversion ConversionConfig
	Storage    StorageConfig
	Minio      MinioConfig
	NATS       NATSConfig
	Database   DatabaseConfig
}

type Env struct {
	Env string `envconfig:"ENV" default:"DEV"`
}

type ServerConfig struct {
	Host           string        `envconfig:"SERVER_HOST" default:"localhost"`
	Port           string        `envconfig:"SERVER_PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

type ConversionConfig struct {
	MaxFiles           int           `envconfig:"CONVERSION_MAX_FILES" default:"20"`
	MaxFileBytes       int64         `envconfig:"CONVERSION_MAX_FILE_BYTES" default:"52428800"`   // 50MB
	MaxBatchBytes      int64         `envconfig:"CONVERSION_MAX_BATCH_BYTES" default:"1048576000"` // 20 * 50MB
	Workers            int           `envconfig:"CONVERSION_WORKERS" default:"0"`                  // 0 means runtime.NumCPU()
	FileTimeout        time.Duration `envconfig:"CONVERSION_FILE_TIMEOUT" default:"2m"`
	WorkDir            string        `envconfig:"CONVERSION_WORK_DIR" default:"tmp/work"`
	SessionTTL         time.Duration `envconfig:"CONVERSION_SESSION_TTL" default:"1h"`
	CleanupEvery       time.Duration `envconfig:"CONVERSION_CLEANUP_EVERY" default:"5m"`
	PurgeGrace         time.Duration `envconfig:"CONVERSION_PURGE_GRACE" default:"1m"`
	TombstoneRetention time.Duration `envconfig:"CONVERSION_TOMBSTONE_RETENTION" default:"24h"`
	PDFDPI             int           `envconfig:"CONVERSION_PDF_DPI" default:"200"`
}

type StorageConfig struct {
	Backend  string `envconfig:"STORAGE_BACKEND" default:"local"`
	LocalDir string `envconfig:"STORAGE_LOCAL_DIR" default:"tmp/converted"`
}

type MinioConfig struct {
	Endpoint   string `envconfig:"MINIO_ENDPOINT"`
	BucketName string `envconfig:"MINIO_BUCKET_NAME" default:"formatwave"`
	AccessKey  string `envconfig:"MINIO_ACCESS_KEY"`
	SecretKey  string `envconfig:"MINIO_SECRET_KEY"`
	UseSSL     bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type NATSConfig struct {
	Enabled       bool   `envconfig:"NATS_ENABLED" default:"false"`
	URL           string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	ClientName    string `envconfig:"NATS_CLIENT_NAME" default:"formatwave"`
	StreamName    string `envconfig:"NATS_STREAM_NAME" default:"FORMATWAVE_SESSIONS"`
	SubjectPrefix string `envconfig:"NATS_SUBJECT_PREFIX" default:"formatwave"`
}

type DatabaseConfig struct {
	Enabled        bool          `envconfig:"DB_ENABLED" default:"false"`
	Host           string        `envconfig:"DB_HOST" default:"localhost"`
	Port           int           `envconfig:"DB_PORT" default:"5432"`
	User           string        `envconfig:"DB_USER"`
	Password       string        `envconfig:"DB_PASSWORD"`
	Name           string        `envconfig:"DB_NAME" default:"formatwave"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenCons    int           `envconfig:"DB_MAX_OPEN_CONS" default:"25"`
	MaxIdleCons    int           `envconfig:"DB_MAX_IDLE_CONS" default:"5"`
	ConMaxLifeTime time.Duration `envconfig:"DB_CONMAX_LIFE_TIME" default:"5m"`
}

// WorstCaseBatch is how long a full batch takes when every file runs into FileTimeout
// with workers conversions in parallel
func (c ConversionConfig) WorstCaseBatch(workers int) time.Duration {
	if workers <= 0 {
		workers = 1
	}
	rounds := (c.MaxFiles + workers - 1) / workers
	return time.Duration(rounds) * c.FileTimeout
}

func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ContentBackend selects where uploaded bytes are stored.
type ContentBackend string

const (
	ContentS3         ContentBackend = "s3"
	ContentFilesystem ContentBackend = "filesystem"
)

// IndexBackend selects where index records are written.
type IndexBackend string

const (
	IndexDynamoDB IndexBackend = "dynamodb"
	IndexSQL      IndexBackend = "sql"
	IndexRedis    IndexBackend = "redis"
	IndexBadger   IndexBackend = "badger"
)

// Database backend selection for the SQL index.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// DynamoDBMaxBatchSize is the BatchWriteItem item limit.
const DynamoDBMaxBatchSize = 25

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	LogFormat   string // "console" or "json"

	ContentBackend ContentBackend
	MediaRoot      string // filesystem content store root

	// S3 Object Storage configuration
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string // For S3-compatible services (MinIO, Spaces, etc.)
	S3UsePathStyle    bool   // Required for MinIO

	IndexBackend IndexBackend

	// DynamoDB index
	DynamoDBTable    string
	DynamoDBEndpoint string // For DynamoDB Local

	// SQL index
	DBBackend DatabaseBackend
	DBDSN     string

	// Redis index
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Badger index
	BadgerPath string

	// Ingestion tuning
	UploadWorkers    int
	UploadTimeout    time.Duration
	IndexBatchSize   int
	IndexMaxAttempts int
	IndexBackoffBase time.Duration
	IndexBackoffMax  time.Duration
	KeyTemplate      string
	NamePolicy       string   // pass, escape or reject
	Extensions       []string // optional allow-list for collection uploads, e.g. ".mp3"
	ReadTags         bool

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Metrics push (CLI runs are too short-lived to be scraped)
	PushgatewayURL string

	// Run notifications
	NATSURL     string
	NATSSubject string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"MOOSIC_ENV"}, "production"),
		LogFormat:   getEnvAny([]string{"MOOSIC_LOG_FORMAT"}, "console"),

		ContentBackend: ContentBackend(getEnvAny([]string{"MOOSIC_CONTENT_BACKEND"}, string(ContentS3))),
		MediaRoot:      getEnvAny([]string{"MOOSIC_MEDIA_ROOT"}, "./media"),

		S3AccessKeyID:     getEnvAny([]string{"MOOSIC_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"MOOSIC_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"MOOSIC_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"MOOSIC_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Endpoint:        getEnvAny([]string{"MOOSIC_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3UsePathStyle:    getEnvBoolAny([]string{"MOOSIC_S3_USE_PATH_STYLE", "S3_USE_PATH_STYLE"}, false),

		IndexBackend: IndexBackend(getEnvAny([]string{"MOOSIC_INDEX_BACKEND"}, string(IndexDynamoDB))),

		DynamoDBTable:    getEnvAny([]string{"MOOSIC_DYNAMODB_TABLE"}, "moosic-tracks"),
		DynamoDBEndpoint: getEnvAny([]string{"MOOSIC_DYNAMODB_ENDPOINT"}, ""),

		DBBackend: DatabaseBackend(getEnvAny([]string{"MOOSIC_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:     getEnvAny([]string{"MOOSIC_DB_DSN"}, ""),

		RedisAddr:     getEnvAny([]string{"MOOSIC_REDIS_ADDR", "REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"MOOSIC_REDIS_PASSWORD", "REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"MOOSIC_REDIS_DB"}, 0),
		RedisPrefix:   getEnvAny([]string{"MOOSIC_REDIS_PREFIX"}, "moosic:track:"),

		BadgerPath: getEnvAny([]string{"MOOSIC_BADGER_PATH"}, "./moosic-index"),

		UploadWorkers:    getEnvIntAny([]string{"MOOSIC_UPLOAD_WORKERS"}, 8),
		UploadTimeout:    getEnvDurationAny([]string{"MOOSIC_UPLOAD_TIMEOUT"}, 2*time.Minute),
		IndexBatchSize:   getEnvIntAny([]string{"MOOSIC_INDEX_BATCH_SIZE"}, DynamoDBMaxBatchSize),
		IndexMaxAttempts: getEnvIntAny([]string{"MOOSIC_INDEX_MAX_ATTEMPTS"}, 5),
		IndexBackoffBase: getEnvDurationAny([]string{"MOOSIC_INDEX_BACKOFF_BASE"}, 100*time.Millisecond),
		IndexBackoffMax:  getEnvDurationAny([]string{"MOOSIC_INDEX_BACKOFF_MAX"}, 5*time.Second),
		KeyTemplate:      getEnvAny([]string{"MOOSIC_KEY_TEMPLATE"}, "{genre}/{artist}/{album}/{song}"),
		NamePolicy:       getEnvAny([]string{"MOOSIC_NAME_POLICY"}, "pass"),
		Extensions:       getEnvListAny([]string{"MOOSIC_EXTENSIONS"}),
		ReadTags:         getEnvBoolAny([]string{"MOOSIC_READ_TAGS"}, true),

		TracingEnabled:    getEnvBoolAny([]string{"MOOSIC_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"MOOSIC_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"MOOSIC_TRACING_SAMPLE_RATE"}, 1.0),

		PushgatewayURL: getEnvAny([]string{"MOOSIC_PUSHGATEWAY_URL"}, ""),

		NATSURL:     getEnvAny([]string{"MOOSIC_NATS_URL", "NATS_URL"}, ""),
		NATSSubject: getEnvAny([]string{"MOOSIC_NATS_SUBJECT"}, "moosic.ingest.completed"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.ContentBackend {
	case ContentS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("MOOSIC_S3_BUCKET or S3_BUCKET must be provided for the s3 content backend")
		}
	case ContentFilesystem:
		if c.MediaRoot == "" {
			return fmt.Errorf("MOOSIC_MEDIA_ROOT must be provided for the filesystem content backend")
		}
	default:
		return fmt.Errorf("unsupported content backend %q", c.ContentBackend)
	}

	switch c.IndexBackend {
	case IndexDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("MOOSIC_DYNAMODB_TABLE must be provided for the dynamodb index backend")
		}
		if c.IndexBatchSize > DynamoDBMaxBatchSize {
			return fmt.Errorf("MOOSIC_INDEX_BATCH_SIZE %d exceeds the DynamoDB limit of %d", c.IndexBatchSize, DynamoDBMaxBatchSize)
		}
	case IndexSQL:
		if c.DBBackend != DatabasePostgres && c.DBBackend != DatabaseMySQL && c.DBBackend != DatabaseSQLite {
			return fmt.Errorf("unsupported database backend %q", c.DBBackend)
		}
		if c.DBDSN == "" {
			return fmt.Errorf("MOOSIC_DB_DSN must be provided for the sql index backend")
		}
	case IndexRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("MOOSIC_REDIS_ADDR must be provided for the redis index backend")
		}
	case IndexBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("MOOSIC_BADGER_PATH must be provided for the badger index backend")
		}
	default:
		return fmt.Errorf("unsupported index backend %q", c.IndexBackend)
	}

	if c.IndexBatchSize < 1 {
		return fmt.Errorf("MOOSIC_INDEX_BATCH_SIZE must be at least 1")
	}
	if c.IndexMaxAttempts < 1 {
		return fmt.Errorf("MOOSIC_INDEX_MAX_ATTEMPTS must be at least 1")
	}
	if c.UploadWorkers < 1 {
		return fmt.Errorf("MOOSIC_UPLOAD_WORKERS must be at least 1")
	}
	if c.UploadTimeout <= 0 {
		return fmt.Errorf("MOOSIC_UPLOAD_TIMEOUT must be positive")
	}
	if !strings.Contains(c.KeyTemplate, "{song}") {
		return fmt.Errorf("MOOSIC_KEY_TEMPLATE %q must contain {song}", c.KeyTemplate)
	}
	switch c.NamePolicy {
	case "pass", "escape", "reject":
	default:
		return fmt.Errorf("unsupported name policy %q (want pass, escape or reject)", c.NamePolicy)
	}
	return nil
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvDurationAny accepts Go duration strings ("30s") or plain seconds.
func getEnvDurationAny(keys []string, def time.Duration) time.Duration {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
			if secs, err := strconv.Atoi(v); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return def
}

// getEnvListAny splits the first set value on commas, dropping empty entries.
func getEnvListAny(keys []string) []string {
	raw := getEnvAny(keys, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

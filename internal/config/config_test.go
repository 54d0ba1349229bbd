package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsWithBucket(t *testing.T) {
	t.Setenv("MOOSIC_S3_BUCKET", "moosic-media")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ContentBackend != ContentS3 {
		t.Fatalf("unexpected content backend: %q", cfg.ContentBackend)
	}
	if cfg.IndexBackend != IndexDynamoDB {
		t.Fatalf("unexpected index backend: %q", cfg.IndexBackend)
	}
	if cfg.IndexBatchSize != 25 {
		t.Fatalf("expected default batch size 25, got %d", cfg.IndexBatchSize)
	}
	if cfg.KeyTemplate != "{genre}/{artist}/{album}/{song}" {
		t.Fatalf("unexpected key template: %q", cfg.KeyTemplate)
	}
	if !cfg.ReadTags {
		t.Fatal("expected tag reading to default on")
	}
}

func TestLoadFallsBackToAWSKeys(t *testing.T) {
	t.Setenv("S3_BUCKET", "fallback-bucket")
	t.Setenv("AWS_REGION", "eu-west-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.S3Bucket != "fallback-bucket" {
		t.Fatalf("unexpected bucket: %q", cfg.S3Bucket)
	}
	if cfg.S3Region != "eu-west-1" {
		t.Fatalf("unexpected region: %q", cfg.S3Region)
	}
}

func TestLoadRequiresBucketForS3(t *testing.T) {
	t.Setenv("MOOSIC_S3_BUCKET", "")
	t.Setenv("S3_BUCKET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no bucket is configured")
	}
}

func TestLoadRejectsOversizedDynamoBatch(t *testing.T) {
	t.Setenv("MOOSIC_S3_BUCKET", "b")
	t.Setenv("MOOSIC_INDEX_BATCH_SIZE", "50")

	if _, err := Load(); err == nil {
		t.Fatal("expected batch size above 25 to be rejected for dynamodb")
	}

	t.Setenv("MOOSIC_INDEX_BACKEND", "badger")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("badger index should accept larger batches: %v", err)
	}
	if cfg.IndexBatchSize != 50 {
		t.Fatalf("unexpected batch size: %d", cfg.IndexBatchSize)
	}
}

func TestLoadParsesTuning(t *testing.T) {
	t.Setenv("MOOSIC_CONTENT_BACKEND", "filesystem")
	t.Setenv("MOOSIC_MEDIA_ROOT", "/srv/media")
	t.Setenv("MOOSIC_UPLOAD_WORKERS", "3")
	t.Setenv("MOOSIC_UPLOAD_TIMEOUT", "45s")
	t.Setenv("MOOSIC_INDEX_BACKOFF_BASE", "2")
	t.Setenv("MOOSIC_EXTENSIONS", ".MP3, .flac,,")
	t.Setenv("MOOSIC_NAME_POLICY", "escape")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UploadWorkers != 3 {
		t.Fatalf("unexpected workers: %d", cfg.UploadWorkers)
	}
	if cfg.UploadTimeout != 45*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.UploadTimeout)
	}
	if cfg.IndexBackoffBase != 2*time.Second {
		t.Fatalf("plain integers should be read as seconds, got %v", cfg.IndexBackoffBase)
	}
	if len(cfg.Extensions) != 2 || cfg.Extensions[0] != ".mp3" || cfg.Extensions[1] != ".flac" {
		t.Fatalf("unexpected extensions: %v", cfg.Extensions)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			ContentBackend:   ContentFilesystem,
			MediaRoot:        "/tmp/media",
			IndexBackend:     IndexBadger,
			BadgerPath:       "/tmp/idx",
			UploadWorkers:    1,
			UploadTimeout:    time.Second,
			IndexBatchSize:   25,
			IndexMaxAttempts: 1,
			KeyTemplate:      "{artist}/{song}",
			NamePolicy:       "pass",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown content backend", func(c *Config) { c.ContentBackend = "ftp" }},
		{"unknown index backend", func(c *Config) { c.IndexBackend = "mongo" }},
		{"sql without dsn", func(c *Config) { c.IndexBackend = IndexSQL; c.DBBackend = DatabaseSQLite }},
		{"zero workers", func(c *Config) { c.UploadWorkers = 0 }},
		{"template without song", func(c *Config) { c.KeyTemplate = "{genre}/{artist}" }},
		{"unknown name policy", func(c *Config) { c.NamePolicy = "mangle" }},
		{"zero attempts", func(c *Config) { c.IndexMaxAttempts = 0 }},
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

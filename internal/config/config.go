package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	DatabaseURL string
	NatsURL     string
	NatsToken   string
	LogLevel    string

	// Object store: "s3" uses BlobBucket in AWSRegion, "fs" uses BlobRoot.
	BlobBackend string
	BlobBucket  string
	BlobRoot    string
	AWSRegion   string

	// Query executor poll loop.
	PollInterval time.Duration
	MaxPolls     int

	// Run a silver ingestion once at startup, in addition to bus triggers.
	IngestOnStart bool
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:          envInt("CHATLAKE_PORT", 8460),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		NatsURL:       envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:     envStr("NATS_TOKEN", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		BlobBackend:   envStr("BLOB_BACKEND", "fs"),
		BlobBucket:    envStr("BLOB_BUCKET", ""),
		BlobRoot:      envStr("BLOB_ROOT", "./data"),
		AWSRegion:     envStr("AWS_REGION", "us-east-1"),
		PollInterval:  envDuration("QUERY_POLL_INTERVAL", 500*time.Millisecond),
		MaxPolls:      envInt("QUERY_MAX_POLLS", 60),
		IngestOnStart: envBool("INGEST_ON_START", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

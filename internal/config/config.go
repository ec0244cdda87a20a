// Package config loads runtime settings from the environment, an optional
// .env file and AWS Secrets Manager.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

// Storage backends.
const (
	BackendS3   = "s3"
	BackendNATS = "nats"
)

// Config holds settings shared by the API server, MCP server and CLI.
type Config struct {
	Addr          string `env:"PODCASTR_ADDR" envDefault:":8080"`
	MCPPort       int    `env:"PODCASTR_MCP_PORT" envDefault:"8000"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	Environment   string `env:"ENVIRONMENT" envDefault:"production"`

	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	TableName    string `env:"DYNAMODB_TABLE" envDefault:"podcastr-prod"`
	SecretPrefix string `env:"SECRET_PREFIX" envDefault:"/podcastr/"`

	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"s3"`
	S3Bucket       string `env:"S3_BUCKET"`
	CDNBaseURL     string `env:"CDN_BASE_URL" envDefault:"https://media.podcastr.dev"`
	NATSURL        string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSBucket     string `env:"NATS_BUCKET" envDefault:"podcast-media"`

	UnrealSpeechAPIKey  string `env:"UNREAL_SPEECH_API_KEY"`
	UnrealSpeechBaseURL string `env:"UNREAL_SPEECH_BASE_URL"`
	FreepikAPIKey       string `env:"FREEPIK_API_KEY"`
	FreepikBaseURL      string `env:"FREEPIK_BASE_URL"`
	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY"`
	SuggestModel        string `env:"SUGGEST_MODEL" envDefault:"haiku"`

	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	DraftTTL time.Duration `env:"DRAFT_TTL" envDefault:"1h"`
}

// Load reads .env files (missing files are skipped) and then the
// environment. Variables already set in the environment win.
func Load(dotenvPaths ...string) (Config, error) {
	if len(dotenvPaths) == 0 {
		dotenvPaths = []string{".env"}
	}
	for _, p := range dotenvPaths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the storage settings.
func (c Config) Validate() error {
	switch c.StorageBackend {
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage backend")
		}
	case BackendNATS:
		if c.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required for the nats storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (use s3 or nats)", c.StorageBackend)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// AWS loads the default AWS config with OpenTelemetry instrumentation.
func (c Config) AWS(ctx context.Context) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)
	return awsCfg, nil
}

// SecretsAPI is the subset of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadSecrets fills empty API keys from Secrets Manager entries named
// SecretPrefix + variable name. Missing secrets are logged and skipped.
func (c *Config) LoadSecrets(ctx context.Context, client SecretsAPI, logger *slog.Logger) {
	if c.SecretPrefix == "" {
		return
	}
	targets := map[string]*string{
		"UNREAL_SPEECH_API_KEY": &c.UnrealSpeechAPIKey,
		"FREEPIK_API_KEY":       &c.FreepikAPIKey,
		"ANTHROPIC_API_KEY":     &c.AnthropicAPIKey,
	}

	for name, field := range targets {
		if *field != "" {
			continue
		}
		secretID := c.SecretPrefix + name
		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: &secretID,
		})
		if err != nil {
			logger.Info("Secret not found", "secret_id", secretID, "error", err)
			continue
		}
		if result.SecretString != nil {
			*field = *result.SecretString
			logger.Info("Loaded secret", "secret_id", secretID)
		}
	}
}

package main

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/apresai/podcastr/internal/config"
	"github.com/apresai/podcastr/internal/observability"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/viewcount"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger(0).Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.InitLogger(cfg.SlogLevel())

	logBucket := os.Getenv("LOG_BUCKET")
	logPrefix := os.Getenv("LOG_PREFIX")
	if logBucket == "" {
		logger.Error("LOG_BUCKET environment variable is required")
		os.Exit(1)
	}
	if logPrefix == "" {
		logPrefix = "cf-logs/"
	}

	awsCfg, err := cfg.AWS(ctx)
	if err != nil {
		logger.Error("Failed to load AWS config", "error", err)
		os.Exit(1)
	}

	counter := viewcount.New(
		viewcount.NewS3Logs(s3.NewFromConfig(awsCfg), logBucket, logPrefix),
		store.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.TableName),
		logger,
	)
	if _, err := counter.Run(ctx); err != nil {
		logger.Error("View count failed", "error", err)
		os.Exit(1)
	}
}

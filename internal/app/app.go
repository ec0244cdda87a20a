// Package app assembles the shared collaborators used by the HTTP API, the
// MCP server and the CLI from a loaded configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/nats-io/nats.go"

	"github.com/apresai/podcastr/internal/audio"
	"github.com/apresai/podcastr/internal/config"
	"github.com/apresai/podcastr/internal/httpapi"
	"github.com/apresai/podcastr/internal/mcpserver"
	"github.com/apresai/podcastr/internal/storage"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/studio"
	"github.com/apresai/podcastr/internal/suggest"
	"github.com/apresai/podcastr/internal/thumbnail"
	"github.com/apresai/podcastr/internal/tts"
)

// App holds the wired services.
type App struct {
	Config    config.Config
	Store     *store.Store
	Blobs     storage.Blobs
	Speech    *tts.Client
	Images    *thumbnail.Client
	Suggester *suggest.Suggester // nil unless Claude or Nova is configured
	Logger    *slog.Logger

	nc *nats.Conn
}

// Build connects to AWS (and NATS when selected) and creates the clients.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := cfg.AWS(ctx)
	if err != nil {
		return nil, err
	}
	cfg.LoadSecrets(ctx, secretsmanager.NewFromConfig(awsCfg), logger)

	a := &App{
		Config: cfg,
		Store:  store.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.TableName),
		Speech: tts.NewClient(cfg.UnrealSpeechAPIKey, cfg.UnrealSpeechBaseURL, nil, logger),
		Images: thumbnail.NewClient(cfg.FreepikAPIKey, cfg.FreepikBaseURL, nil, logger),
		Logger: logger,
	}
	switch {
	case suggest.IsNova(cfg.SuggestModel):
		a.Suggester = suggest.NewNova(bedrockruntime.NewFromConfig(awsCfg), cfg.SuggestModel)
	case cfg.AnthropicAPIKey != "":
		a.Suggester = suggest.New(cfg.AnthropicAPIKey, cfg.SuggestModel)
	}

	switch cfg.StorageBackend {
	case config.BackendNATS:
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("podcastr"))
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("open jetstream: %w", err)
		}
		blobs, err := storage.NewNATS(js, cfg.NATSBucket, strings.TrimRight(cfg.PublicBaseURL, "/")+"/media")
		if err != nil {
			nc.Close()
			return nil, err
		}
		a.nc = nc
		a.Blobs = blobs
	default:
		a.Blobs = storage.NewS3(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.CDNBaseURL)
	}

	logger.Info("Services ready",
		"table", cfg.TableName,
		"storage", cfg.StorageBackend,
		"suggestions", a.Suggester != nil,
	)
	return a, nil
}

// StudioDeps returns form collaborators that publish to the store.
func (a *App) StudioDeps() studio.Deps {
	return studio.Deps{
		Speech:    a.Speech,
		Images:    a.Images,
		Blobs:     a.Blobs,
		Publisher: a.Store,
		Duration:  audio.Duration,
		Logger:    a.Logger,
	}
}

// HTTPOptions returns the API server options.
func (a *App) HTTPOptions() httpapi.Options {
	opts := httpapi.Options{
		Speech:   a.Speech,
		Images:   a.Images,
		Drafts:   studio.NewRegistry(a.StudioDeps()),
		Catalog:  a.Store,
		Auth:     a.Store,
		CacheTTL: a.Config.CacheTTL,
		DraftTTL: a.Config.DraftTTL,
		Logger:   a.Logger,
	}
	if a.Suggester != nil {
		opts.Suggester = a.Suggester
	}
	if a.Config.StorageBackend == config.BackendNATS {
		opts.Media = a.Blobs
	}
	return opts
}

// MCPDeps returns the MCP tool dependencies.
func (a *App) MCPDeps() mcpserver.Deps {
	deps := mcpserver.Deps{
		Studio:  a.StudioDeps(),
		Catalog: a.Store,
		Auth:    a.Store,
	}
	if a.Suggester != nil {
		deps.Suggester = a.Suggester
	}
	return deps
}

// Close releases the NATS connection, if any.
func (a *App) Close() {
	if a.nc != nil {
		a.nc.Close()
	}
}

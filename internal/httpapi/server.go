// Package httpapi exposes the creation workflow, playback catalog and media
// over HTTP using gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"

	"github.com/apresai/podcastr/internal/storage"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/studio"
	"github.com/apresai/podcastr/internal/suggest"
	"github.com/apresai/podcastr/internal/thumbnail"
	"github.com/apresai/podcastr/internal/tts"
)

// Catalog reads published podcasts.
type Catalog interface {
	GetPodcast(ctx context.Context, id string) (*store.Podcast, error)
	ListPodcasts(ctx context.Context, limit int, cursor string) ([]store.Podcast, string, error)
	ListAuthorPodcasts(ctx context.Context, authorID string, limit int, cursor string) ([]store.Podcast, string, error)
}

// Authenticator resolves a bearer token to an identity.
type Authenticator interface {
	ValidateAPIKey(ctx context.Context, bearer string) (store.Identity, error)
}

// Suggester drafts prompts from podcast details.
type Suggester interface {
	Suggest(ctx context.Context, title, description string) (*suggest.Prompts, error)
}

// Options wires the server's collaborators. Suggester and Media may be nil.
type Options struct {
	Speech    tts.Synthesizer
	Images    thumbnail.Generator
	Drafts    *studio.Registry
	Catalog   Catalog
	Auth      Authenticator
	Suggester Suggester
	Media     storage.Blobs
	CacheTTL  time.Duration
	DraftTTL  time.Duration
	Logger    *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	opts    Options
	engine  *gin.Engine
	cache   *bigcache.BigCache
	log     *slog.Logger
	baseCtx context.Context // server lifetime; draft steps outlive their request
}

// New builds the router.
func New(ctx context.Context, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.DraftTTL <= 0 {
		opts.DraftTTL = time.Hour
	}

	cacheCfg := bigcache.DefaultConfig(opts.CacheTTL)
	cacheCfg.Verbose = false
	cache, err := bigcache.New(ctx, cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("create podcast cache: %w", err)
	}

	s := &Server{opts: opts, cache: cache, log: opts.Logger, baseCtx: ctx}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.traceRequests(), s.logRequests())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api", s.identify())
	api.GET("/voices", s.listVoices)
	api.GET("/nav", s.navLinks)
	api.GET("/podcasts", s.listPodcasts)
	api.GET("/podcasts/:id", s.getPodcast)

	authed := api.Group("", s.requireIdentity())
	authed.POST("/actions/audio", s.synthesizeAction)
	authed.POST("/actions/thumbnail", s.thumbnailAction)
	authed.POST("/suggest", s.suggestPrompts)

	drafts := authed.Group("/drafts")
	drafts.POST("", s.createDraft)
	drafts.GET("/:id", s.getDraft)
	drafts.PATCH("/:id", s.updateDraft)
	drafts.DELETE("/:id", s.deleteDraft)
	drafts.POST("/:id/audio", s.generateDraftAudio)
	drafts.POST("/:id/thumbnail", s.generateDraftImage)
	drafts.POST("/:id/submit", s.submitDraft)

	if s.opts.Media != nil {
		r.GET("/media/*key", s.serveMedia)
	}
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, sweeping stale drafts in the
// background.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweepDrafts(ctx)

	errc := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP API", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("Shutting down HTTP API")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return s.cache.Close()
	}
}

func (s *Server) sweepDrafts(ctx context.Context) {
	if s.opts.Drafts == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.opts.Drafts.Sweep(s.opts.DraftTTL); n > 0 {
				s.log.Info("Swept stale drafts", "count", n)
			}
		}
	}
}

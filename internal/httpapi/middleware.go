package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/podcastr/internal/failure"
	"github.com/apresai/podcastr/internal/storage"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/studio"
)

var tracer = otel.Tracer("podcastr-api")

func (s *Server) traceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracer.Start(c.Request.Context(), "http "+c.Request.Method+" "+route)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// identify attaches the caller identity when a valid key is presented.
// Anonymous requests pass through.
func (s *Server) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || s.opts.Auth == nil {
			c.Next()
			return
		}
		id, err := s.opts.Auth.ValidateAPIKey(c.Request.Context(), header)
		if err != nil {
			s.log.WarnContext(c.Request.Context(), "Rejected API key", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Request = c.Request.WithContext(store.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := store.IdentityFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) store.Identity {
	id, _ := store.IdentityFromContext(c.Request.Context())
	return id
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, studio.ErrDraftNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, studio.ErrSuperseded):
		return http.StatusConflict
	}
	switch failure.KindOf(err) {
	case failure.ValidationFailure:
		return http.StatusBadRequest
	case failure.NetworkFailure, failure.MalformedResponse, failure.DecodeFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	}
	body := gin.H{"error": err.Error()}
	if k := failure.KindOf(err); k != 0 {
		body["kind"] = k.String()
	}
	c.JSON(status, body)
}

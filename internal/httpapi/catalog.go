package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"

	"github.com/apresai/podcastr/internal/nav"
	"github.com/apresai/podcastr/internal/storage"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/tts"
)

const podcastCachePrefix = "podcast_"

type voiceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Gender      string `json:"gender"`
	Description string `json:"description"`
	PreviewURL  string `json:"previewUrl"`
}

func (s *Server) listVoices(c *gin.Context) {
	voices := tts.AvailableVoices()
	out := make([]voiceResponse, len(voices))
	for i, v := range voices {
		out[i] = voiceResponse{ID: v.ID, Name: v.Name, Gender: v.Gender, Description: v.Description, PreviewURL: v.PreviewPath}
	}
	c.JSON(http.StatusOK, gin.H{"voices": out})
}

func (s *Server) navLinks(c *gin.Context) {
	path := c.DefaultQuery("path", "/")
	c.JSON(http.StatusOK, gin.H{"links": nav.Links(path, identity(c).UserID)})
}

func (s *Server) listPodcasts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	cursor := c.Query("cursor")

	var (
		items []store.Podcast
		next  string
		err   error
	)
	if author := c.Query("author"); author != "" {
		items, next, err = s.opts.Catalog.ListAuthorPodcasts(c.Request.Context(), author, limit, cursor)
	} else {
		items, next, err = s.opts.Catalog.ListPodcasts(c.Request.Context(), limit, cursor)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	if items == nil {
		items = []store.Podcast{}
	}
	c.JSON(http.StatusOK, gin.H{"podcasts": items, "nextCursor": next})
}

// getPodcast reads through the cache; views may lag by up to the cache TTL.
func (s *Server) getPodcast(c *gin.Context) {
	id := c.Param("id")

	if data, err := s.cache.Get(podcastCachePrefix + id); err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", data)
		return
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		s.log.WarnContext(c.Request.Context(), "podcast cache read failed", "podcast_id", id, "error", err)
	}

	p, err := s.opts.Catalog.GetPodcast(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.cache.Set(podcastCachePrefix+id, data); err != nil {
		s.log.WarnContext(c.Request.Context(), "podcast cache write failed", "podcast_id", id, "error", err)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) serveMedia(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media key"})
		return
	}
	data, contentType, err := s.opts.Media.Download(c.Request.Context(), storage.Handle(key))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, contentType, data)
}

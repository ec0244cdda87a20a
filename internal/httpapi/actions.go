package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type synthesizeRequest struct {
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// synthesizeAction returns raw speech audio for input.
func (s *Server) synthesizeAction(c *gin.Context) {
	var req synthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := s.opts.Speech.Synthesize(c.Request.Context(), req.Input, req.Voice)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", data)
}

type thumbnailRequest struct {
	Prompt string `json:"prompt"`
}

// thumbnailAction returns raw image bytes for prompt.
func (s *Server) thumbnailAction(c *gin.Context) {
	var req thumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := s.opts.Images.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

type suggestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) suggestPrompts(c *gin.Context) {
	if s.opts.Suggester == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "prompt suggestions are not configured"})
		return
	}
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := s.opts.Suggester.Suggest(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "suggestion failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/apresai/podcastr/internal/observability"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/studio"
)

type draftResponse struct {
	ID            string                `json:"id"`
	Draft         studio.Draft          `json:"draft"`
	CanSubmit     bool                  `json:"canSubmit"`
	Notifications []studio.Notification `json:"notifications"`
	Redirect      string                `json:"redirect,omitempty"`
	Podcast       *store.Podcast        `json:"podcast,omitempty"`
	Error         string                `json:"error,omitempty"`
}

type draftPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Voice       *string `json:"voice"`
	VoicePrompt *string `json:"voicePrompt"`
	ImagePrompt *string `json:"imagePrompt"`
}

func respondDraft(c *gin.Context, status int, id string, f *studio.Form, rec *studio.Recorder, extra func(*draftResponse)) {
	notes, redirect := rec.Drain()
	if notes == nil {
		notes = []studio.Notification{}
	}
	resp := draftResponse{
		ID:            id,
		Draft:         f.Snapshot(),
		CanSubmit:     f.CanSubmit(),
		Notifications: notes,
		Redirect:      redirect,
	}
	if extra != nil {
		extra(&resp)
	}
	c.JSON(status, resp)
}

func (s *Server) lookupDraft(c *gin.Context) (string, *studio.Form, *studio.Recorder, bool) {
	id := c.Param("id")
	f, rec, err := s.opts.Drafts.Get(id, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return "", nil, nil, false
	}
	return id, f, rec, true
}

func (s *Server) createDraft(c *gin.Context) {
	id, f, err := s.opts.Drafts.Create(identity(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	_, rec, err := s.opts.Drafts.Get(id, identity(c).UserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondDraft(c, http.StatusCreated, id, f, rec, nil)
}

func (s *Server) getDraft(c *gin.Context) {
	id, f, rec, ok := s.lookupDraft(c)
	if !ok {
		return
	}
	respondDraft(c, http.StatusOK, id, f, rec, nil)
}

func (s *Server) updateDraft(c *gin.Context) {
	id, f, rec, ok := s.lookupDraft(c)
	if !ok {
		return
	}
	var p draftPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if p.Voice != nil {
		if err := f.SelectVoice(*p.Voice); err != nil {
			s.fail(c, err)
			return
		}
	}
	if p.Title != nil {
		f.SetTitle(*p.Title)
	}
	if p.Description != nil {
		f.SetDescription(*p.Description)
	}
	if p.VoicePrompt != nil {
		f.SetVoicePrompt(*p.VoicePrompt)
	}
	if p.ImagePrompt != nil {
		f.SetImagePrompt(*p.ImagePrompt)
	}
	respondDraft(c, http.StatusOK, id, f, rec, nil)
}

func (s *Server) deleteDraft(c *gin.Context) {
	if err := s.opts.Drafts.Delete(c.Param("id"), identity(c).UserID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) generateDraftAudio(c *gin.Context) {
	id, f, rec, ok := s.lookupDraft(c)
	if !ok {
		return
	}
	err := f.GenerateAudio(s.stepContext(c))
	s.respondStep(c, id, f, rec, err)
}

func (s *Server) generateDraftImage(c *gin.Context) {
	id, f, rec, ok := s.lookupDraft(c)
	if !ok {
		return
	}
	err := f.GenerateImage(s.stepContext(c))
	s.respondStep(c, id, f, rec, err)
}

// stepContext keeps the request's trace but not its cancellation, so a
// generation or submit finishes even if the client goes away.
func (s *Server) stepContext(c *gin.Context) context.Context {
	return observability.DetachTraceContextFrom(c.Request.Context(), s.baseCtx)
}

// respondStep reports a generation step. Failures still carry the draft
// and its notifications so the client can render the toast.
func (s *Server) respondStep(c *gin.Context, id string, f *studio.Form, rec *studio.Recorder, err error) {
	if err == nil {
		respondDraft(c, http.StatusOK, id, f, rec, nil)
		return
	}
	respondDraft(c, statusFor(err), id, f, rec, func(r *draftResponse) { r.Error = err.Error() })
}

func (s *Server) submitDraft(c *gin.Context) {
	id, f, rec, ok := s.lookupDraft(c)
	if !ok {
		return
	}
	p, err := f.Submit(s.stepContext(c))
	if err != nil {
		s.respondStep(c, id, f, rec, err)
		return
	}
	respondDraft(c, http.StatusCreated, id, f, rec, func(r *draftResponse) { r.Podcast = p })
	if err := s.opts.Drafts.Delete(id, identity(c).UserID); err != nil {
		s.log.WarnContext(c.Request.Context(), "could not discard submitted draft", "draft_id", id, "error", err)
	}
}

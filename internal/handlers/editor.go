// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"slidesmith/internal/autosave"
	"slidesmith/internal/engine"
	"slidesmith/internal/middleware"
	"slidesmith/internal/models"
	"slidesmith/internal/theme"
)

// CarouselFinder loads a carousel owned by a user.
type CarouselFinder interface {
	FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Carousel, error)
}

// Editor exposes auto-save sessions over HTTP. Each browser tab opens a
// session, streams its state with PUT and polls the save status.
type Editor struct {
	sessions  *autosave.Manager
	carousels CarouselFinder
	engine    *engine.Engine
}

// NewEditor creates the editor handler group.
func NewEditor(sessions *autosave.Manager, carousels CarouselFinder, eng *engine.Engine) *Editor {
	return &Editor{sessions: sessions, carousels: carousels, engine: eng}
}

type openRequest struct {
	CarouselID *uuid.UUID `json:"carousel_id"`
}

type statusResponse struct {
	Session    uuid.UUID       `json:"session"`
	CarouselID *uuid.UUID      `json:"carousel_id"`
	Status     autosave.Status `json:"status"`
	Message    string          `json:"message,omitempty"`
}

// Open starts an editor session, either blank or on an existing carousel.
func (e *Editor) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	sess := middleware.SessionFromCtx(r.Context())

	carouselID := uuid.Nil
	var baseline *autosave.State
	if req.CarouselID != nil {
		c, err := e.carousels.FindOwned(r.Context(), *req.CarouselID, sess.UserID)
		if err != nil {
			fail(w, r, "open editor", err)
			return
		}
		if c == nil {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		carouselID = c.ID
		baseline = stateOf(c)
	}

	id, coord := e.sessions.Open(sess.UserID, carouselID, baseline)
	writeJSON(w, http.StatusCreated, statusOf(id, coord))
}

// stateRequest is the editable carousel state. The theme is not part of it:
// it is derived from preset_id and template_type on every update.
type stateRequest struct {
	Title  string         `json:"title" validate:"max=300"`
	Slides []models.Slide `json:"slides" validate:"max=30"`
	design
}

// UpdateState records the latest editor state. Saving happens in the
// background once edits pause; the response carries the status at the time
// of the call.
func (e *Editor) UpdateState(w http.ResponseWriter, r *http.Request) {
	coord, id, ok := e.coordinator(w, r)
	if !ok {
		return
	}
	var req stateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := autosave.State{
		UserID:         middleware.SessionFromCtx(r.Context()).UserID,
		Title:          req.Title,
		TemplateType:   req.TemplateType,
		PresetID:       req.PresetID,
		Format:         req.Format,
		Pattern:        req.Pattern,
		PatternOpacity: req.PatternOpacity,
		Branding:       req.Branding,
		Slides:         req.Slides,
	}

	// Until a template is picked there is no theme, and the coordinator
	// holds off saving.
	if req.TemplateType != "" {
		d := req.design.withDefaults()
		if err := d.check(); err != nil {
			fail(w, r, "update editor state", err)
			return
		}
		for _, s := range req.Slides {
			if !s.Variant.Valid() {
				writeError(w, http.StatusBadRequest, "unknown slide variant "+string(s.Variant))
				return
			}
		}
		t := theme.Resolve(d.PresetID, d.TemplateType)
		state.Theme = &t
		state.PresetID = d.PresetID
		state.Format = d.Format
		state.Pattern = d.Pattern
		state.Slides = e.engine.RenderCarousel(&models.Carousel{
			TemplateType:   d.TemplateType,
			Theme:          t,
			Format:         d.Format,
			Pattern:        d.Pattern,
			PatternOpacity: d.PatternOpacity,
			Branding:       d.Branding,
			Slides:         req.Slides,
		})
	}

	coord.Track(state)
	writeJSON(w, http.StatusAccepted, statusOf(id, coord))
}

// Status reports the save status of a session.
func (e *Editor) Status(w http.ResponseWriter, r *http.Request) {
	coord, id, ok := e.coordinator(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, statusOf(id, coord))
}

// Close flushes any pending save and ends the session.
func (e *Editor) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "session")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if err := e.sessions.Close(id, sess.UserID); err != nil {
		fail(w, r, "close editor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *Editor) coordinator(w http.ResponseWriter, r *http.Request) (*autosave.Coordinator, uuid.UUID, bool) {
	id, ok := idParam(r, "session")
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return nil, uuid.Nil, false
	}
	sess := middleware.SessionFromCtx(r.Context())
	coord, err := e.sessions.Get(id, sess.UserID)
	if err != nil {
		fail(w, r, "editor session", err)
		return nil, uuid.Nil, false
	}
	return coord, id, true
}

func statusOf(id uuid.UUID, c *autosave.Coordinator) statusResponse {
	st, msg := c.Status()
	resp := statusResponse{Session: id, Status: st, Message: msg}
	if cid := c.CarouselID(); cid != uuid.Nil {
		resp.CarouselID = &cid
	}
	return resp
}

// stateOf is the saved state of a stored carousel, used as the baseline
// signature when an editor session opens it.
func stateOf(c *models.Carousel) *autosave.State {
	t := c.Theme
	return &autosave.State{
		UserID:         c.UserID,
		Title:          c.Title,
		Slides:         c.Slides,
		Theme:          &t,
		TemplateType:   c.TemplateType,
		PresetID:       c.PresetID,
		Format:         c.Format,
		Pattern:        c.Pattern,
		PatternOpacity: c.PatternOpacity,
		Branding:       c.Branding,
	}
}

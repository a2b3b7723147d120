// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package autosave persists editor state with a debounce. A Coordinator
// collapses bursts of edits into one save, skips saves whose content
// signature matches the last successful one, creates the carousel on the
// first save and updates it afterwards.
//
// States: idle, saving, saved, error and limit-reached. limit-reached is
// sticky until Reset or Open; error is cleared by the next qualifying edit.
package autosave

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidesmith/internal/fingerprint"
	"slidesmith/internal/metrics"
	"slidesmith/internal/models"
	"slidesmith/internal/store"
)

// Status is the coordinator's user-visible save state.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusSaving       Status = "saving"
	StatusSaved        Status = "saved"
	StatusError        Status = "error"
	StatusLimitReached Status = "limit-reached"
)

// Messages attached to terminal statuses.
const (
	MessageLimit = "You've reached your carousel storage limit. Delete an old carousel to keep saving."
	MessageError = "Couldn't save your changes. They will be saved again on your next edit."
)

// Default timings.
const (
	DefaultDebounce    = 2000 * time.Millisecond
	DefaultResetAfter  = 3000 * time.Millisecond
	DefaultSaveTimeout = 15 * time.Second
	DefaultIdleTimeout = 2 * time.Hour
)

// Saver persists carousels. *store.CarouselStore implements it.
type Saver interface {
	Create(ctx context.Context, c *models.Carousel) (*models.Carousel, error)
	Update(ctx context.Context, c *models.Carousel) error
}

// State is a snapshot of the editor. Theme is nil until the theme resolver
// has produced it.
type State struct {
	UserID         uuid.UUID           `json:"-"`
	Title          string              `json:"title"`
	Slides         []models.Slide      `json:"slides"`
	Theme          *models.Theme       `json:"theme"`
	TemplateType   models.TemplateType `json:"template_type"`
	PresetID       string              `json:"preset_id"`
	Format         models.Format       `json:"format"`
	Pattern        models.Pattern      `json:"pattern"`
	PatternOpacity float64             `json:"pattern_opacity"`
	Branding       models.Branding     `json:"branding"`
}

func (s State) clone() State {
	s.Slides = slices.Clone(s.Slides)
	for i := range s.Slides {
		s.Slides[i].Items = slices.Clone(s.Slides[i].Items)
	}
	if s.Theme != nil {
		t := *s.Theme
		s.Theme = &t
	}
	return s
}

// tracked is the subset of State whose change triggers a save. The
// rendered SVG cache on each slide is excluded.
type tracked struct {
	Slides         []models.Slide
	Theme          models.Theme
	TemplateType   models.TemplateType
	PresetID       string
	Format         models.Format
	Pattern        models.Pattern
	PatternOpacity float64
	Branding       models.Branding
}

// Signature returns the structural signature of the tracked fields of s.
// Empty and nil slices sign the same.
func Signature(s State) (fingerprint.Signature, error) {
	t := tracked{
		TemplateType:   s.TemplateType,
		PresetID:       s.PresetID,
		Format:         s.Format,
		Pattern:        s.Pattern,
		PatternOpacity: s.PatternOpacity,
		Branding:       s.Branding,
	}
	if len(s.Slides) > 0 {
		t.Slides = make([]models.Slide, len(s.Slides))
	}
	for i, sl := range s.Slides {
		sl.SVG = ""
		if len(sl.Items) == 0 {
			sl.Items = nil
		}
		t.Slides[i] = sl
	}
	if s.Theme != nil {
		t.Theme = *s.Theme
	}
	return fingerprint.Of(fingerprint.DomainSave, t)
}

// Config tunes the coordinator's timings. IdleTimeout is used by Manager:
// a session untouched for that long is flushed and closed.
type Config struct {
	Debounce    time.Duration
	ResetAfter  time.Duration
	SaveTimeout time.Duration
	IdleTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.ResetAfter <= 0 {
		c.ResetAfter = DefaultResetAfter
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = DefaultSaveTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	return c
}

// Listener receives every status transition.
type Listener func(status Status, message string)

// Coordinator is the auto-save state machine for one editor. It is safe
// for concurrent use. At most one save is in flight at a time: a debounce
// that fires during a save marks the state dirty, and the debounce is
// re-armed once the save resolves.
type Coordinator struct {
	saver Saver
	cfg   Config

	mu         sync.Mutex
	state      State
	hasState   bool
	status     Status
	message    string
	carouselID uuid.UUID
	lastSig    fingerprint.Signature

	timer      *time.Timer
	timerGen   uint64
	resetTimer *time.Timer
	resetGen   uint64

	inFlight bool
	dirty    bool
	epoch    uint64 // bumped by Reset/Open; stale save results are dropped
	closed   bool

	listeners []Listener
	wg        sync.WaitGroup
}

// New creates an idle coordinator for a new, unsaved carousel.
func New(saver Saver, cfg Config) *Coordinator {
	return &Coordinator{
		saver:  saver,
		cfg:    cfg.withDefaults(),
		status: StatusIdle,
	}
}

// OnStatus registers a listener. Listeners run on the goroutine that made
// the transition, outside the coordinator's lock.
func (c *Coordinator) OnStatus(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Status returns the current status and its message.
func (c *Coordinator) Status() (Status, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.message
}

// CarouselID returns the persisted identity, or uuid.Nil before the first
// successful save.
func (c *Coordinator) CarouselID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.carouselID
}

// Track records a new editor state and re-arms the debounce. It is a no-op
// when there is no user, no slide, no theme, or the storage limit has been
// reached.
func (c *Coordinator) Track(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.state = s.clone()
	c.hasState = true

	if !c.eligibleLocked() {
		c.stopTimerLocked()
		return
	}
	c.armLocked()
}

// Reset forgets the carousel identity and last saved signature and clears
// any sticky status. Use it when the editor starts a new carousel.
func (c *Coordinator) Reset() {
	c.Open(uuid.Nil, nil)
}

// Open points the coordinator at an existing carousel. When baseline is the
// state as loaded from storage, re-tracking it unchanged does not save.
func (c *Coordinator) Open(id uuid.UUID, baseline *State) {
	var sig fingerprint.Signature
	if baseline != nil {
		if s, err := Signature(*baseline); err == nil {
			sig = s
		}
	}

	c.mu.Lock()
	c.stopTimerLocked()
	c.stopResetLocked()
	c.epoch++
	c.carouselID = id
	c.lastSig = sig
	c.dirty = false
	c.state = State{}
	c.hasState = false
	if baseline != nil {
		c.state = baseline.clone()
		c.hasState = true
	}
	notify := c.setStatusLocked(StatusIdle, "")
	c.mu.Unlock()

	notify()
}

// Close cancels the debounce and saves any pending change, then waits for
// in-flight work to finish. The coordinator ignores all later calls.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pending := c.timer != nil
	c.timerGen++
	c.stopTimerLocked()
	c.stopResetLocked()
	c.mu.Unlock()

	// Let a save that is already running finish before the final one.
	c.wg.Wait()

	c.mu.Lock()
	pending = pending || c.dirty
	c.dirty = false
	c.mu.Unlock()

	if pending {
		c.wg.Add(1)
		c.save(0, false)
	}
	c.wg.Wait()
}

func (c *Coordinator) eligibleLocked() bool {
	s := c.state
	switch {
	case !c.hasState:
		return false
	case s.UserID == uuid.Nil:
		return false
	case len(s.Slides) == 0:
		return false
	case s.Theme == nil:
		return false
	case c.status == StatusLimitReached:
		return false
	}
	return true
}

// armLocked (re)starts the debounce timer. Every AfterFunc has exactly one
// wg.Done: from a successful Stop or from the callback itself.
func (c *Coordinator) armLocked() {
	c.stopTimerLocked()
	c.timerGen++
	gen := c.timerGen
	c.wg.Add(1)
	c.timer = time.AfterFunc(c.cfg.Debounce, func() { c.save(gen, true) })
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil && c.timer.Stop() {
		c.wg.Done()
	}
	c.timer = nil
}

func (c *Coordinator) stopResetLocked() {
	if c.resetTimer != nil && c.resetTimer.Stop() {
		c.wg.Done()
	}
	c.resetTimer = nil
}

// save runs one debounce fire. fromTimer is false for the final save made
// by Close, which bypasses the generation check.
func (c *Coordinator) save(gen uint64, fromTimer bool) {
	defer c.wg.Done()

	c.mu.Lock()
	if fromTimer {
		if c.closed || gen != c.timerGen {
			c.mu.Unlock()
			return
		}
		c.timer = nil
	}
	if !c.eligibleLocked() {
		c.mu.Unlock()
		return
	}
	if c.inFlight {
		c.dirty = true
		c.mu.Unlock()
		return
	}

	sig, err := Signature(c.state)
	if err != nil {
		notify := c.setStatusLocked(StatusError, MessageError)
		c.mu.Unlock()
		slog.Error("autosave signature failed", "error", err)
		metrics.SavesTotal.WithLabelValues("error").Inc()
		notify()
		return
	}
	if sig == c.lastSig {
		c.mu.Unlock()
		metrics.SavesTotal.WithLabelValues("skipped").Inc()
		return
	}

	carousel := c.carouselLocked()
	epoch := c.epoch
	c.inFlight = true
	c.stopResetLocked()
	notify := c.setStatusLocked(StatusSaving, "")
	c.mu.Unlock()
	notify()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.SaveTimeout)
	created, err := c.persist(ctx, carousel)
	cancel()

	c.mu.Lock()
	c.inFlight = false
	if epoch != c.epoch {
		// The result belongs to the carousel before Reset or Open, but an
		// edit that arrived during the save still has to be saved.
		c.rearmDirtyLocked()
		c.mu.Unlock()
		return
	}

	switch {
	case err == nil:
		if created != nil {
			c.carouselID = created.ID
		}
		c.lastSig = sig
		notify = c.setStatusLocked(StatusSaved, "")
		if !c.closed {
			c.armResetLocked()
		}
	case errors.Is(err, store.ErrStorageLimit):
		c.dirty = false
		c.stopTimerLocked()
		notify = c.setStatusLocked(StatusLimitReached, MessageLimit)
	default:
		notify = c.setStatusLocked(StatusError, MessageError)
	}

	c.rearmDirtyLocked()
	c.mu.Unlock()

	c.record(carousel, created, err)
	notify()
}

// rearmDirtyLocked restarts the debounce for an edit whose fire was
// swallowed by an in-flight save.
func (c *Coordinator) rearmDirtyLocked() {
	if !c.dirty || c.closed {
		return
	}
	c.dirty = false
	if c.eligibleLocked() {
		c.armLocked()
	}
}

func (c *Coordinator) persist(ctx context.Context, carousel *models.Carousel) (*models.Carousel, error) {
	if carousel.ID == uuid.Nil {
		return c.saver.Create(ctx, carousel)
	}
	return nil, c.saver.Update(ctx, carousel)
}

func (c *Coordinator) record(carousel *models.Carousel, created *models.Carousel, err error) {
	switch {
	case err == nil && created != nil:
		metrics.SavesTotal.WithLabelValues("created").Inc()
		slog.Info("carousel created by autosave", "id", created.ID, "user_id", carousel.UserID)
	case err == nil:
		metrics.SavesTotal.WithLabelValues("updated").Inc()
		slog.Debug("carousel autosaved", "id", carousel.ID)
	case errors.Is(err, store.ErrStorageLimit):
		metrics.SavesTotal.WithLabelValues("limit").Inc()
		slog.Warn("autosave blocked by storage limit", "user_id", carousel.UserID)
	default:
		metrics.SavesTotal.WithLabelValues("error").Inc()
		slog.Error("autosave failed", "id", carousel.ID, "user_id", carousel.UserID, "error", err)
	}
}

// carouselLocked builds the record to persist from the current state.
func (c *Coordinator) carouselLocked() *models.Carousel {
	s := c.state.clone()
	cr := &models.Carousel{
		ID:             c.carouselID,
		UserID:         s.UserID,
		Title:          s.Title,
		TemplateType:   s.TemplateType,
		PresetID:       s.PresetID,
		Format:         s.Format,
		Pattern:        s.Pattern,
		PatternOpacity: s.PatternOpacity,
		Branding:       s.Branding,
		Slides:         s.Slides,
	}
	if s.Theme != nil {
		cr.Theme = *s.Theme
	}
	return cr
}

func (c *Coordinator) armResetLocked() {
	c.stopResetLocked()
	c.resetGen++
	gen := c.resetGen
	c.wg.Add(1)
	c.resetTimer = time.AfterFunc(c.cfg.ResetAfter, func() {
		defer c.wg.Done()
		c.mu.Lock()
		if gen != c.resetGen || c.status != StatusSaved {
			c.mu.Unlock()
			return
		}
		c.resetTimer = nil
		notify := c.setStatusLocked(StatusIdle, "")
		c.mu.Unlock()
		notify()
	})
}

// setStatusLocked changes the status and returns a func that notifies
// listeners; callers invoke it after releasing the lock.
func (c *Coordinator) setStatusLocked(s Status, msg string) func() {
	if c.status == s && c.message == msg {
		return func() {}
	}
	c.status, c.message = s, msg
	ls := slices.Clone(c.listeners)
	return func() {
		for _, l := range ls {
			l(s, msg)
		}
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"slidesmith/internal/models"
	"slidesmith/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testDebounce = 20 * time.Millisecond
	testReset    = 60 * time.Millisecond
	waitFor      = time.Second
	tick         = 5 * time.Millisecond
)

var testConfig = Config{Debounce: testDebounce, ResetAfter: testReset, SaveTimeout: time.Second}

// fakeSaver records calls. When gate is set each call blocks until a value
// is received from it.
type fakeSaver struct {
	mu      sync.Mutex
	creates []*models.Carousel
	updates []*models.Carousel
	calls   []time.Time
	errs    []error
	gate    chan struct{}
	id      uuid.UUID
}

func newFakeSaver() *fakeSaver {
	return &fakeSaver{id: uuid.New()}
}

func (f *fakeSaver) next() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeSaver) Create(_ context.Context, c *models.Carousel) (*models.Carousel, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.creates = append(f.creates, c)
	f.calls = append(f.calls, time.Now())
	f.mu.Unlock()
	if err := f.next(); err != nil {
		return nil, err
	}
	out := *c
	out.ID = f.id
	return &out, nil
}

func (f *fakeSaver) Update(_ context.Context, c *models.Carousel) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.updates = append(f.updates, c)
	f.calls = append(f.calls, time.Now())
	f.mu.Unlock()
	return f.next()
}

func (f *fakeSaver) counts() (creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates), len(f.updates)
}

func (f *fakeSaver) lastUpdate() *models.Carousel {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return nil
	}
	return f.updates[len(f.updates)-1]
}

func editorState(user uuid.UUID, headline string) State {
	th := models.Theme{Background: "#ffffff", Text: "#111111", Accent: "#ff5500"}
	return State{
		UserID:       user,
		Title:        "Draft",
		Slides:       []models.Slide{{Position: 0, Variant: models.VariantHero, Headline: headline}},
		Theme:        &th,
		TemplateType: models.TemplateEditorial,
		PresetID:     "paper",
		Format:       models.FormatPortrait,
	}
}

func waitStatus(t *testing.T, c *Coordinator, want Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, _ := c.Status()
		return s == want
	}, waitFor, tick, "status never became %s", want)
}

// settle waits long enough for any armed debounce to have fired.
func settle() {
	time.Sleep(4 * testDebounce)
}

func TestDebounceCollapsesBurst(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver, testConfig)
	defer c.Close()

	user := uuid.New()
	for _, h := range []string{"a", "ab", "abc", "abcd"} {
		c.Track(editorState(user, h))
	}

	waitStatus(t, c, StatusSaved)
	creates, updates := saver.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 0, updates)
	assert.Equal(t, "abcd", saver.creates[0].Slides[0].Headline)
	assert.Equal(t, saver.id, c.CarouselID())
}

func TestDefaultTimings(t *testing.T) {
	assert.Equal(t, 2*time.Second, DefaultDebounce)
	assert.Equal(t, 3*time.Second, DefaultResetAfter)

	c := New(newFakeSaver(), Config{})
	defer c.Close()
	assert.Equal(t, DefaultDebounce, c.cfg.Debounce)
	assert.Equal(t, DefaultResetAfter, c.cfg.ResetAfter)
	assert.Equal(t, DefaultSaveTimeout, c.cfg.SaveTimeout)
	assert.Equal(t, DefaultIdleTimeout, c.cfg.IdleTimeout)
}

func TestSaveWaitsForDebounceAfterLastEdit(t *testing.T) {
	const debounce = 100 * time.Millisecond
	saver := newFakeSaver()
	cfg := testConfig
	cfg.Debounce = debounce
	c := New(saver, cfg)
	defer c.Close()
	user := uuid.New()

	var last time.Time
	for _, h := range []string{"a", "ab", "abc"} {
		last = time.Now()
		c.Track(editorState(user, h))
		time.Sleep(debounce / 5)
		creates, _ := saver.counts()
		require.Zero(t, creates, "saved before the debounce elapsed")
	}

	waitStatus(t, c, StatusSaved)
	saver.mu.Lock()
	defer saver.mu.Unlock()
	require.Len(t, saver.calls, 1)
	assert.GreaterOrEqual(t, saver.calls[0].Sub(last), debounce)
}

func TestFirstSaveCreatesThenUpdates(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver, testConfig)
	defer c.Close()
	user := uuid.New()

	c.Track(editorState(user, "one"))
	waitStatus(t, c, StatusSaved)

	c.Track(editorState(user, "two"))
	require.Eventually(t, func() bool {
		_, u := saver.counts()
		return u == 1
	}, waitFor, tick)

	up := saver.lastUpdate()
	assert.Equal(t, saver.id, up.ID)
	assert.Equal(t, "two", up.Slides[0].Headline)
}

func TestUnchangedSignatureSkipsSave(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver, testConfig)
	defer c.Close()
	user := uuid.New()

	st := editorState(user, "same")
	c.Track(st)
	waitStatus(t, c, StatusSaved)

	c.Track(st)
	settle()

	creates, updates := saver.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 0, updates)
}

func TestRenderedSVGIsNotTracked(t *testing.T) {
	user := uuid.New()
	a := editorState(user, "x")
	b := editorState(user, "x")
	b.Slides[0].SVG = "<svg/>"

	sa, err := Signature(a)
	require.NoError(t, err)
	sb, err := Signature(b)
	require.NoError(t, err)
	assert.Equal(t, sa, sb)

	b.Slides[0].Headline = "y"
	sc, err := Signature(b)
	require.NoError(t, err)
	assert.NotEqual(t, sa, sc)
}

func TestEmptyAndNilSlicesSignTheSame(t *testing.T) {
	user := uuid.New()
	a := editorState(user, "x")
	a.Slides[0].Items = nil
	b := editorState(user, "x")
	b.Slides[0].Items = []models.ListItem{}

	sa, err := Signature(a)
	require.NoError(t, err)
	sb, err := Signature(b)
	require.NoError(t, err)
	assert.Equal(t, sa, sb, "nil and empty items")

	a.Slides, b.Slides = nil, []models.Slide{}
	sa, err = Signature(a)
	require.NoError(t, err)
	sb, err = Signature(b)
	require.NoError(t, err)
	assert.Equal(t, sa, sb, "nil and empty slides")
}

func TestIneligibleStatesNeverSave(t *testing.T) {
	user := uuid.New()

	noUser := editorState(uuid.Nil, "x")
	noSlides := editorState(user, "x")
	noSlides.Slides = nil
	noTheme := editorState(user, "x")
	noTheme.Theme = nil

	for name, st := range map[string]State{"no user": noUser, "no slides": noSlides, "no theme": noTheme} {
		t.Run(name, func(t *testing.T) {
			saver := newFakeSaver()
			c := New(saver, testConfig)
			c.Track(st)
			settle()
			c.Close()

			creates, updates := saver.counts()
			assert.Zero(t, creates+updates)
			s, _ := c.Status()
			assert.Equal(t, StatusIdle, s)
		})
	}
}

func TestIneligibleEditCancelsPendingSave(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver, testConfig)
	defer c.Close()
	user := uuid.New()

	c.Track(editorState(user, "x"))
	empty := editorState(user, "x")
	empty.Slides = nil
	c.Track(empty)
	settle()

	creates, _ := saver.counts()
	assert.Zero(t, creates)
}

func TestStorageLimitIsSticky(t *testing.T) {
	saver := newFakeSaver()
	saver.errs = []error{store.ErrStorageLimit}
	c := New(saver, testConfig)
	defer c.Close()
	user := uuid.New()

	c.Track(editorState(user, "first"))
	waitStatus(t, c, StatusLimitReached)
	_, msg := c.Status()
	assert.Equal(t, MessageLimit, msg)

	c.Track(editorState(user, "second"))
	settle()
	creates, _ := saver.counts()
	assert.Equal(t, 1, creates, "no save is attempted while the limit is reached")
	s, _ := c.Status()
	assert.Equal(t, StatusLimitReached, s)

	c.Reset()
	s, _ = c.Status()
	assert.Equal(t, StatusIdle, s)

	c.Track(editorState(user, "third"))
	waitStatus(t, c, StatusSaved)
	creates, _ = saver.counts()
	assert.Equal(t, 2, creates)
}

func TestErrorRecoversOnNextEdit(t *testing.T) {
	saver := newFakeSaver()
	saver.errs = []error{errors.New("db down")}
	c := New(saver, testConfig)
	defer c.Close()
	user := uuid.New()

	c.Track(editorState(user, "one"))
	waitStatus(t, c, StatusError)
	_, msg := c.Status()
	assert.Equal(t, MessageError, msg)
	assert.Equal(t, uuid.Nil, c.CarouselID())

	c.Track(editorState(user, "one more"))
	waitStatus(t, c, StatusSaved)
	creates, _ := saver.counts()
	assert.Equal(t, 2, creates, "failed create is retried as a create")
}

func TestEditDuringSaveIsSavedAfterward(t *testing.T) {
	saver := newFakeSaver()
	saver.gate = make(chan struct{})
	c := New(saver, testConfig)
	defer c.Close()
	user := uuid.New()

	c.Track(editorState(user, "one"))
	waitStatus(t, c, StatusSaving)

	c.Track(editorState(user, "two"))
	settle()
	creates, updates := saver.counts()
	assert.Zero(t, creates+updates, "second save must wait for the first")

	saver.gate <- struct{}{}
	saver.gate <- struct{}{}

	require.Eventually(t, func() bool {
		_, u := saver.counts()
		return u == 1
	}, waitFor, tick)
	assert.Equal(t, "two", saver.lastUpdate().Slides[0].Headline)
	assert.Equal(t, saver.id, saver.lastUpdate().ID)
}

func TestEditDuringSaveAfterResetIsSaved(t *testing.T) {
	saver := newFakeSaver()
	saver.gate = make(chan struct{})
	c := New(saver, testConfig)
	defer c.Close()
	user := uuid.New()

	c.Track(editorState(user, "old"))
	waitStatus(t, c, StatusSaving)

	// A new carousel is started while the old one is still being created.
	c.Reset()
	c.Track(editorState(user, "new"))
	settle()

	saver.gate <- struct{}{}
	saver.gate <- struct{}{}

	require.Eventually(t, func() bool {
		creates, _ := saver.counts()
		return creates == 2
	}, waitFor, tick)
	waitStatus(t, c, StatusSaved)
	assert.Equal(t, "new", saver.creates[1].Slides[0].Headline)
	assert.Equal(t, saver.id, c.CarouselID())
}

func TestSavedReturnsToIdle(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver, testConfig)
	defer c.Close()

	var mu sync.Mutex
	var seen []Status
	c.OnStatus(func(s Status, _ string) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	c.Track(editorState(uuid.New(), "x"))
	waitStatus(t, c, StatusSaved)
	waitStatus(t, c, StatusIdle)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusSaving, StatusSaved, StatusIdle}, seen)
}

func TestCloseFlushesPendingChange(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver, Config{Debounce: time.Hour, ResetAfter: testReset})

	c.Track(editorState(uuid.New(), "unsaved"))
	c.Close()

	creates, _ := saver.counts()
	assert.Equal(t, 1, creates)

	c.Track(editorState(uuid.New(), "after close"))
	creates, _ = saver.counts()
	assert.Equal(t, 1, creates)
}

func TestOpenWithBaseline(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver, testConfig)
	defer c.Close()
	user := uuid.New()
	id := uuid.New()

	loaded := editorState(user, "stored")
	c.Open(id, &loaded)
	assert.Equal(t, id, c.CarouselID())

	c.Track(loaded)
	settle()
	creates, updates := saver.counts()
	assert.Zero(t, creates+updates, "reopening an unchanged carousel must not save")

	c.Track(editorState(user, "edited"))
	require.Eventually(t, func() bool {
		_, u := saver.counts()
		return u == 1
	}, waitFor, tick)
	assert.Equal(t, id, saver.lastUpdate().ID)
}

func TestTrackDoesNotAliasCallerSlides(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver, testConfig)
	defer c.Close()

	st := editorState(uuid.New(), "original")
	c.Track(st)
	st.Slides[0].Headline = "mutated"

	waitStatus(t, c, StatusSaved)
	assert.Equal(t, "original", saver.creates[0].Slides[0].Headline)
}

// =====================================================================
// Manager
// =====================================================================

func TestManagerSessions(t *testing.T) {
	saver := newFakeSaver()
	m := NewManager(saver, testConfig)
	defer m.Shutdown()
	owner := uuid.New()

	id, c := m.Open(owner, uuid.Nil, nil)
	require.NotNil(t, c)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(id, owner)
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = m.Get(id, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(id, uuid.New()), ErrSessionNotFound)

	c.Track(editorState(owner, "x"))
	require.NoError(t, m.Close(id, owner))
	assert.Zero(t, m.Len())

	creates, _ := saver.counts()
	assert.Equal(t, 1, creates, "closing a session flushes its pending change")

	_, err = m.Get(id, owner)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerShutdown(t *testing.T) {
	saver := newFakeSaver()
	m := NewManager(saver, Config{Debounce: time.Hour})

	for range 3 {
		owner := uuid.New()
		_, c := m.Open(owner, uuid.Nil, nil)
		c.Track(editorState(owner, "x"))
	}
	m.Shutdown()

	assert.Zero(t, m.Len())
	creates, _ := saver.counts()
	assert.Equal(t, 3, creates)
}

func TestManagerEvictsIdleSessions(t *testing.T) {
	saver := newFakeSaver()
	cfg := testConfig
	cfg.IdleTimeout = time.Hour
	m := NewManager(saver, cfg)
	defer m.Shutdown()

	owner := uuid.New()
	active, _ := m.Open(owner, uuid.Nil, nil)
	idle, c := m.Open(owner, uuid.Nil, nil)
	c.Track(editorState(owner, "pending"))

	assert.Zero(t, m.evictIdle(time.Now()), "fresh sessions stay open")

	m.mu.Lock()
	for _, s := range m.sessions {
		s.lastUsed = time.Now().Add(-2 * time.Hour)
	}
	m.mu.Unlock()
	_, err := m.Get(active, owner)
	require.NoError(t, err)

	assert.Equal(t, 1, m.evictIdle(time.Now()))
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(idle, owner)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	creates, _ := saver.counts()
	assert.Equal(t, 1, creates, "an evicted session flushes its pending change")
}

func TestManagerSweeperClosesIdleSessions(t *testing.T) {
	saver := newFakeSaver()
	cfg := testConfig
	cfg.IdleTimeout = 40 * time.Millisecond
	m := NewManager(saver, cfg)
	defer m.Shutdown()

	m.Open(uuid.New(), uuid.Nil, nil)
	require.Eventually(t, func() bool { return m.Len() == 0 }, waitFor, tick)
}

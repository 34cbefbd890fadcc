// Package playback drives offline playback as a bounded state machine over
// locally stored chapters. The controller owns exactly one blob locator at a
// time and emits state-change events; it never touches presentation code.
package playback

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"audiotome/internal/blobcache"
	"audiotome/internal/errdefs"
	"audiotome/internal/models"
	"audiotome/internal/store"
)

// State is one of the bounded player states.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
	StateError   State = "error"
)

// ErrPlaylistEdge is returned by Next/Prev at the playlist boundaries. The
// controls are disabled at the edges rather than silently staying put.
var ErrPlaylistEdge = errors.New("already at playlist edge")

// ErrNoActivePlayback is returned by controls that need a loaded chapter.
var ErrNoActivePlayback = errors.New("no active playback")

// Speeds are the playback rates the player accepts.
var Speeds = []float64{0.75, 1.0, 1.25, 1.5, 2.0}

// Event is a snapshot of the player emitted on every state change.
type Event struct {
	State          State   `json:"state"`
	AudiobookID    string  `json:"audiobook_id,omitempty"`
	AudiobookTitle string  `json:"audiobook_title,omitempty"`
	ChapterID      string  `json:"chapter_id,omitempty"`
	ChapterTitle   string  `json:"chapter_title,omitempty"`
	ChapterIndex   int     `json:"chapter_index"`
	AudioURL       string  `json:"audio_url,omitempty"` // locator URL, valid until Close
	Duration       float64 `json:"duration"`
	Position       float64 `json:"position"`
	Speed          float64 `json:"speed"`
	CanNext        bool    `json:"can_next"`
	CanPrev        bool    `json:"can_prev"`
	Error          string  `json:"error,omitempty"`
}

// Controller is the playback state machine. All methods are safe for
// concurrent use.
type Controller struct {
	store *store.Store
	blobs *blobcache.Cache

	mu       sync.Mutex
	state    State
	book     *models.Audiobook
	playlist []*models.Chapter
	index    int
	locator  *blobcache.Locator
	position float64
	speed    float64
	lastErr  string
	subs     []func(Event)
}

func New(st *store.Store, blobs *blobcache.Cache) *Controller {
	return &Controller{store: st, blobs: blobs, state: StateIdle, speed: 1.0}
}

// Subscribe registers a callback for state-change events. Callbacks run on
// the mutating goroutine and must not call back into the controller.
func (c *Controller) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Play starts playback of one chapter of one audiobook. The playlist is the
// audiobook's stored chapters ordered by chapter index. A missing chapter or
// blob moves the machine to the error state; no retry is attempted.
func (c *Controller) Play(audiobookID, chapterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The previous locator must be released before a new one is obtained
	// for the playback slot, or it leaks until process exit. The previous
	// book and playlist are dropped too, so a failure below snapshots the
	// request that failed, not the playback it replaced.
	c.releaseLocked()
	c.book = nil
	c.playlist = nil
	c.index = 0
	c.position = 0

	c.setStateLocked(StateLoading)

	book, err := c.store.GetAudiobook(audiobookID)
	if err != nil {
		return c.failLocked(fmt.Errorf("failed to load audiobook %s: %w", audiobookID, err))
	}
	if book == nil {
		return c.failLocked(fmt.Errorf("audiobook %s: %w", audiobookID, errdefs.ErrNotFound))
	}

	chapters, err := c.store.GetChaptersByAudiobook(audiobookID)
	if err != nil {
		return c.failLocked(fmt.Errorf("failed to load chapters of %s: %w", audiobookID, err))
	}
	models.SortChaptersByIndex(chapters)

	index := -1
	for i, ch := range chapters {
		if ch.ID == chapterID {
			index = i
			break
		}
	}
	if index == -1 {
		return c.failLocked(fmt.Errorf("chapter %s: %w", chapterID, errdefs.ErrNotFound))
	}

	c.book = book
	c.playlist = chapters
	return c.loadLocked(index)
}

// loadLocked resolves the chapter at index to a locator and starts playing.
// Callers hold the mutex and have set book/playlist.
func (c *Controller) loadLocked(index int) error {
	c.releaseLocked()
	c.setStateLocked(StateLoading)

	chapter := c.playlist[index]
	locator, err := c.blobs.GetAsURL(chapter.ID)
	if err != nil {
		return c.failLocked(fmt.Errorf("failed to resolve audio for %s: %w", chapter.ID, err))
	}

	c.locator = locator
	c.index = index
	c.position = 0
	c.lastErr = ""
	c.setStateLocked(StatePlaying)
	return nil
}

// TogglePause flips playing <-> paused. No storage access happens here.
func (c *Controller) TogglePause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		c.setStateLocked(StatePaused)
		return nil
	case StatePaused:
		c.setStateLocked(StatePlaying)
		return nil
	default:
		return ErrNoActivePlayback
	}
}

// Seek moves the playback position within the current chapter.
func (c *Controller) Seek(seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying && c.state != StatePaused {
		return ErrNoActivePlayback
	}
	if seconds < 0 {
		seconds = 0
	}
	if d := c.playlist[c.index].DurationSeconds; d > 0 && seconds > d {
		seconds = d
	}
	c.position = seconds
	c.emitLocked()
	return nil
}

// SetSpeed sets the playback rate; only the known rates are accepted.
func (c *Controller) SetSpeed(speed float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range Speeds {
		if s == speed {
			c.speed = speed
			c.emitLocked()
			return nil
		}
	}
	return fmt.Errorf("unsupported playback speed %v", speed)
}

// Next advances to the next chapter in the playlist.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.playlist) == 0 {
		return ErrNoActivePlayback
	}
	if c.index >= len(c.playlist)-1 {
		return ErrPlaylistEdge
	}
	return c.loadLocked(c.index + 1)
}

// Prev goes back to the previous chapter in the playlist.
func (c *Controller) Prev() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.playlist) == 0 {
		return ErrNoActivePlayback
	}
	if c.index <= 0 {
		return ErrPlaylistEdge
	}
	return c.loadLocked(c.index - 1)
}

// ChapterEnded handles natural completion of the current chapter: advance to
// the next chapter if one exists, otherwise release everything and return to
// idle with the controls disabled.
func (c *Controller) ChapterEnded() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying {
		return ErrNoActivePlayback
	}
	c.setStateLocked(StateEnded)

	if c.index < len(c.playlist)-1 {
		return c.loadLocked(c.index + 1)
	}
	c.resetLocked()
	return nil
}

// Close stops playback from any state, releasing the held locator exactly
// once before clearing the player fields.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Status returns a snapshot of the player.
func (c *Controller) Status() Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eventLocked()
}

func (c *Controller) resetLocked() {
	c.releaseLocked()
	c.book = nil
	c.playlist = nil
	c.index = 0
	c.position = 0
	c.setStateLocked(StateIdle)
}

func (c *Controller) releaseLocked() {
	if c.locator == nil {
		return
	}
	if err := c.locator.Release(); err != nil {
		log.Printf("Could not release audio locator %s: %v", c.locator.Key(), err)
	}
	c.locator = nil
}

func (c *Controller) failLocked(err error) error {
	c.releaseLocked()
	c.lastErr = err.Error()
	c.setStateLocked(StateError)
	return err
}

func (c *Controller) setStateLocked(s State) {
	c.state = s
	c.emitLocked()
}

func (c *Controller) emitLocked() {
	ev := c.eventLocked()
	for _, fn := range c.subs {
		fn(ev)
	}
}

func (c *Controller) eventLocked() Event {
	ev := Event{
		State: c.state,
		Speed: c.speed,
		Error: c.lastErr,
	}
	if c.book != nil {
		ev.AudiobookID = c.book.ID
		ev.AudiobookTitle = c.book.Title
	}
	if len(c.playlist) > 0 && c.index < len(c.playlist) {
		ch := c.playlist[c.index]
		ev.ChapterID = ch.ID
		ev.ChapterTitle = ch.Title
		ev.ChapterIndex = ch.Index
		ev.Duration = ch.DurationSeconds
		ev.Position = c.position
		ev.CanNext = c.index < len(c.playlist)-1
		ev.CanPrev = c.index > 0
	}
	if c.locator != nil {
		ev.AudioURL = c.locator.URL()
	}
	return ev
}

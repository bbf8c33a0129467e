// Package search implements the debounced search-and-pagination controller
// behind the search overlay: query text, result set, paging cursor, loading
// flags and content-type selection.
package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/handsomefox/cinemax/internal/logger"
)

type ContentType string

const (
	TypeMovie ContentType = "movie"
	TypeShow  ContentType = "show"
)

const (
	defaultDebounce = 300 * time.Millisecond

	// Queries shorter than this never issue a request.
	minQueryLen = 2

	// LoadMore fires once the scroll position gets this close to the end.
	scrollThreshold = 200
)

// Item is one normalized search result. Image URLs are fully resolved; an
// item with no poster carries the placeholder.
type Item struct {
	ID          int64
	Title       string
	PosterURL   string
	BackdropURL string
	Rating      float64
	Year        int // 0 when the release date is unknown
	Genres      []string
}

type ResultPage struct {
	Items      []Item
	TotalPages int
}

// Backend performs one page fetch for a query/type pair.
type Backend interface {
	Search(ctx context.Context, query string, contentType ContentType, page int) (ResultPage, error)
}

// State is a point-in-time copy of the controller for rendering and tests.
type State struct {
	Query        string
	ContentType  ContentType
	Items        []Item
	Page         int
	TotalPages   int
	HasMore      bool
	LoadingFirst bool
	LoadingMore  bool
}

type Controller struct {
	backend  Backend
	debounce time.Duration
	onChange func()
	onSelect func(id int64)

	mu    sync.Mutex
	timer *time.Timer

	query       string
	contentType ContentType
	items       []Item
	page        int
	totalPages  int
	hasMore     bool

	loadingFirst bool
	loadingMore  bool

	// epoch increments whenever the live query/type/paging state changes;
	// a response merges only if the epoch it captured is still current.
	epoch uint64

	// firstEpoch/moreEpoch record which fetch set the corresponding loading
	// flag, so a dropped stale response only cleans up after itself and
	// never clears a flag a newer fetch owns.
	firstEpoch uint64
	moreEpoch  uint64
}

type Option func(*Controller)

// WithDebounce overrides the quiet interval; tests shorten it.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithOnChange registers a hook invoked after every state change, e.g. a UI
// re-render trigger.
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithOnSelect registers the navigation hook SelectItem reports the chosen
// id through.
func WithOnSelect(fn func(id int64)) Option {
	return func(c *Controller) { c.onSelect = fn }
}

func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:     backend,
		debounce:    defaultDebounce,
		contentType: TypeMovie,
		page:        1,
		hasMore:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]Item, len(c.items))
	copy(items, c.items)
	return State{
		Query:        c.query,
		ContentType:  c.contentType,
		Items:        items,
		Page:         c.page,
		TotalPages:   c.totalPages,
		HasMore:      c.hasMore,
		LoadingFirst: c.loadingFirst,
		LoadingMore:  c.loadingMore,
	}
}

// SetQuery updates the query immediately and schedules a debounced
// first-page search. A pending debounce from a prior keystroke is cancelled
// and replaced. Below the minimum length the result set is cleared at once
// and nothing is issued.
func (c *Controller) SetQuery(text string) {
	c.mu.Lock()
	c.query = text
	c.stopTimerLocked()

	if utf8.RuneCountInString(text) < minQueryLen {
		c.clearResultsLocked()
		c.mu.Unlock()
		c.notify()
		return
	}

	c.timer = time.AfterFunc(c.debounce, c.debounceFired)
	c.mu.Unlock()
	c.notify()
}

// debounceFired issues the first-page search for whatever the query and
// content type are at fire time.
func (c *Controller) debounceFired() {
	c.mu.Lock()
	if utf8.RuneCountInString(c.query) < minQueryLen {
		c.mu.Unlock()
		return
	}
	c.startSearchLocked(c.query, c.contentType, 1, false)
	c.mu.Unlock()
	c.notify()
}

// SetContentType invalidates the current result set and pagination cursor
// unconditionally. It does not fetch; the next query change does that under
// the new type.
func (c *Controller) SetContentType(ct ContentType) {
	if ct != TypeMovie && ct != TypeShow {
		return
	}
	c.mu.Lock()
	c.contentType = ct
	c.clearResultsLocked()
	c.mu.Unlock()
	c.notify()
}

// LoadMore is a no-op while any load is in flight or when there is nothing
// left; otherwise it fetches the next page and appends.
func (c *Controller) LoadMore() {
	c.mu.Lock()
	if c.loadingMore || c.loadingFirst || !c.hasMore {
		c.mu.Unlock()
		return
	}
	if utf8.RuneCountInString(c.query) < minQueryLen {
		c.mu.Unlock()
		return
	}
	c.page++
	c.startSearchLocked(c.query, c.contentType, c.page, true)
	c.mu.Unlock()
	c.notify()
}

// OnScroll reports the viewport bottom edge and the full content extent;
// once the remaining distance falls below the threshold it loads the next
// page, giving infinite scroll without an explicit control.
func (c *Controller) OnScroll(position, contentEnd float64) {
	if contentEnd-position < scrollThreshold {
		c.LoadMore()
	}
}

// SelectItem reports the chosen id for navigation and resets the overlay
// state.
func (c *Controller) SelectItem(id int64) {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	if c.onSelect != nil {
		c.onSelect(id)
	}
	c.notify()
}

// Close resets the overlay state without selecting.
func (c *Controller) Close() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) startSearchLocked(query string, ct ContentType, page int, appendResults bool) {
	c.epoch++
	if appendResults {
		c.loadingMore = true
		c.moreEpoch = c.epoch
	} else {
		c.loadingFirst = true
		c.firstEpoch = c.epoch
	}
	go c.runSearch(query, ct, page, appendResults, c.epoch)
}

// runSearch performs the fetch and merges the page if, and only if, the
// state it captured is still the live state. There is no cancellation of
// the network call itself; superseded responses are simply dropped.
func (c *Controller) runSearch(query string, ct ContentType, page int, appendResults bool, epoch uint64) {
	pageData, err := c.backend.Search(context.Background(), query, ct, page)

	c.mu.Lock()
	stale := epoch != c.epoch || query != c.query || ct != c.contentType
	if stale {
		// Drop the response, but release whatever this fetch still holds:
		// the loading flag it set (unless a newer fetch of the same kind
		// re-set it) and a page increment nothing else has overwritten.
		changed := false
		if appendResults && c.moreEpoch == epoch && c.loadingMore {
			c.loadingMore = false
			if c.page == page {
				c.page--
			}
			changed = true
		}
		if !appendResults && c.firstEpoch == epoch && c.loadingFirst {
			c.loadingFirst = false
			changed = true
		}
		c.mu.Unlock()
		if changed {
			c.notify()
		}
		return
	}

	if err != nil {
		if appendResults {
			c.loadingMore = false
			c.page-- // the increment never landed
		} else {
			c.loadingFirst = false
		}
		c.mu.Unlock()
		slog.Warn("search failed",
			slog.String("query", query),
			slog.String("contentType", string(ct)),
			slog.Int("page", page),
			logger.Error(err),
		)
		c.notify()
		return
	}

	if appendResults {
		c.items = append(c.items, pageData.Items...)
		c.loadingMore = false
	} else {
		c.items = pageData.Items
		c.loadingFirst = false
	}
	c.page = page
	c.totalPages = pageData.TotalPages
	c.hasMore = page < pageData.TotalPages
	c.mu.Unlock()
	c.notify()
}

// clearResultsLocked resets the result set and paging cursor and invalidates
// anything in flight.
func (c *Controller) clearResultsLocked() {
	c.items = nil
	c.page = 1
	c.totalPages = 0
	c.hasMore = true
	c.loadingFirst = false
	c.loadingMore = false
	c.epoch++
}

func (c *Controller) resetLocked() {
	c.stopTimerLocked()
	c.query = ""
	c.clearResultsLocked()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

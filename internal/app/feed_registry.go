package app

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"healthhub/internal/paging"
)

type FeedSettings struct {
	DefaultPageSize int
	MaxPageSize     int
	ScrollThreshold int
}

// FeedQuery is one list request from a view. Mode append continues with the
// next page; anything else fetches the requested page as a fresh list.
type FeedQuery struct {
	Page    int
	Size    int
	Mode    paging.Mode
	Filters paging.Filters
}

type feedKey struct {
	userID uint
	name   string
}

type feedEntry[T any] struct {
	acc      *paging.Accumulator[T]
	lastUsed time.Time
}

// FeedRegistry keeps one accumulator per user and feed name.
type FeedRegistry[T any] struct {
	settings FeedSettings
	alerts   *Alerts
	now      func() time.Time

	mu    sync.Mutex
	feeds map[feedKey]*feedEntry[T]
}

func NewFeedRegistry[T any](settings FeedSettings, alerts *Alerts) *FeedRegistry[T] {
	if settings.DefaultPageSize <= 0 {
		settings.DefaultPageSize = 10
	}
	if settings.MaxPageSize < settings.DefaultPageSize {
		settings.MaxPageSize = settings.DefaultPageSize
	}
	if settings.ScrollThreshold <= 0 {
		settings.ScrollThreshold = paging.DefaultScrollThreshold
	}
	return &FeedRegistry[T]{
		settings: settings,
		alerts:   alerts,
		now:      time.Now,
		feeds:    make(map[feedKey]*feedEntry[T]),
	}
}

// Feed returns the accumulator for (userID, name), creating it with fetch on
// first use. Fetch errors are raised as notifications for the user.
func (r *FeedRegistry[T]) Feed(userID uint, name string, fetch paging.Fetcher[T]) *paging.Accumulator[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := feedKey{userID: userID, name: name}
	if entry, ok := r.feeds[key]; ok {
		entry.lastUsed = r.now()
		return entry.acc
	}
	acc := paging.New(fetch, paging.Options{
		PageSize:        r.settings.DefaultPageSize,
		ScrollThreshold: r.settings.ScrollThreshold,
		OnError: func(err error) {
			r.alerts.Raise(context.Background(), userID, err)
		},
	})
	r.feeds[key] = &feedEntry[T]{acc: acc, lastUsed: r.now()}
	return acc
}

func (r *FeedRegistry[T]) Lookup(userID uint, name string) (*paging.Accumulator[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.feeds[feedKey{userID: userID, name: name}]
	if !ok {
		return nil, false
	}
	entry.lastUsed = r.now()
	return entry.acc, true
}

// Each visits the user's feeds whose name starts with prefix.
func (r *FeedRegistry[T]) Each(userID uint, prefix string, fn func(*paging.Accumulator[T])) {
	r.mu.Lock()
	var matched []*paging.Accumulator[T]
	for key, entry := range r.feeds {
		if key.userID == userID && strings.HasPrefix(key.name, prefix) {
			matched = append(matched, entry.acc)
		}
	}
	r.mu.Unlock()
	for _, acc := range matched {
		fn(acc)
	}
}

// Apply runs q against acc and returns the resulting state. A query whose
// filters or page size differ from the feed's current ones starts over at
// page 1 whatever page it asks for.
func (r *FeedRegistry[T]) Apply(ctx context.Context, acc *paging.Accumulator[T], q FeedQuery) (paging.State[T], error) {
	var err error
	if q.Mode == paging.ModeAppend {
		_, err = acc.LoadMore(ctx)
	} else {
		err = acc.Query(ctx, q.Filters, max(q.Page, 1), r.clampSize(q.Size))
	}
	return acc.State(), err
}

// EvictIdle drops feeds last used before cutoff. Feeds with a fetch in
// flight are kept.
func (r *FeedRegistry[T]) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for key, entry := range r.feeds {
		if entry.lastUsed.Before(cutoff) && !entry.acc.InFlight() {
			delete(r.feeds, key)
			evicted++
		}
	}
	return evicted
}

func (r *FeedRegistry[T]) clampSize(size int) int {
	if size <= 0 {
		return r.settings.DefaultPageSize
	}
	return min(size, r.settings.MaxPageSize)
}

func feedName(kind string, id int) string {
	return kind + ":" + strconv.Itoa(id)
}

// Package paging accumulates bounded pages from a paged remote list into one
// growing client-side list.
package paging

import (
	"context"
	"errors"
	"maps"
	"sync"
)

type Mode string

const (
	ModeReplace Mode = "replace"
	ModeAppend  Mode = "append"
)

// DefaultScrollThreshold is the remaining scroll distance, in pixels, below
// which a scroll continuation starts.
const DefaultScrollThreshold = 120

var ErrInFlight = errors.New("a fetch is already in flight")

// Filters are compared by value; a nil map equals an empty one.
type Filters map[string]string

func (f Filters) Equal(other Filters) bool {
	return maps.Equal(f, other)
}

func (f Filters) clone() Filters {
	out := make(Filters, len(f))
	maps.Copy(out, f)
	return out
}

type Request struct {
	Filters    Filters
	PageNumber int
	PageSize   int
}

type Page[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"page_number"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

type Fetcher[T any] func(ctx context.Context, req Request) (Page[T], error)

type State[T any] struct {
	Items      []T     `json:"items"`
	PageNumber int     `json:"page_number"`
	PageSize   int     `json:"page_size"`
	TotalCount int     `json:"total_count"`
	TotalPages int     `json:"total_pages"`
	Filters    Filters `json:"filters"`
	Loading    bool    `json:"is_loading"`
	HasMore    bool    `json:"has_more"`
	Error      string  `json:"error,omitempty"`
}

type Options struct {
	PageSize        int
	ScrollThreshold int
	// OnError receives every failed fetch.
	OnError func(error)
}

type Accumulator[T any] struct {
	mu        sync.Mutex
	fetch     Fetcher[T]
	threshold int
	onError   func(error)

	filters    Filters
	items      []T
	pageNumber int
	pageSize   int
	totalCount int
	totalPages int
	loaded     bool
	lastErr    error

	inFlight   int
	generation uint64
}

func New[T any](fetch Fetcher[T], opts Options) *Accumulator[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.ScrollThreshold <= 0 {
		opts.ScrollThreshold = DefaultScrollThreshold
	}
	return &Accumulator[T]{
		fetch:      fetch,
		threshold:  opts.ScrollThreshold,
		onError:    opts.OnError,
		filters:    Filters{},
		items:      []T{},
		pageNumber: 1,
		pageSize:   opts.PageSize,
		totalPages: 1,
	}
}

// Fetch requests one page and merges it. Replace installs the page as the
// whole list; append concatenates it. A failed replace empties the list and a
// failed append keeps what was accumulated. Pagination metadata keeps its last
// values on failure.
func (a *Accumulator[T]) Fetch(ctx context.Context, filters Filters, pageNumber, pageSize int, mode Mode) error {
	a.mu.Lock()
	return a.fetchLocked(ctx, filters, pageNumber, pageSize, mode)
}

// fetchLocked is entered with a.mu held and returns with it released.
func (a *Accumulator[T]) fetchLocked(ctx context.Context, filters Filters, pageNumber, pageSize int, mode Mode) error {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize <= 0 {
		pageSize = a.pageSize
	}
	if mode == ModeReplace {
		// Results of fetches started before a replace are stale.
		a.generation++
	}
	gen := a.generation
	req := Request{Filters: filters.clone(), PageNumber: pageNumber, PageSize: pageSize}
	a.inFlight++
	a.mu.Unlock()

	page, err := a.fetch(ctx, req)

	a.mu.Lock()
	a.inFlight--
	if gen != a.generation {
		a.mu.Unlock()
		return nil
	}
	a.filters = req.Filters
	a.pageSize = pageSize
	if err != nil {
		if mode == ModeReplace {
			a.items = []T{}
		}
		a.lastErr = err
		onError := a.onError
		a.mu.Unlock()
		if onError != nil {
			onError(err)
		}
		return err
	}

	page = Normalize(page, req)
	if mode == ModeAppend {
		a.items = append(a.items, page.Items...)
	} else {
		a.items = append([]T{}, page.Items...)
	}
	a.pageNumber = page.PageNumber
	a.totalCount = page.TotalCount
	a.totalPages = page.TotalPages
	a.loaded = true
	a.lastErr = nil
	a.mu.Unlock()
	return nil
}

// Ensure performs the initial fetch once.
func (a *Accumulator[T]) Ensure(ctx context.Context) error {
	a.mu.Lock()
	if a.loaded {
		a.mu.Unlock()
		return nil
	}
	return a.fetchLocked(ctx, a.filters, 1, a.pageSize, ModeReplace)
}

// Query fetches pageNumber as a fresh list. When filters or pageSize differ
// from the current ones the list restarts at page 1 instead.
func (a *Accumulator[T]) Query(ctx context.Context, filters Filters, pageNumber, pageSize int) error {
	a.mu.Lock()
	if pageSize <= 0 {
		pageSize = a.pageSize
	}
	if !a.filters.Equal(filters) || a.pageSize != pageSize {
		pageNumber = 1
	}
	return a.fetchLocked(ctx, filters, pageNumber, pageSize, ModeReplace)
}

// SetFilters re-fetches from page 1 when filters differ from the current ones.
func (a *Accumulator[T]) SetFilters(ctx context.Context, filters Filters) error {
	a.mu.Lock()
	if a.loaded && a.filters.Equal(filters) {
		a.mu.Unlock()
		return nil
	}
	return a.fetchLocked(ctx, filters, 1, a.pageSize, ModeReplace)
}

// SetPageSize re-fetches from page 1 when pageSize differs from the current one.
func (a *Accumulator[T]) SetPageSize(ctx context.Context, pageSize int) error {
	a.mu.Lock()
	if a.loaded && a.pageSize == pageSize {
		a.mu.Unlock()
		return nil
	}
	return a.fetchLocked(ctx, a.filters, 1, pageSize, ModeReplace)
}

// LoadMore appends the next page. It reports false without fetching when a
// fetch is in flight or the last page is already loaded.
func (a *Accumulator[T]) LoadMore(ctx context.Context) (bool, error) {
	a.mu.Lock()
	if a.inFlight > 0 || a.pageNumber >= a.totalPages {
		a.mu.Unlock()
		return false, nil
	}
	return true, a.fetchLocked(ctx, a.filters, a.pageNumber+1, a.pageSize, ModeAppend)
}

// OnScroll continues loading when the remaining scroll distance drops below
// the threshold.
func (a *Accumulator[T]) OnScroll(ctx context.Context, distancePx int) (bool, error) {
	if distancePx >= a.threshold {
		return false, nil
	}
	return a.LoadMore(ctx)
}

func (a *Accumulator[T]) InFlight() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight > 0
}

// Append adds a locally created item at the tail without a fetch.
func (a *Accumulator[T]) Append(item T) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, item)
	a.totalCount++
}

// RemoveFunc drops every item matched by fn and reports how many went.
func (a *Accumulator[T]) RemoveFunc(fn func(T) bool) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.items[:0]
	removed := 0
	for _, item := range a.items {
		if fn(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	clear(a.items[len(kept):])
	a.items = kept
	a.totalCount = max(a.totalCount-removed, 0)
	return removed
}

// UpdateFunc rewrites items in place.
func (a *Accumulator[T]) UpdateFunc(fn func(T) (T, bool)) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	changed := 0
	for i, item := range a.items {
		if next, ok := fn(item); ok {
			a.items[i] = next
			changed++
		}
	}
	return changed
}

func (a *Accumulator[T]) State() State[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := State[T]{
		Items:      append([]T{}, a.items...),
		PageNumber: a.pageNumber,
		PageSize:   a.pageSize,
		TotalCount: a.totalCount,
		TotalPages: a.totalPages,
		Filters:    a.filters.clone(),
		Loading:    a.inFlight > 0,
		HasMore:    a.pageNumber < a.totalPages,
	}
	if a.lastErr != nil {
		st.Error = a.lastErr.Error()
	}
	return st
}

// Normalize clamps a fetched page so that the page size is positive, the item
// count fits the page and the page number stays within total pages.
func Normalize[T any](page Page[T], req Request) Page[T] {
	if page.PageSize <= 0 {
		page.PageSize = req.PageSize
	}
	if page.PageSize <= 0 {
		page.PageSize = max(len(page.Items), 1)
	}
	if page.PageNumber < 1 {
		page.PageNumber = max(req.PageNumber, 1)
	}
	if len(page.Items) > page.PageSize {
		page.Items = page.Items[:page.PageSize]
	}
	if page.TotalCount < 0 {
		page.TotalCount = 0
	}
	if page.TotalPages < 1 && page.TotalCount > 0 {
		page.TotalPages = (page.TotalCount + page.PageSize - 1) / page.PageSize
	}
	page.TotalPages = max(page.TotalPages, 1, page.PageNumber)
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

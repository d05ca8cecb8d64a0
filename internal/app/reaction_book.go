package app

import (
	"sync"
	"time"
)

// ReactionBook remembers the current user's reaction per post, so a repeated
// reaction can be toggled off and a different one replaces it.
type ReactionBook struct {
	mu     sync.Mutex
	byPost map[int]string
}

func NewReactionBook() *ReactionBook {
	return &ReactionBook{byPost: make(map[int]string)}
}

func (b *ReactionBook) Get(postID int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.byPost[postID]
}

func (b *ReactionBook) Set(postID int, reactionType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if reactionType == "" {
		delete(b.byPost, postID)
		return
	}
	b.byPost[postID] = reactionType
}

type reactionBooks struct {
	mu       sync.Mutex
	byUser   map[uint]*ReactionBook
	lastUsed map[uint]time.Time
}

func (r *reactionBooks) For(userID uint) *ReactionBook {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byUser == nil {
		r.byUser = make(map[uint]*ReactionBook)
		r.lastUsed = make(map[uint]time.Time)
	}
	book, ok := r.byUser[userID]
	if !ok {
		book = NewReactionBook()
		r.byUser[userID] = book
	}
	r.lastUsed[userID] = time.Now()
	return book
}

// evictIdle drops books last used before cutoff. Post fetches seed them again.
func (r *reactionBooks) evictIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for userID, used := range r.lastUsed {
		if used.Before(cutoff) {
			delete(r.byUser, userID)
			delete(r.lastUsed, userID)
			evicted++
		}
	}
	return evicted
}

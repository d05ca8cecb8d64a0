package app

import (
	"sync"
	"time"

	"healthhub/internal/model"
)

// Conversation is the append-only message list of one user's chat. Records
// are never reordered; only delivery status changes in place.
type Conversation struct {
	mu        sync.Mutex
	sessionID string
	messages  []model.Message
	loading   int
}

func (c *Conversation) Reset(sessionID string, messages []model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.messages = append([]model.Message{}, messages...)
}

func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Append adds msg at the tail unless the conversation moved on to another
// session meanwhile.
func (c *Conversation) Append(msg model.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.SessionID != c.sessionID {
		return false
	}
	c.messages = append(c.messages, msg)
	return true
}

func (c *Conversation) SetStatus(messageID, status string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].MessageID == messageID {
			c.messages[i].DeliveryStatus = status
			return true
		}
	}
	return false
}

func (c *Conversation) Find(messageID string) (model.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.messages {
		if m.MessageID == messageID {
			return m, true
		}
	}
	return model.Message{}, false
}

func (c *Conversation) Remove(messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.messages {
		if m.MessageID == messageID {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Conversation) begin() {
	c.mu.Lock()
	c.loading++
	c.mu.Unlock()
}

func (c *Conversation) end() {
	c.mu.Lock()
	c.loading--
	c.mu.Unlock()
}

// Snapshot copies the records and reports whether a send is in flight.
func (c *Conversation) Snapshot() (string, []model.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, append([]model.Message{}, c.messages...), c.loading > 0
}

// Conversations holds one conversation per user, shared by every chat view.
type Conversations struct {
	mu       sync.Mutex
	now      func() time.Time
	byUID    map[uint]*Conversation
	lastUsed map[uint]time.Time
}

func NewConversations() *Conversations {
	return &Conversations{
		now:      time.Now,
		byUID:    make(map[uint]*Conversation),
		lastUsed: make(map[uint]time.Time),
	}
}

func (c *Conversations) For(userID uint) *Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv, ok := c.byUID[userID]
	if !ok {
		conv = &Conversation{messages: []model.Message{}}
		c.byUID[userID] = conv
	}
	c.lastUsed[userID] = c.now()
	return conv
}

// EvictIdle drops conversations last used before cutoff unless a send is in
// flight. The next view reloads them from the remote history.
func (c *Conversations) EvictIdle(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for userID, conv := range c.byUID {
		if !c.lastUsed[userID].Before(cutoff) {
			continue
		}
		if _, _, loading := conv.Snapshot(); loading {
			continue
		}
		delete(c.byUID, userID)
		delete(c.lastUsed, userID)
		evicted++
	}
	return evicted
}

package memory

import (
	"time"

	"ai-chatbot-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// DemoSession is the transcript of one sandbox conversation. It is never
// written to the database.
type DemoSession struct {
	ID        string
	UserID    string
	Messages  []entity.ChatMessage
	UpdatedAt time.Time
}

type SessionRepository struct {
	cache       *cache.Cache
	maxMessages int
}

// NewSessionRepository keeps sessions for ttl after their last write and
// trims each transcript to its newest maxMessages entries.
func NewSessionRepository(ttl time.Duration, maxMessages int) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache:       cache.New(ttl, 10*time.Minute),
		maxMessages: maxMessages,
	}
}

// Save stores a copy of session. Later changes to the caller's value are not
// visible to other readers.
func (r *SessionRepository) Save(session *DemoSession) {
	stored := *session
	messages := session.Messages
	if r.maxMessages > 0 && len(messages) > r.maxMessages {
		messages = messages[len(messages)-r.maxMessages:]
	}
	stored.Messages = append([]entity.ChatMessage(nil), messages...)
	stored.UpdatedAt = time.Now()
	r.cache.Set(stored.ID, &stored, cache.DefaultExpiration)
}

// Get returns a copy the caller may modify freely.
func (r *SessionRepository) Get(sessionID string) (*DemoSession, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	session := *x.(*DemoSession)
	session.Messages = append([]entity.ChatMessage(nil), session.Messages...)
	return &session, true
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

package realtime

import (
	"sync"
	"time"
)

type typingMark struct {
	userName   string
	generation uint64
}

// TypingRegistry tracks who is typing in which thread. Every mark carries
// an auto-expiry timer; a fresh StartTyping reschedules it. When a mark
// expires on its own the onExpire callback fires with the updated count so
// the caller can broadcast the decrement.
type TypingRegistry struct {
	mu     sync.Mutex
	typers map[string]map[string]*typingMark // threadID -> userID -> mark
	gen    uint64

	ttl      time.Duration
	onExpire func(threadID string, typingCount int)
}

// NewTypingRegistry creates a registry with the given expiry window.
// onExpire may be nil.
func NewTypingRegistry(ttl time.Duration, onExpire func(threadID string, typingCount int)) *TypingRegistry {
	return &TypingRegistry{
		typers:   make(map[string]map[string]*typingMark),
		ttl:      ttl,
		onExpire: onExpire,
	}
}

// StartTyping inserts or refreshes a typing mark and returns the live
// count of typers for the thread.
func (t *TypingRegistry) StartTyping(threadID, userID, userName string) int {
	t.mu.Lock()

	if t.typers[threadID] == nil {
		t.typers[threadID] = make(map[string]*typingMark)
	}
	t.gen++
	gen := t.gen
	t.typers[threadID][userID] = &typingMark{userName: userName, generation: gen}
	count := len(t.typers[threadID])
	t.mu.Unlock()

	// The generation check makes a stale timer a no-op after a refresh.
	time.AfterFunc(t.ttl, func() {
		t.expire(threadID, userID, gen)
	})

	return count
}

// StopTyping removes a typing mark and returns the remaining count.
// Stopping twice is safe.
func (t *TypingRegistry) StopTyping(threadID, userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeLocked(threadID, userID)
}

func (t *TypingRegistry) removeLocked(threadID, userID string) int {
	set, ok := t.typers[threadID]
	if !ok {
		return 0
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(t.typers, threadID)
		return 0
	}
	return len(set)
}

// expire removes a mark only if it still belongs to the timer's generation.
func (t *TypingRegistry) expire(threadID, userID string, gen uint64) {
	t.mu.Lock()
	set, ok := t.typers[threadID]
	if !ok {
		t.mu.Unlock()
		return
	}
	mark, ok := set[userID]
	if !ok || mark.generation != gen {
		t.mu.Unlock()
		return
	}
	count := t.removeLocked(threadID, userID)
	onExpire := t.onExpire
	t.mu.Unlock()

	if onExpire != nil {
		onExpire(threadID, count)
	}
}

// TypingCount returns the number of users typing in a thread.
func (t *TypingRegistry) TypingCount(threadID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.typers[threadID])
}

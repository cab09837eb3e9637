package realtime

import (
	"sort"
	"sync"
)

// PresenceRegistry tracks which users are currently viewing which threads.
// Counts are per-user: a user viewing the same thread from two tabs still
// counts once.
type PresenceRegistry struct {
	mu      sync.RWMutex
	viewers map[string]map[string]string // threadID -> userID -> userName
}

// NewPresenceRegistry creates an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		viewers: make(map[string]map[string]string),
	}
}

// JoinView adds a user to a thread's viewer set and returns the new count.
// Re-joining is idempotent.
func (p *PresenceRegistry) JoinView(threadID, userID, userName string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.viewers[threadID] == nil {
		p.viewers[threadID] = make(map[string]string)
	}
	p.viewers[threadID][userID] = userName
	return len(p.viewers[threadID])
}

// LeaveView removes a user from a thread's viewer set and returns the new
// count. Leaving a thread the user never joined is a no-op. Empty viewer
// sets are pruned so the registry does not grow unboundedly.
func (p *PresenceRegistry) LeaveView(threadID, userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.viewers[threadID]
	if !ok {
		return 0
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(p.viewers, threadID)
		return 0
	}
	return len(set)
}

// ViewerCount returns the number of users viewing a thread.
func (p *PresenceRegistry) ViewerCount(threadID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.viewers[threadID])
}

// Viewers returns the sorted user IDs viewing a thread.
func (p *PresenceRegistry) Viewers(threadID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	set := p.viewers[threadID]
	out := make([]string, 0, len(set))
	for userID := range set {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

// ActiveThreads returns viewer counts for every thread with at least one
// viewer, for the ops activity endpoint.
func (p *PresenceRegistry) ActiveThreads() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]int, len(p.viewers))
	for threadID, set := range p.viewers {
		out[threadID] = len(set)
	}
	return out
}

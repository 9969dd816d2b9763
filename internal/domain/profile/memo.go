package profile

import (
	"sort"
	"sync"
	"time"
)

type memoKey struct {
	namespace string
	name      string
	teamID    string
}

type memoEntry struct {
	id   string
	date time.Time
}

// RunMemo remembers names resolved earlier in the same ingestion run, keyed by
// the team they appeared for. It is discarded when the run ends.
type RunMemo struct {
	mu      sync.RWMutex
	window  time.Duration
	entries map[memoKey][]memoEntry
}

func NewRunMemo(window time.Duration) *RunMemo {
	return &RunMemo{window: window, entries: make(map[memoKey][]memoEntry)}
}

func (m *RunMemo) Remember(kind Kind, rawName, teamID string, date time.Time, id string) {
	if m == nil || teamID == "" || id == "" {
		return
	}
	key := memoKey{namespace: kind.Namespace(), name: NormalizeName(rawName), teamID: teamID}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries[key] {
		if e.id == id && e.date.Equal(date) {
			return
		}
	}
	m.entries[key] = append(m.entries[key], memoEntry{id: id, date: date})
}

// Lookup returns the id remembered nearest to date within the window. Equal
// distances resolve to the lowest id. When allowed is non-empty only those ids
// are eligible.
func (m *RunMemo) Lookup(kind Kind, name, teamID string, date time.Time, allowed []string) (string, bool) {
	if m == nil || teamID == "" {
		return "", false
	}
	key := memoKey{namespace: kind.Namespace(), name: name, teamID: teamID}

	m.mu.RLock()
	entries := append([]memoEntry(nil), m.entries[key]...)
	m.mu.RUnlock()

	var eligible map[string]struct{}
	if len(allowed) > 0 {
		eligible = make(map[string]struct{}, len(allowed))
		for _, id := range allowed {
			eligible[id] = struct{}{}
		}
	}

	type scored struct {
		id   string
		dist time.Duration
	}
	matches := make([]scored, 0, len(entries))
	for _, e := range entries {
		if eligible != nil {
			if _, ok := eligible[e.id]; !ok {
				continue
			}
		}
		dist := e.date.Sub(date)
		if dist < 0 {
			dist = -dist
		}
		if m.window > 0 && dist > m.window {
			continue
		}
		matches = append(matches, scored{id: e.id, dist: dist})
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].id < matches[j].id
	})
	return matches[0].id, true
}

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/forgecraft/sah/internal/errs"
)

// Manager coordinates concurrent access to sessions, pairing an in-memory
// cache with atomic filesystem persistence under storageRoot
// ({storageRoot}/{id}.json). Each session gets its own mutex so that
// updates to session A never block reads or writes to session B; a
// coarser map-level RWMutex only ever guards the maps themselves, never
// the body of an update.
type Manager struct {
	storageRoot string

	mapMu    sync.RWMutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex

	ids *idGenerator
}

// NewManager creates a Manager persisting sessions under storageRoot.
func NewManager(storageRoot string) *Manager {
	return &Manager{
		storageRoot: storageRoot,
		sessions:    make(map[string]*Session),
		locks:       make(map[string]*sync.Mutex),
		ids:         newIDGenerator(),
	}
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.storageRoot, id+".json")
}

// CreateSession mints a new ULID-keyed session rooted at workingDir and
// persists it immediately.
func (m *Manager) CreateSession(workingDir string) (*Session, error) {
	return m.createSession(workingDir, "")
}

// CreateChildSession mints a session recording parentID as its origin.
// The parent is not consulted or modified; the link is metadata only.
func (m *Manager) CreateChildSession(workingDir, parentID string) (*Session, error) {
	return m.createSession(workingDir, parentID)
}

func (m *Manager) createSession(workingDir, parentID string) (*Session, error) {
	id := m.ids.next()
	s := &Session{
		ID:         id,
		WorkingDir: workingDir,
		ParentID:   parentID,
		CreatedAt:  nowFunc(),
		UpdatedAt:  nowFunc(),
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := m.persist(s); err != nil {
		return nil, err
	}

	m.mapMu.Lock()
	m.sessions[id] = s
	m.mapMu.Unlock()

	return s, nil
}

// GetSession returns the session for id, loading it from disk on first
// access if it isn't already cached in memory.
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mapMu.RLock()
	s, ok := m.sessions[id]
	m.mapMu.RUnlock()
	if ok {
		return s, nil
	}

	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	// Re-check after acquiring the lock: another goroutine may have loaded
	// it while we were waiting.
	m.mapMu.RLock()
	s, ok = m.sessions[id]
	m.mapMu.RUnlock()
	if ok {
		return s, nil
	}

	loaded, err := m.load(id)
	if err != nil {
		return nil, err
	}

	m.mapMu.Lock()
	m.sessions[id] = loaded
	m.mapMu.Unlock()

	return loaded, nil
}

// UpdateSession applies fn to the session under its per-session lock, then
// persists the result. fn must not retain s beyond the call.
func (m *Manager) UpdateSession(id string, fn func(s *Session)) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := m.getLocked(id)
	if err != nil {
		return err
	}

	fn(s)

	return m.persist(s)
}

// getLocked assumes the caller already holds the per-session lock.
func (m *Manager) getLocked(id string) (*Session, error) {
	m.mapMu.RLock()
	s, ok := m.sessions[id]
	m.mapMu.RUnlock()
	if ok {
		return s, nil
	}

	loaded, err := m.load(id)
	if err != nil {
		return nil, err
	}
	m.mapMu.Lock()
	m.sessions[id] = loaded
	m.mapMu.Unlock()
	return loaded, nil
}

// AddMessage is a convenience wrapper around UpdateSession for the common
// case of appending a single message.
func (m *Manager) AddMessage(id string, msg Message) error {
	return m.UpdateSession(id, func(s *Session) {
		s.AddMessage(msg)
	})
}

// RemoveSession removes a session from memory and disk, returning the
// removed session (nil if it was never loaded and has no file).
func (m *Manager) RemoveSession(id string) (*Session, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m.mapMu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	delete(m.locks, id)
	m.mapMu.Unlock()

	if err := os.Remove(m.path(id)); err != nil && !os.IsNotExist(err) {
		return s, errs.PermissionDenied(m.path(id), err)
	}
	return s, nil
}

// Len returns the number of sessions currently cached in memory (not a
// count of sessions on disk, which may include ones never loaded).
func (m *Manager) Len() int {
	m.mapMu.RLock()
	defer m.mapMu.RUnlock()
	return len(m.sessions)
}

// ListSessions returns every session currently held in memory, sorted by
// ID (which, since IDs are monotonic ULIDs, is also creation order). Like
// GetSession, this only reflects sessions already loaded this process;
// it does not scan storageRoot for files never read.
func (m *Manager) ListSessions() []*Session {
	m.mapMu.RLock()
	defer m.mapMu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) load(id string) (*Session, error) {
	data, err := os.ReadFile(m.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("session_not_found", fmt.Sprintf("session %q not found", id))
		}
		return nil, errs.PermissionDenied(m.path(id), err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session %q: %w", id, err)
	}
	return &s, nil
}

// persist writes s to disk atomically: write to a temp file in the same
// directory, then rename over the destination, so a crash mid-write never
// leaves a half-written session file.
func (m *Manager) persist(s *Session) error {
	if err := os.MkdirAll(m.storageRoot, 0o755); err != nil {
		return errs.PermissionDenied(m.storageRoot, err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session %q: %w", s.ID, err)
	}

	dest := m.path(s.ID)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.PermissionDenied(tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return errs.PermissionDenied(dest, err)
	}
	return nil
}

// nowFunc is indirected so compaction/session tests can pin a clock;
// production code stays on the real clock.
var nowFunc = defaultNow

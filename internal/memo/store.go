package memo

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/forgecraft/sah/internal/errs"
)

// Store is a filesystem-backed memo tracker: one markdown body per memo
// at {root}/{id}.md plus a single JSON index, the same write-temp-then-
// rename idiom internal/issue.Store uses, without the status/branch
// lifecycle a memo has no use for.
type Store struct {
	root string

	mu    sync.RWMutex
	memos map[string]*Memo

	ids *idGenerator
}

// NewStore opens (without yet loading) a memo store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir, memos: make(map[string]*Memo), ids: newIDGenerator()}
}

func (s *Store) bodyPath(id string) string {
	return filepath.Join(s.root, id+".md")
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, ".index.json")
}

// Create writes a new memo and returns it.
func (s *Store) Create(title, content string) (*Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	m := &Memo{
		ID:        s.ids.next(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.writeBody(m); err != nil {
		return nil, err
	}
	s.memos[m.ID] = m

	if err := s.persistIndex(); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the memo with the given id.
func (s *Store) Get(id string) (*Memo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memos[id]
	if !ok {
		return nil, errs.NotFound("memo_not_found", "memo "+id+" not found")
	}
	return m, nil
}

// List returns every memo sorted by id (ULIDs sort lexicographically by
// creation time, so this is also creation order).
func (s *Store) List() []*Memo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Memo, 0, len(s.memos))
	for _, m := range s.memos {
		out = append(out, m)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Update replaces a memo's title/content and bumps UpdatedAt.
func (s *Store) Update(id, title, content string) (*Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memos[id]
	if !ok {
		return nil, errs.NotFound("memo_not_found", "memo "+id+" not found")
	}
	m.Title = title
	m.Content = content
	m.UpdatedAt = time.Now()

	if err := s.writeBody(m); err != nil {
		return nil, err
	}
	if err := s.persistIndex(); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a memo's body file and index entry.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memos[id]; !ok {
		return errs.NotFound("memo_not_found", "memo "+id+" not found")
	}
	if err := os.Remove(s.bodyPath(id)); err != nil && !os.IsNotExist(err) {
		return errs.PermissionDenied(s.bodyPath(id), err)
	}
	delete(s.memos, id)
	return s.persistIndex()
}

func (s *Store) writeBody(m *Memo) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return errs.PermissionDenied(s.root, err)
	}
	if err := os.WriteFile(s.bodyPath(m.ID), []byte(m.Content), 0o644); err != nil {
		return errs.PermissionDenied(s.bodyPath(m.ID), err)
	}
	return nil
}

// Load reads the index file, if present, populating the in-memory map.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.PermissionDenied(s.indexPath(), err)
	}

	var loaded map[string]*Memo
	if err := json.Unmarshal(data, &loaded); err != nil {
		return errs.New(errs.KindIO, "index_unmarshal_failed", err.Error(), errs.Critical).Wrap(err)
	}
	s.memos = loaded
	return nil
}

// Caller must hold s.mu.
func (s *Store) persistIndex() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return errs.PermissionDenied(s.root, err)
	}

	data, err := json.MarshalIndent(s.memos, "", "  ")
	if err != nil {
		return errs.New(errs.KindIO, "index_marshal_failed", err.Error(), errs.Critical).Wrap(err)
	}

	dest := s.indexPath()
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.PermissionDenied(tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return errs.PermissionDenied(dest, err)
	}
	return nil
}

// idGenerator mirrors internal/session's: a monotonic ULID entropy
// source serialized behind a mutex since it isn't itself concurrency-safe.
type idGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDGenerator() *idGenerator {
	return &idGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *idGenerator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

package kanban

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

// Store is a filesystem-backed kanban board: a single JSON index at
// {root}/.index.json, the same write-temp-then-rename idiom
// internal/issue and internal/memo use, without a per-card body file
// since a card has no freeform markdown content of its own.
type Store struct {
	root string

	mu    sync.RWMutex
	cards map[string]*Card

	ids *idGenerator
}

// NewStore opens (without yet loading) a kanban store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir, cards: make(map[string]*Card), ids: newIDGenerator()}
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, ".index.json")
}

var validTransitions = map[Column][]Column{
	ColumnTodo:       {ColumnInProgress},
	ColumnInProgress: {ColumnDone, ColumnTodo},
	ColumnDone:       {},
}

// AddCard creates a new card in the todo column.
func (s *Store) AddCard(title string) (*Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c := &Card{
		ID:        s.ids.next(),
		Title:     title,
		Column:    ColumnTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.cards[c.ID] = c

	if err := s.persistIndex(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the card with the given id.
func (s *Store) Get(id string) (*Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cards[id]
	if !ok {
		return nil, errs.NotFound("card_not_found", "card "+id+" not found")
	}
	return c, nil
}

// List returns every card sorted by id (ULIDs sort by creation time).
func (s *Store) List() []*Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Card, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// MoveCard transitions a card to a new column, rejecting moves not in
// validTransitions (e.g. skipping straight from todo to done). A move to
// the card's current column is accepted.
func (s *Store) MoveCard(id string, to Column) (*Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[id]
	if !ok {
		return nil, errs.NotFound("card_not_found", "card "+id+" not found")
	}

	if !isAllowed(c.Column, to) {
		return nil, errs.New(errs.KindState, "invalid_transition",
			"cannot move card from "+string(c.Column)+" to "+string(to), errs.Error)
	}

	c.Column = to
	c.UpdatedAt = time.Now()

	if err := s.persistIndex(); err != nil {
		return nil, err
	}
	return c, nil
}

func isAllowed(from, to Column) bool {
	if from == to {
		return true
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
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

	var loaded map[string]*Card
	if err := json.Unmarshal(data, &loaded); err != nil {
		return errs.New(errs.KindIO, "index_unmarshal_failed", err.Error(), errs.Critical).Wrap(err)
	}
	s.cards = loaded
	return nil
}

// Caller must hold s.mu.
func (s *Store) persistIndex() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return errs.PermissionDenied(s.root, err)
	}

	data, err := json.MarshalIndent(s.cards, "", "  ")
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

// idGenerator mirrors internal/session and internal/memo's: a
// monotonic ULID entropy source serialized behind a mutex.
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

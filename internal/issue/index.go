package issue

import (
	"encoding/json"
	"os"

	"github.com/forgecraft/sah/internal/errs"
)

// persistIndex writes the full in-memory issue map to disk atomically
// (write-temp-then-rename), the same pattern the session manager uses for
// its per-session files, applied here to one shared index since issue
// metadata (status, source branch) has nowhere else to live alongside a
// plain markdown body.
//
// Caller must hold s.mu.
func (s *Store) persistIndex() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return errs.PermissionDenied(s.root, err)
	}

	data, err := json.MarshalIndent(s.issues, "", "  ")
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

// Load reads the index file, if present, populating the in-memory map.
// A store that has never persisted anything is left empty, not an error.
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

	var loaded map[string]*Issue
	if err := json.Unmarshal(data, &loaded); err != nil {
		return errs.New(errs.KindIO, "index_unmarshal_failed", err.Error(), errs.Critical).Wrap(err)
	}
	s.issues = loaded
	return nil
}

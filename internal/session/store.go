package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

const sessionFilePermMode = 0o600

// Store reads and writes the session file at a fixed path. The file
// name and shape stay stable across runs so a later invocation picks up
// where the last one left off.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the stored session, or nil when no usable session
// exists. A missing or malformed file is not an error: the caller is
// simply logged out.
func (s *Store) Load() *Session {
	f, err := os.Open(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("unable to open session file", "path", s.path, "error", err)
		}
		return nil
	}
	defer f.Close()

	sess := &Session{}
	if err := json.NewDecoder(f).Decode(sess); err != nil {
		slog.Warn("discarding malformed session file", "path", s.path, "error", err)
		return nil
	}
	if sess.Token == "" {
		slog.Warn("discarding session without token", "path", s.path)
		return nil
	}

	return sess
}

// Save writes the session to disk with restricted permissions.
func (s *Store) Save(sess *Session) error {
	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, sessionFilePermMode)
	if err != nil {
		return fmt.Errorf("unable to create session file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(sess); err != nil {
		return fmt.Errorf("unable to encode session: %w", err)
	}

	return nil
}

// Clear removes the session file. Clearing an absent session is a no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to remove session file: %w", err)
	}
	return nil
}

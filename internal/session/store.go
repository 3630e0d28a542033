// Package session keeps the CLI's login state between invocations and turns
// failed API responses into user-facing messages.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cinescope/apiserver/types"
	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
)

// Session is the persisted login state.
type Session struct {
	Token   string     `json:"access_token"`
	User    types.User `json:"user"`
	SavedAt time.Time  `json:"savedAt"`
}

// Store holds the current session in memory and mirrors it to a file. An
// empty path keeps the session in memory only.
type Store struct {
	path string
	lock *flock.Flock

	mu        sync.RWMutex
	current   *Session
	listeners map[int]func(*Session)
	nextID    int
}

// DefaultPath returns the per-user session file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cinescope", "session.json"), nil
}

func NewStore(path string) *Store {
	s := &Store{path: path, listeners: map[int]func(*Session){}}
	if path != "" {
		s.lock = flock.New(path + ".lock")
	}
	return s
}

// Load reads the session file. A missing file leaves the store logged out.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	if err := s.acquire(s.lock.RLock); err != nil {
		return err
	}
	data, err := os.ReadFile(s.path)
	_ = s.lock.Unlock()

	if errors.Is(err, fs.ErrNotExist) {
		s.set(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return fmt.Errorf("decode session %s: %w", s.path, err)
	}
	if sess.Token == "" {
		s.set(nil)
		return nil
	}
	s.set(&sess)
	return nil
}

// Save stores a new token and user.
func (s *Store) Save(token string, user types.User) error {
	sess := &Session{Token: token, User: user, SavedAt: time.Now().UTC()}
	if err := s.write(sess); err != nil {
		return err
	}
	s.set(sess)
	return nil
}

// UpdateUser replaces the user of the current session, keeping its token.
// It is a no-op when logged out.
func (s *Store) UpdateUser(user types.User) error {
	current, ok := s.Current()
	if !ok {
		return nil
	}
	return s.Save(current.Token, user)
}

// Clear logs out, removing the session file.
func (s *Store) Clear() error {
	if s.path != "" {
		if err := s.acquire(s.lock.Lock); err != nil {
			return err
		}
		err := os.Remove(s.path)
		_ = s.lock.Unlock()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
	}
	s.set(nil)
	return nil
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Current returns a copy of the session.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Subscribe calls fn with every new session, nil meaning logged out. The
// returned function cancels the subscription.
func (s *Store) Subscribe(fn func(*Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) set(sess *Session) {
	s.mu.Lock()
	s.current = sess
	listeners := make([]func(*Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		if sess == nil {
			fn(nil)
			continue
		}
		copied := *sess
		fn(&copied)
	}
}

func (s *Store) write(sess *Session) error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	if err := s.acquire(s.lock.Lock); err != nil {
		return err
	}
	defer s.lock.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// acquire takes the file lock, creating the session directory first since
// the lock file lives next to the session file.
func (s *Store) acquire(lock func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := lock(); err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	return nil
}

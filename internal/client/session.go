package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Session owns the bearer token used by a Client. When path is set the
// token is persisted there so separate shopctl invocations share it.
type Session struct {
	mu        sync.RWMutex
	token     string
	path      string
	onCleared []func()
}

// NewSession loads a previously stored token from path, if any.
// An empty path keeps the session in memory only.
func NewSession(path string) (*Session, error) {
	s := &Session{path: path}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read session: %w", err)
	}
	s.token = strings.TrimSpace(string(raw))
	return s, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
		if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
	}
	s.token = token
	return nil
}

// Clear drops the token and notifies OnCleared listeners. Clearing an
// empty session is a no-op.
func (s *Session) Clear() error {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return nil
	}
	s.token = ""
	var err error
	if s.path != "" {
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = fmt.Errorf("remove session: %w", rmErr)
		}
	}
	listeners := append([]func(){}, s.onCleared...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return err
}

// OnCleared registers fn to run after every Clear that dropped a token.
func (s *Session) OnCleared(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCleared = append(s.onCleared, fn)
}

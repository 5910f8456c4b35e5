package sessionsdk

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// TokenStore persists a refresh token across restarts. Load returns an empty
// string when nothing is stored.
type TokenStore interface {
	Save(refreshToken string) error
	Load() (string, error)
	Remove() error
}

// MemoryTokenStore keeps the token in memory. Useful for tests and for
// processes that do not need sessions to survive a restart.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Save(refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = refreshToken
	return nil
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// FileTokenStore persists the token to a file, owner read/write only.
type FileTokenStore struct {
	Path string

	mu sync.Mutex
}

func (f *FileTokenStore) Save(refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return os.WriteFile(f.Path, []byte(refreshToken), 0o600)
}

func (f *FileTokenStore) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FileTokenStore) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

package bluecast

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings stores the credentials and toggles read at session-ensure time:
// the PDS URL, the account identifier (handle or email), the app password,
// and whether cross-posting is enabled at all.
type Settings struct {
	ServiceURL       string `yaml:"service_url"`
	Identifier       string `yaml:"identifier"`
	AppPassword      string `yaml:"app_password"`
	CrosspostEnabled bool   `yaml:"crosspost_enabled"`
}

// Configured returns true if login credentials are present.
func (s *Settings) Configured() bool {
	return s.Identifier != "" && s.AppPassword != ""
}

func (s *Settings) serviceURL() string {
	if s.ServiceURL != "" {
		return s.ServiceURL
	}
	return defaultServiceURL
}

// DefaultSettingsPath returns the settings file path, honoring XDG_CONFIG_HOME.
func DefaultSettingsPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "bluecast", "config.yaml"), nil
}

// DefaultSessionPath returns the session mirror path, honoring XDG_DATA_HOME.
func DefaultSessionPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "bluecast", "session.json"), nil
}

// LoadSettings reads settings from disk. Returns default settings if the
// file doesn't exist.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, err
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes settings to disk, creating parent directories as needed.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SessionStore persists the current session so it can survive process
// restarts. Load returns (nil, nil) when no session is stored.
type SessionStore interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// FileSessionStore mirrors the session to a JSON file. The payload keeps the
// service's own wire field names so a stored session round-trips unchanged.
type FileSessionStore struct {
	Path string
}

func (f *FileSessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (f *FileSessionStore) Save(session *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0750); err != nil {
		return err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0600)
}

func (f *FileSessionStore) Clear() error {
	err := os.Remove(f.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemorySessionStore keeps the session in process memory only.
type MemorySessionStore struct {
	mu      sync.Mutex
	session *Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (m *MemorySessionStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *MemorySessionStore) Save(session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNotLoggedIn is returned by commands that need a stored identity.
var ErrNotLoggedIn = errors.New("not logged in, run: holdctl login --user <id>")

// Session is the identity and server a CLI user works against.
type Session struct {
	ServerURL string `yaml:"server_url,omitempty"`
	UserID    string `yaml:"user_id,omitempty"`
	Role      string `yaml:"role,omitempty"`
}

func (s Session) LoggedIn() bool {
	return s.UserID != "" && s.Role != ""
}

// SessionProvider persists the client side session between invocations.
// Commands receive it explicitly.
type SessionProvider interface {
	Load() (Session, error)
	Save(Session) error
	// Clear forgets the identity but keeps the server URL.
	Clear() error
}

// FileSessionProvider stores the session as YAML on disk.
type FileSessionProvider struct {
	path string
}

func NewFileSessionProvider(path string) *FileSessionProvider {
	return &FileSessionProvider{path: path}
}

// DefaultSessionPath returns ~/.config/holdctl/session.yaml.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "holdctl", "session.yaml"), nil
}

func (p *FileSessionProvider) Path() string {
	return p.path
}

// Load returns a zero Session when the file does not exist.
func (p *FileSessionProvider) Load() (Session, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("parsing session: %w", err)
	}
	return s, nil
}

func (p *FileSessionProvider) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

func (p *FileSessionProvider) Clear() error {
	s, err := p.Load()
	if err != nil {
		return err
	}
	if !s.LoggedIn() && s.ServerURL == "" {
		return nil
	}
	return p.Save(Session{ServerURL: s.ServerURL})
}

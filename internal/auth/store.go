package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CredentialStore persists sessions per profile. Load on a missing profile
// returns (nil, nil), and Delete on a missing profile is a no-op success,
// so logout is idempotent.
type CredentialStore interface {
	Load(profile string) (*AuthSession, error)
	Save(profile string, session *AuthSession) error
	Delete(profile string) error
}

// FileCredentialStore keeps one JSON envelope file per profile in a per-user
// configuration directory. Files are owner-read/write only; every save fully
// replaces the file through a temp-file rename so a concurrent reader never
// observes a half-written payload.
type FileCredentialStore struct {
	dir string
}

// NewFileCredentialStore creates a store rooted at the given directory,
// typically resolved by the config locator at startup.
func NewFileCredentialStore(dir string) *FileCredentialStore {
	return &FileCredentialStore{dir: dir}
}

// credentialsPath returns the envelope file path for a profile.
func (s *FileCredentialStore) credentialsPath(profile string) string {
	return filepath.Join(s.dir, fmt.Sprintf("credentials-%s.json", profile))
}

// Load reads the session stored for a profile. A missing file is not an
// error. A stored session without a created_at timestamp defaults to now.
func (s *FileCredentialStore) Load(profile string) (*AuthSession, error) {
	raw, err := os.ReadFile(s.credentialsPath(profile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("credential store: read failed: %w", err)
	}

	var envelope SessionEnvelope
	if err = json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("credential store: unmarshal failed: %w", err)
	}
	if envelope.Session == nil {
		return nil, fmt.Errorf("credential store: envelope for %q has no session", profile)
	}
	if envelope.Session.CreatedAt.IsZero() {
		envelope.Session.CreatedAt = time.Now()
	}
	return envelope.Session, nil
}

// Save replaces the stored session for a profile with a fresh envelope.
func (s *FileCredentialStore) Save(profile string, session *AuthSession) error {
	if session == nil {
		return fmt.Errorf("credential store: session is nil")
	}

	envelope := SessionEnvelope{
		Version: sessionEnvelopeVersion,
		Profile: profile,
		Session: session,
	}
	payload, err := json.MarshalIndent(&envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("credential store: marshal failed: %w", err)
	}

	if err = os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("credential store: create dir failed: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, fmt.Sprintf(".credentials-%s-*.json", profile))
	if err != nil {
		return fmt.Errorf("credential store: create temp file failed: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credential store: chmod failed: %w", err)
	}
	if _, err = tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("credential store: write failed: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("credential store: close failed: %w", err)
	}

	if err = os.Rename(tmpName, s.credentialsPath(profile)); err != nil {
		return fmt.Errorf("credential store: rename failed: %w", err)
	}
	return nil
}

// Delete removes the stored session for a profile.
func (s *FileCredentialStore) Delete(profile string) error {
	if err := os.Remove(s.credentialsPath(profile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("credential store: delete failed: %w", err)
	}
	return nil
}

// MemoryCredentialStore is an in-memory CredentialStore used by tests.
type MemoryCredentialStore struct {
	mu       sync.Mutex
	sessions map[string]*AuthSession
}

// NewMemoryCredentialStore creates an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{sessions: make(map[string]*AuthSession)}
}

// Load returns the stored session for a profile, or nil.
func (s *MemoryCredentialStore) Load(profile string) (*AuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[profile]
	if !ok {
		return nil, nil
	}
	return session.Clone(), nil
}

// Save stores a copy of the session for a profile.
func (s *MemoryCredentialStore) Save(profile string, session *AuthSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[profile] = session.Clone()
	return nil
}

// Delete removes the session for a profile if present.
func (s *MemoryCredentialStore) Delete(profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, profile)
	return nil
}

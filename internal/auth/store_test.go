package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCredentialStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileCredentialStore(t.TempDir())
	session := NewBearerSession("token", "refresh", time.Now().Add(time.Hour), []string{"read", "write"})

	if err := store.Save("work", session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load("work")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("Load() = nil for a saved profile")
	}
	if loaded.AccessToken != session.AccessToken {
		t.Errorf("access token = %q, want %q", loaded.AccessToken, session.AccessToken)
	}
	if loaded.RefreshToken != session.RefreshToken {
		t.Errorf("refresh token = %q, want %q", loaded.RefreshToken, session.RefreshToken)
	}
	if loaded.TokenType != TokenTypeBearer {
		t.Errorf("token type = %q, want %q", loaded.TokenType, TokenTypeBearer)
	}
}

func TestFileCredentialStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := NewFileCredentialStore(t.TempDir())
	session, err := store.Load("nobody")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing profile", err)
	}
	if session != nil {
		t.Errorf("Load() = %+v, want nil", session)
	}
}

func TestFileCredentialStoreDeleteMissing(t *testing.T) {
	t.Parallel()

	store := NewFileCredentialStore(t.TempDir())
	if err := store.Delete("nobody"); err != nil {
		t.Errorf("Delete() error = %v, want nil for a missing profile", err)
	}
}

func TestFileCredentialStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewFileCredentialStore(t.TempDir())
	if err := store.Save("work", NewAPIKeySession("key")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete("work"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	session, err := store.Load("work")
	if err != nil || session != nil {
		t.Errorf("Load() after delete = (%+v, %v), want (nil, nil)", session, err)
	}
}

func TestFileCredentialStoreFileMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileCredentialStore(dir)
	if err := store.Save("work", NewAPIKeySession("key")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "credentials-work.json"))
	if err != nil {
		t.Fatalf("stat credentials file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("credentials file mode = %o, want 600", mode)
	}
}

func TestFileCredentialStoreSeparateProfiles(t *testing.T) {
	t.Parallel()

	store := NewFileCredentialStore(t.TempDir())
	if err := store.Save("work", NewAPIKeySession("work-key")); err != nil {
		t.Fatalf("Save(work) error = %v", err)
	}
	if err := store.Save("personal", NewAPIKeySession("personal-key")); err != nil {
		t.Fatalf("Save(personal) error = %v", err)
	}

	work, err := store.Load("work")
	if err != nil {
		t.Fatalf("Load(work) error = %v", err)
	}
	if work.AccessToken != "work-key" {
		t.Errorf("work profile token = %q, want work-key", work.AccessToken)
	}

	if err = store.Delete("work"); err != nil {
		t.Fatalf("Delete(work) error = %v", err)
	}
	personal, err := store.Load("personal")
	if err != nil {
		t.Fatalf("Load(personal) error = %v", err)
	}
	if personal == nil || personal.AccessToken != "personal-key" {
		t.Errorf("personal profile = %+v, want untouched personal-key session", personal)
	}
}

func TestFileCredentialStoreMissingCreatedAt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := `{"version":1,"profile":"work","session":{"access_token":"abc","token_type":"api_key"}}`
	if err := os.WriteFile(filepath.Join(dir, "credentials-work.json"), []byte(raw), 0o600); err != nil {
		t.Fatalf("write raw envelope: %v", err)
	}

	store := NewFileCredentialStore(dir)
	session, err := store.Load("work")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if session.CreatedAt.IsZero() {
		t.Error("created at is zero, want defaulted to now")
	}
	if time.Since(session.CreatedAt) > time.Minute {
		t.Errorf("created at = %v, want approximately now", session.CreatedAt)
	}
}

func TestFileCredentialStoreCorruptEnvelope(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "credentials-work.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt envelope: %v", err)
	}

	store := NewFileCredentialStore(dir)
	if _, err := store.Load("work"); err == nil {
		t.Error("Load() error = nil for a corrupt envelope, want an error")
	}
}

func TestFileCredentialStoreSaveCreatesDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "config")
	store := NewFileCredentialStore(dir)
	if err := store.Save("work", NewAPIKeySession("key")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "credentials-work.json")); err != nil {
		t.Errorf("credentials file missing after save: %v", err)
	}
}

func TestMemoryCredentialStoreIsolation(t *testing.T) {
	t.Parallel()

	store := NewMemoryCredentialStore()
	session := NewBearerSession("token", "refresh", time.Now().Add(time.Hour), []string{"read"})
	if err := store.Save("work", session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	session.AccessToken = "mutated"

	loaded, err := store.Load("work")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != "token" {
		t.Errorf("stored token = %q, want the original value", loaded.AccessToken)
	}
}

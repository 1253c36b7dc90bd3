package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestGeneratePKCECodes(t *testing.T) {
	t.Parallel()

	pkce, err := GeneratePKCECodes()
	if err != nil {
		t.Fatalf("GeneratePKCECodes() error = %v", err)
	}

	if n := len(pkce.CodeVerifier); n < 43 || n > 128 {
		t.Errorf("verifier length = %d, want within [43, 128]", n)
	}

	sum := sha256.Sum256([]byte(pkce.CodeVerifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if pkce.CodeChallenge != want {
		t.Errorf("challenge = %q, want %q", pkce.CodeChallenge, want)
	}
}

func TestGeneratePKCECodesUnique(t *testing.T) {
	t.Parallel()

	first, err := GeneratePKCECodes()
	if err != nil {
		t.Fatalf("GeneratePKCECodes() error = %v", err)
	}
	second, err := GeneratePKCECodes()
	if err != nil {
		t.Fatalf("GeneratePKCECodes() error = %v", err)
	}
	if first.CodeVerifier == second.CodeVerifier {
		t.Error("consecutive verifiers are identical")
	}
}

func TestRandomState(t *testing.T) {
	t.Parallel()

	state, err := randomState(stateLength)
	if err != nil {
		t.Fatalf("randomState() error = %v", err)
	}
	if len(state) != stateLength {
		t.Errorf("state length = %d, want %d", len(state), stateLength)
	}
	for _, r := range state {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !alnum {
			t.Errorf("state contains non-alphanumeric character %q", r)
		}
	}
}

package auth

import (
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey("prod")
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	if !strings.HasPrefix(key, "docai-prod-") {
		t.Errorf("key should start with 'docai-prod-', got: %s", key)
	}

	// docai-prod- is 11 chars, plus 32 random = 43 total
	if len(key) != 43 {
		t.Errorf("expected key length 43, got %d: %s", len(key), key)
	}

	key2, _ := GenerateKey("prod")
	if key == key2 {
		t.Error("two generated keys should not be identical")
	}
}

func TestHashKey(t *testing.T) {
	// echo -n "abc" | sha256sum
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashKey("abc"); got != want {
		t.Errorf("HashKey(abc) = %s, want %s", got, want)
	}
	if HashKey("docai-prod-a") == HashKey("docai-prod-b") {
		t.Error("different keys should produce different hashes")
	}
}

func TestMatches(t *testing.T) {
	hash := HashKey("docai-dev-secret")
	tests := []struct {
		name      string
		presented string
		expected  string
		want      bool
	}{
		{"match", "docai-dev-secret", hash, true},
		{"uppercase digest", "docai-dev-secret", strings.ToUpper(hash), true},
		{"mismatch", "docai-dev-other", hash, false},
		{"empty presented", "", hash, false},
		{"empty expected", "docai-dev-secret", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.presented, tt.expected); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyPrefix(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"docai-prod-abcdefghijklmnopqrstuvwxyz012345", "docai-prod-abcdefgh"},
		{"docai-dev-12345678901234567890123456789012", "docai-dev-12345678"},
		{"short", "short"},
	}

	for _, tt := range tests {
		got := KeyPrefix(tt.key)
		if got != tt.expected {
			t.Errorf("KeyPrefix(%q) = %q, want %q", tt.key, got, tt.expected)
		}
	}
}

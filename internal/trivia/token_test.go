package trivia

import (
	"strings"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken(JoinTokenLength)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		if len(token) != JoinTokenLength {
			t.Fatalf("length = %d, want %d", len(token), JoinTokenLength)
		}
		for _, r := range token {
			if !strings.ContainsRune(tokenAlphabet, r) {
				t.Fatalf("token %q contains %q outside the alphabet", token, r)
			}
		}
		seen[token] = true
	}
	if len(seen) < 95 {
		t.Errorf("only %d distinct tokens out of 100", len(seen))
	}
}

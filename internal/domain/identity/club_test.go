package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClubNormalizer_Normalize(t *testing.T) {
	normalizer := NewClubNormalizer(DefaultClubAliases())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "division tag in parentheses", in: "Oilers (3FC)", want: "Oilers"},
		{name: "superliga suffix", in: "Dartanjang SL2", want: "Dartanjang"},
		{name: "superligan word suffix", in: "Sweden Capital Superligan", want: "Sweden Capital"},
		{name: "numeric division suffix", in: "Nacka Wermdö 2A", want: "Nacka Wermdö"},
		{name: "ds suffix", in: "Tyresö DS", want: "Tyresö"},
		{name: "alias lookup", in: "AIK Dartförening", want: "AIK Dart"},
		{name: "alias is case insensitive", in: "aik dartförening", want: "AIK Dart"},
		{name: "subsidiary name", in: "Engelen", want: "HMT Dart"},
		{name: "letter team with alias", in: "Spikkastarna B", want: "SpikKastarna"},
		{name: "tag then alias", in: "AIK (SL1)", want: "AIK Dart"},
		{name: "unknown club passes through", in: "Bålsta DC", want: "Bålsta DC"},
		{name: "surrounding whitespace", in: "  Oilers  ", want: "Oilers"},
		{name: "zero width runes stripped", in: "Oil​ers", want: "Oilers"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizer.Normalize(tt.in); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClubNormalizer_NilAliases(t *testing.T) {
	normalizer := NewClubNormalizer(nil)

	if got := normalizer.Normalize("AIK Dartförening"); got != "AIK Dartförening" {
		t.Fatalf("without aliases the stripped name should pass through, got %q", got)
	}
}

func TestLoadClubAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.json")
	content := `{"Steel City": "Steel City DC", "Engelen": "Engelen DC"}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write alias file: %v", err)
	}

	aliases, err := LoadClubAliases(path)
	if err != nil {
		t.Fatalf("LoadClubAliases: %v", err)
	}

	if aliases["Steel City"] != "Steel City DC" {
		t.Fatalf("expected file entry to be loaded, got %q", aliases["Steel City"])
	}
	if aliases["Engelen"] != "Engelen DC" {
		t.Fatalf("expected file entry to override the default, got %q", aliases["Engelen"])
	}
	if aliases["AIK Dartförening"] != "AIK Dart" {
		t.Fatalf("expected untouched defaults to survive, got %q", aliases["AIK Dartförening"])
	}
}

func TestLoadClubAliases_Errors(t *testing.T) {
	if _, err := LoadClubAliases(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write alias file: %v", err)
	}
	if _, err := LoadClubAliases(path); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

package identity

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	sonic "github.com/bytedance/sonic"
	"golang.org/x/text/unicode/norm"
)

// A team name string usually encodes both the club and the division tier,
// e.g. "Oilers (3FC)" or "Dartanjang SL2". The normalizer reduces a raw team
// name to the club identity so that activity at two teams of the same club is
// never mistaken for activity at two clubs.
var (
	divisionTagPattern    = regexp.MustCompile(`\s*\([^)]*\)$`)
	divisionSuffixPattern = regexp.MustCompile(`\s*(SL\d+|DS|\d+[A-Z]+|\d+F[A-Z]+|Superligan)$`)
	zeroWidthPattern      = regexp.MustCompile(`[\x{200B}-\x{200F}\x{2060}\x{FEFF}]`)
)

// ClubNormalizer canonicalizes raw team-name strings. It never fails on
// unseen input; unknown clubs pass through stripped but otherwise unchanged.
type ClubNormalizer struct {
	aliases map[string]string
}

// DefaultClubAliases collapses the known spelling and subsidiary-name
// variants observed in the historical data to one canonical value.
func DefaultClubAliases() map[string]string {
	return map[string]string{
		"AIK":              "AIK Dart",
		"AIK Dart":         "AIK Dart",
		"AIK Dartförening": "AIK Dart",
		"HMT Dart":         "HMT Dart",
		"Engelen":          "HMT Dart",
		"Spikkastarna B":   "SpikKastarna",
	}
}

func NewClubNormalizer(aliases map[string]string) *ClubNormalizer {
	lowered := make(map[string]string, len(aliases))
	for variant, canonical := range aliases {
		lowered[strings.ToLower(variant)] = canonical
	}
	return &ClubNormalizer{aliases: lowered}
}

// LoadClubAliases reads alias overrides from a JSON file mapping variant club
// names to their canonical value. The defaults stay in place for variants the
// file does not mention.
func LoadClubAliases(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read club aliases: %w", err)
	}

	overrides := make(map[string]string)
	if err := sonic.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse club aliases %s: %w", path, err)
	}

	aliases := DefaultClubAliases()
	for variant, canonical := range overrides {
		aliases[variant] = canonical
	}
	return aliases, nil
}

// Normalize strips division tags, applies Unicode canonical normalization,
// removes zero-width runes, and resolves known aliases. Pure and
// side-effect-free.
func (n *ClubNormalizer) Normalize(teamName string) string {
	club := strings.TrimSpace(teamName)
	club = strings.TrimSpace(divisionTagPattern.ReplaceAllString(club, ""))
	club = strings.TrimSpace(divisionSuffixPattern.ReplaceAllString(club, ""))

	club = norm.NFKC.String(club)
	club = zeroWidthPattern.ReplaceAllString(club, "")

	if canonical, ok := n.aliases[strings.ToLower(club)]; ok {
		return canonical
	}
	return club
}

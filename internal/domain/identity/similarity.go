package identity

import (
	"strings"
	"unicode"
)

// Pattern tags attached by the similarity scorer. A candidate pair is only
// proposed for further evaluation when at least one pattern matched and the
// total confidence reaches MinProposeConfidence.
const (
	PatternSameLastname  = "same_lastname_similar_firstname"
	PatternPhoneticMatch = "phonetic_match"
	PatternSubstring     = "substring_match"
	PatternHighSim       = "high_similarity"
	PatternLikelyTypo    = "likely_typo"
)

const (
	// DefaultSimilarityThreshold is the overall-ratio floor for the
	// high_similarity signal.
	DefaultSimilarityThreshold = 0.7
	// MinProposeConfidence gates which scored pairs become candidates.
	MinProposeConfidence = 30
)

// Similarity is the context-free verdict on whether two name strings denote
// the same person.
type Similarity struct {
	Confidence    int      `json:"confidence"`
	Patterns      []string `json:"patterns,omitempty"`
	Ratio         float64  `json:"ratio"`
	SoundexMatch  bool     `json:"soundex_match"`
	PhoneticMatch bool     `json:"phonetic_match"`
}

// Proposable reports whether the pair clears the candidate gate.
func (s Similarity) Proposable() bool {
	return len(s.Patterns) > 0 && s.Confidence >= MinProposeConfidence
}

type nameComponents struct {
	full  string
	first string
	last  string
	words []string
}

func splitName(name string) nameComponents {
	words := strings.Fields(strings.TrimSpace(name))
	c := nameComponents{
		full:  strings.Join(words, " "),
		words: words,
	}
	if len(words) > 0 {
		c.first = words[0]
	}
	if len(words) > 1 {
		c.last = words[len(words)-1]
	}
	return c
}

// ScoreSimilarity combines independent bounded signals into a 0-100
// confidence. The threshold parameter controls the high_similarity signal;
// pass DefaultSimilarityThreshold unless configured otherwise.
func ScoreSimilarity(name1, name2 string, threshold float64) Similarity {
	a := splitName(name1)
	b := splitName(name2)

	fullRatio := lcsRatio(strings.ToLower(a.full), strings.ToLower(b.full))
	soundexMatch := soundexCode(a.first) == soundexCode(b.first) && a.first != "" && b.first != ""
	phoneticMatch := a.first != "" && b.first != "" &&
		lcsRatio(phoneticNormalize(a.first), phoneticNormalize(b.first)) > 0.8

	out := Similarity{
		Ratio:         fullRatio,
		SoundexMatch:  soundexMatch,
		PhoneticMatch: phoneticMatch,
	}

	// Same surname with a similar or phonetically matching first name.
	if a.last != "" && len([]rune(a.last)) > 2 && strings.EqualFold(a.last, b.last) {
		firstRatio := lcsRatio(strings.ToLower(a.first), strings.ToLower(b.first))
		if firstRatio >= 0.6 || soundexMatch || phoneticMatch {
			out.Patterns = append(out.Patterns, PatternSameLastname)
			out.Confidence += 40
			if soundexMatch || phoneticMatch {
				out.Patterns = append(out.Patterns, PatternPhoneticMatch)
				out.Confidence += 20
			}
		}
	}

	// Nickname pattern: one first token fully contained in the other name.
	if a.first != "" && b.first != "" {
		if strings.Contains(strings.ToLower(b.full), strings.ToLower(a.first)) ||
			strings.Contains(strings.ToLower(a.full), strings.ToLower(b.first)) {
			out.Patterns = append(out.Patterns, PatternSubstring)
			out.Confidence += 30
		}
	}

	if fullRatio >= threshold {
		out.Patterns = append(out.Patterns, PatternHighSim)
		out.Confidence += int(fullRatio * 50)
	}

	if isLikelyTypo(a.full, b.full) {
		out.Patterns = append(out.Patterns, PatternLikelyTypo)
		out.Confidence += 35
	}

	if out.Confidence > 100 {
		out.Confidence = 100
	}
	return out
}

func isLikelyTypo(name1, name2 string) bool {
	n1 := []rune(strings.ToLower(strings.TrimSpace(name1)))
	n2 := []rune(strings.ToLower(strings.TrimSpace(name2)))

	diff := len(n1) - len(n2)
	if diff < 0 {
		diff = -diff
	}
	if diff > 2 {
		return false
	}
	return lcsRatio(string(n1), string(n2)) >= 0.8
}

// lcsRatio is a longest-common-subsequence based similarity ratio in [0, 1]:
// 2*LCS(a, b) / (len(a)+len(b)).
func lcsRatio(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// soundexCode builds a simplified 4-character phonetic code: first letter
// preserved, acoustically similar consonants collapsed to one class, vowels
// and soft consonants dropped, padded with zeros.
func soundexCode(name string) string {
	runes := []rune(strings.ToUpper(name))
	if len(runes) == 0 {
		return ""
	}

	classes := map[rune]rune{
		'B': 'P', 'F': 'P', 'P': 'P', 'V': 'P',
		'C': 'K', 'G': 'K', 'J': 'K', 'K': 'K', 'Q': 'K', 'S': 'K', 'X': 'K', 'Z': 'K',
		'D': 'T', 'T': 'T',
		'L': 'L',
		'M': 'M', 'N': 'M',
		'R': 'R',
	}

	var sb strings.Builder
	sb.WriteRune(runes[0])
	for _, r := range runes[1:] {
		if mapped, ok := classes[r]; ok {
			sb.WriteRune(mapped)
			continue
		}
		if strings.ContainsRune("AEIOUYHW", r) {
			continue
		}
		sb.WriteRune(unicode.ToUpper(r))
	}

	code := []rune(sb.String())
	if len(code) > 4 {
		code = code[:4]
	}
	for len(code) < 4 {
		code = append(code, '0')
	}
	return string(code)
}

// phoneticNormalize expands common digraphs so spelling variants with the
// same pronunciation compare close.
func phoneticNormalize(name string) string {
	n := strings.ToLower(name)
	replacements := [][2]string{
		{"ph", "f"},
		{"th", "t"},
		{"ck", "k"},
		{"ch", "k"},
	}
	for _, repl := range replacements {
		n = strings.ReplaceAll(n, repl[0], repl[1])
	}
	return n
}

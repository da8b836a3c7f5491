package identity

import "testing"

func TestScoreSimilarity_CaseVariantsScoreFull(t *testing.T) {
	got := ScoreSimilarity("Roger Strömvall", "ROGER STRÖMVALL", DefaultSimilarityThreshold)

	if got.Confidence != 100 {
		t.Fatalf("expected confidence 100, got %d", got.Confidence)
	}
	if got.Ratio != 1 {
		t.Fatalf("expected ratio 1, got %v", got.Ratio)
	}
	if !got.Proposable() {
		t.Fatalf("expected case variants to be proposable")
	}
}

func TestScoreSimilarity_SpellingVariant(t *testing.T) {
	got := ScoreSimilarity("Mats Andersson", "Mats Anderson", DefaultSimilarityThreshold)

	if got.Confidence < 80 {
		t.Fatalf("expected confidence >= 80 for a dropped letter, got %d", got.Confidence)
	}
	if !hasPattern(got, PatternLikelyTypo) {
		t.Fatalf("expected likely_typo pattern, got %v", got.Patterns)
	}
	if !got.Proposable() {
		t.Fatalf("expected spelling variant to be proposable")
	}
}

func TestScoreSimilarity_FirstNameOnlyVariant(t *testing.T) {
	got := ScoreSimilarity("Johan", "Johan Lindqvist", DefaultSimilarityThreshold)

	if !hasPattern(got, PatternSubstring) {
		t.Fatalf("expected substring_match pattern, got %v", got.Patterns)
	}
	if got.Confidence < MinProposeConfidence {
		t.Fatalf("expected confidence >= %d, got %d", MinProposeConfidence, got.Confidence)
	}
	if !got.Proposable() {
		t.Fatalf("expected first-name-only variant to be proposable")
	}
}

func TestScoreSimilarity_SharedFirstNameOnly(t *testing.T) {
	// Same first name, different surnames. Proposable on the substring
	// signal alone; whether the pair merges is for the context evaluator.
	got := ScoreSimilarity("Peter Book", "Peter Söron", DefaultSimilarityThreshold)

	if hasPattern(got, PatternSameLastname) {
		t.Fatalf("did not expect same_lastname pattern, got %v", got.Patterns)
	}
	if hasPattern(got, PatternHighSim) {
		t.Fatalf("did not expect high_similarity pattern, got %v", got.Patterns)
	}
	if got.Confidence != 30 {
		t.Fatalf("expected confidence 30, got %d", got.Confidence)
	}
}

func TestScoreSimilarity_UnrelatedNames(t *testing.T) {
	got := ScoreSimilarity("Anna Nilsson", "Roger Strömvall", DefaultSimilarityThreshold)

	if got.Proposable() {
		t.Fatalf("expected unrelated names to not be proposable, got %+v", got)
	}
}

func TestScoreSimilarity_SameLastnamePhonetic(t *testing.T) {
	got := ScoreSimilarity("Kristofer Berg", "Christofer Berg", DefaultSimilarityThreshold)

	if !hasPattern(got, PatternSameLastname) {
		t.Fatalf("expected same_lastname pattern, got %v", got.Patterns)
	}
	if !got.Proposable() {
		t.Fatalf("expected phonetic first-name variants to be proposable")
	}
}

func TestSoundexCode(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		same bool
	}{
		{name: "c and k collapse", a: "Kristofer", b: "Cristofer", same: false},
		{name: "identical names", a: "Roger", b: "Roger", same: true},
		{name: "bjorn vs björn", a: "Bjorn", b: "Bjork", same: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := soundexCode(tt.a) == soundexCode(tt.b)
			if got != tt.same {
				t.Fatalf("soundexCode(%q)=%q soundexCode(%q)=%q, same=%v want=%v",
					tt.a, soundexCode(tt.a), tt.b, soundexCode(tt.b), got, tt.same)
			}
		})
	}
}

func TestLcsRatio_Bounds(t *testing.T) {
	if got := lcsRatio("", ""); got != 1 {
		t.Fatalf("empty strings should be identical, got %v", got)
	}
	if got := lcsRatio("abc", ""); got != 0 {
		t.Fatalf("one empty string should score 0, got %v", got)
	}
	if got := lcsRatio("same", "same"); got != 1 {
		t.Fatalf("identical strings should score 1, got %v", got)
	}
}

func TestIsLikelyTypo_LengthGuard(t *testing.T) {
	if isLikelyTypo("Jo", "Johan Lindqvist") {
		t.Fatalf("large length difference must not register as a typo")
	}
	if !isLikelyTypo("Andersson", "Anderson") {
		t.Fatalf("single dropped letter should register as a typo")
	}
}

func hasPattern(s Similarity, pattern string) bool {
	for _, p := range s.Patterns {
		if p == pattern {
			return true
		}
	}
	return false
}

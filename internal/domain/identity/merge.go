package identity

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Recommendation is the evaluator's verdict on a name-variation group.
type Recommendation string

const (
	RecommendMerge  Recommendation = "merge"
	RecommendReview Recommendation = "review"
	RecommendReject Recommendation = "reject"
)

// Review flags surfaced alongside accepted candidates. They never block
// acceptance on their own; they lower confidence and are recorded in the
// mapping notes for the operator.
const (
	FlagSuspiciousVolume = "suspicious_volume_disparity"
	FlagCautionVolume    = "caution_volume_disparity"
	FlagComplexGroup     = "complex_needs_review"
)

// MergeEvaluation is the decision for one name-variation group.
type MergeEvaluation struct {
	SafeToMerge    bool               `json:"safe_to_merge"`
	RiskLevel      Severity           `json:"risk_level"`
	Recommendation Recommendation     `json:"recommendation"`
	CanonicalName  string             `json:"canonical_name"`
	Reason         string             `json:"reason"`
	Flags          []string           `json:"flags,omitempty"`
	Conflicts      []TemporalConflict `json:"conflicts,omitempty"`
}

// EvaluateMergeSafety applies the hard gate, in order:
//
//  1. any high-severity conflict rejects the group outright;
//  2. a single shared club with no high-severity conflict is mergeable;
//  3. anything else requires manual confirmation, never a silent merge.
func EvaluateMergeSafety(contexts []PlayerContext) MergeEvaluation {
	conflicts := DetectConflicts(contexts)
	flags := reviewFlags(contexts)

	for _, c := range conflicts {
		if c.Severity == SeverityHigh {
			return MergeEvaluation{
				SafeToMerge:    false,
				RiskLevel:      SeverityHigh,
				Recommendation: RecommendReject,
				Reason: fmt.Sprintf("players %d and %d active at different clubs (%s, %s) during %s to %s",
					c.PlayerIDA, c.PlayerIDB, c.ClubA, c.ClubB,
					c.OverlapStart.Format("2006-01-02"), c.OverlapEnd.Format("2006-01-02")),
				Flags:     flags,
				Conflicts: conflicts,
			}
		}
	}

	clubs := make(map[string]struct{})
	for _, ctx := range contexts {
		clubs[ctx.ClubName] = struct{}{}
	}

	if len(clubs) == 1 {
		risk := SeverityLow
		for _, c := range conflicts {
			if c.Severity == SeverityMedium {
				risk = SeverityMedium
				break
			}
		}
		return MergeEvaluation{
			SafeToMerge:    true,
			RiskLevel:      risk,
			Recommendation: RecommendMerge,
			CanonicalName:  ChooseCanonicalName(contexts),
			Reason:         "single club, no conflicting simultaneous activity",
			Flags:          flags,
			Conflicts:      conflicts,
		}
	}

	return MergeEvaluation{
		SafeToMerge:    false,
		RiskLevel:      SeverityMedium,
		Recommendation: RecommendReview,
		Reason:         fmt.Sprintf("%d clubs involved without temporal proof either way", len(clubs)),
		Flags:          flags,
		Conflicts:      conflicts,
	}
}

func reviewFlags(contexts []PlayerContext) []string {
	totals := make(map[string]int)
	for _, ctx := range contexts {
		totals[ctx.PlayerName] += ctx.MatchCount
	}

	var flags []string
	if len(totals) > 1 {
		minCount, maxCount := -1, 0
		for _, n := range totals {
			if minCount < 0 || n < minCount {
				minCount = n
			}
			if n > maxCount {
				maxCount = n
			}
		}
		switch {
		case minCount > 0 && maxCount > 5*minCount:
			flags = append(flags, FlagSuspiciousVolume)
		case minCount > 0 && maxCount > 2*minCount:
			flags = append(flags, FlagCautionVolume)
		}
	}

	if len(contexts) > 3*len(totals) {
		flags = append(flags, FlagComplexGroup)
	}
	return flags
}

// ChooseCanonicalName picks the display name for a mergeable group: the
// variant with more words wins, then conventional capitalization, then the
// higher total match count.
func ChooseCanonicalName(contexts []PlayerContext) string {
	totals := make(map[string]int)
	order := make([]string, 0, len(contexts))
	for _, ctx := range contexts {
		if _, seen := totals[ctx.PlayerName]; !seen {
			order = append(order, ctx.PlayerName)
		}
		totals[ctx.PlayerName] += ctx.MatchCount
	}
	if len(order) == 0 {
		return ""
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		aw, bw := len(strings.Fields(a)), len(strings.Fields(b))
		if aw != bw {
			return aw > bw
		}
		ac, bc := properlyCased(a), properlyCased(b)
		if ac != bc {
			return ac
		}
		return totals[a] > totals[b]
	})
	return order[0]
}

// properlyCased reports whether every word starts with an uppercase rune and
// continues in lowercase.
func properlyCased(name string) bool {
	words := strings.Fields(name)
	if len(words) == 0 {
		return false
	}
	for _, word := range words {
		runes := []rune(word)
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes[1:] {
			if unicode.IsUpper(r) {
				return false
			}
		}
	}
	return true
}

package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/goldenstat/identity/internal/domain/identity"
	"github.com/goldenstat/identity/internal/domain/mapping"
	"github.com/goldenstat/identity/internal/domain/participation"
	"github.com/goldenstat/identity/internal/domain/player"
	"github.com/goldenstat/identity/internal/platform/logging"
)

// ResolutionConfig carries the engine thresholds services share.
type ResolutionConfig struct {
	SimilarityThreshold  float64
	MinProposeConfidence int
	ScanMinMatches       int
	ScanWorkers          int
}

func (c ResolutionConfig) withDefaults() ResolutionConfig {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		c.SimilarityThreshold = identity.DefaultSimilarityThreshold
	}
	if c.MinProposeConfidence <= 0 {
		c.MinProposeConfidence = identity.MinProposeConfidence
	}
	if c.ScanMinMatches <= 0 {
		c.ScanMinMatches = 5
	}
	if c.ScanWorkers <= 0 {
		c.ScanWorkers = 4
	}
	return c
}

// ResolutionService turns name variations into proposed sub-match mappings.
// It never confirms anything on its own; accepted candidates become
// `proposed` rows for the operator to confirm.
type ResolutionService struct {
	players    player.Repository
	facts      participation.Repository
	mappings   mapping.Repository
	normalizer *identity.ClubNormalizer
	logger     *logging.Logger
	cfg        ResolutionConfig
}

func NewResolutionService(
	players player.Repository,
	facts participation.Repository,
	mappings mapping.Repository,
	normalizer *identity.ClubNormalizer,
	logger *logging.Logger,
	cfg ResolutionConfig,
) *ResolutionService {
	if normalizer == nil {
		normalizer = identity.NewClubNormalizer(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ResolutionService{
		players:    players,
		facts:      facts,
		mappings:   mappings,
		normalizer: normalizer,
		logger:     logger,
		cfg:        cfg.withDefaults(),
	}
}

// NameAnalysis is the per-name report: where the name was active and whether
// the identities behind it may be merged.
type NameAnalysis struct {
	Name         string                      `json:"name"`
	PlayerIDs    []int64                     `json:"player_ids"`
	SimilarNames []string                    `json:"similar_names,omitempty"`
	Contexts     []identity.PlayerContext    `json:"contexts"`
	Conflicts    []identity.TemporalConflict `json:"conflicts"`
	Evaluation   identity.MergeEvaluation    `json:"evaluation"`
}

// MergeCandidate pairs a queried name with one similar variant and the
// combined-context safety verdict.
type MergeCandidate struct {
	Name        string                   `json:"name"`
	VariantName string                   `json:"variant_name"`
	Similarity  identity.Similarity      `json:"similarity"`
	Contexts    []identity.PlayerContext `json:"contexts"`
	Evaluation  identity.MergeEvaluation `json:"evaluation"`
}

// EvaluationReport buckets candidates by verdict. Evaluate is pure so the
// same candidates always land in the same buckets.
type EvaluationReport struct {
	Accepted    []MergeCandidate `json:"accepted"`
	NeedsReview []MergeCandidate `json:"needs_review"`
	Rejected    []MergeCandidate `json:"rejected"`
}

// Evaluate buckets candidates by the evaluator's recommendation.
func Evaluate(candidates []MergeCandidate) EvaluationReport {
	var report EvaluationReport
	for _, c := range candidates {
		switch c.Evaluation.Recommendation {
		case identity.RecommendMerge:
			report.Accepted = append(report.Accepted, c)
		case identity.RecommendReject:
			report.Rejected = append(report.Rejected, c)
		default:
			report.NeedsReview = append(report.NeedsReview, c)
		}
	}
	return report
}

// ProposeReport is the outcome of one propose run.
type ProposeReport struct {
	Name       string           `json:"name"`
	Candidates []MergeCandidate `json:"candidates"`
	Evaluation EvaluationReport `json:"evaluation"`
	Created    int              `json:"created"`
	Skipped    int              `json:"skipped"`
	DryRun     bool             `json:"dry_run"`
}

func (s *ResolutionService) Analyze(ctx context.Context, name string) (NameAnalysis, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolutionService.Analyze")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return NameAnalysis{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	contexts, err := s.contextsForName(ctx, name)
	if err != nil {
		return NameAnalysis{}, err
	}
	if len(contexts) == 0 {
		return NameAnalysis{}, fmt.Errorf("%w: no participation recorded for name %q", ErrNotFound, name)
	}

	similar, err := s.similarRecordedNames(ctx, name)
	if err != nil {
		return NameAnalysis{}, err
	}

	return NameAnalysis{
		Name:         name,
		PlayerIDs:    playerIDsOf(contexts),
		SimilarNames: similar,
		Contexts:     contexts,
		Conflicts:    identity.DetectConflicts(contexts),
		Evaluation:   identity.EvaluateMergeSafety(contexts),
	}, nil
}

// similarRecordedNames pulls name variants straight from the players table.
// The activity list only covers names with participation rows; a player row
// left behind by ingestion or a finished cleanup still matters as an analysis
// hint and as a merge candidate.
func (s *ResolutionService) similarRecordedNames(ctx context.Context, name string) ([]string, error) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return nil, nil
	}
	patterns := []string{tokens[0] + " %"}
	if len(tokens) > 1 {
		patterns = append(patterns, "% "+tokens[len(tokens)-1])
	}

	seen := map[string]struct{}{name: {}}
	var out []string
	for _, pattern := range patterns {
		matches, err := s.players.ListByNamePattern(ctx, pattern)
		if err != nil {
			return nil, fmt.Errorf("list players matching %q: %w", pattern, err)
		}
		for _, p := range matches {
			if _, ok := seen[p.Name]; ok {
				continue
			}
			seen[p.Name] = struct{}{}
			sim := identity.ScoreSimilarity(name, p.Name, s.cfg.SimilarityThreshold)
			if len(sim.Patterns) == 0 || sim.Confidence < s.cfg.MinProposeConfidence {
				continue
			}
			out = append(out, p.Name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Propose scores every active name against the queried one, evaluates the
// mergeable pairs, and persists proposed mappings for accepted candidates.
func (s *ResolutionService) Propose(ctx context.Context, name string, dryRun bool) (ProposeReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolutionService.Propose")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return ProposeReport{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	candidateNames, err := s.facts.ListNamesWithActivity(ctx, 1)
	if err != nil {
		return ProposeReport{}, fmt.Errorf("list candidate names: %w", err)
	}
	return s.proposeAgainst(ctx, name, candidateNames, dryRun)
}

func (s *ResolutionService) proposeAgainst(ctx context.Context, name string, candidateNames []string, dryRun bool) (ProposeReport, error) {
	contexts, err := s.contextsForName(ctx, name)
	if err != nil {
		return ProposeReport{}, err
	}
	if len(contexts) == 0 {
		return ProposeReport{}, fmt.Errorf("%w: no participation recorded for name %q", ErrNotFound, name)
	}

	variants, err := s.similarRecordedNames(ctx, name)
	if err != nil {
		return ProposeReport{}, err
	}

	report := ProposeReport{Name: name, DryRun: dryRun}
	for _, variant := range mergeNameLists(candidateNames, variants) {
		if variant == name {
			continue
		}
		sim := identity.ScoreSimilarity(name, variant, s.cfg.SimilarityThreshold)
		if len(sim.Patterns) == 0 || sim.Confidence < s.cfg.MinProposeConfidence {
			continue
		}

		variantContexts, err := s.contextsForName(ctx, variant)
		if err != nil {
			return ProposeReport{}, err
		}
		if len(variantContexts) == 0 {
			continue
		}

		combined := append(append([]identity.PlayerContext(nil), contexts...), variantContexts...)
		report.Candidates = append(report.Candidates, MergeCandidate{
			Name:        name,
			VariantName: variant,
			Similarity:  sim,
			Contexts:    combined,
			Evaluation:  identity.EvaluateMergeSafety(combined),
		})
	}

	report.Evaluation = Evaluate(report.Candidates)
	for _, candidate := range report.Evaluation.Accepted {
		created, skipped, err := s.createProposals(ctx, candidate, dryRun)
		if err != nil {
			return ProposeReport{}, err
		}
		report.Created += created
		report.Skipped += skipped
	}

	s.logger.InfoContext(ctx, "propose finished",
		"name", name,
		"candidates", len(report.Candidates),
		"accepted", len(report.Evaluation.Accepted),
		"created", report.Created,
		"skipped", report.Skipped,
		"dry_run", dryRun,
	)
	return report, nil
}

// createProposals writes one proposed mapping per fact of every non-canonical
// player in the candidate group, scoped to exactly the sub-matches that
// justified the decision.
func (s *ResolutionService) createProposals(ctx context.Context, candidate MergeCandidate, dryRun bool) (int, int, error) {
	canonical := candidate.Evaluation.CanonicalName
	if canonical == "" {
		return 0, 0, fmt.Errorf("%w: accepted candidate %q/%q has no canonical name", ErrAmbiguousEvidence, candidate.Name, candidate.VariantName)
	}

	targetID, err := s.canonicalPlayerID(ctx, candidate.Contexts, canonical)
	if err != nil {
		return 0, 0, err
	}

	sourceIDs := make(map[int64]string)
	for _, c := range candidate.Contexts {
		if c.PlayerID != targetID {
			sourceIDs[c.PlayerID] = c.PlayerName
		}
	}

	reason := strings.Join(candidate.Similarity.Patterns, ",")
	notes := strings.Join(candidate.Evaluation.Flags, ",")

	var created, skipped int
	for _, sourceID := range sortedIDs(sourceIDs) {
		refs, err := s.facts.ListRefsByPlayer(ctx, sourceID)
		if err != nil {
			return created, skipped, fmt.Errorf("list facts for player %d: %w", sourceID, err)
		}
		for _, ref := range refs {
			m := mapping.Mapping{
				SubMatchID:        ref.SubMatchID,
				OriginalPlayerID:  sourceID,
				CorrectPlayerID:   targetID,
				CorrectPlayerName: canonical,
				MatchContext:      matchContext(s.normalizer.Normalize(ref.TeamName), ref.Division, ref.Season),
				Confidence:        candidate.Similarity.Confidence,
				MappingReason:     reason,
				Notes:             notes,
				Status:            mapping.StatusProposed,
			}
			if err := m.Validate(); err != nil {
				return created, skipped, fmt.Errorf("%w: %v", ErrValidation, err)
			}
			if dryRun {
				created++
				continue
			}
			inserted, err := s.mappings.InsertIfAbsent(ctx, m)
			if err != nil {
				return created, skipped, fmt.Errorf("insert proposal sub_match=%d player=%d: %w", ref.SubMatchID, sourceID, err)
			}
			if inserted {
				created++
			} else {
				skipped++
			}
		}
	}
	return created, skipped, nil
}

// canonicalPlayerID picks the surviving id for a canonical name: the id with
// the most matches recorded under that exact name.
func (s *ResolutionService) canonicalPlayerID(ctx context.Context, contexts []identity.PlayerContext, canonical string) (int64, error) {
	totals := make(map[int64]int)
	for _, c := range contexts {
		if c.PlayerName == canonical {
			totals[c.PlayerID] += c.MatchCount
		}
	}
	if len(totals) == 0 {
		return 0, fmt.Errorf("%w: no player id recorded under canonical name %q", ErrAmbiguousEvidence, canonical)
	}

	var best int64
	bestCount := -1
	for _, id := range sortedIDs(totals) {
		if totals[id] > bestCount {
			best, bestCount = id, totals[id]
		}
	}

	if _, found, err := s.players.GetByID(ctx, best); err != nil {
		return 0, fmt.Errorf("load canonical player %d: %w", best, err)
	} else if !found {
		return 0, fmt.Errorf("%w: canonical player %d does not exist", ErrValidation, best)
	}
	return best, nil
}

func (s *ResolutionService) contextsForName(ctx context.Context, name string) ([]identity.PlayerContext, error) {
	rows, err := s.facts.SummarizeByPlayerName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("summarize participation for %q: %w", name, err)
	}
	return identity.BuildContexts(rows, s.normalizer), nil
}

const (
	scanStatusProposed = "proposed"
	scanStatusClean    = "clean"
	scanStatusFailed   = "failed"
)

// ScanInput controls the full-dataset candidate scan.
type ScanInput struct {
	MinMatches int
	MaxWorkers int
	DryRun     bool
}

type ScanTaskResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Candidates int    `json:"candidates"`
	Created    int    `json:"created"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

type ScanReport struct {
	NameCount     int              `json:"name_count"`
	ProposedCount int              `json:"proposed_count"`
	CleanCount    int              `json:"clean_count"`
	FailedCount   int              `json:"failed_count"`
	WorkerCount   int              `json:"worker_count"`
	Created       int              `json:"created"`
	Skipped       int              `json:"skipped"`
	DryRun        bool             `json:"dry_run"`
	Tasks         []ScanTaskResult `json:"tasks"`
}

// ProposeAll fans the per-name propose flow out over a worker pool. Failures
// are collected per name; one bad name never aborts the scan.
func (s *ResolutionService) ProposeAll(ctx context.Context, input ScanInput) (ScanReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResolutionService.ProposeAll")
	defer span.End()

	minMatches := input.MinMatches
	if minMatches <= 0 {
		minMatches = s.cfg.ScanMinMatches
	}

	names, err := s.facts.ListNamesWithActivity(ctx, minMatches)
	if err != nil {
		return ScanReport{}, fmt.Errorf("list names with activity: %w", err)
	}
	candidateNames, err := s.facts.ListNamesWithActivity(ctx, 1)
	if err != nil {
		return ScanReport{}, fmt.Errorf("list candidate names: %w", err)
	}

	workerCount := scanWorkerCount(input.MaxWorkers, s.cfg.ScanWorkers, len(names))
	report := ScanReport{
		NameCount:   len(names),
		WorkerCount: workerCount,
		DryRun:      input.DryRun,
		Tasks:       make([]ScanTaskResult, 0, len(names)),
	}
	if len(names) == 0 {
		return report, nil
	}

	results := make(chan ScanTaskResult, len(names))

	var proposedCount atomic.Int32
	var cleanCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return ScanReport{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, name := range names {
		name := name
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := ScanTaskResult{Name: name}

			proposal, err := s.proposeAgainst(ctx, name, candidateNames, input.DryRun)
			switch {
			case err != nil:
				row.Status = scanStatusFailed
				row.Message = err.Error()
				failedCount.Add(1)
			case len(proposal.Candidates) == 0:
				row.Status = scanStatusClean
				cleanCount.Add(1)
			default:
				row.Status = scanStatusProposed
				row.Candidates = len(proposal.Candidates)
				row.Created = proposal.Created
				row.Skipped = proposal.Skipped
				proposedCount.Add(1)
			}
			row.DurationMs = time.Since(start).Milliseconds()

			results <- row
		}); err != nil {
			// In-flight workers keep the pool and the results channel; a
			// rejected submission becomes a failed row instead of an early
			// return that would strand them.
			workers.Done()
			failedCount.Add(1)
			results <- ScanTaskResult{
				Name:    name,
				Status:  scanStatusFailed,
				Message: fmt.Sprintf("submit scan task: %v", err),
			}
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		report.Tasks = append(report.Tasks, row)
		report.Created += row.Created
		report.Skipped += row.Skipped
	}
	sort.SliceStable(report.Tasks, func(i, j int) bool {
		return report.Tasks[i].Name < report.Tasks[j].Name
	})

	report.ProposedCount = int(proposedCount.Load())
	report.CleanCount = int(cleanCount.Load())
	report.FailedCount = int(failedCount.Load())
	return report, nil
}

func scanWorkerCount(requested, configured, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	value := requested
	if value <= 0 {
		value = configured
	}
	if value <= 0 {
		value = 1
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}

// mergeNameLists unions candidate name sources, keeping first-seen order.
func mergeNameLists(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, name := range list {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func playerIDsOf(contexts []identity.PlayerContext) []int64 {
	seen := make(map[int64]struct{}, len(contexts))
	var ids []int64
	for _, c := range contexts {
		if _, ok := seen[c.PlayerID]; ok {
			continue
		}
		seen[c.PlayerID] = struct{}{}
		ids = append(ids, c.PlayerID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func matchContext(club, division, season string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{club, division, season} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " / ")
}

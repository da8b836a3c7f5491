package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goldenstat/identity/internal/domain/identity"
	"github.com/goldenstat/identity/internal/domain/mapping"
	"github.com/goldenstat/identity/internal/domain/player"
	"github.com/goldenstat/identity/internal/infrastructure/repository/memory"
	"github.com/goldenstat/identity/internal/platform/logging"
	"github.com/goldenstat/identity/internal/usecase"
)

type testEnv struct {
	store    *memory.Store
	players  *memory.PlayerRepository
	facts    *memory.ParticipationRepository
	mappings *memory.MappingRepository

	resolution *usecase.ResolutionService
	mapping    *usecase.MappingService
	applier    *usecase.ApplierService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.Seed()
	players := memory.NewPlayerRepository(store)
	facts := memory.NewParticipationRepository(store)
	mappings := memory.NewMappingRepository(store)
	normalizer := identity.NewClubNormalizer(identity.DefaultClubAliases())
	logger := logging.NewNop()

	return &testEnv{
		store:      store,
		players:    players,
		facts:      facts,
		mappings:   mappings,
		resolution: usecase.NewResolutionService(players, facts, mappings, normalizer, logger, usecase.ResolutionConfig{}),
		mapping:    usecase.NewMappingService(mappings, players, logger),
		applier:    usecase.NewApplierService(players, facts, mappings, memory.NewTxManager(store), logger),
	}
}

func TestResolutionService_Analyze(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	analysis, err := env.resolution.Analyze(ctx, "Peter Book")
	require.NoError(t, err)
	require.Equal(t, []int64{3}, analysis.PlayerIDs)
	require.Len(t, analysis.Contexts, 1)
	require.Equal(t, "Oilers", analysis.Contexts[0].ClubName)
	require.Empty(t, analysis.Conflicts)
	require.Equal(t, identity.RecommendMerge, analysis.Evaluation.Recommendation)
}

func TestResolutionService_AnalyzeListsSimilarRecordedNames(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A player row without participation facts never shows up in the
	// activity list but is still a variant worth surfacing.
	env.store.AddPlayer(player.Player{ID: 10, Name: "Johan Karlsson"})

	analysis, err := env.resolution.Analyze(ctx, "Johan")
	require.NoError(t, err)
	require.Contains(t, analysis.SimilarNames, "Johan Lindqvist")
	require.Contains(t, analysis.SimilarNames, "Johan Karlsson")
	require.NotContains(t, analysis.SimilarNames, "Johan")
}

func TestResolutionService_AnalyzeErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.resolution.Analyze(ctx, "  ")
	require.ErrorIs(t, err, usecase.ErrInvalidInput)

	_, err = env.resolution.Analyze(ctx, "Nobody Anywhere")
	require.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestResolutionService_ProposeCaseVariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.resolution.Propose(ctx, "Roger Strömvall", false)
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	require.Equal(t, "ROGER STRÖMVALL", report.Candidates[0].VariantName)
	require.Len(t, report.Evaluation.Accepted, 1)
	require.Equal(t, 2, report.Created)
	require.Equal(t, 0, report.Skipped)

	proposed, err := env.mappings.ListByStatus(ctx, mapping.StatusProposed)
	require.NoError(t, err)
	require.Len(t, proposed, 2)

	subMatches := make(map[int64]struct{})
	for _, m := range proposed {
		require.Equal(t, int64(2), m.OriginalPlayerID)
		require.Equal(t, int64(1), m.CorrectPlayerID)
		require.Equal(t, "Roger Strömvall", m.CorrectPlayerName)
		subMatches[m.SubMatchID] = struct{}{}
	}
	require.Contains(t, subMatches, int64(22))
	require.Contains(t, subMatches, int64(31))

	// Proposals are idempotent on (sub-match, original player).
	rerun, err := env.resolution.Propose(ctx, "Roger Strömvall", false)
	require.NoError(t, err)
	require.Equal(t, 0, rerun.Created)
	require.Equal(t, 2, rerun.Skipped)
}

func TestResolutionService_ProposeDryRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.resolution.Propose(ctx, "Roger Strömvall", true)
	require.NoError(t, err)
	require.True(t, report.DryRun)
	require.Equal(t, 2, report.Created)

	stored, err := env.mappings.List(ctx)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestResolutionService_ProposeRejectsConflictingClubs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.resolution.Propose(ctx, "Peter Book", false)
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	require.Equal(t, "Peter Söron", report.Candidates[0].VariantName)
	require.Len(t, report.Evaluation.Rejected, 1)
	require.Empty(t, report.Evaluation.Accepted)
	require.Equal(t, 0, report.Created)
}

func TestResolutionService_ProposeSendsMultiClubToReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.resolution.Propose(ctx, "Mats Andersson", false)
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	require.Equal(t, "Mats Anderson", report.Candidates[0].VariantName)
	require.Len(t, report.Evaluation.NeedsReview, 1)
	require.Equal(t, 0, report.Created)
}

func TestResolutionService_ProposeScopesToJustifyingSubMatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.resolution.Propose(ctx, "Johan Lindqvist", false)
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)

	proposed, err := env.mappings.ListByStatus(ctx, mapping.StatusProposed)
	require.NoError(t, err)
	require.Len(t, proposed, 1)
	require.Equal(t, int64(72), proposed[0].SubMatchID)
	require.Equal(t, int64(7), proposed[0].OriginalPlayerID)
	require.Equal(t, int64(8), proposed[0].CorrectPlayerID)
	require.Equal(t, identity.PatternSubstring, proposed[0].MappingReason)
	require.Equal(t, "SpikKastarna / 2A / 2024/2025", proposed[0].MatchContext)
}

func TestResolutionService_ProposeAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.resolution.ProposeAll(ctx, usecase.ScanInput{MinMatches: 2, MaxWorkers: 2})
	require.NoError(t, err)
	require.Equal(t, 7, report.NameCount)
	require.Equal(t, 2, report.WorkerCount)
	require.Equal(t, 0, report.FailedCount)

	// The two case-variant scans target the same rows, so one creates and
	// the other skips regardless of worker order.
	require.Equal(t, 3, report.Created)
	require.Equal(t, 2, report.Skipped)

	require.Len(t, report.Tasks, 7)
	require.Equal(t, "Anna Nilsson", report.Tasks[0].Name)
	require.Equal(t, "clean", report.Tasks[0].Status)
	require.Equal(t, 1, report.CleanCount)
	require.Equal(t, 6, report.ProposedCount)
}

func TestResolutionService_ProposeAllDryRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.resolution.ProposeAll(ctx, usecase.ScanInput{MinMatches: 2, DryRun: true})
	require.NoError(t, err)
	require.True(t, report.DryRun)
	require.NotZero(t, report.Created)

	stored, err := env.mappings.List(ctx)
	require.NoError(t, err)
	require.Empty(t, stored)
}

func TestEvaluate_Buckets(t *testing.T) {
	candidates := []usecase.MergeCandidate{
		{VariantName: "a", Evaluation: identity.MergeEvaluation{Recommendation: identity.RecommendMerge}},
		{VariantName: "b", Evaluation: identity.MergeEvaluation{Recommendation: identity.RecommendReview}},
		{VariantName: "c", Evaluation: identity.MergeEvaluation{Recommendation: identity.RecommendReject}},
	}

	report := usecase.Evaluate(candidates)
	require.Len(t, report.Accepted, 1)
	require.Len(t, report.NeedsReview, 1)
	require.Len(t, report.Rejected, 1)
	require.Equal(t, "a", report.Accepted[0].VariantName)
	require.Equal(t, "c", report.Rejected[0].VariantName)
}

package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goldenstat/identity/internal/domain/mapping"
	"github.com/goldenstat/identity/internal/domain/participation"
	"github.com/goldenstat/identity/internal/usecase"
)

func TestApplierService_ResolveDirectOnly(t *testing.T) {
	env := newTestEnv(t)

	ids, err := env.applier.Resolve(context.Background(), "Peter Book")
	require.NoError(t, err)
	require.Equal(t, []int64{3}, ids)
}

func TestApplierService_ResolveIncludesMappingTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inserted, err := env.mappings.InsertIfAbsent(ctx, mapping.Mapping{
		SubMatchID:        22,
		OriginalPlayerID:  2,
		CorrectPlayerID:   1,
		CorrectPlayerName: "ROGER STRÖMVALL",
		Confidence:        90,
		Status:            mapping.StatusConfirmed,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	ids, err := env.applier.Resolve(ctx, "ROGER STRÖMVALL")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, ids)
}

func TestApplierService_ResolveIgnoresProposed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inserted, err := env.mappings.InsertIfAbsent(ctx, mapping.Mapping{
		SubMatchID:        22,
		OriginalPlayerID:  2,
		CorrectPlayerID:   1,
		CorrectPlayerName: "ROGER STRÖMVALL",
		Confidence:        90,
		Status:            mapping.StatusProposed,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	ids, err := env.applier.Resolve(ctx, "ROGER STRÖMVALL")
	require.NoError(t, err)
	require.Equal(t, []int64{2}, ids)
}

func TestApplierService_ResolveRequiresName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.applier.Resolve(context.Background(), "")
	require.ErrorIs(t, err, usecase.ErrInvalidInput)
}

func confirmedJohanMapping(t *testing.T, env *testEnv) int64 {
	t.Helper()
	ctx := context.Background()

	_, err := env.mapping.Create(ctx, johanInput())
	require.NoError(t, err)
	id := onlyMappingID(t, env)
	require.NoError(t, env.mapping.Confirm(ctx, id))
	return id
}

func TestApplierService_Materialize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := confirmedJohanMapping(t, env)

	report, err := env.applier.Materialize(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, report.Examined)
	require.Equal(t, 1, report.Applied)
	require.Equal(t, 0, report.Skipped)

	facts := env.store.Facts()
	require.Contains(t, facts, participation.Fact{SubMatchID: 72, PlayerID: 8, TeamNumber: 2})
	require.NotContains(t, facts, participation.Fact{SubMatchID: 72, PlayerID: 7, TeamNumber: 2})

	m, found, err := env.mappings.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, mapping.StatusApplied, m.Status)
}

func TestApplierService_MaterializeDryRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	confirmedJohanMapping(t, env)

	report, err := env.applier.Materialize(ctx, true)
	require.NoError(t, err)
	require.True(t, report.DryRun)
	require.Equal(t, 1, report.Applied)

	require.Contains(t, env.store.Facts(), participation.Fact{SubMatchID: 72, PlayerID: 7, TeamNumber: 2})
}

func TestApplierService_MaterializeSkipsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := confirmedJohanMapping(t, env)

	// The target player is already recorded in the sub-match slot.
	env.store.AddFact(72, 8, 2)

	report, err := env.applier.Materialize(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 0, report.Applied)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, report.Duplicates)

	// The mapping stays confirmed so resolve keeps honoring it.
	m, _, err := env.mappings.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, mapping.StatusConfirmed, m.Status)
	require.Contains(t, env.store.Facts(), participation.Fact{SubMatchID: 72, PlayerID: 7, TeamNumber: 2})
}

func TestApplierService_MaterializeRerunIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	confirmedJohanMapping(t, env)

	first, err := env.applier.Materialize(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, first.Applied)
	after := env.store.Facts()

	second, err := env.applier.Materialize(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 0, second.Examined)
	require.Equal(t, 0, second.Applied)
	require.Equal(t, after, env.store.Facts())
}

func TestApplierService_MaterializeDryRunSeesAllTeamSlots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	confirmedJohanMapping(t, env)

	// The original player appears on both team slots and the target player
	// already holds the second one.
	env.store.AddFact(72, 7, 1)
	env.store.AddFact(72, 8, 1)

	dry, err := env.applier.Materialize(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 0, dry.Applied)
	require.Equal(t, 1, dry.Skipped)
	require.Equal(t, 1, dry.Duplicates)

	run, err := env.applier.Materialize(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 0, run.Applied)
	require.Equal(t, dry.Skipped, run.Skipped)
	require.Equal(t, dry.Duplicates, run.Duplicates)
}

func TestApplierService_MaterializeSkipsMissingSource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inserted, err := env.mappings.InsertIfAbsent(ctx, mapping.Mapping{
		SubMatchID:        99,
		OriginalPlayerID:  3,
		CorrectPlayerID:   4,
		CorrectPlayerName: "Peter Söron",
		Confidence:        50,
		Status:            mapping.StatusConfirmed,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	report, err := env.applier.Materialize(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 0, report.Applied)
	require.Equal(t, 1, report.Skipped)
	require.Len(t, report.Rows, 1)
	require.Equal(t, "missing_source", report.Rows[0].Reason)
}

func TestApplierService_Reverse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := confirmedJohanMapping(t, env)

	_, err := env.applier.Materialize(ctx, false)
	require.NoError(t, err)

	row, err := env.applier.Reverse(ctx, id, false)
	require.NoError(t, err)
	require.Equal(t, "applied", row.Status)

	facts := env.store.Facts()
	require.Contains(t, facts, participation.Fact{SubMatchID: 72, PlayerID: 7, TeamNumber: 2})
	require.NotContains(t, facts, participation.Fact{SubMatchID: 72, PlayerID: 8, TeamNumber: 2})

	_, found, err := env.mappings.GetByID(ctx, id)
	require.NoError(t, err)
	require.False(t, found)
}

func TestApplierService_ReverseLeavesPreexistingTargetFacts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := confirmedJohanMapping(t, env)

	// A fact the target player held before the rewrite must survive the
	// round trip untouched.
	env.store.AddFact(72, 8, 1)
	before := env.store.Facts()

	_, err := env.applier.Materialize(ctx, false)
	require.NoError(t, err)

	_, err = env.applier.Reverse(ctx, id, false)
	require.NoError(t, err)

	require.ElementsMatch(t, before, env.store.Facts())
	require.Contains(t, env.store.Facts(), participation.Fact{SubMatchID: 72, PlayerID: 8, TeamNumber: 1})
	require.Contains(t, env.store.Facts(), participation.Fact{SubMatchID: 72, PlayerID: 7, TeamNumber: 2})
}

func TestApplierService_ReverseDryRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := confirmedJohanMapping(t, env)

	_, err := env.applier.Materialize(ctx, false)
	require.NoError(t, err)

	row, err := env.applier.Reverse(ctx, id, true)
	require.NoError(t, err)
	require.Equal(t, "would_apply", row.Status)

	m, found, err := env.mappings.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, mapping.StatusApplied, m.Status)
}

func TestApplierService_ReverseErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.applier.Reverse(ctx, 42, false)
	require.ErrorIs(t, err, usecase.ErrNotFound)

	id := confirmedJohanMapping(t, env)
	_, err = env.applier.Reverse(ctx, id, false)
	require.ErrorIs(t, err, usecase.ErrConflict)

	// An applied row without a record of the moved facts cannot be reversed.
	inserted, err := env.mappings.InsertIfAbsent(ctx, mapping.Mapping{
		SubMatchID:        22,
		OriginalPlayerID:  2,
		CorrectPlayerID:   1,
		CorrectPlayerName: "ROGER STRÖMVALL",
		Confidence:        80,
		Status:            mapping.StatusApplied,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	all, err := env.mappings.ListByStatus(ctx, mapping.StatusApplied)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = env.applier.Reverse(ctx, all[0].ID, false)
	require.ErrorIs(t, err, usecase.ErrConflict)
}

func TestApplierService_Dedupe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Duplicate of a seeded row.
	env.store.AddFact(81, 9, 1)
	before := len(env.store.Facts())

	dry, err := env.applier.Dedupe(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 1, dry.Groups)
	require.Equal(t, int64(1), dry.Removed)
	require.Len(t, env.store.Facts(), before)

	report, err := env.applier.Dedupe(ctx, false)
	require.NoError(t, err)
	require.Equal(t, int64(1), report.Removed)
	require.Len(t, env.store.Facts(), before-1)

	duplicates, err := env.facts.ListDuplicates(ctx)
	require.NoError(t, err)
	require.Empty(t, duplicates)
}

func TestApplierService_DedupeClean(t *testing.T) {
	env := newTestEnv(t)

	report, err := env.applier.Dedupe(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 0, report.Groups)
	require.Equal(t, int64(0), report.Removed)
}

func TestApplierService_Verify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	confirmedJohanMapping(t, env)

	report, err := env.applier.Verify(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Checked)
	require.Empty(t, report.Issues)

	_, err = env.applier.Materialize(ctx, false)
	require.NoError(t, err)

	report, err = env.applier.Verify(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Checked)
	require.Empty(t, report.Issues)
}

func TestApplierService_VerifyFlagsMissingFacts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inserted, err := env.mappings.InsertIfAbsent(ctx, mapping.Mapping{
		SubMatchID:        99,
		OriginalPlayerID:  3,
		CorrectPlayerID:   4,
		CorrectPlayerName: "Peter Söron",
		Confidence:        50,
		Status:            mapping.StatusConfirmed,
	})
	require.NoError(t, err)
	require.True(t, inserted)

	report, err := env.applier.Verify(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Checked)
	require.Len(t, report.Issues, 1)
	require.Equal(t, int64(99), report.Issues[0].SubMatchID)
	require.Equal(t, "confirmed", report.Issues[0].Status)
}

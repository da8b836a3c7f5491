package usecase

import (
	"context"

	"github.com/goldenstat/identity/internal/domain/participation"
)

// TxOps is the write surface the applier uses inside one transaction.
// Participation facts are otherwise read-only; every mutation here either
// materializes a confirmed mapping, reverses an applied one, or removes
// duplicate rows an earlier ingestion left behind.
type TxOps interface {
	ListFacts(ctx context.Context, subMatchID, playerID int64) ([]participation.Fact, error)
	FactExists(ctx context.Context, subMatchID, playerID int64, teamNumber int) (bool, error)
	ReassignFact(ctx context.Context, subMatchID, fromPlayerID, toPlayerID int64, teamNumber int) error
	// DeleteDuplicateFacts removes every row matching the fact except the one
	// with the lowest id. Returns the number of rows removed.
	DeleteDuplicateFacts(ctx context.Context, f participation.Fact) (int64, error)
	// MarkMappingApplied sets the mapping to applied and records which team
	// slots the rewrite moved, so a later reversal touches exactly those.
	MarkMappingApplied(ctx context.Context, id int64, teamNumbers []int) error
	DeleteMapping(ctx context.Context, id int64) error
}

// TxManager runs fn atomically. A non-nil error from fn rolls everything back.
type TxManager interface {
	Atomic(ctx context.Context, fn func(ops TxOps) error) error
}

package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goldenstat/identity/internal/domain/mapping"
	"github.com/goldenstat/identity/internal/domain/participation"
	"github.com/goldenstat/identity/internal/domain/player"
	"github.com/goldenstat/identity/internal/platform/logging"
)

// ApplierService reads names through the mapping layer and optionally
// materializes confirmed mappings into the participation facts. Queries work
// identically before and after materialization; rewriting facts only makes
// the corrections visible to tools that bypass resolve.
type ApplierService struct {
	players  player.Repository
	facts    participation.Repository
	mappings mapping.Repository
	tx       TxManager
	logger   *logging.Logger
}

func NewApplierService(
	players player.Repository,
	facts participation.Repository,
	mappings mapping.Repository,
	tx TxManager,
	logger *logging.Logger,
) *ApplierService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ApplierService{
		players:  players,
		facts:    facts,
		mappings: mappings,
		tx:       tx,
		logger:   logger,
	}
}

// Resolve returns every player id the name denotes: players recorded under
// the exact name plus the targets of confirmed and applied mappings carrying
// it as the correct name.
func (s *ApplierService) Resolve(ctx context.Context, name string) ([]int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplierService.Resolve")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	recorded, err := s.players.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get players by name: %w", err)
	}
	mapped, err := s.mappings.TargetIDsForName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get mapping targets by name: %w", err)
	}

	seen := make(map[int64]struct{}, len(recorded)+len(mapped))
	ids := make([]int64, 0, len(recorded)+len(mapped))
	for _, p := range recorded {
		if _, ok := seen[p.ID]; !ok {
			seen[p.ID] = struct{}{}
			ids = append(ids, p.ID)
		}
	}
	for _, id := range mapped {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

const (
	applyStatusApplied       = "applied"
	applyStatusSkipped       = "skipped"
	applyStatusWouldApply    = "would_apply"
	applyStatusMissingSource = "missing_source"
	applyStatusDuplicate     = "duplicate"
)

// ApplyRow reports what happened to one mapping during materialization.
type ApplyRow struct {
	MappingID  int64  `json:"mapping_id"`
	SubMatchID int64  `json:"sub_match_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// MaterializeReport summarizes one materialize run.
type MaterializeReport struct {
	Examined   int        `json:"examined"`
	Applied    int        `json:"applied"`
	Skipped    int        `json:"skipped"`
	Duplicates int        `json:"duplicates"`
	DryRun     bool       `json:"dry_run"`
	Rows       []ApplyRow `json:"rows"`
}

// Materialize rewrites participation facts for every confirmed mapping inside
// one transaction. A mapping whose rewrite would duplicate a participant is
// skipped and flagged; it stays confirmed so resolve keeps honoring it.
func (s *ApplierService) Materialize(ctx context.Context, dryRun bool) (MaterializeReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplierService.Materialize")
	defer span.End()

	confirmed, err := s.mappings.ListByStatus(ctx, mapping.StatusConfirmed)
	if err != nil {
		return MaterializeReport{}, fmt.Errorf("list confirmed mappings: %w", err)
	}

	report := MaterializeReport{Examined: len(confirmed), DryRun: dryRun}
	if len(confirmed) == 0 {
		return report, nil
	}

	if dryRun {
		for _, m := range confirmed {
			row := ApplyRow{MappingID: m.ID, SubMatchID: m.SubMatchID, Status: applyStatusWouldApply}
			sources, err := s.facts.ListRefsByPlayer(ctx, m.OriginalPlayerID)
			if err != nil {
				return report, fmt.Errorf("list facts for player %d: %w", m.OriginalPlayerID, err)
			}
			teamNumbers := teamNumbersIn(sources, m.SubMatchID)
			if len(teamNumbers) == 0 {
				row.Status = applyStatusSkipped
				row.Reason = applyStatusMissingSource
				report.Skipped++
				report.Rows = append(report.Rows, row)
				continue
			}
			duplicate := false
			for _, teamNumber := range teamNumbers {
				exists, err := s.facts.Exists(ctx, m.SubMatchID, m.CorrectPlayerID, teamNumber)
				if err != nil {
					return report, err
				}
				if exists {
					duplicate = true
					break
				}
			}
			if duplicate {
				row.Status = applyStatusSkipped
				row.Reason = fmt.Sprintf("%s: %v", applyStatusDuplicate, ErrDuplicateParticipation)
				report.Skipped++
				report.Duplicates++
			} else {
				report.Applied++
			}
			report.Rows = append(report.Rows, row)
		}
		return report, nil
	}

	err = s.tx.Atomic(ctx, func(ops TxOps) error {
		for _, m := range confirmed {
			row := ApplyRow{MappingID: m.ID, SubMatchID: m.SubMatchID, Status: applyStatusApplied}

			facts, err := ops.ListFacts(ctx, m.SubMatchID, m.OriginalPlayerID)
			if err != nil {
				return err
			}
			if len(facts) == 0 {
				row.Status = applyStatusSkipped
				row.Reason = applyStatusMissingSource
				report.Skipped++
				report.Rows = append(report.Rows, row)
				continue
			}

			teamNumbers := make([]int, 0, len(facts))
			for _, fact := range facts {
				teamNumbers = append(teamNumbers, fact.TeamNumber)
			}

			duplicate := false
			for _, teamNumber := range teamNumbers {
				exists, err := ops.FactExists(ctx, m.SubMatchID, m.CorrectPlayerID, teamNumber)
				if err != nil {
					return err
				}
				if exists {
					duplicate = true
					break
				}
			}
			if duplicate {
				row.Status = applyStatusSkipped
				row.Reason = fmt.Sprintf("%s: %v", applyStatusDuplicate, ErrDuplicateParticipation)
				report.Skipped++
				report.Duplicates++
				report.Rows = append(report.Rows, row)
				continue
			}

			for _, teamNumber := range teamNumbers {
				if err := ops.ReassignFact(ctx, m.SubMatchID, m.OriginalPlayerID, m.CorrectPlayerID, teamNumber); err != nil {
					return err
				}
			}
			if err := ops.MarkMappingApplied(ctx, m.ID, teamNumbers); err != nil {
				return err
			}
			report.Applied++
			report.Rows = append(report.Rows, row)
		}
		return nil
	})
	if err != nil {
		return MaterializeReport{}, fmt.Errorf("materialize mappings: %w", err)
	}

	s.logger.InfoContext(ctx, "materialize finished",
		"examined", report.Examined,
		"applied", report.Applied,
		"skipped", report.Skipped,
		"duplicates", report.Duplicates,
	)
	return report, nil
}

// Reverse moves exactly the facts materialization reassigned back to the
// original player and deletes the mapping row, in one transaction. Facts the
// correct player held before the rewrite stay where they are.
func (s *ApplierService) Reverse(ctx context.Context, mappingID int64, dryRun bool) (ApplyRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplierService.Reverse")
	defer span.End()

	m, found, err := s.mappings.GetByID(ctx, mappingID)
	if err != nil {
		return ApplyRow{}, fmt.Errorf("get mapping %d: %w", mappingID, err)
	}
	if !found {
		return ApplyRow{}, fmt.Errorf("%w: mapping %d", ErrNotFound, mappingID)
	}
	if m.Status != mapping.StatusApplied {
		return ApplyRow{}, fmt.Errorf("%w: mapping %d is %s, only applied mappings can be reversed", ErrConflict, mappingID, m.Status)
	}

	if len(m.AppliedTeamNumbers) == 0 {
		return ApplyRow{}, fmt.Errorf("%w: mapping %d records no applied facts to move back", ErrConflict, mappingID)
	}

	row := ApplyRow{MappingID: m.ID, SubMatchID: m.SubMatchID}
	if dryRun {
		row.Status = applyStatusWouldApply
		return row, nil
	}

	err = s.tx.Atomic(ctx, func(ops TxOps) error {
		for _, teamNumber := range m.AppliedTeamNumbers {
			exists, err := ops.FactExists(ctx, m.SubMatchID, m.CorrectPlayerID, teamNumber)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%w: no fact recorded for player %d in sub-match %d team %d", ErrNotFound, m.CorrectPlayerID, m.SubMatchID, teamNumber)
			}
			occupied, err := ops.FactExists(ctx, m.SubMatchID, m.OriginalPlayerID, teamNumber)
			if err != nil {
				return err
			}
			if occupied {
				return fmt.Errorf("%w: sub-match %d already records player %d", ErrDuplicateParticipation, m.SubMatchID, m.OriginalPlayerID)
			}
		}
		for _, teamNumber := range m.AppliedTeamNumbers {
			if err := ops.ReassignFact(ctx, m.SubMatchID, m.CorrectPlayerID, m.OriginalPlayerID, teamNumber); err != nil {
				return err
			}
		}
		return ops.DeleteMapping(ctx, m.ID)
	})
	if err != nil {
		return ApplyRow{}, fmt.Errorf("reverse mapping %d: %w", mappingID, err)
	}

	row.Status = applyStatusApplied
	s.logger.InfoContext(ctx, "mapping reversed", "mapping_id", mappingID, "sub_match_id", m.SubMatchID)
	return row, nil
}

// DedupeReport summarizes one dedupe run.
type DedupeReport struct {
	Groups  int                         `json:"groups"`
	Removed int64                       `json:"removed"`
	DryRun  bool                        `json:"dry_run"`
	Facts   []participation.DuplicateFact `json:"facts,omitempty"`
}

// Dedupe removes duplicate participant rows left behind by earlier
// ingestions, keeping the oldest row of every duplicated group.
func (s *ApplierService) Dedupe(ctx context.Context, dryRun bool) (DedupeReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplierService.Dedupe")
	defer span.End()

	duplicates, err := s.facts.ListDuplicates(ctx)
	if err != nil {
		return DedupeReport{}, fmt.Errorf("list duplicate facts: %w", err)
	}

	report := DedupeReport{Groups: len(duplicates), DryRun: dryRun, Facts: duplicates}
	if dryRun {
		for _, d := range duplicates {
			report.Removed += int64(d.Count - 1)
		}
		return report, nil
	}

	err = s.tx.Atomic(ctx, func(ops TxOps) error {
		for _, d := range duplicates {
			removed, err := ops.DeleteDuplicateFacts(ctx, d.Fact)
			if err != nil {
				return err
			}
			report.Removed += removed
		}
		return nil
	})
	if err != nil {
		return DedupeReport{}, fmt.Errorf("dedupe facts: %w", err)
	}

	s.logger.InfoContext(ctx, "dedupe finished", "groups", report.Groups, "removed", report.Removed)
	return report, nil
}

// VerifyIssue is one inconsistency between the mapping store and the facts.
type VerifyIssue struct {
	MappingID  int64  `json:"mapping_id"`
	SubMatchID int64  `json:"sub_match_id"`
	Status     string `json:"status"`
	Problem    string `json:"problem"`
}

// VerifyReport summarizes a consistency check over confirmed and applied
// mappings.
type VerifyReport struct {
	Checked int           `json:"checked"`
	Issues  []VerifyIssue `json:"issues,omitempty"`
}

// Verify checks that every confirmed mapping still has its source facts and
// every applied mapping its target facts.
func (s *ApplierService) Verify(ctx context.Context) (VerifyReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ApplierService.Verify")
	defer span.End()

	var report VerifyReport
	for _, status := range []mapping.Status{mapping.StatusConfirmed, mapping.StatusApplied} {
		items, err := s.mappings.ListByStatus(ctx, status)
		if err != nil {
			return VerifyReport{}, fmt.Errorf("list %s mappings: %w", status, err)
		}
		for _, m := range items {
			report.Checked++

			subject := m.OriginalPlayerID
			problem := "source facts are gone; materialize already ran or ingestion changed"
			if status == mapping.StatusApplied {
				subject = m.CorrectPlayerID
				problem = "target facts are gone; the applied rewrite was undone outside the engine"
			}

			refs, err := s.facts.ListRefsByPlayer(ctx, subject)
			if err != nil {
				return report, fmt.Errorf("list facts for player %d: %w", subject, err)
			}
			if len(teamNumbersIn(refs, m.SubMatchID)) == 0 {
				report.Issues = append(report.Issues, VerifyIssue{
					MappingID:  m.ID,
					SubMatchID: m.SubMatchID,
					Status:     string(status),
					Problem:    problem,
				})
			}
		}
	}
	return report, nil
}

func teamNumbersIn(refs []participation.FactRef, subMatchID int64) []int {
	var out []int
	for _, ref := range refs {
		if ref.SubMatchID == subMatchID {
			out = append(out, ref.TeamNumber)
		}
	}
	return out
}

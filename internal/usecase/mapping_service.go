package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/goldenstat/identity/internal/domain/mapping"
	"github.com/goldenstat/identity/internal/domain/player"
	"github.com/goldenstat/identity/internal/platform/logging"
)

// MappingService is the operator surface over the mapping store: manual
// creation, confirmation, rejection, listing, and export.
type MappingService struct {
	mappings mapping.Repository
	players  player.Repository
	validate *validator.Validate
	logger   *logging.Logger
}

func NewMappingService(mappings mapping.Repository, players player.Repository, logger *logging.Logger) *MappingService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &MappingService{
		mappings: mappings,
		players:  players,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateMappingInput is a manual correction entered by the operator.
type CreateMappingInput struct {
	SubMatchID        int64  `json:"sub_match_id" validate:"required,gt=0"`
	OriginalPlayerID  int64  `json:"original_player_id" validate:"required,gt=0"`
	CorrectPlayerID   int64  `json:"correct_player_id" validate:"required,gt=0"`
	CorrectPlayerName string `json:"correct_player_name" validate:"required"`
	MatchContext      string `json:"match_context"`
	Confidence        int    `json:"confidence" validate:"required,min=1,max=100"`
	MappingReason     string `json:"mapping_reason"`
	Notes             string `json:"notes"`
}

func (s *MappingService) Create(ctx context.Context, input CreateMappingInput) (mapping.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MappingService.Create")
	defer span.End()

	if err := s.validate.Struct(input); err != nil {
		return mapping.Mapping{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	m := mapping.Mapping{
		SubMatchID:        input.SubMatchID,
		OriginalPlayerID:  input.OriginalPlayerID,
		CorrectPlayerID:   input.CorrectPlayerID,
		CorrectPlayerName: strings.TrimSpace(input.CorrectPlayerName),
		MatchContext:      strings.TrimSpace(input.MatchContext),
		Confidence:        input.Confidence,
		MappingReason:     strings.TrimSpace(input.MappingReason),
		Notes:             strings.TrimSpace(input.Notes),
		Status:            mapping.StatusProposed,
	}
	if err := m.Validate(); err != nil {
		return mapping.Mapping{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	target, found, err := s.players.GetByID(ctx, m.CorrectPlayerID)
	if err != nil {
		return mapping.Mapping{}, fmt.Errorf("load target player %d: %w", m.CorrectPlayerID, err)
	}
	if !found {
		return mapping.Mapping{}, fmt.Errorf("%w: target player %d does not exist", ErrValidation, m.CorrectPlayerID)
	}
	if target.Name != m.CorrectPlayerName {
		return mapping.Mapping{}, fmt.Errorf("%w: target player %d is named %q, not %q", ErrValidation, target.ID, target.Name, m.CorrectPlayerName)
	}

	inserted, err := s.mappings.InsertIfAbsent(ctx, m)
	if err != nil {
		return mapping.Mapping{}, fmt.Errorf("insert mapping: %w", err)
	}
	if !inserted {
		return mapping.Mapping{}, fmt.Errorf("%w: sub-match %d already has a mapping for player %d", ErrConflict, m.SubMatchID, m.OriginalPlayerID)
	}

	s.logger.InfoContext(ctx, "mapping created",
		"sub_match_id", m.SubMatchID,
		"original_player_id", m.OriginalPlayerID,
		"correct_player_id", m.CorrectPlayerID,
	)
	return m, nil
}

// Confirm promotes a proposed mapping. Confirming a confirmed mapping is a
// no-op so batch runs can be repeated.
func (s *MappingService) Confirm(ctx context.Context, id int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MappingService.Confirm")
	defer span.End()

	m, found, err := s.mappings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get mapping %d: %w", id, err)
	}
	if !found {
		return fmt.Errorf("%w: mapping %d", ErrNotFound, id)
	}

	switch m.Status {
	case mapping.StatusConfirmed:
		return nil
	case mapping.StatusApplied:
		return fmt.Errorf("%w: mapping %d is already applied", ErrConflict, id)
	}

	if _, err := s.mappings.UpdateStatus(ctx, id, mapping.StatusConfirmed); err != nil {
		return fmt.Errorf("confirm mapping %d: %w", id, err)
	}
	return nil
}

// Reject removes a proposed or confirmed mapping. Applied mappings must be
// reversed first so the fact rewrite is undone with them.
func (s *MappingService) Reject(ctx context.Context, id int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MappingService.Reject")
	defer span.End()

	m, found, err := s.mappings.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get mapping %d: %w", id, err)
	}
	if !found {
		return fmt.Errorf("%w: mapping %d", ErrNotFound, id)
	}
	if m.Status == mapping.StatusApplied {
		return fmt.Errorf("%w: mapping %d is applied, reverse it before rejecting", ErrConflict, id)
	}

	if _, err := s.mappings.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete mapping %d: %w", id, err)
	}
	return nil
}

// BulkConfirmReport summarizes a confirm-all run.
type BulkConfirmReport struct {
	MinConfidence int     `json:"min_confidence"`
	Examined      int     `json:"examined"`
	Confirmed     int     `json:"confirmed"`
	BelowCutoff   int     `json:"below_cutoff"`
	DryRun        bool    `json:"dry_run"`
	ConfirmedIDs  []int64 `json:"confirmed_ids"`
}

// ConfirmAll confirms every proposed mapping at or above minConfidence.
func (s *MappingService) ConfirmAll(ctx context.Context, minConfidence int, dryRun bool) (BulkConfirmReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MappingService.ConfirmAll")
	defer span.End()

	if minConfidence < 1 || minConfidence > 100 {
		return BulkConfirmReport{}, fmt.Errorf("%w: min confidence must be within 1-100, got %d", ErrInvalidInput, minConfidence)
	}

	proposed, err := s.mappings.ListByStatus(ctx, mapping.StatusProposed)
	if err != nil {
		return BulkConfirmReport{}, fmt.Errorf("list proposed mappings: %w", err)
	}

	report := BulkConfirmReport{
		MinConfidence: minConfidence,
		Examined:      len(proposed),
		DryRun:        dryRun,
	}
	for _, m := range proposed {
		if m.Confidence < minConfidence {
			report.BelowCutoff++
			continue
		}
		if !dryRun {
			if _, err := s.mappings.UpdateStatus(ctx, m.ID, mapping.StatusConfirmed); err != nil {
				return report, fmt.Errorf("confirm mapping %d: %w", m.ID, err)
			}
		}
		report.Confirmed++
		report.ConfirmedIDs = append(report.ConfirmedIDs, m.ID)
	}

	s.logger.InfoContext(ctx, "bulk confirm finished",
		"examined", report.Examined,
		"confirmed", report.Confirmed,
		"below_cutoff", report.BelowCutoff,
		"dry_run", dryRun,
	)
	return report, nil
}

// List returns mappings, optionally filtered by lifecycle status.
func (s *MappingService) List(ctx context.Context, status string) ([]mapping.Mapping, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MappingService.List")
	defer span.End()

	status = strings.TrimSpace(strings.ToLower(status))
	if status == "" {
		return s.mappings.List(ctx)
	}

	parsed := mapping.Status(status)
	switch parsed {
	case mapping.StatusProposed, mapping.StatusConfirmed, mapping.StatusApplied:
	default:
		return nil, fmt.Errorf("%w: unknown mapping status %q", ErrInvalidInput, status)
	}
	return s.mappings.ListByStatus(ctx, parsed)
}

// MappingRecord is the serialized form of a mapping, shared by the export
// file and the HTTP listing.
type MappingRecord struct {
	ID                int64     `json:"id"`
	SubMatchID        int64     `json:"sub_match_id"`
	OriginalPlayerID  int64     `json:"original_player_id"`
	CorrectPlayerID   int64     `json:"correct_player_id"`
	CorrectPlayerName string    `json:"correct_player_name"`
	MatchContext      string    `json:"match_context,omitempty"`
	Confidence        int       `json:"confidence"`
	MappingReason     string    `json:"mapping_reason,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewMappingRecord(m mapping.Mapping) MappingRecord {
	return MappingRecord{
		ID:                m.ID,
		SubMatchID:        m.SubMatchID,
		OriginalPlayerID:  m.OriginalPlayerID,
		CorrectPlayerID:   m.CorrectPlayerID,
		CorrectPlayerName: m.CorrectPlayerName,
		MatchContext:      m.MatchContext,
		Confidence:        m.Confidence,
		MappingReason:     m.MappingReason,
		Notes:             m.Notes,
		Status:            string(m.Status),
		CreatedAt:         m.CreatedAt,
	}
}

// MappingExport is the JSON document written by Export.
type MappingExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Status     string          `json:"status,omitempty"`
	Total      int             `json:"total"`
	Mappings   []MappingRecord `json:"mappings"`
}

// Export dumps mappings to a JSON file, optionally filtered by status.
func (s *MappingService) Export(ctx context.Context, path, status string) (MappingExport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MappingService.Export")
	defer span.End()

	if strings.TrimSpace(path) == "" {
		return MappingExport{}, fmt.Errorf("%w: export path is required", ErrInvalidInput)
	}

	items, err := s.List(ctx, status)
	if err != nil {
		return MappingExport{}, err
	}

	records := make([]MappingRecord, 0, len(items))
	for _, m := range items {
		records = append(records, NewMappingRecord(m))
	}
	doc := MappingExport{
		ExportedAt: time.Now().UTC(),
		Status:     strings.TrimSpace(strings.ToLower(status)),
		Total:      len(records),
		Mappings:   records,
	}
	payload, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return MappingExport{}, fmt.Errorf("encode mapping export: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return MappingExport{}, fmt.Errorf("write mapping export: %w", err)
	}

	s.logger.InfoContext(ctx, "mappings exported", "path", path, "total", doc.Total)
	return doc, nil
}

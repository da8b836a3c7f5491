package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/goldenstat/identity/internal/platform/logging"
	"github.com/goldenstat/identity/internal/usecase"
)

type Handler struct {
	resolutionService *usecase.ResolutionService
	mappingService    *usecase.MappingService
	applierService    *usecase.ApplierService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	resolutionService *usecase.ResolutionService,
	mappingService *usecase.MappingService,
	applierService *usecase.ApplierService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Handler{
		resolutionService: resolutionService,
		mappingService:    mappingService,
		applierService:    applierService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ResolvePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolvePlayer")
	defer span.End()

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if err := h.validateRequest(ctx, resolveRequest{Name: name}); err != nil {
		writeError(ctx, w, err)
		return
	}

	ids, err := h.applierService.Resolve(ctx, name)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve player failed", "name", name, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolveDTO{Name: name, PlayerIDs: ids})
}

func (h *Handler) AnalyzeName(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AnalyzeName")
	defer span.End()

	name := strings.TrimSpace(r.PathValue("name"))
	analysis, err := h.resolutionService.Analyze(ctx, name)
	if err != nil {
		h.logger.WarnContext(ctx, "analyze name failed", "name", name, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, analysis)
}

func (h *Handler) ProposeForName(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ProposeForName")
	defer span.End()

	name := strings.TrimSpace(r.PathValue("name"))
	dryRun, err := dryRunParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.resolutionService.Propose(ctx, name, dryRun)
	if err != nil {
		h.logger.WarnContext(ctx, "propose failed", "name", name, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) ListMappings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMappings")
	defer span.End()

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	items, err := h.mappingService.List(ctx, status)
	if err != nil {
		h.logger.WarnContext(ctx, "list mappings failed", "status", status, "error", err)
		writeError(ctx, w, err)
		return
	}

	records := make([]usecase.MappingRecord, 0, len(items))
	for _, m := range items {
		records = append(records, usecase.NewMappingRecord(m))
	}

	writeSuccess(ctx, w, http.StatusOK, records)
}

func (h *Handler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMapping")
	defer span.End()

	var input usecase.CreateMappingInput
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}

	created, err := h.mappingService.Create(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "create mapping failed",
			"sub_match_id", input.SubMatchID,
			"original_player_id", input.OriginalPlayerID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, usecase.NewMappingRecord(created))
}

func (h *Handler) ConfirmMapping(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ConfirmMapping")
	defer span.End()

	id, err := mappingIDParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.mappingService.Confirm(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "confirm mapping failed", "mapping_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mappingActionDTO{MappingID: id, Status: "confirmed"})
}

func (h *Handler) RejectMapping(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectMapping")
	defer span.End()

	id, err := mappingIDParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.mappingService.Reject(ctx, id); err != nil {
		h.logger.WarnContext(ctx, "reject mapping failed", "mapping_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mappingActionDTO{MappingID: id, Status: "rejected"})
}

func (h *Handler) MaterializeMappings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MaterializeMappings")
	defer span.End()

	dryRun, err := dryRunParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.applierService.Materialize(ctx, dryRun)
	if err != nil {
		h.logger.ErrorContext(ctx, "materialize failed", "dry_run", dryRun, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) ReverseMapping(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReverseMapping")
	defer span.End()

	id, err := mappingIDParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	dryRun, err := dryRunParam(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	row, err := h.applierService.Reverse(ctx, id, dryRun)
	if err != nil {
		h.logger.WarnContext(ctx, "reverse mapping failed", "mapping_id", id, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, row)
}

func (h *Handler) VerifyMappings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.VerifyMappings")
	defer span.End()

	report, err := h.applierService.Verify(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "verify failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func mappingIDParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("mappingID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid mapping id %q", usecase.ErrInvalidInput, raw)
	}
	return id, nil
}

func dryRunParam(r *http.Request) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("dry_run"))
	if raw == "" {
		return false, nil
	}
	dryRun, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: invalid dry_run value %q", usecase.ErrInvalidInput, raw)
	}
	return dryRun, nil
}

type resolveRequest struct {
	Name string `validate:"required"`
}

type resolveDTO struct {
	Name      string  `json:"name"`
	PlayerIDs []int64 `json:"player_ids"`
}

type mappingActionDTO struct {
	MappingID int64  `json:"mapping_id"`
	Status    string `json:"status"`
}

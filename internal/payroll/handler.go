package payroll

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/activity"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// TaskEnqueuer hands pay-run processing off to the background worker.
type TaskEnqueuer interface {
	EnqueuePayRunProcess(ctx context.Context, runID int64) error
}

// IdempotencyStore guards retried process requests. Satisfied by
// shared.IdempotencyStore.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler wires HTTP endpoints for the payroll module.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	activity    *activity.Logger
	idempotency IdempotencyStore
	enqueuer    TaskEnqueuer
	validate    *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, activityLog *activity.Logger, idempotency IdempotencyStore, enqueuer TaskEnqueuer) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		activity:    activityLog,
		idempotency: idempotency,
		enqueuer:    enqueuer,
		validate:    validator.New(),
	}
}

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/runs", h.listRuns)
	r.Post("/runs", h.createRun)
	r.Get("/runs/{id}", h.getRun)
	r.Get("/runs/{id}/payslips", h.listPayslips)
	r.Post("/runs/{id}/process", h.processRun)
}

type createRunRequest struct {
	Period string `json:"period" validate:"required"`
}

type payslipResponse struct {
	ID           int64   `json:"id"`
	EmployeeID   int64   `json:"employeeId"`
	Gross        float64 `json:"gross"`
	Deductions   float64 `json:"deductions"`
	Net          float64 `json:"net"`
	NetFormatted string  `json:"netFormatted"`
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.service.ListRuns(r.Context())
	if err != nil {
		h.logger.Error("list pay runs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": runs})
}

func (h *Handler) createRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user := shared.UserFromContext(r.Context())
	var startedBy int64
	if user != nil {
		startedBy = user.ID
	}
	run, err := h.service.CreateRun(r.Context(), req.Period, startedBy)
	if err != nil {
		if errors.Is(err, ErrDuplicatePeriod) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.logger.Error("create pay run", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	h.record(r, "payrun.create", strconv.FormatInt(run.ID, 10))
	httpx.JSON(w, http.StatusCreated, run)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}
	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "pay run not found")
			return
		}
		h.logger.Error("get pay run", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, run)
}

func (h *Handler) listPayslips(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}
	slips, err := h.service.ListPayslips(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "pay run not found")
			return
		}
		h.logger.Error("list payslips", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := make([]payslipResponse, 0, len(slips))
	for _, slip := range slips {
		resp = append(resp, payslipResponse{
			ID:           slip.ID,
			EmployeeID:   slip.EmployeeID,
			Gross:        slip.Gross,
			Deductions:   slip.Deductions,
			Net:          slip.Net,
			NetFormatted: FormatAmount(slip.Net),
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": resp})
}

// processRun enqueues the batch for the worker. An Idempotency-Key header
// lets clients retry the request without double-processing.
func (h *Handler) processRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}
	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "pay run not found")
			return
		}
		h.logger.Error("get pay run", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if run.Status != RunStatusDraft {
		httpx.Problem(w, http.StatusConflict, "Conflict", "pay run is not in draft status")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key != "" {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "payroll"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "already enqueued"})
				return
			}
			h.logger.Error("idempotency check", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
	}

	if err := h.enqueuer.EnqueuePayRunProcess(r.Context(), id); err != nil {
		h.logger.Error("enqueue pay run", slog.Int64("run_id", id), slog.Any("error", err))
		// Release the key so the client's retry is not swallowed as a
		// duplicate of a task that never made it onto the queue.
		if key != "" {
			if derr := h.idempotency.Delete(r.Context(), key); derr != nil {
				h.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", derr))
			}
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not enqueue pay run")
		return
	}
	h.record(r, "payrun.process", strconv.FormatInt(id, 10))
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "processing enqueued"})
}

func (h *Handler) runID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid pay run id")
		return 0, false
	}
	return id, true
}

func (h *Handler) record(r *http.Request, action, entityID string) {
	user := shared.UserFromContext(r.Context())
	if user == nil {
		return
	}
	entry := activity.Entry{ActorID: user.ID, Action: action, Entity: "payroll", EntityID: entityID}
	if err := h.activity.Record(r.Context(), entry); err != nil {
		h.logger.Warn("record activity", slog.String("action", action), slog.Any("error", err))
	}
}

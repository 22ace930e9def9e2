package employees

import (
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

// Handler wires HTTP endpoints for the employees module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	activity *activity.Logger
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, activityLog *activity.Logger) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		activity: activityLog,
		validate: validator.New(),
	}
}

// MountRoutes registers employee routes. Authorization is applied by the
// caller via the module guard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.deactivate)
}

type employeeRequest struct {
	EmployeeNo string  `json:"employeeNo" validate:"required"`
	FirstName  string  `json:"firstName" validate:"required"`
	LastName   string  `json:"lastName" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	BaseSalary float64 `json:"baseSalary" validate:"gte=0"`
}

type employeeResponse struct {
	ID         int64   `json:"id"`
	EmployeeNo string  `json:"employeeNo"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	BaseSalary float64 `json:"baseSalary"`
	IsActive   bool    `json:"isActive"`
}

func toResponse(e Employee) employeeResponse {
	return employeeResponse{
		ID:         e.ID,
		EmployeeNo: e.EmployeeNo,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Department: e.Department,
		Position:   e.Position,
		BaseSalary: e.BaseSalary,
		IsActive:   e.IsActive,
	}
}

type listResponse struct {
	Items      []employeeResponse `json:"items"`
	Pagination shared.Pagination  `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	items, pagination, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list employees", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := listResponse{Items: make([]employeeResponse, 0, len(items)), Pagination: pagination}
	for _, e := range items {
		resp.Items = append(resp.Items, toResponse(e))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid employee id")
		return
	}
	emp, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "employee not found")
			return
		}
		h.logger.Error("get employee", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(*emp))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), Employee{
		EmployeeNo: req.EmployeeNo,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Department: req.Department,
		Position:   req.Position,
		BaseSalary: req.BaseSalary,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateNo) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
			return
		}
		h.logger.Error("create employee", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "employee.create", strconv.FormatInt(created.ID, 10), nil)
	httpx.JSON(w, http.StatusCreated, toResponse(*created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid employee id")
		return
	}
	var req employeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), Employee{
		ID:         id,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Department: req.Department,
		Position:   req.Position,
		BaseSalary: req.BaseSalary,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "employee not found")
			return
		}
		h.logger.Error("update employee", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "employee.update", strconv.FormatInt(id, 10), nil)
	httpx.JSON(w, http.StatusOK, toResponse(*updated))
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid employee id")
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "employee not found")
			return
		}
		h.logger.Error("deactivate employee", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "employee.deactivate", strconv.FormatInt(id, 10), nil)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) record(r *http.Request, action, entityID string, meta map[string]any) {
	user := shared.UserFromContext(r.Context())
	if user == nil {
		return
	}
	entry := activity.Entry{ActorID: user.ID, Action: action, Entity: "employee", EntityID: entityID, Meta: meta}
	if err := h.activity.Record(r.Context(), entry); err != nil {
		h.logger.Warn("record activity", slog.String("action", action), slog.Any("error", err))
	}
}

package httpapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/domain"
)

type Handler struct {
	svc Services
}

func pathInt(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

func pathString(r *http.Request, name string) (string, error) {
	s, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil || s == "" {
		return "", domain.NewValidationError(name, "is required")
	}
	return s, nil
}

// =============================================================================
// SESSION
// =============================================================================

func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Session.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req contract.OpenSessionRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.svc.Session.Open(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) MergeSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Session.Merge(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Session.Discard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// READS
// =============================================================================

func (h *Handler) Grid(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Query.Grid(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Query.Groups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Query.Employees(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Query.Projects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListBudgetLines(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Query.BudgetLines(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, domain.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	entries, err := h.svc.History.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// =============================================================================
// EDITS
// =============================================================================

func (h *Handler) SetEffort(w http.ResponseWriter, r *http.Request) {
	var req contract.SetEffortRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Edit.SetEffort(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddAllocationLine(w http.ResponseWriter, r *http.Request) {
	var req contract.AddAllocationLineRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	line, err := h.svc.Edit.AddAllocationLine(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract.AllocationLineViewOf(line))
}

func (h *Handler) RemoveAllocationLine(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Edit.RemoveAllocationLine(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddGroup(w http.ResponseWriter, r *http.Request) {
	var req contract.AddGroupRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	g, err := h.svc.Edit.AddGroup(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract.GroupViewOf(g))
}

func (h *Handler) AddEmployee(w http.ResponseWriter, r *http.Request) {
	var req contract.AddEmployeeRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	e, err := h.svc.Edit.AddEmployee(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract.EmployeeViewOf(e))
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	name, err := pathString(r, "name")
	if err != nil {
		writeError(w, err)
		return
	}
	var req contract.UpdateEmployeeRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	req.Name = name
	e, err := h.svc.Edit.UpdateEmployee(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.EmployeeViewOf(e))
}

func (h *Handler) AddProject(w http.ResponseWriter, r *http.Request) {
	var req contract.AddProjectRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.svc.Edit.AddProject(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract.ProjectViewOf(p))
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req contract.UpdateProjectRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	req.ID = id
	p, err := h.svc.Edit.UpdateProject(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.ProjectViewOf(p))
}

func (h *Handler) AddBudgetLine(w http.ResponseWriter, r *http.Request) {
	var req contract.AddBudgetLineRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	b, err := h.svc.Edit.AddBudgetLine(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract.BudgetLineViewOf(b))
}

func (h *Handler) UpdateBudgetLine(w http.ResponseWriter, r *http.Request) {
	code, err := pathString(r, "code")
	if err != nil {
		writeError(w, err)
		return
	}
	var req contract.UpdateBudgetLineRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	req.Code = code
	b, err := h.svc.Edit.UpdateBudgetLine(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.BudgetLineViewOf(b))
}

func (h *Handler) ReassignBudgetLine(w http.ResponseWriter, r *http.Request) {
	code, err := pathString(r, "code")
	if err != nil {
		writeError(w, err)
		return
	}
	var req contract.ReassignBudgetLineRequest
	if err := decode(r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	req.Code = code
	b, err := h.svc.Edit.ReassignBudgetLine(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.BudgetLineViewOf(b))
}

func (h *Handler) FixTotals(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Reconcile.FixTotals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// BACKUPS
// =============================================================================

func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Backup.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type revertRequest struct {
	Name string `json:"name,omitempty"`
}

func (h *Handler) RevertBackup(w http.ResponseWriter, r *http.Request) {
	var req revertRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, err)
		return
	}
	b, err := h.svc.Backup.Revert(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type pruneRequest struct {
	Keep int `json:"keep,omitempty"`
}

func (h *Handler) PruneBackups(w http.ResponseWriter, r *http.Request) {
	var req pruneRequest
	if err := decode(r, &req, true); err != nil {
		writeError(w, err)
		return
	}
	resp, err := h.svc.Backup.Prune(r.Context(), req.Keep)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

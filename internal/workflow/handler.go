package workflow

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dimasprabowo/procurement-management/internal/auth"
	"github.com/dimasprabowo/procurement-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateWorkflow(creatorID int64, dto CreateWorkflowDTO) (*Workflow, error)
	GetWorkflow(id int64) (*Workflow, error)
	ListWorkflows(limit, offset int) ([]*Workflow, error)
	AssignUser(workflowID int64, dto AssignUserDTO) error
	ConfigureApprovalGroup(workflowID int64, dto ApprovalGroupDTO) (*ApprovalGroup, error)
	ListApprovalGroups(workflowID int64) ([]*ApprovalGroup, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     service,
	}
}

func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateWorkflowDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateWorkflow: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wf, err := h.Service.CreateWorkflow(user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateWorkflow: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, wf)
}

func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID, err := h.workflowID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid workflow ID")
		return
	}

	wf, err := h.Service.GetWorkflow(workflowID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, wf)
}

func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r)

	workflows, err := h.Service.ListWorkflows(limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"workflows": workflows,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *Handler) AssignUser(w http.ResponseWriter, r *http.Request) {
	workflowID, err := h.workflowID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid workflow ID")
		return
	}

	var dto AssignUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.AssignUser(workflowID, dto); err != nil {
		h.Logger.Error("AssignUser: service error", "error", err, "workflow_id", workflowID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]string{"status": "assigned"})
}

func (h *Handler) ConfigureApprovalGroup(w http.ResponseWriter, r *http.Request) {
	workflowID, err := h.workflowID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid workflow ID")
		return
	}

	var dto ApprovalGroupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := h.Service.ConfigureApprovalGroup(workflowID, dto)
	if err != nil {
		h.Logger.Error("ConfigureApprovalGroup: service error", "error", err, "workflow_id", workflowID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, group)
}

func (h *Handler) ListApprovalGroups(w http.ResponseWriter, r *http.Request) {
	workflowID, err := h.workflowID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid workflow ID")
		return
	}

	groups, err := h.Service.ListApprovalGroups(workflowID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"approval_groups": groups})
}

func (h *Handler) workflowID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

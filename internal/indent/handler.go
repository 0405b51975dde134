package indent

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dimasprabowo/procurement-management/internal/auth"
	"github.com/dimasprabowo/procurement-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateIndent(userID int64, dto CreateIndentDTO) (*Indent, error)
	UpdateIndentDetails(userID, indentID int64, dto UpdateIndentDTO) (*Indent, error)
	UpdateIndentStatus(userID, indentID int64, dto UpdateStatusDTO) (*Indent, error)
	GenerateRFP(userID, indentID int64) (*Indent, string, error)
	GetIndentByID(indentID, userID int64) (*Indent, error)
	GetUserIndents(userID int64, limit, offset int) ([]*Indent, error)
	GetAllIndents(limit, offset int) ([]*Indent, error)
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

func (h *Handler) CreateIndent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateIndent: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateIndentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateIndent: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ind, err := h.Service.CreateIndent(user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateIndent: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateIndent: indent created",
		"indent_id", ind.ID,
		"user_id", user.ID,
		"workflow_id", ind.WorkflowID)

	h.WriteJSON(w, http.StatusCreated, ind)
}

func (h *Handler) GetIndent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	indentID, err := h.indentID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid indent ID")
		return
	}

	ind, err := h.Service.GetIndentByID(indentID, user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ind)
}

func (h *Handler) GetUserIndents(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := transport.Pagination(r)

	indents, err := h.Service.GetUserIndents(user.ID, limit, offset)
	if err != nil {
		h.Logger.Error("GetUserIndents: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"indents": indents,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) GetAllIndents(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r)

	indents, err := h.Service.GetAllIndents(limit, offset)
	if err != nil {
		h.Logger.Error("GetAllIndents: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"indents": indents,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) UpdateIndentDetails(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	indentID, err := h.indentID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid indent ID")
		return
	}

	var dto UpdateIndentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateIndentDetails: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ind, err := h.Service.UpdateIndentDetails(user.ID, indentID, dto)
	if err != nil {
		h.Logger.Error("UpdateIndentDetails: service error", "error", err, "indent_id", indentID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ind)
}

func (h *Handler) UpdateIndentStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	indentID, err := h.indentID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid indent ID")
		return
	}

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateIndentStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ind, err := h.Service.UpdateIndentStatus(user.ID, indentID, dto)
	if err != nil {
		h.Logger.Error("UpdateIndentStatus: service error", "error", err, "indent_id", indentID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("UpdateIndentStatus: status updated",
		"indent_id", indentID,
		"status", ind.Status,
		"actor_id", user.ID)

	h.WriteJSON(w, http.StatusOK, ind)
}

func (h *Handler) GenerateRFP(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	indentID, err := h.indentID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid indent ID")
		return
	}

	ind, document, err := h.Service.GenerateRFP(user.ID, indentID)
	if err != nil {
		h.Logger.Error("GenerateRFP: service error", "error", err, "indent_id", indentID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"indent":     ind,
		"rfp_number": ind.RFPNumber,
		"document":   document,
	})
}

func (h *Handler) indentID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

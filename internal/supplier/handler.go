package supplier

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dimasprabowo/procurement-management/internal/auth"
	"github.com/dimasprabowo/procurement-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateSupplier(userID int64, dto CreateSupplierDTO) (*Supplier, error)
	UpdateStage(userID, supplierID int64, dto UpdateStageDTO) (*Supplier, error)
	UpdateSupplier(userID, supplierID int64, dto UpdateSupplierDTO) (*Supplier, error)
	GetSupplierByID(supplierID int64) (*Supplier, error)
	GetAllSuppliers(limit, offset int) ([]*Supplier, error)
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

func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateSupplierDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateSupplier: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sup, err := h.Service.CreateSupplier(user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateSupplier: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, sup)
}

func (h *Handler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	supplierID, err := h.supplierID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid supplier ID")
		return
	}

	sup, err := h.Service.GetSupplierByID(supplierID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sup)
}

func (h *Handler) GetAllSuppliers(w http.ResponseWriter, r *http.Request) {
	limit, offset := transport.Pagination(r)

	suppliers, err := h.Service.GetAllSuppliers(limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *Handler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	supplierID, err := h.supplierID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid supplier ID")
		return
	}

	var dto UpdateStageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateStage: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sup, err := h.Service.UpdateStage(user.ID, supplierID, dto)
	if err != nil {
		h.Logger.Error("UpdateStage: service error", "error", err, "supplier_id", supplierID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sup)
}

func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	supplierID, err := h.supplierID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid supplier ID")
		return
	}

	var dto UpdateSupplierDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateSupplier: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sup, err := h.Service.UpdateSupplier(user.ID, supplierID, dto)
	if err != nil {
		h.Logger.Error("UpdateSupplier: service error", "error", err, "supplier_id", supplierID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, sup)
}

func (h *Handler) supplierID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

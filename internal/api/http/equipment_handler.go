package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"equiprent/internal/domain"
	"equiprent/internal/service"
)

// EquipmentHandler serves the catalog and inventory management.
type EquipmentHandler struct {
	equipment service.EquipmentService
}

func NewEquipmentHandler(equipment service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment}
}

// ListRentable lists equipment open for booking, optionally by category.
func (h *EquipmentHandler) ListRentable(w http.ResponseWriter, r *http.Request) {
	items, err := h.equipment.ListRentable(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEquipmentListResponse(items))
}

// ListAll lists the whole inventory, rented and damaged items included.
func (h *EquipmentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.equipment.ListEquipment(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEquipmentListResponse(items))
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEquipmentID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	equipment, err := h.equipment.GetEquipment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEquipmentResponse(equipment))
}

type addEquipmentRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	DailyRateCents int64  `json:"daily_rate_cents"`
	Condition      string `json:"condition"`
}

func (h *EquipmentHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	equipment, err := h.equipment.AddEquipment(r.Context(), req.Name, req.Description, req.Category, req.DailyRateCents, req.Condition)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newEquipmentResponse(equipment))
}

type updateRateRequest struct {
	DailyRateCents int64 `json:"daily_rate_cents"`
}

func (h *EquipmentHandler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEquipmentID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	equipment, err := h.equipment.UpdateDailyRate(r.Context(), id, req.DailyRateCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEquipmentResponse(equipment))
}

type updateConditionRequest struct {
	Condition string `json:"condition"`
}

func (h *EquipmentHandler) UpdateCondition(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseEquipmentID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateConditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	equipment, err := h.equipment.UpdateCondition(r.Context(), id, req.Condition)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEquipmentResponse(equipment))
}

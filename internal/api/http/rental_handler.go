package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"equiprent/internal/domain"
	"equiprent/internal/service"
)

// RentalHandler serves the authenticated member's rentals.
type RentalHandler struct {
	rentals service.RentalService
}

func NewRentalHandler(rentals service.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

type createRentalRequest struct {
	EquipmentID string `json:"equipment_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	equipmentID, err := domain.ParseEquipmentID(req.EquipmentID)
	if err != nil {
		writeError(w, err)
		return
	}
	start, end, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	rental, err := h.rentals.CreateRental(r.Context(), memberID, equipmentID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRentalResponse(rental))
}

func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	rentals, err := h.rentals.ListMemberRentals(r.Context(), memberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRentalListResponse(rentals))
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	memberID, rentalID, err := rentalRequestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rental, err := h.rentals.GetRental(r.Context(), memberID, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRentalResponse(rental))
}

type returnRentalRequest struct {
	Condition string `json:"condition"`
}

func (h *RentalHandler) Return(w http.ResponseWriter, r *http.Request) {
	memberID, rentalID, err := rentalRequestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req returnRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	rental, err := h.rentals.ReturnRental(r.Context(), memberID, rentalID, req.Condition)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRentalResponse(rental))
}

type extendRentalRequest struct {
	Days int `json:"days"`
}

func (h *RentalHandler) Extend(w http.ResponseWriter, r *http.Request) {
	memberID, rentalID, err := rentalRequestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req extendRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	rental, err := h.rentals.ExtendRental(r.Context(), memberID, rentalID, req.Days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRentalResponse(rental))
}

func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	memberID, rentalID, err := rentalRequestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rental, err := h.rentals.CancelRental(r.Context(), memberID, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRentalResponse(rental))
}

func rentalRequestIDs(r *http.Request) (domain.MemberID, domain.RentalID, error) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		return domain.MemberID{}, domain.RentalID{}, err
	}
	rentalID, err := domain.ParseRentalID(mux.Vars(r)["id"])
	if err != nil {
		return domain.MemberID{}, domain.RentalID{}, err
	}
	return memberID, rentalID, nil
}

// parsePeriod reads the RFC 3339 booking window bounds.
func parsePeriod(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidTimestamp("period_start")
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidTimestamp("period_end")
	}
	return start, end, nil
}

type errInvalidTimestamp string

func (e errInvalidTimestamp) Error() string {
	return string(e) + " must be an RFC 3339 timestamp"
}

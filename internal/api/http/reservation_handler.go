package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"equiprent/internal/domain"
	"equiprent/internal/service"
)

// ReservationHandler serves the authenticated member's reservations.
type ReservationHandler struct {
	reservations service.ReservationService
}

func NewReservationHandler(reservations service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

type createReservationRequest struct {
	EquipmentID string `json:"equipment_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req createReservationRequest
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

	reservation, err := h.reservations.CreateReservation(r.Context(), memberID, equipmentID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReservationResponse(reservation))
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	reservations, err := h.reservations.ListMemberReservations(r.Context(), memberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationListResponse(reservations))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	memberID, reservationID, err := reservationRequestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reservation, err := h.reservations.GetReservation(r.Context(), memberID, reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationResponse(reservation))
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	memberID, reservationID, err := reservationRequestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reservation, err := h.reservations.ConfirmReservation(r.Context(), memberID, reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationResponse(reservation))
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	memberID, reservationID, err := reservationRequestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reservation, err := h.reservations.CancelReservation(r.Context(), memberID, reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationResponse(reservation))
}

// Fulfill converts a confirmed reservation into a live rental at pickup.
func (h *ReservationHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	memberID, reservationID, err := reservationRequestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rental, err := h.reservations.FulfillReservation(r.Context(), memberID, reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newRentalResponse(rental))
}

func reservationRequestIDs(r *http.Request) (domain.MemberID, domain.ReservationID, error) {
	memberID, err := MemberIDFromContext(r.Context())
	if err != nil {
		return domain.MemberID{}, domain.ReservationID{}, err
	}
	reservationID, err := domain.ParseReservationID(mux.Vars(r)["id"])
	if err != nil {
		return domain.MemberID{}, domain.ReservationID{}, err
	}
	return memberID, reservationID, nil
}

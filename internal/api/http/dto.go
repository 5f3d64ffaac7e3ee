package http

import (
	"time"

	"equiprent/internal/domain"
)

type equipmentResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	DailyRateCents  int64  `json:"daily_rate_cents"`
	Condition       string `json:"condition"`
	Available       bool   `json:"available"`
	Rentable        bool   `json:"rentable"`
	CurrentRentalID string `json:"current_rental_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func newEquipmentResponse(e *domain.Equipment) equipmentResponse {
	resp := equipmentResponse{
		ID:             e.ID().String(),
		Name:           e.Name(),
		Description:    e.Description(),
		Category:       e.Category(),
		DailyRateCents: e.DailyRate().Cents(),
		Condition:      string(e.Condition()),
		Available:      e.IsAvailable(),
		Rentable:       e.IsRentable(),
		CreatedAt:      e.CreatedAt().Format(time.RFC3339),
	}
	if rentalID, ok := e.CurrentRentalID(); ok {
		resp.CurrentRentalID = rentalID.String()
	}
	return resp
}

func newEquipmentListResponse(items []*domain.Equipment) []equipmentResponse {
	out := make([]equipmentResponse, len(items))
	for i, e := range items {
		out[i] = newEquipmentResponse(e)
	}
	return out
}

type memberResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Tier          string `json:"tier"`
	Active        bool   `json:"active"`
	ActiveRentals int    `json:"active_rentals"`
	TotalRentals  int    `json:"total_rentals"`
	JoinedAt      string `json:"joined_at"`
}

func newMemberResponse(m *domain.Member) memberResponse {
	return memberResponse{
		ID:            m.ID().String(),
		Name:          m.Name(),
		Email:         m.Email(),
		Tier:          string(m.Tier()),
		Active:        m.IsActive(),
		ActiveRentals: m.ActiveRentals(),
		TotalRentals:  m.TotalRentals(),
		JoinedAt:      m.JoinedAt().Format(time.RFC3339),
	}
}

type rentalResponse struct {
	ID                 string  `json:"id"`
	EquipmentID        string  `json:"equipment_id"`
	MemberID           string  `json:"member_id"`
	PeriodStart        string  `json:"period_start"`
	PeriodEnd          string  `json:"period_end"`
	Status             string  `json:"status"`
	DailyRateCents     int64   `json:"daily_rate_cents"`
	DiscountPercent    int     `json:"discount_percent"`
	BaseCostCents      int64   `json:"base_cost_cents"`
	ExtensionCostCents int64   `json:"extension_cost_cents"`
	LateFeeCents       int64   `json:"late_fee_cents"`
	DamageFeeCents     int64   `json:"damage_fee_cents"`
	TotalCostCents     int64   `json:"total_cost_cents"`
	ConditionOut       string  `json:"condition_out"`
	ReturnCondition    string  `json:"return_condition,omitempty"`
	ReturnedAt         *string `json:"returned_at,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

func newRentalResponse(r *domain.Rental) rentalResponse {
	resp := rentalResponse{
		ID:                 r.ID().String(),
		EquipmentID:        r.EquipmentID().String(),
		MemberID:           r.MemberID().String(),
		PeriodStart:        r.Period().Start().Format(time.RFC3339),
		PeriodEnd:          r.Period().End().Format(time.RFC3339),
		Status:             string(r.Status()),
		DailyRateCents:     r.DailyRate().Cents(),
		DiscountPercent:    r.DiscountPercent(),
		BaseCostCents:      r.BaseCost().Cents(),
		ExtensionCostCents: r.ExtensionCost().Cents(),
		LateFeeCents:       r.LateFee().Cents(),
		DamageFeeCents:     r.DamageFee().Cents(),
		TotalCostCents:     r.TotalCost().Cents(),
		ConditionOut:       string(r.ConditionOut()),
		CreatedAt:          r.CreatedAt().Format(time.RFC3339),
	}
	if condition, ok := r.ReturnedCondition(); ok {
		resp.ReturnCondition = string(condition)
	}
	resp.ReturnedAt = rfc3339OrNil(r.ReturnedAt())
	return resp
}

func newRentalListResponse(items []*domain.Rental) []rentalResponse {
	out := make([]rentalResponse, len(items))
	for i, r := range items {
		out[i] = newRentalResponse(r)
	}
	return out
}

type reservationResponse struct {
	ID          string  `json:"id"`
	EquipmentID string  `json:"equipment_id"`
	MemberID    string  `json:"member_id"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Status      string  `json:"status"`
	RentalID    string  `json:"rental_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ConfirmedAt *string `json:"confirmed_at,omitempty"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
	FulfilledAt *string `json:"fulfilled_at,omitempty"`
	ExpiredAt   *string `json:"expired_at,omitempty"`
}

func newReservationResponse(res *domain.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:          res.ID().String(),
		EquipmentID: res.EquipmentID().String(),
		MemberID:    res.MemberID().String(),
		PeriodStart: res.Period().Start().Format(time.RFC3339),
		PeriodEnd:   res.Period().End().Format(time.RFC3339),
		Status:      string(res.Status()),
		CreatedAt:   res.CreatedAt().Format(time.RFC3339),
		ConfirmedAt: rfc3339OrNil(res.ConfirmedAt()),
		CancelledAt: rfc3339OrNil(res.CancelledAt()),
		FulfilledAt: rfc3339OrNil(res.FulfilledAt()),
		ExpiredAt:   rfc3339OrNil(res.ExpiredAt()),
	}
	if rentalID, ok := res.FulfilledBy(); ok {
		resp.RentalID = rentalID.String()
	}
	return resp
}

func newReservationListResponse(items []*domain.Reservation) []reservationResponse {
	out := make([]reservationResponse, len(items))
	for i, res := range items {
		out[i] = newReservationResponse(res)
	}
	return out
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func rfc3339OrNil(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}

package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"equiprent/internal/security"
	"equiprent/internal/service"
)

// RouterConfig bundles the services and policies the HTTP surface needs.
type RouterConfig struct {
	Auth         service.AuthService
	Members      service.MemberService
	Equipment    service.EquipmentService
	Rentals      service.RentalService
	Reservations service.ReservationService

	Tokens            security.TokenManager
	RequestsPerMinute int
	Burst             int
}

// NewRouter assembles the /api/v1 surface. Browsing the catalog and the
// auth endpoints are public; everything else requires an access token.
func NewRouter(cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", handleHealth).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(requestLogger)
	api.Use(NewRateLimiter(cfg.RequestsPerMinute, cfg.Burst).Throttle)

	authHandler := NewAuthHandler(cfg.Auth, cfg.Members)
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/refresh", authHandler.Refresh).Methods("POST")

	equipmentHandler := NewEquipmentHandler(cfg.Equipment)
	api.HandleFunc("/equipment", equipmentHandler.ListRentable).Methods("GET")
	api.HandleFunc("/equipment/{id}", equipmentHandler.Get).Methods("GET")

	protected := api.PathPrefix("/").Subrouter()
	protected.Use(NewAuthMiddleware(cfg.Tokens).RequireAccess)

	memberHandler := NewMemberHandler(cfg.Members)
	protected.HandleFunc("/members/me", memberHandler.Me).Methods("GET")
	protected.HandleFunc("/members/me", memberHandler.UpdateProfile).Methods("PATCH")
	protected.HandleFunc("/members/me/password", memberHandler.ChangePassword).Methods("PUT")
	protected.HandleFunc("/members/me/tier", memberHandler.UpgradeTier).Methods("POST")
	protected.HandleFunc("/members/me/deactivate", memberHandler.Deactivate).Methods("POST")
	protected.HandleFunc("/members/me/reactivate", memberHandler.Reactivate).Methods("POST")

	protected.HandleFunc("/equipment", equipmentHandler.Add).Methods("POST")
	protected.HandleFunc("/inventory", equipmentHandler.ListAll).Methods("GET")
	protected.HandleFunc("/equipment/{id}/rate", equipmentHandler.UpdateRate).Methods("PATCH")
	protected.HandleFunc("/equipment/{id}/condition", equipmentHandler.UpdateCondition).Methods("PATCH")

	rentalHandler := NewRentalHandler(cfg.Rentals)
	protected.HandleFunc("/rentals", rentalHandler.Create).Methods("POST")
	protected.HandleFunc("/rentals", rentalHandler.List).Methods("GET")
	protected.HandleFunc("/rentals/{id}", rentalHandler.Get).Methods("GET")
	protected.HandleFunc("/rentals/{id}/return", rentalHandler.Return).Methods("POST")
	protected.HandleFunc("/rentals/{id}/extend", rentalHandler.Extend).Methods("POST")
	protected.HandleFunc("/rentals/{id}/cancel", rentalHandler.Cancel).Methods("POST")

	reservationHandler := NewReservationHandler(cfg.Reservations)
	protected.HandleFunc("/reservations", reservationHandler.Create).Methods("POST")
	protected.HandleFunc("/reservations", reservationHandler.List).Methods("GET")
	protected.HandleFunc("/reservations/{id}", reservationHandler.Get).Methods("GET")
	protected.HandleFunc("/reservations/{id}/confirm", reservationHandler.Confirm).Methods("POST")
	protected.HandleFunc("/reservations/{id}/cancel", reservationHandler.Cancel).Methods("POST")
	protected.HandleFunc("/reservations/{id}/fulfill", reservationHandler.Fulfill).Methods("POST")

	return router
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"equiprent/internal/domain"
	"equiprent/internal/logger"
)

// consoleNotifier writes notices to the log. The development default;
// production wires the SendGrid notifier instead.
type consoleNotifier struct{}

func NewConsoleNotifier() Notifier {
	return consoleNotifier{}
}

func (consoleNotifier) NotifyRentalBooked(ctx context.Context, member *domain.Member, equipment *domain.Equipment, rental *domain.Rental) error {
	logger.InfoContext(ctx, "notice: rental booked",
		"email", member.Email(), "equipment", equipment.Name(),
		"period", rental.Period().String(), "total", rental.TotalCost().String())
	return nil
}

func (consoleNotifier) NotifyRentalReturned(ctx context.Context, member *domain.Member, equipment *domain.Equipment, rental *domain.Rental) error {
	logger.InfoContext(ctx, "notice: rental returned",
		"email", member.Email(), "equipment", equipment.Name(),
		"late_fee", rental.LateFee().String(), "damage_fee", rental.DamageFee().String())
	return nil
}

func (consoleNotifier) NotifyRentalOverdue(ctx context.Context, member *domain.Member, rental *domain.Rental, daysOverdue int) error {
	logger.InfoContext(ctx, "notice: rental overdue",
		"email", member.Email(), "rental_id", rental.ID().String(),
		"days_overdue", daysOverdue, "late_fee", rental.LateFee().String())
	return nil
}

func (consoleNotifier) NotifyReservationBooked(ctx context.Context, member *domain.Member, equipment *domain.Equipment, reservation *domain.Reservation) error {
	logger.InfoContext(ctx, "notice: reservation booked",
		"email", member.Email(), "equipment", equipment.Name(),
		"period", reservation.Period().String())
	return nil
}

func (consoleNotifier) NotifyReservationReady(ctx context.Context, member *domain.Member, equipment *domain.Equipment, reservation *domain.Reservation) error {
	logger.InfoContext(ctx, "notice: reservation ready for pickup",
		"email", member.Email(), "equipment", equipment.Name(),
		"period", reservation.Period().String())
	return nil
}

func (consoleNotifier) NotifyReservationExpired(ctx context.Context, member *domain.Member, reservation *domain.Reservation) error {
	logger.InfoContext(ctx, "notice: reservation expired",
		"email", member.Email(), "reservation_id", reservation.ID().String(),
		"period", reservation.Period().String())
	return nil
}

// sendgridNotifier delivers booking notices by email through SendGrid.
type sendgridNotifier struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string) Notifier {
	return &sendgridNotifier{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendgridNotifier) NotifyRentalBooked(ctx context.Context, member *domain.Member, equipment *domain.Equipment, rental *domain.Rental) error {
	subject := fmt.Sprintf("Booking confirmed: %s", equipment.Name())
	body := fmt.Sprintf("Hello %s,\n\nYour rental of %s for %s is confirmed. Total charged: %s.\n\nBest regards,\nThe EquipRent Team",
		member.Name(), equipment.Name(), rental.Period(), rental.TotalCost())
	return s.send(member, subject, body)
}

func (s *sendgridNotifier) NotifyRentalReturned(ctx context.Context, member *domain.Member, equipment *domain.Equipment, rental *domain.Rental) error {
	subject := fmt.Sprintf("Return received: %s", equipment.Name())
	body := fmt.Sprintf("Hello %s,\n\nWe have received your return of %s. Late fee: %s. Damage fee: %s. Final total: %s.\n\nBest regards,\nThe EquipRent Team",
		member.Name(), equipment.Name(), rental.LateFee(), rental.DamageFee(), rental.TotalCost())
	return s.send(member, subject, body)
}

func (s *sendgridNotifier) NotifyRentalOverdue(ctx context.Context, member *domain.Member, rental *domain.Rental, daysOverdue int) error {
	subject := "Your rental is overdue"
	body := fmt.Sprintf("Hello %s,\n\nYour rental was due back on %s and is now %d day(s) overdue. Late fees of %s have accrued and keep growing until the equipment is returned.\n\nBest regards,\nThe EquipRent Team",
		member.Name(), rental.Period().End().Format("Jan 2, 2006"), daysOverdue, rental.LateFee())
	return s.send(member, subject, body)
}

func (s *sendgridNotifier) NotifyReservationBooked(ctx context.Context, member *domain.Member, equipment *domain.Equipment, reservation *domain.Reservation) error {
	subject := fmt.Sprintf("Reservation booked: %s", equipment.Name())
	body := fmt.Sprintf("Hello %s,\n\nWe are holding %s for you over %s. Please confirm so your pickup can go ahead once the period starts.\n\nBest regards,\nThe EquipRent Team",
		member.Name(), equipment.Name(), reservation.Period())
	return s.send(member, subject, body)
}

func (s *sendgridNotifier) NotifyReservationReady(ctx context.Context, member *domain.Member, equipment *domain.Equipment, reservation *domain.Reservation) error {
	subject := fmt.Sprintf("Ready for pickup: %s", equipment.Name())
	body := fmt.Sprintf("Hello %s,\n\nYour reserved %s is ready. Drop by any time before %s to collect it.\n\nBest regards,\nThe EquipRent Team",
		member.Name(), equipment.Name(), reservation.Period().End().Format("Jan 2, 2006"))
	return s.send(member, subject, body)
}

func (s *sendgridNotifier) NotifyReservationExpired(ctx context.Context, member *domain.Member, reservation *domain.Reservation) error {
	subject := "Your reservation has expired"
	body := fmt.Sprintf("Hello %s,\n\nYour reservation for %s lapsed without a pickup and has been released.\n\nBest regards,\nThe EquipRent Team",
		member.Name(), reservation.Period())
	return s.send(member, subject, body)
}

func (s *sendgridNotifier) send(member *domain.Member, subject, plainText string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(member.Name(), member.Email())
	message := mail.NewSingleEmail(from, subject, recipient, plainText, plainText)

	logger.ExternalServiceCall("sendgrid", "send", "to", member.Email(), "subject", subject)
	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", "send", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "send", nil, "status", response.StatusCode)
	return nil
}

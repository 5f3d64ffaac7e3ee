package service

import (
	"context"

	"github.com/google/uuid"

	"equiprent/internal/domain"
	"equiprent/internal/logger"
)

// simulatedPayments approves every charge and refund. Keeps the money
// flow visible in the log until a real processor is wired in.
type simulatedPayments struct{}

func NewSimulatedPayments() PaymentGateway {
	return simulatedPayments{}
}

func (simulatedPayments) Charge(ctx context.Context, memberID domain.MemberID, amount domain.Money, memo string) (string, error) {
	return settle("charge", memberID, amount, memo)
}

func (simulatedPayments) Refund(ctx context.Context, memberID domain.MemberID, amount domain.Money, memo string) (string, error) {
	return settle("refund", memberID, amount, memo)
}

func settle(kind string, memberID domain.MemberID, amount domain.Money, memo string) (string, error) {
	txn := uuid.NewString()
	logger.ExternalServiceCall("payments", kind,
		"txn_id", txn,
		"member_id", memberID.String(),
		"amount", amount.String(),
		"memo", memo,
	)
	logger.ExternalServiceResult("payments", kind, nil, "txn_id", txn)
	return txn, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"centsible/internal/amqp"
	"centsible/internal/core"
	"centsible/internal/storage"
)

// PaymentInput describes a settle-up transfer between two group members.
type PaymentInput struct {
	GroupID     int64
	PayerID     int64
	PayeeID     int64
	Description string
	AmountCents int64
}

// PaymentService records settle-up payments and nets them against the
// pairwise ledger.
type PaymentService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	reporting  cacheInvalidator
}

func NewPaymentService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, reporting cacheInvalidator) *PaymentService {
	return &PaymentService{
		storage:    storage,
		amqpClient: amqpClient,
		reporting:  reporting,
	}
}

// RecordPayment persists the payment and its ledger effect in one
// transaction, then queues the row for export. A payment larger than the
// debt flips the pair's balance direction rather than failing.
func (s *PaymentService) RecordPayment(ctx context.Context, in PaymentInput) (core.Payment, error) {
	if in.Description == "" {
		in.Description = "Settle up"
	}

	payment := core.Payment{
		GroupID:     in.GroupID,
		PayerID:     in.PayerID,
		PayeeID:     in.PayeeID,
		Description: in.Description,
		Amount:      core.Money{Cents: in.AmountCents},
	}
	if err := payment.Validate(); err != nil {
		return core.Payment{}, err
	}

	for _, userID := range []int64{in.PayerID, in.PayeeID} {
		ok, err := s.storage.IsMember(ctx, in.GroupID, userID)
		if err != nil {
			return core.Payment{}, err
		}
		if !ok {
			return core.Payment{}, fmt.Errorf("%w: user %d", ErrNotMember, userID)
		}
	}

	delta, err := core.PaymentDelta(in.GroupID, in.PayerID, in.PayeeID, in.AmountCents)
	if err != nil {
		return core.Payment{}, err
	}

	saved, err := s.storage.CreatePayment(ctx, payment, delta)
	if err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}

	if s.reporting != nil {
		s.reporting.InvalidateUsers(in.PayerID, in.PayeeID)
	}

	if err := s.publishExportMessage(ctx, saved.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"payment_id", saved.ID, "error", err)
	}

	return saved, nil
}

func (s *PaymentService) publishExportMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message")
		return nil
	}
	return s.amqpClient.PublishPaymentExport(ctx, id)
}

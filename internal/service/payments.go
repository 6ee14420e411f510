package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/pkg/api"
)

// RecordPayment stores a repayment one member made to another. Suggested
// settlements only affect balances once they are recorded here.
func (s *ExpenseService) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	slog.Info("RecordPayment request received",
		"trip_id", req.Msg.TripID,
		"from", req.Msg.FromUserID,
		"to", req.Msg.ToUserID,
		"amount", req.Msg.Amount,
	)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	from := strings.TrimSpace(req.Msg.FromUserID)
	to := strings.TrimSpace(req.Msg.ToUserID)
	if from == "" || to == "" {
		return nil, invalidArgument("from_user_id and to_user_id required")
	}
	if from == to {
		return nil, invalidArgument("cannot record a payment to yourself")
	}
	if !trip.HasMember(from) {
		return nil, invalidArgument("payer %q is not a member of this trip", from)
	}
	if !trip.HasMember(to) {
		return nil, invalidArgument("recipient %q is not a member of this trip", to)
	}

	amount, err := parseAmount("amount", req.Msg.Amount)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		TripID:     trip.ID,
		FromUserID: from,
		ToUserID:   to,
		Amount:     amount,
		Currency:   trip.Currency,
		CreatedBy:  callerID,
		Note:       strings.TrimSpace(req.Msg.Note),
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		return nil, storeError("CreatePayment", err, "trip_id", trip.ID)
	}

	slog.Info("Payment recorded",
		"payment_id", payment.ID,
		"trip_id", trip.ID,
		"from", from,
		"to", to,
		"amount", formatAmount(amount),
	)

	return connect.NewResponse(&api.RecordPaymentResponse{Payment: toAPIPayment(payment)}), nil
}

// ListPayments lists a trip's recorded payments, newest first.
func (s *ExpenseService) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	slog.Info("ListPayments request received", "trip_id", req.Msg.TripID)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, err
	}

	payments, err := s.store.ListPaymentsByTrip(ctx, trip.ID)
	if err != nil {
		return nil, storeError("ListPaymentsByTrip", err, "trip_id", trip.ID)
	}

	out := make([]api.Payment, len(payments))
	for i, p := range payments {
		out[i] = toAPIPayment(p)
	}

	return connect.NewResponse(&api.ListPaymentsResponse{Payments: out}), nil
}

// DeletePayment removes a recorded payment, e.g. one entered by mistake.
func (s *ExpenseService) DeletePayment(ctx context.Context, req *connect.Request[api.DeletePaymentRequest]) (*connect.Response[api.DeletePaymentResponse], error) {
	slog.Info("DeletePayment request received", "payment_id", req.Msg.PaymentID)

	if req.Msg.PaymentID == "" {
		return nil, invalidArgument("payment_id required")
	}
	payment, err := s.store.GetPayment(ctx, req.Msg.PaymentID)
	if err != nil {
		return nil, storeError("GetPayment", err, "payment_id", req.Msg.PaymentID)
	}
	if _, err := loadTrip(ctx, s.store, payment.TripID); err != nil {
		return nil, err
	}

	if err := s.store.DeletePayment(ctx, payment.ID); err != nil {
		return nil, storeError("DeletePayment", err, "payment_id", payment.ID)
	}

	slog.Info("Payment deleted", "payment_id", payment.ID, "trip_id", payment.TripID)

	return connect.NewResponse(&api.DeletePaymentResponse{}), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/middleware"
	"github.com/mmynk/tripsplit/internal/models"
	"github.com/mmynk/tripsplit/internal/storage"
	"github.com/mmynk/tripsplit/pkg/api"
	"github.com/mmynk/tripsplit/pkg/api/apiconnect"
)

var _ apiconnect.TripServiceHandler = (*TripService)(nil)

// TripService implements the Connect TripService.
type TripService struct {
	store storage.Store
}

// NewTripService creates a new TripService with the given storage backend.
func NewTripService(store storage.Store) *TripService {
	return &TripService{store: store}
}

// CreateTrip creates a trip. The caller always ends up on the roster.
func (s *TripService) CreateTrip(ctx context.Context, req *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("CreateTrip request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
		"user_id", callerID,
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("name required")
	}
	currency := normalizeCurrency(req.Msg.Currency)
	if currency == "" {
		return nil, invalidArgument("currency required")
	}

	members, err := parseMembers(req.Msg.Members)
	if err != nil {
		return nil, err
	}
	trip := &models.Trip{Name: name, Currency: currency, Members: members}
	if !trip.HasMember(callerID) {
		caller := models.Member{UserID: callerID, DisplayName: middleware.GetDisplayName(ctx)}
		trip.Members = append([]models.Member{caller}, trip.Members...)
	}

	if err := s.store.CreateTrip(ctx, trip); err != nil {
		return nil, storeError("CreateTrip", err)
	}

	slog.Info("Trip created", "trip_id", trip.ID, "members_count", len(trip.Members))

	return connect.NewResponse(&api.CreateTripResponse{Trip: toAPITrip(trip)}), nil
}

// GetTrip retrieves a trip and its roster.
func (s *TripService) GetTrip(ctx context.Context, req *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error) {
	slog.Info("GetTrip request received", "trip_id", req.Msg.TripID)

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetTripResponse{Trip: toAPITrip(trip)}), nil
}

// ListTrips lists the trips the caller is a member of.
func (s *TripService) ListTrips(ctx context.Context, req *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	trips, err := s.store.ListTripsByMember(ctx, callerID)
	if err != nil {
		return nil, storeError("ListTripsByMember", err, "user_id", callerID)
	}

	out := make([]api.Trip, len(trips))
	for i, trip := range trips {
		out[i] = toAPITrip(trip)
	}

	slog.Info("ListTrips successful", "user_id", callerID, "count", len(trips))

	return connect.NewResponse(&api.ListTripsResponse{Trips: out}), nil
}

// AddMembers adds people to the roster. Existing members get their display name refreshed.
func (s *TripService) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	slog.Info("AddMembers request received", "trip_id", req.Msg.TripID, "members_count", len(req.Msg.Members))

	trip, err := loadTrip(ctx, s.store, req.Msg.TripID)
	if err != nil {
		return nil, err
	}

	members, err := parseMembers(req.Msg.Members)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, invalidArgument("at least one member required")
	}

	if err := s.store.AddTripMembers(ctx, trip.ID, members); err != nil {
		return nil, storeError("AddTripMembers", err, "trip_id", trip.ID)
	}

	updated, err := s.store.GetTrip(ctx, trip.ID)
	if err != nil {
		return nil, storeError("GetTrip", err, "trip_id", trip.ID)
	}

	slog.Info("Members added", "trip_id", trip.ID, "members_count", len(updated.Members))

	return connect.NewResponse(&api.AddMembersResponse{Trip: toAPITrip(updated)}), nil
}

// RemoveMember takes someone off the roster. A member who still owes or is
// owed money cannot be removed, since their balance would become unlisted.
func (s *TripService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.RemoveMemberResponse], error) {
	slog.Info("RemoveMember request received", "trip_id", req.Msg.TripID, "member", req.Msg.UserID)

	tripID, userID := req.Msg.TripID, req.Msg.UserID
	if tripID == "" {
		return nil, invalidArgument("trip_id required")
	}

	err := s.store.RemoveTripMember(ctx, tripID, userID, func(snap *storage.TripSnapshot) error {
		if _, err := requireMember(ctx, snap.Trip); err != nil {
			return err
		}
		if !snap.Trip.HasMember(userID) {
			return connect.NewError(connect.CodeNotFound, fmt.Errorf("member %q is not on the roster", userID))
		}
		if b, ok := buildLedger(snap).balanceOf(userID); ok && !b.Balance.Round(calculator.CurrencyPlaces).IsZero() {
			return connect.NewError(connect.CodeFailedPrecondition,
				fmt.Errorf("member %q has an outstanding balance of %s; settle up first", userID, formatAmount(b.Balance)))
		}
		return nil
	})
	if err != nil {
		var connectErr *connect.Error
		if errors.As(err, &connectErr) {
			return nil, connectErr
		}
		return nil, storeError("RemoveTripMember", err, "trip_id", tripID)
	}

	updated, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, storeError("GetTrip", err, "trip_id", tripID)
	}

	slog.Info("Member removed", "trip_id", tripID, "member", userID)

	return connect.NewResponse(&api.RemoveMemberResponse{Trip: toAPITrip(updated)}), nil
}

// parseMembers validates roster input: every member needs an ID and appears once.
func parseMembers(in []api.Member) ([]models.Member, error) {
	seen := make(map[string]bool, len(in))
	members := make([]models.Member, 0, len(in))
	for _, m := range in {
		userID := strings.TrimSpace(m.UserID)
		if userID == "" {
			return nil, invalidArgument("member user_id required")
		}
		if seen[userID] {
			return nil, invalidArgument("member %q listed twice", userID)
		}
		seen[userID] = true
		members = append(members, models.Member{UserID: userID, DisplayName: strings.TrimSpace(m.DisplayName)})
	}
	return members, nil
}

package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// TripService manages trips. Only the owner changes a trip; linked members
// may read it.
type TripService struct {
	store  storage.Store
	logger *slog.Logger
}

func NewTripService(store storage.Store, logger *slog.Logger) *TripService {
	return &TripService{store: store, logger: logger}
}

func NewTripServiceHandler(svc *TripService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, api.TripCreateProcedure, svc.CreateTrip, opts)
	route(mux, api.TripGetProcedure, svc.GetTrip, opts)
	route(mux, api.TripListProcedure, svc.ListTrips, opts)
	route(mux, api.TripAddMemberProcedure, svc.AddTripMember, opts)
	route(mux, api.TripRemoveMemberProcedure, svc.RemoveTripMember, opts)
	route(mux, api.TripDeleteProcedure, svc.DeleteTrip, opts)
	return "/" + api.TripServiceName + "/", mux
}

func (s *TripService) CreateTrip(ctx context.Context, req *connect.Request[api.CreateTripRequest]) (*connect.Response[api.TripResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("name required")
	}
	s.logger.Info("CreateTrip request received", "name", name, "members_count", len(req.Msg.MemberIDs))

	trip := &models.Trip{OwnerID: userID, Name: name, Description: req.Msg.Description}
	for _, id := range req.Msg.MemberIDs {
		friend, err := s.ownFriend(ctx, userID, id)
		if err != nil {
			return nil, err
		}
		trip.Members = append(trip.Members, *friend)
	}

	if err := s.store.CreateTrip(ctx, trip); err != nil {
		s.logger.Error("CreateTrip failed", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Trip created", "trip_id", trip.ID)
	return s.respond(ctx, trip.ID)
}

func (s *TripService) GetTrip(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.TripResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	trip, err := tripForUser(ctx, s.store, req.Msg.ID, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.TripResponse{Trip: toAPITrip(trip)}), nil
}

func (s *TripService) ListTrips(ctx context.Context, _ *connect.Request[api.Empty]) (*connect.Response[api.ListTripsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	trips, err := s.store.ListTripsForUser(ctx, userID)
	if err != nil {
		s.logger.Error("ListTrips failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]api.Trip, len(trips))
	for i := range trips {
		out[i] = toAPITrip(&trips[i])
	}
	s.logger.Info("ListTrips successful", "count", len(out))
	return connect.NewResponse(&api.ListTripsResponse{Trips: out}), nil
}

func (s *TripService) AddTripMember(ctx context.Context, req *connect.Request[api.TripMemberRequest]) (*connect.Response[api.TripResponse], error) {
	trip, err := s.ownedTrip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownFriend(ctx, trip.OwnerID, req.Msg.FriendID); err != nil {
		return nil, err
	}
	if err := s.store.AddTripMember(ctx, trip.ID, req.Msg.FriendID); err != nil {
		return nil, toConnectError(err)
	}
	s.logger.Info("Trip member added", "trip_id", trip.ID, "friend_id", req.Msg.FriendID)
	return s.respond(ctx, trip.ID)
}

// RemoveTripMember drops a member. Their split rows in the trip's expenses
// stay, so the trip ledger keeps balancing.
func (s *TripService) RemoveTripMember(ctx context.Context, req *connect.Request[api.TripMemberRequest]) (*connect.Response[api.TripResponse], error) {
	trip, err := s.ownedTrip(ctx, req.Msg.TripID)
	if err != nil {
		return nil, err
	}
	if err := s.store.RemoveTripMember(ctx, trip.ID, req.Msg.FriendID); err != nil {
		return nil, toConnectError(err)
	}
	s.logger.Info("Trip member removed", "trip_id", trip.ID, "friend_id", req.Msg.FriendID)
	return s.respond(ctx, trip.ID)
}

// DeleteTrip removes a trip together with its expenses.
func (s *TripService) DeleteTrip(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	trip, err := s.ownedTrip(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteTrip(ctx, trip.ID); err != nil {
		s.logger.Error("DeleteTrip failed", "trip_id", trip.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.logger.Info("Trip deleted", "trip_id", trip.ID)
	return connect.NewResponse(&api.Empty{}), nil
}

func (s *TripService) respond(ctx context.Context, tripID string) (*connect.Response[api.TripResponse], error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.TripResponse{Trip: toAPITrip(trip)}), nil
}

func (s *TripService) ownedTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if trip.OwnerID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errPermissionDenied)
	}
	return trip, nil
}

func (s *TripService) ownFriend(ctx context.Context, ownerID, friendID string) (*models.Friend, error) {
	friend, err := s.store.GetFriend(ctx, friendID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if friend.OwnerID != ownerID {
		return nil, invalidArgument("friend %s is not in your friend list", friendID)
	}
	return friend, nil
}

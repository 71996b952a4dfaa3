package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// FriendService manages the caller's friend records.
type FriendService struct {
	store  storage.Store
	logger *slog.Logger
}

func NewFriendService(store storage.Store, logger *slog.Logger) *FriendService {
	return &FriendService{store: store, logger: logger}
}

func NewFriendServiceHandler(svc *FriendService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, api.FriendCreateProcedure, svc.CreateFriend, opts)
	route(mux, api.FriendListProcedure, svc.ListFriends, opts)
	route(mux, api.FriendUpdateProcedure, svc.UpdateFriend, opts)
	route(mux, api.FriendDeleteProcedure, svc.DeleteFriend, opts)
	return "/" + api.FriendServiceName + "/", mux
}

// CreateFriend adds a friend record, linked at once when the email belongs
// to a registered account.
func (s *FriendService) CreateFriend(ctx context.Context, req *connect.Request[api.CreateFriendRequest]) (*connect.Response[api.FriendResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("name required")
	}

	friend := &models.Friend{OwnerID: userID, Name: name, Email: req.Msg.Email}
	if err := s.link(ctx, friend); err != nil {
		return nil, err
	}
	if err := s.store.CreateFriend(ctx, friend); err != nil {
		s.logger.Error("CreateFriend failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Friend created", "friend_id", friend.ID, "linked", friend.Linked())
	return connect.NewResponse(&api.FriendResponse{Friend: toAPIFriend(*friend)}), nil
}

func (s *FriendService) ListFriends(ctx context.Context, _ *connect.Request[api.Empty]) (*connect.Response[api.ListFriendsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	friends, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]api.Friend, len(friends))
	for i, f := range friends {
		out[i] = toAPIFriend(f)
	}
	return connect.NewResponse(&api.ListFriendsResponse{Friends: out}), nil
}

// UpdateFriend renames a friend or changes their email, relinking on change.
func (s *FriendService) UpdateFriend(ctx context.Context, req *connect.Request[api.UpdateFriendRequest]) (*connect.Response[api.FriendResponse], error) {
	friend, err := s.owned(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("name required")
	}

	if !strings.EqualFold(strings.TrimSpace(req.Msg.Email), friend.Email) {
		friend.Email = req.Msg.Email
		friend.LinkedUserID = ""
		if err := s.link(ctx, friend); err != nil {
			return nil, err
		}
	}
	friend.Name = name

	if err := s.store.UpdateFriend(ctx, friend); err != nil {
		s.logger.Error("UpdateFriend failed", "friend_id", friend.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.FriendResponse{Friend: toAPIFriend(*friend)}), nil
}

// DeleteFriend removes a friend and the split rows naming them. Friends who
// paid for an expense cannot be deleted until that expense is.
func (s *FriendService) DeleteFriend(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	friend, err := s.owned(ctx, req.Msg.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteFriend(ctx, friend.ID); err != nil {
		s.logger.Warn("DeleteFriend failed", "friend_id", friend.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.logger.Info("Friend deleted", "friend_id", friend.ID)
	return connect.NewResponse(&api.Empty{}), nil
}

func (s *FriendService) owned(ctx context.Context, id string) (*models.Friend, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	friend, err := s.store.GetFriend(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	if friend.OwnerID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errPermissionDenied)
	}
	return friend, nil
}

// link sets LinkedUserID when the friend's email matches an account other
// than the owner's.
func (s *FriendService) link(ctx context.Context, friend *models.Friend) error {
	if strings.TrimSpace(friend.Email) == "" {
		return nil
	}
	user, err := s.store.GetUserByEmail(ctx, friend.Email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return toConnectError(err)
	case user.ID == friend.OwnerID:
		return invalidArgument("cannot add yourself as a friend")
	}
	friend.LinkedUserID = user.ID
	return nil
}

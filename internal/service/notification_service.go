package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// NotificationService serves the caller's inbox.
type NotificationService struct {
	store  storage.NotificationStore
	logger *slog.Logger
}

func NewNotificationService(store storage.NotificationStore, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger}
}

func NewNotificationServiceHandler(svc *NotificationService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, api.NotificationListProcedure, svc.ListNotifications, opts)
	route(mux, api.NotificationMarkReadProcedure, svc.MarkRead, opts)
	route(mux, api.NotificationMarkAllReadProcedure, svc.MarkAllRead, opts)
	return "/" + api.NotificationServiceName + "/", mux
}

func (s *NotificationService) ListNotifications(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListNotifications(ctx, userID, req.Msg.UnreadOnly)
	if err != nil {
		return nil, toConnectError(err)
	}
	unread, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]api.Notification, len(list))
	for i, n := range list {
		out[i] = notify.ToAPI(n)
	}
	return connect.NewResponse(&api.ListNotificationsResponse{Notifications: out, UnreadCount: unread}), nil
}

// MarkRead marks one of the caller's notifications read. Another user's
// notification is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, req *connect.Request[api.IDRequest]) (*connect.Response[api.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkNotificationRead(ctx, req.Msg.ID, userID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, _ *connect.Request[api.Empty]) (*connect.Response[api.MarkAllReadResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	s.logger.Info("Notifications marked read", "user_id", userID, "count", n)
	return connect.NewResponse(&api.MarkAllReadResponse{Updated: n}), nil
}

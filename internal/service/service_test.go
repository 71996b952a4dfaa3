package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/api"
)

// recordingPublisher captures realtime events instead of delivering them.
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]api.Event
}

func (p *recordingPublisher) Publish(_ context.Context, userID string, event api.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], event)
	return nil
}

func (p *recordingPublisher) count(userID, eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events[userID] {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// failingNotifications is a Store whose notification writes always fail.
type failingNotifications struct {
	storage.Store
}

var errNotificationsDown = errors.New("notifications table unavailable")

func (failingNotifications) CreateNotification(context.Context, *models.Notification) error {
	return errNotificationsDown
}

type testEnv struct {
	t         *testing.T
	url       string
	store     *sqlstore.Store
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

// setupTestServer serves every service over httptest with the production
// interceptors, backed by a temp SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	return setupTestServerWith(t, nil)
}

// setupTestServerWith is setupTestServer with the services' store wrapped
// by wrap. env.store stays the unwrapped database.
func setupTestServerWith(t *testing.T, wrap func(storage.Store) storage.Store) *testEnv {
	t.Helper()

	store, err := sqlstore.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	var svcStore storage.Store = store
	if wrap != nil {
		svcStore = wrap(store)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	m := metrics.New()
	pub := &recordingPublisher{events: make(map[string][]api.Event)}
	notifier := notify.New(svcStore, pub, m, logger)

	opts := connect.WithInterceptors(
		middleware.RequireAuth(jwt, api.PublicProcedures...),
		middleware.LoggingInterceptor(logger),
	)

	mux := http.NewServeMux()
	mux.Handle(NewAuthServiceHandler(NewAuthService(auth.NewPasswordAuthenticator(svcStore), jwt, svcStore, logger), opts))
	mux.Handle(NewFriendServiceHandler(NewFriendService(svcStore, logger), opts))
	mux.Handle(NewTripServiceHandler(NewTripService(svcStore, logger), opts))
	mux.Handle(NewLedgerServiceHandler(NewLedgerService(svcStore, notifier, m, logger), opts))
	mux.Handle(NewBalanceServiceHandler(NewBalanceService(svcStore, notifier, m, logger), opts))
	mux.Handle(NewBudgetServiceHandler(NewBudgetService(svcStore, logger), opts))
	mux.Handle(NewNotificationServiceHandler(NewNotificationService(svcStore, logger), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{t: t, url: server.URL, store: store, publisher: pub, metrics: m}
}

// session is a registered user with clients that send their token.
type session struct {
	userID        string
	auth          *api.AuthClient
	friends       *api.FriendClient
	trips         *api.TripClient
	ledger        *api.LedgerClient
	balances      *api.BalanceClient
	budgets       *api.BudgetClient
	notifications *api.NotificationClient
}

func bearer(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", "Bearer "+token)
			return next(ctx, req)
		}
	}
}

func (e *testEnv) register(name, email string) *session {
	e.t.Helper()

	resp, err := api.NewAuthClient(http.DefaultClient, e.url).Register.CallUnary(context.Background(),
		connect.NewRequest(&api.RegisterRequest{Email: email, DisplayName: name, Password: "password123"}))
	if err != nil {
		e.t.Fatalf("Register %s failed: %v", email, err)
	}

	opt := connect.WithInterceptors(bearer(resp.Msg.Token))
	return &session{
		userID:        resp.Msg.User.ID,
		auth:          api.NewAuthClient(http.DefaultClient, e.url, opt),
		friends:       api.NewFriendClient(http.DefaultClient, e.url, opt),
		trips:         api.NewTripClient(http.DefaultClient, e.url, opt),
		ledger:        api.NewLedgerClient(http.DefaultClient, e.url, opt),
		balances:      api.NewBalanceClient(http.DefaultClient, e.url, opt),
		budgets:       api.NewBudgetClient(http.DefaultClient, e.url, opt),
		notifications: api.NewNotificationClient(http.DefaultClient, e.url, opt),
	}
}

func (s *session) addFriend(t *testing.T, name, email string) api.Friend {
	t.Helper()
	resp, err := s.friends.CreateFriend.CallUnary(context.Background(),
		connect.NewRequest(&api.CreateFriendRequest{Name: name, Email: email}))
	if err != nil {
		t.Fatalf("CreateFriend %s failed: %v", name, err)
	}
	return resp.Msg.Friend
}

func (s *session) saveExpense(t *testing.T, req *api.SaveExpenseRequest) api.ExpenseResponse {
	t.Helper()
	resp, err := s.ledger.SaveExpense.CallUnary(context.Background(), connect.NewRequest(req))
	if err != nil {
		t.Fatalf("SaveExpense %q failed: %v", req.Title, err)
	}
	return *resp.Msg
}

func (s *session) getBalances(t *testing.T, tripID string) api.BalancesResponse {
	t.Helper()
	resp, err := s.balances.GetBalances.CallUnary(context.Background(),
		connect.NewRequest(&api.BalancesRequest{TripID: tripID}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	return *resp.Msg
}

func (s *session) listNotifications(t *testing.T) api.ListNotificationsResponse {
	t.Helper()
	resp, err := s.notifications.ListNotifications.CallUnary(context.Background(),
		connect.NewRequest(&api.ListNotificationsRequest{}))
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	return *resp.Msg
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expectCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got success", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("code = %v, want %v (%v)", got, want, err)
	}
}

func netOf(t *testing.T, resp api.BalancesResponse, participant string) decimal.Decimal {
	t.Helper()
	for _, b := range resp.Balances {
		if b.Participant == participant {
			return b.Net
		}
	}
	t.Fatalf("no balance for %s in %+v", participant, resp.Balances)
	return decimal.Zero
}

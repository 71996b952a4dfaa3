package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/realtime"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/api"
)

func setupTestRouter(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	t.Helper()

	store, err := sqlstore.New(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	hub := realtime.NewHub(m, logger)
	jwt := auth.NewJWTManager("router-secret", time.Hour)
	notifier := notify.New(store, hub, m, logger)

	handler := NewRouter(Deps{
		Services: Services{
			Auth:          service.NewAuthService(auth.NewPasswordAuthenticator(store), jwt, store, logger),
			Friends:       service.NewFriendService(store, logger),
			Trips:         service.NewTripService(store, logger),
			Ledger:        service.NewLedgerService(store, notifier, m, logger),
			Balances:      service.NewBalanceService(store, notifier, m, logger),
			Budgets:       service.NewBudgetService(store, logger),
			Notifications: service.NewNotificationService(store, logger),
		},
		JWT:            jwt,
		Hub:            hub,
		Metrics:        m,
		Logger:         logger,
		AllowedOrigins: []string{"http://app.test"},
		Pinger:         store,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, m
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestRouter_Status(t *testing.T) {
	server, _ := setupTestRouter(t)

	status, body := getJSON(t, server.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["message"] != "Expense Tracker Backend" || body["status"] != "running" {
		t.Errorf("body = %v", body)
	}

	status, body = getJSON(t, server.URL+"/health")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", status, body)
	}
}

func TestRouter_NotFound(t *testing.T) {
	server, _ := setupTestRouter(t)

	status, body := getJSON(t, server.URL+"/no/such/route")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if body["error"] != "Not Found" || body["message"] != "The requested resource was not found" {
		t.Errorf("body = %v", body)
	}
}

func TestRecoverer(t *testing.T) {
	handler := recoverer(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body["success"] != false || body["error"] != "Internal Server Error" || body["message"] != "Something went wrong" {
		t.Errorf("body = %v", body)
	}
}

func TestRouter_ConnectServices(t *testing.T) {
	server, _ := setupTestRouter(t)
	ctx := context.Background()
	authClient := api.NewAuthClient(server.Client(), server.URL)

	reg, err := authClient.Register.CallUnary(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "dana@example.com", DisplayName: "Dana", Password: "long enough",
	}))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = authClient.GetCurrentUser.CallUnary(ctx, connect.NewRequest(&api.Empty{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Fatalf("anonymous GetCurrentUser code = %v, want unauthenticated", connect.CodeOf(err))
	}

	req := connect.NewRequest(&api.Empty{})
	req.Header().Set("Authorization", "Bearer "+reg.Msg.Token)
	me, err := authClient.GetCurrentUser.CallUnary(ctx, req)
	if err != nil {
		t.Fatalf("GetCurrentUser: %v", err)
	}
	if me.Msg.User.DisplayName != "Dana" {
		t.Errorf("user = %+v", me.Msg.User)
	}
}

func TestRouter_Metrics(t *testing.T) {
	server, _ := setupTestRouter(t)
	authClient := api.NewAuthClient(server.Client(), server.URL)
	_, _ = authClient.Login.CallUnary(context.Background(), connect.NewRequest(&api.LoginRequest{
		Email: "nobody@example.com", Password: "whatever1",
	}))

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	want := `splitledger_rpc_requests_total{code="unauthenticated",procedure="` + api.AuthLoginProcedure + `"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics missing %q", want)
	}
}

func TestRouter_WebsocketRequiresToken(t *testing.T) {
	server, _ := setupTestRouter(t)

	status, body := getJSON(t, server.URL+"/ws")
	if status != http.StatusUnauthorized || body["error"] != "missing token" {
		t.Errorf("no token = %d %v", status, body)
	}
	status, body = getJSON(t, server.URL+"/ws?token=garbage")
	if status != http.StatusUnauthorized || body["error"] != "invalid token" {
		t.Errorf("bad token = %d %v", status, body)
	}
}

func TestRouter_WebsocketOrigin(t *testing.T) {
	server, _ := setupTestRouter(t)
	ctx := context.Background()

	reg, err := api.NewAuthClient(server.Client(), server.URL).Register.CallUnary(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "erin@example.com", DisplayName: "Erin", Password: "long enough",
	}))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + reg.Msg.Token

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.test"}})
	if err == nil {
		t.Fatal("foreign origin upgraded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign origin response = %+v, want 403", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://app.test"}})
	if err != nil {
		t.Fatalf("allowed origin: %v", err)
	}
	conn.Close()
}

func TestRouter_BudgetService(t *testing.T) {
	server, _ := setupTestRouter(t)
	ctx := context.Background()

	reg, err := api.NewAuthClient(server.Client(), server.URL).Register.CallUnary(ctx, connect.NewRequest(&api.RegisterRequest{
		Email: "finn@example.com", DisplayName: "Finn", Password: "long enough",
	}))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	budgets := api.NewBudgetClient(server.Client(), server.URL)

	req := connect.NewRequest(&api.Empty{})
	req.Header().Set("Authorization", "Bearer "+reg.Msg.Token)
	resp, err := budgets.ListBudgets.CallUnary(ctx, req)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(resp.Msg.Budgets) != 0 {
		t.Errorf("budgets = %+v, want none", resp.Msg.Budgets)
	}

	_, err = budgets.ListBudgets.CallUnary(ctx, connect.NewRequest(&api.Empty{}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("anonymous ListBudgets code = %v, want unauthenticated", connect.CodeOf(err))
	}
}

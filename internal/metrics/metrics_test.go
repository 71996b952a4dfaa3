package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRPC(t *testing.T) {
	m := New()
	m.ObserveRPC("/splitledger.v1.LedgerService/SaveExpense", "ok", 20*time.Millisecond)
	m.ObserveRPC("/splitledger.v1.LedgerService/SaveExpense", "ok", 10*time.Millisecond)
	m.ObserveRPC("/splitledger.v1.LedgerService/SaveExpense", "invalid_argument", time.Millisecond)

	got := testutil.ToFloat64(m.RPCRequests.WithLabelValues("/splitledger.v1.LedgerService/SaveExpense", "ok"))
	if got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ExpensesSaved.Inc()
	m.NotificationsSent.WithLabelValues("expense").Add(2)

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		"splitledger_expenses_saved_total 1",
		`splitledger_notifications_sent_total{type="expense"} 2`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

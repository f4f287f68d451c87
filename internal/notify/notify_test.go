package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tokopos/internal/domain"
)

func sampleTx() *domain.Transaction {
	return &domain.Transaction{
		ID:          "TOKO1-20260830-101500-a1b2c3",
		StoreID:     "TOKO1",
		CashierName: "Siti",
		Lines: []domain.TransactionLine{
			{LineNo: 1, ItemID: "MKN-01", Name: "Nasi Goreng", Quantity: 2, UnitPrice: 15000, Subtotal: 30000},
			{LineNo: 2, ItemID: "MNM-01", Name: "Es Teh", Quantity: 1, UnitPrice: 5000, Subtotal: 5000},
		},
		Total:    35000,
		Tendered: domain.Tender{Cash: 50000},
		Change:   15000,
	}
}

func TestTelegramSendsFormattedMessage(t *testing.T) {
	received := make(chan map[string]string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		received <- map[string]string{
			"chat_id": r.PostFormValue("chat_id"),
			"text":    r.PostFormValue("text"),
		}
	}))
	defer server.Close()

	notifier := NewTelegramEndpoint(server.URL, "-100123", nil)
	notifier.TransactionCommitted(sampleTx(), false)

	select {
	case form := <-received:
		if form["chat_id"] != "-100123" {
			t.Fatalf("wrong chat id %q", form["chat_id"])
		}
		text := form["text"]
		if !strings.Contains(text, "Nasi Goreng x2 = Rp 30.000") {
			t.Fatalf("message missing line detail: %q", text)
		}
		if !strings.Contains(text, "Total: Rp 35.000") {
			t.Fatalf("message missing total: %q", text)
		}
		if !strings.Contains(text, "Bayar cash: Rp 50.000") {
			t.Fatalf("message missing tender breakdown: %q", text)
		}
		if strings.Contains(text, "Bayar debit") {
			t.Fatalf("zero buckets must be omitted: %q", text)
		}
		if strings.Contains(text, "backup") {
			t.Fatalf("primary commit must not carry the backup note: %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never arrived")
	}
}

func TestTelegramFlagsFallbackCommit(t *testing.T) {
	text := formatMessage(sampleTx(), true)
	if !strings.Contains(text, "menunggu sinkronisasi") {
		t.Fatalf("fallback commit must carry the backup note: %q", text)
	}
}

func TestTelegramFailureDoesNotPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	server.Close()

	notifier := NewTelegramEndpoint(server.URL, "-100123", nil)
	notifier.TransactionCommitted(sampleTx(), false)
	time.Sleep(50 * time.Millisecond)
}

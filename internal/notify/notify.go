// Package notify pushes sale notifications to the store owner's
// Telegram chat. Delivery is best effort: a dead bot never blocks a
// checkout.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tokopos/internal/domain"
	"tokopos/internal/money"
)

type Notifier interface {
	TransactionCommitted(tx *domain.Transaction, fallback bool)
}

type Noop struct{}

func (Noop) TransactionCommitted(_ *domain.Transaction, _ bool) {}

type Telegram struct {
	endpoint string
	chatID   string
	client   *http.Client
	timeout  time.Duration
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		endpoint: "https://api.telegram.org/bot" + botToken + "/sendMessage",
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
		timeout:  5 * time.Second,
	}
}

// NewTelegramEndpoint is used by tests to point at a fake API server.
func NewTelegramEndpoint(endpoint, chatID string, client *http.Client) *Telegram {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Telegram{endpoint: endpoint, chatID: chatID, client: client, timeout: 5 * time.Second}
}

func (t *Telegram) TransactionCommitted(tx *domain.Transaction, fallback bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := t.send(ctx, formatMessage(tx, fallback)); err != nil {
			log.Printf("[notify] WARN: telegram send failed: %v", err)
		}
	}()
}

func (t *Telegram) send(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API status %d", resp.StatusCode)
	}
	return nil
}

func formatMessage(tx *domain.Transaction, fallback bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transaksi %s\n", tx.ID)
	fmt.Fprintf(&b, "Kasir: %s\n", tx.CashierName)
	for _, line := range tx.Lines {
		fmt.Fprintf(&b, "%s x%d = %s\n", line.Name, line.Quantity, money.FormatRupiah(line.Subtotal))
	}
	fmt.Fprintf(&b, "Total: %s", money.FormatRupiah(tx.Total))
	for _, method := range domain.PaymentMethods {
		if amount := tx.Tendered.Amount(method); amount > 0 {
			fmt.Fprintf(&b, "\nBayar %s: %s", method, money.FormatRupiah(amount))
		}
	}
	if fallback {
		b.WriteString("\n(tercatat di backup, menunggu sinkronisasi)")
	}
	return b.String()
}

// Package sheets implements the secondary transaction store backed by a
// spreadsheet webhook. Every call is a single POST with an action-tagged
// JSON envelope; the webhook is best effort and never authoritative.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tokopos/internal/domain"
	"tokopos/internal/store"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

func New(url string) *Client {
	return &Client{
		url:     url,
		client:  &http.Client{Timeout: defaultTimeout},
		timeout: defaultTimeout,
	}
}

// NewWithClient is used by tests to point at an httptest server.
func NewWithClient(url string, hc *http.Client, timeout time.Duration) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{url: url, client: hc, timeout: timeout}
}

type lineRecord struct {
	Item     string `json:"item"`
	Quantity int    `json:"jumlah"`
	Price    int64  `json:"harga"`
	Subtotal int64  `json:"subtotal"`
}

type saveEnvelope struct {
	Action        string       `json:"action"`
	TransactionID string       `json:"id_transaksi"`
	Date          string       `json:"tanggal"`
	Time          string       `json:"waktu"`
	Cashier       string       `json:"kasir"`
	StoreID       string       `json:"id_toko"`
	Lines         []lineRecord `json:"items"`
	Total         int64        `json:"total"`
	Tendered      int64        `json:"bayar"`
	Change        int64        `json:"kembali"`
	Status        string       `json:"status"`
}

type webhookResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SaveTransaction mirrors a committed transaction to the webhook. The
// envelope carries the same transaction ID the primary recorded so both
// backends stay joinable on it.
func (c *Client) SaveTransaction(ctx context.Context, tx domain.Transaction) error {
	env := saveEnvelope{
		Action:        "saveTransaction",
		TransactionID: tx.ID,
		Date:          tx.CreatedAt.Format("2006-01-02"),
		Time:          tx.CreatedAt.Format("15:04:05"),
		Cashier:       tx.CashierName,
		StoreID:       tx.StoreID,
		Total:         tx.Total,
		Tendered:      tx.TenderedTotal(),
		Change:        tx.Change,
		Status:        domain.ReportStatusSuccess,
	}
	for _, line := range tx.Lines {
		env.Lines = append(env.Lines, lineRecord{
			Item:     line.Name,
			Quantity: line.Quantity,
			Price:    line.UnitPrice,
			Subtotal: line.Subtotal,
		})
	}
	return c.post(ctx, env)
}

// Ping sends the webhook a lightweight action to probe reachability.
func (c *Client) Ping(ctx context.Context) error {
	return c.post(ctx, map[string]string{"action": "ping"})
}

func (c *Client) post(ctx context.Context, payload any) error {
	if c.url == "" {
		return fmt.Errorf("sheets webhook not configured: %w", store.ErrUnavailable)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook unreachable: %w", store.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("webhook returned %d: %w", resp.StatusCode, store.ErrUnavailable)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook rejected request: status %d", resp.StatusCode)
	}

	var result webhookResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Apps Script deployments sometimes answer with plain text on
		// success; treat undecodable 2xx bodies as accepted.
		return nil
	}
	if !result.Success && result.Message != "" {
		return fmt.Errorf("webhook error: %s", result.Message)
	}
	return nil
}

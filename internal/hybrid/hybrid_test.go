package hybrid

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tokopos/internal/domain"
	"tokopos/internal/store"
)

type fakePrimary struct {
	mu      sync.Mutex
	commits int
	err     error
}

func (f *fakePrimary) CommitTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	f.mu.Lock()
	f.commits++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	committed := tx
	committed.Total = 35000
	return &committed, nil
}

func (f *fakePrimary) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

func (f *fakePrimary) GetMenuItem(context.Context, string, string) (*domain.MenuItem, error) {
	return nil, store.ErrNotFound
}
func (f *fakePrimary) ListMenu(context.Context, string) ([]domain.MenuItem, error) { return nil, nil }
func (f *fakePrimary) GetDailyReport(context.Context, string, time.Time, time.Time) (domain.DailyReport, error) {
	return domain.DailyReport{}, nil
}
func (f *fakePrimary) GetTransaction(context.Context, string) (*domain.Transaction, error) {
	return nil, store.ErrNotFound
}
func (f *fakePrimary) ListUsers(context.Context) ([]domain.UserAccount, error) { return nil, nil }
func (f *fakePrimary) Ping(context.Context) error                              { return f.err }

type fakeSecondary struct {
	mu    sync.Mutex
	saved []domain.Transaction
	err   error
}

func (f *fakeSecondary) SaveTransaction(_ context.Context, tx domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, tx)
	return nil
}

func (f *fakeSecondary) Ping(context.Context) error { return f.err }

func (f *fakeSecondary) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func sampleTx() domain.Transaction {
	return domain.Transaction{
		ID:          "TOKO1-20260830-101500-a1b2c3",
		StoreID:     "TOKO1",
		CashierName: "Siti",
		Lines: []domain.TransactionLine{
			{LineNo: 1, ItemID: "MKN-01", Name: "Nasi Goreng", Quantity: 2, UnitPrice: 15000, Subtotal: 30000},
			{LineNo: 2, ItemID: "MNM-01", Name: "Es Teh", Quantity: 1, UnitPrice: 5000, Subtotal: 5000},
		},
		Total:     35000,
		Tendered:  domain.Tender{Cash: 50000},
		Change:    15000,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCommitPrimarySuccessMirrorsToSecondary(t *testing.T) {
	primary := &fakePrimary{}
	secondary := &fakeSecondary{}
	c := New(primary, secondary, time.Second)

	committed, fallback, err := c.Commit(context.Background(), sampleTx())
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if fallback {
		t.Fatalf("primary success must not be flagged as fallback")
	}
	if committed == nil || committed.ID == "" {
		t.Fatalf("expected committed transaction")
	}

	c.Flush()
	if secondary.savedCount() != 1 {
		t.Fatalf("expected 1 mirrored write, got %d", secondary.savedCount())
	}
}

func TestMirrorFailureDoesNotAlterResponse(t *testing.T) {
	primary := &fakePrimary{}
	secondary := &fakeSecondary{err: errors.New("webhook timeout")}
	c := New(primary, secondary, time.Second)

	committed, fallback, err := c.Commit(context.Background(), sampleTx())
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if fallback {
		t.Fatalf("mirror failure must never set the fallback flag")
	}
	if committed == nil {
		t.Fatalf("expected committed transaction despite dead secondary")
	}
	c.Flush()
}

func TestPrimaryConnectivityFailureFallsBack(t *testing.T) {
	primary := &fakePrimary{err: store.ErrUnavailable}
	secondary := &fakeSecondary{}
	c := New(primary, secondary, time.Second)

	tx := sampleTx()
	committed, fallback, err := c.Commit(context.Background(), tx)
	if err != nil {
		t.Fatalf("fallback commit failed: %v", err)
	}
	if !fallback {
		t.Fatalf("secondary write must be flagged as fallback")
	}
	// The same transaction id lands in both stores across an outage, so
	// rows stay joinable when reconciling the accepted duplicate risk.
	if committed.ID != tx.ID {
		t.Fatalf("fallback must keep the transaction id, got %s", committed.ID)
	}
	if secondary.savedCount() != 1 {
		t.Fatalf("expected 1 fallback write, got %d", secondary.savedCount())
	}
}

func TestValidationErrorNeverFallsBack(t *testing.T) {
	primary := &fakePrimary{err: store.ErrInsufficientStock}
	secondary := &fakeSecondary{}
	c := New(primary, secondary, time.Second)

	_, _, err := c.Commit(context.Background(), sampleTx())
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected validation error to surface, got %v", err)
	}
	if secondary.savedCount() != 0 {
		t.Fatalf("a rejected sale must never be written to the secondary")
	}
}

func TestBothStoresDown(t *testing.T) {
	primary := &fakePrimary{err: store.ErrUnavailable}
	secondary := &fakeSecondary{err: errors.New("webhook unreachable")}
	c := New(primary, secondary, time.Second)

	_, _, err := c.Commit(context.Background(), sampleTx())
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable when both stores fail, got %v", err)
	}
}

func TestOutageRoutingSkipsDeadPrimary(t *testing.T) {
	primary := &fakePrimary{err: store.ErrUnavailable}
	secondary := &fakeSecondary{}
	c := New(primary, secondary, time.Second)

	if _, _, err := c.Commit(context.Background(), sampleTx()); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if _, fallback, err := c.Commit(context.Background(), sampleTx()); err != nil || !fallback {
		t.Fatalf("second commit: fallback=%v err=%v", fallback, err)
	}

	// The second commit landed inside the cooldown window, so the dead
	// primary is not retried.
	if primary.commitCount() != 1 {
		t.Fatalf("expected 1 primary attempt, got %d", primary.commitCount())
	}
	if secondary.savedCount() != 2 {
		t.Fatalf("expected 2 secondary writes, got %d", secondary.savedCount())
	}
}

func TestHealthReportsBothBackends(t *testing.T) {
	c := New(&fakePrimary{}, &fakeSecondary{}, time.Second)
	status := c.Health(context.Background())
	if !status.OK || status.Database != "ok" || status.Secondary != "ok" {
		t.Fatalf("unexpected health: %+v", status)
	}

	down := New(&fakePrimary{err: store.ErrUnavailable}, &fakeSecondary{}, time.Second)
	status = down.Health(context.Background())
	if !status.OK || status.Database != "down" {
		t.Fatalf("one live backend should still report OK: %+v", status)
	}

	dead := New(&fakePrimary{err: store.ErrUnavailable}, &fakeSecondary{err: errors.New("down")}, time.Second)
	status = dead.Health(context.Background())
	if status.OK {
		t.Fatalf("both backends down must not report OK: %+v", status)
	}
}

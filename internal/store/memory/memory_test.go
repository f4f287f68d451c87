package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tokopos/internal/domain"
	"tokopos/internal/store"
)

func TestCommitTransactionRecomputesAndDecrements(t *testing.T) {
	s := NewSeeded()

	committed, err := s.CommitTransaction(context.Background(), domain.Transaction{
		StoreID:     "TOKO1",
		CashierName: "Siti",
		Lines: []domain.TransactionLine{
			{ItemID: "MKN-01", Quantity: 2},
			{ItemID: "MNM-01", Quantity: 1},
		},
		Tendered: domain.Tender{Cash: 50000},
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if committed.Total != 35000 {
		t.Fatalf("expected total 35000, got %d", committed.Total)
	}
	if committed.Change != 15000 {
		t.Fatalf("expected change 15000, got %d", committed.Change)
	}

	item, err := s.GetMenuItem(context.Background(), "TOKO1", "MKN-01")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Stock != 38 {
		t.Fatalf("expected stock 38 after selling 2 of 40, got %d", item.Stock)
	}

	fetched, err := s.GetTransaction(context.Background(), committed.ID)
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if fetched.Total != 35000 || len(fetched.Lines) != 2 {
		t.Fatalf("lookup returned wrong transaction: %+v", fetched)
	}

	if _, err := s.GetTransaction(context.Background(), "TOKO1-xxxx"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	report, err := s.GetDailyReport(context.Background(), "TOKO1", committed.CreatedAt, committed.CreatedAt.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Transactions != 1 || report.GrossSales != 35000 {
		t.Fatalf("report row missing: %+v", report)
	}
}

func TestCommitTransactionAllOrNothing(t *testing.T) {
	s := NewSeeded()
	s.SetItem(domain.MenuItem{ID: "SNK-09", Name: "Tahu Isi", Category: "snack", Price: 3000, Stock: 1, Active: true, StoreID: domain.AllStores})

	_, err := s.CommitTransaction(context.Background(), domain.Transaction{
		StoreID: "TOKO1",
		Lines: []domain.TransactionLine{
			{ItemID: "MKN-01", Quantity: 2},
			{ItemID: "SNK-09", Quantity: 5},
		},
		Tendered: domain.Tender{Cash: 100000},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// The first line must not have been decremented.
	item, err := s.GetMenuItem(context.Background(), "TOKO1", "MKN-01")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Stock != 40 {
		t.Fatalf("failed commit must not touch stock, got %d", item.Stock)
	}
}

func TestCommitTransactionInsufficientPayment(t *testing.T) {
	s := NewSeeded()

	_, err := s.CommitTransaction(context.Background(), domain.Transaction{
		StoreID:  "TOKO1",
		Lines:    []domain.TransactionLine{{ItemID: "MKN-01", Quantity: 1}},
		Tendered: domain.Tender{Cash: 1000},
	})
	if !errors.Is(err, store.ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
}

func TestConcurrentCommitsNeverOversell(t *testing.T) {
	s := NewSeeded()
	s.SetItem(domain.MenuItem{ID: "LTD-01", Name: "Paket Promo", Category: "makanan", Price: 10000, Stock: 10, Active: true, StoreID: domain.AllStores})

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	sold := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CommitTransaction(context.Background(), domain.Transaction{
				StoreID:  "TOKO1",
				Lines:    []domain.TransactionLine{{ItemID: "LTD-01", Quantity: 1}},
				Tendered: domain.Tender{Cash: 10000},
			})
			if err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
			} else if !errors.Is(err, store.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if sold != 10 {
		t.Fatalf("expected exactly 10 successful sales, got %d", sold)
	}
	item, err := s.GetMenuItem(context.Background(), "TOKO1", "LTD-01")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", item.Stock)
	}
	if item.Stock < 0 {
		t.Fatalf("stock must never go negative, got %d", item.Stock)
	}
}

func TestListMenuFiltersByStore(t *testing.T) {
	s := NewSeeded()

	toko1, err := s.ListMenu(context.Background(), "TOKO1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	other, err := s.ListMenu(context.Background(), "TOKO2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(other) >= len(toko1) {
		t.Fatalf("TOKO2 should not see TOKO1-only items: %d vs %d", len(other), len(toko1))
	}
	for _, item := range other {
		if item.StoreID != domain.AllStores {
			t.Fatalf("TOKO2 menu leaked store-specific item %s", item.ID)
		}
	}
}

func TestGetMenuItemUnknown(t *testing.T) {
	s := NewSeeded()
	if _, err := s.GetMenuItem(context.Background(), "TOKO1", "NOPE-99"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeededUsersHaveHashedPasswords(t *testing.T) {
	s := NewSeeded()
	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 seeded users, got %d", len(users))
	}
	for _, user := range users {
		if user.Password == "" || user.Password[0] != '$' {
			t.Fatalf("seeded password for %s is not hashed", user.Username)
		}
	}
}

// Package memory is the in-memory primary store used for dev/demo mode
// and tests. It enforces the same commit semantics as the postgres store.
package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tokopos/internal/domain"
	"tokopos/internal/store"
	"tokopos/internal/xid"
)

type Store struct {
	mu               sync.Mutex
	items            map[string]domain.MenuItem
	transactionsByID map[string]domain.Transaction
	reports          []domain.ReportRecord
	usersByUsername  map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		items:            map[string]domain.MenuItem{},
		transactionsByID: map[string]domain.Transaction{},
		usersByUsername:  map[string]domain.UserAccount{},
	}
}

// seedUsers builds the initial accounts for dev/demo mode. Credentials
// come from SEED_OWNER_PASSWORD and SEED_CASHIER_PASSWORD; hardcoded dev
// defaults are used with a warning when unset. Production deployments use
// PostgreSQL (DATABASE_URL) and never reach this path.
func seedUsers() map[string]domain.UserAccount {
	ownerPwd := envOr("SEED_OWNER_PASSWORD", "owner123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "kasir123")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_OWNER_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username    string
		password    string
		cashierName string
		role        string
	}{
		{"owner", ownerPwd, "Pak Budi", domain.RoleOwner},
		{"kasir", cashierPwd, "Siti", domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:    u.username,
			Password:    string(hash),
			CashierName: u.cashierName,
			Role:        u.role,
			StoreID:     "TOKO1",
			Active:      true,
			CreatedAt:   now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	items := []domain.MenuItem{
		{ID: "MKN-01", Name: "Nasi Goreng", Category: "makanan", Price: 15000, Stock: 40, Active: true, StoreID: domain.AllStores},
		{ID: "MKN-02", Name: "Mie Ayam", Category: "makanan", Price: 12000, Stock: 35, Active: true, StoreID: domain.AllStores},
		{ID: "MKN-03", Name: "Ayam Geprek", Category: "makanan", Price: 18000, Stock: 25, Active: true, StoreID: domain.AllStores},
		{ID: "MKN-04", Name: "Sate Ayam", Category: "makanan", Price: 20000, Stock: 20, Active: true, StoreID: "TOKO1"},
		{ID: "MNM-01", Name: "Es Teh", Category: "minuman", Price: 5000, Stock: 60, Active: true, StoreID: domain.AllStores},
		{ID: "MNM-02", Name: "Es Jeruk", Category: "minuman", Price: 7000, Stock: 45, Active: true, StoreID: domain.AllStores},
		{ID: "MNM-03", Name: "Kopi Susu", Category: "minuman", Price: 10000, Stock: 30, Active: true, StoreID: "TOKO1"},
		{ID: "SNK-01", Name: "Kerupuk", Category: "snack", Price: 2000, Stock: 100, Active: true, StoreID: domain.AllStores},
		{ID: "SNK-02", Name: "Pisang Goreng", Category: "snack", Price: 8000, Stock: 15, Active: true, StoreID: "TOKO1"},
	}

	s := New()
	for _, item := range items {
		s.items[item.ID] = item
	}
	s.usersByUsername = seedUsers()
	return s
}

// SetItem inserts or replaces a menu item. Used by tests to pin stock.
func (s *Store) SetItem(item domain.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) GetMenuItem(_ context.Context, storeID string, itemID string) (*domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || !item.SoldAt(storeID) {
		return nil, store.ErrNotFound
	}
	copied := item
	return &copied, nil
}

func (s *Store) ListMenu(_ context.Context, storeID string) ([]domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.MenuItem, 0, len(s.items))
	for _, item := range s.items {
		if item.Active && item.SoldAt(storeID) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category == items[j].Category {
			return items[i].Name < items[j].Name
		}
		return items[i].Category < items[j].Category
	})
	return items, nil
}

// CommitTransaction applies the same all-or-nothing contract as the
// postgres store: every line's stock check and decrement happens under one
// lock, and a failure on any line leaves the stock map untouched.
func (s *Store) CommitTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if len(tx.Lines) == 0 {
		return nil, store.ErrInvalidTransaction
	}
	if strings.TrimSpace(tx.StoreID) == "" {
		return nil, store.ErrInvalidTransaction
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.ID == "" {
		tx.ID = xid.NewTransactionID(tx.StoreID, tx.CreatedAt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every line before mutating anything.
	total := int64(0)
	recomputed := make([]domain.TransactionLine, 0, len(tx.Lines))
	for i, line := range tx.Lines {
		if line.Quantity < 1 {
			return nil, store.ErrInvalidTransaction
		}
		item, ok := s.items[line.ItemID]
		if !ok || !item.Active || !item.SoldAt(tx.StoreID) {
			return nil, store.ErrNotFound
		}
		if item.Stock < line.Quantity {
			return nil, store.ErrInsufficientStock
		}
		subtotal := item.Price * int64(line.Quantity)
		recomputed = append(recomputed, domain.TransactionLine{
			LineNo:    i + 1,
			ItemID:    line.ItemID,
			Name:      item.Name,
			Quantity:  line.Quantity,
			UnitPrice: item.Price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	tendered := tx.Tendered.Total()
	if tendered < total {
		return nil, store.ErrInsufficientPayment
	}

	for _, line := range recomputed {
		item := s.items[line.ItemID]
		item.Stock -= line.Quantity
		s.items[line.ItemID] = item
	}

	tx.Lines = recomputed
	tx.Total = total
	tx.Change = tendered - total

	s.transactionsByID[tx.ID] = tx
	s.reports = append(s.reports, domain.ReportRecord{
		Date:          tx.CreatedAt.Format("2006-01-02"),
		TransactionID: tx.ID,
		CashierName:   tx.CashierName,
		StoreID:       tx.StoreID,
		Total:         tx.Total,
		Tendered:      tendered,
		Change:        tx.Change,
		Status:        domain.ReportStatusSuccess,
	})

	committed := tx
	return &committed, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := tx
	return &copied, nil
}

func (s *Store) GetDailyReport(_ context.Context, storeID string, from time.Time, to time.Time) (domain.DailyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := domain.DailyReport{
		StoreID: storeID,
		Date:    from.Format("2006-01-02"),
	}
	fromDate := from.Format("2006-01-02")
	toDate := to.Format("2006-01-02")
	for _, rec := range s.reports {
		if rec.StoreID != storeID || rec.Status != domain.ReportStatusSuccess {
			continue
		}
		if rec.Date < fromDate || rec.Date >= toDate {
			continue
		}
		report.Transactions++
		report.GrossSales += rec.Total
		report.TotalChange += rec.Change
	}
	return report, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

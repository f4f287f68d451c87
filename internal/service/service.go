package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"tokopos/internal/cache"
	"tokopos/internal/domain"
	"tokopos/internal/notify"
	"tokopos/internal/store"
	"tokopos/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// ErrEmptyCart rejects a commit request with no lines before any store
// work happens.
var ErrEmptyCart = errors.New("no lines in transaction")

// Committer is the write path. The hybrid coordinator implements it; the
// bool reports whether the commit landed on the fallback backend.
type Committer interface {
	Commit(ctx context.Context, tx domain.Transaction) (*domain.Transaction, bool, error)
	Health(ctx context.Context) domain.HealthStatus
}

const menuCacheTTL = 30 * time.Second

type Service struct {
	primary        store.Primary
	committer      Committer
	menuCache      cache.MenuCache
	notifier       notify.Notifier
	defaultStoreID string
}

func New(primary store.Primary, committer Committer, menuCache cache.MenuCache, notifier notify.Notifier, defaultStoreID string) *Service {
	if defaultStoreID == "" {
		defaultStoreID = "TOKO1"
	}
	if menuCache == nil {
		menuCache = cache.NoopMenuCache{}
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}

	return &Service{
		primary:        primary,
		committer:      committer,
		menuCache:      menuCache,
		notifier:       notifier,
		defaultStoreID: defaultStoreID,
	}
}

func menuCacheKey(storeID string) string {
	return "menu:" + storeID
}

// ListMenu reads through the cache. Cache failures degrade to a direct
// store read; a stale or dead Redis never blocks the sell screen.
func (s *Service) ListMenu(ctx context.Context, storeID string) ([]domain.MenuItem, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}

	key := menuCacheKey(storeID)
	if items, ok, err := s.menuCache.Get(ctx, key); err == nil && ok {
		return items, nil
	} else if err != nil {
		log.Printf("[service] WARN: menu cache read failed: %v", err)
	}

	items, err := s.primary.ListMenu(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if err := s.menuCache.Set(ctx, key, items, menuCacheTTL); err != nil {
		log.Printf("[service] WARN: menu cache write failed: %v", err)
	}
	return items, nil
}

func (s *Service) GetMenuItem(ctx context.Context, storeID string, itemID string) (*domain.MenuItem, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}
	return s.primary.GetMenuItem(ctx, storeID, itemID)
}

// Checkout validates the request, prices its lines, and hands the
// provisional transaction to the committer. The primary store recomputes
// everything authoritatively inside its unit of work; the provisional
// pricing exists so a fallback write to the secondary still carries real
// names and amounts.
func (s *Service) Checkout(ctx context.Context, req domain.CommitRequest) (domain.CommitResponse, error) {
	if len(req.Lines) == 0 {
		return domain.CommitResponse{}, ErrEmptyCart
	}
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	if actor, ok := ActorFromContext(ctx); ok && strings.TrimSpace(req.CashierName) == "" {
		req.CashierName = actor.CashierName
	}

	lines, total, err := s.priceLines(ctx, req.StoreID, req.Lines)
	if err != nil {
		return domain.CommitResponse{}, err
	}

	tendered := req.Tendered.Total()
	if tendered < total {
		return domain.CommitResponse{}, store.ErrInsufficientPayment
	}

	now := time.Now().UTC()
	tx := domain.Transaction{
		ID:          xid.NewTransactionID(req.StoreID, now),
		StoreID:     req.StoreID,
		CashierName: req.CashierName,
		Lines:       lines,
		Total:       total,
		Tendered:    req.Tendered,
		Change:      tendered - total,
		CreatedAt:   now,
	}

	committed, fallback, err := s.committer.Commit(ctx, tx)
	if err != nil {
		return domain.CommitResponse{}, err
	}

	s.notifier.TransactionCommitted(committed, fallback)

	if !fallback {
		if err := s.menuCache.Invalidate(ctx, menuCacheKey(req.StoreID)); err != nil {
			log.Printf("[service] WARN: menu cache invalidate failed: %v", err)
		}
	}

	return domain.CommitResponse{
		Success:       true,
		TransactionID: committed.ID,
		Total:         committed.Total,
		Tendered:      committed.TenderedTotal(),
		Change:        committed.Change,
		Fallback:      fallback,
		CreatedAt:     committed.CreatedAt.Format(time.RFC3339),
	}, nil
}

// priceLines resolves item names and prices, preferring the live store
// and falling back to the cached menu when the primary is unreachable.
// Stock is only advisory here; the authoritative check happens inside the
// primary's unit of work.
func (s *Service) priceLines(ctx context.Context, storeID string, reqLines []domain.CommitLine) ([]domain.TransactionLine, int64, error) {
	var cached map[string]domain.MenuItem

	lines := make([]domain.TransactionLine, 0, len(reqLines))
	total := int64(0)
	for i, line := range reqLines {
		if line.Quantity < 1 {
			return nil, 0, store.ErrInvalidTransaction
		}

		item, err := s.primary.GetMenuItem(ctx, storeID, line.ItemID)
		if err != nil {
			if !errors.Is(err, store.ErrUnavailable) {
				return nil, 0, err
			}
			if cached == nil {
				cached = s.cachedMenuByID(ctx, storeID)
			}
			fromCache, ok := cached[line.ItemID]
			if !ok {
				// Primary down and nothing cached: the item cannot be
				// priced, so neither store can record a trustworthy row.
				return nil, 0, fmt.Errorf("item %s unpriceable while primary is down: %w", line.ItemID, store.ErrUnavailable)
			}
			item = &fromCache
		}

		if !item.Active {
			return nil, 0, store.ErrNotFound
		}
		if item.Stock < line.Quantity {
			return nil, 0, store.ErrInsufficientStock
		}

		subtotal := item.Price * int64(line.Quantity)
		lines = append(lines, domain.TransactionLine{
			LineNo:    i + 1,
			ItemID:    line.ItemID,
			Name:      item.Name,
			Quantity:  line.Quantity,
			UnitPrice: item.Price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}
	return lines, total, nil
}

func (s *Service) cachedMenuByID(ctx context.Context, storeID string) map[string]domain.MenuItem {
	byID := map[string]domain.MenuItem{}
	items, ok, err := s.menuCache.Get(ctx, menuCacheKey(storeID))
	if err != nil || !ok {
		return byID
	}
	for _, item := range items {
		byID[item.ID] = item
	}
	return byID
}

// GetTransaction looks up a committed sale by id. Cashiers use this to
// resolve an ambiguous client timeout: if the id is found the sale went
// through, if not it is safe to re-submit.
func (s *Service) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, store.ErrInvalidTransaction
	}
	return s.primary.GetTransaction(ctx, id)
}

// DailyReport aggregates one calendar day (UTC).
func (s *Service) DailyReport(ctx context.Context, storeID string, date string) (domain.DailyReport, error) {
	if storeID == "" {
		storeID = s.defaultStoreID
	}

	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return domain.DailyReport{}, fmt.Errorf("invalid date %q: %w", date, store.ErrInvalidTransaction)
	}
	from := day.UTC()
	to := from.Add(24 * time.Hour)

	return s.primary.GetDailyReport(ctx, storeID, from, to)
}

func (s *Service) Health(ctx context.Context) domain.HealthStatus {
	return s.committer.Health(ctx)
}

// BuildQRISCode renders a payment QR for the given amount as a base64
// PNG. The payload is a static merchant string; real acquirer integration
// would replace it without changing the endpoint shape.
func (s *Service) BuildQRISCode(ctx context.Context, req domain.QRISCodeRequest) (domain.QRISCodeResponse, error) {
	if req.StoreID == "" {
		req.StoreID = s.defaultStoreID
	}
	if req.Amount < 1 {
		return domain.QRISCodeResponse{}, store.ErrInvalidTransaction
	}

	payload := fmt.Sprintf("QRIS|TOKOPOS|%s|%d|%d", req.StoreID, req.Amount, time.Now().UTC().Unix())
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return domain.QRISCodeResponse{}, fmt.Errorf("encode qr: %w", err)
	}

	return domain.QRISCodeResponse{
		StoreID:   req.StoreID,
		Amount:    req.Amount,
		Payload:   payload,
		PNGBase64: base64.StdEncoding.EncodeToString(png),
	}, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	return s.primary.ListUsers(ctx)
}

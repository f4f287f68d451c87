package store

import (
	"context"
	"errors"
	"time"

	"tokopos/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrUnavailable         = errors.New("store unavailable")
)

// Primary is the authoritative backend. CommitTransaction must be
// all-or-nothing: stock decrements, line records, and the report row either
// all land or none do. Implementations re-read prices and stock inside the
// unit of work; the returned transaction carries the authoritative snapshot.
type Primary interface {
	GetMenuItem(ctx context.Context, storeID string, itemID string) (*domain.MenuItem, error)
	ListMenu(ctx context.Context, storeID string) ([]domain.MenuItem, error)
	CommitTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetDailyReport(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.DailyReport, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	Ping(ctx context.Context) error
}

// Secondary is the best-effort mirror backend. It accepts the full logical
// transaction but gives no durability or consistency guarantees; callers
// must never let its failures affect a response already owed to the client.
type Secondary interface {
	SaveTransaction(ctx context.Context, tx domain.Transaction) error
	Ping(ctx context.Context) error
}

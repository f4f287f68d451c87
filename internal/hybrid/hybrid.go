// Package hybrid routes transaction writes between the authoritative
// primary store and the best-effort spreadsheet secondary.
//
// The primary is always tried first. Only when it is unreachable does a
// commit degrade to the secondary, and the caller is told so via the
// fallback flag. After a successful primary commit the transaction is
// mirrored to the secondary in the background; mirror failures are
// logged and swallowed, never surfaced to the cashier.
package hybrid

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"tokopos/internal/domain"
	"tokopos/internal/store"
)

const defaultMirrorTimeout = 10 * time.Second

// primaryCooldown is how long a connectivity failure keeps commits
// routed straight to the secondary before the primary is retried.
const primaryCooldown = 30 * time.Second

type Coordinator struct {
	primary   store.Primary
	secondary store.Secondary

	mirrorTimeout time.Duration
	mirrors       sync.WaitGroup

	mu        sync.Mutex
	downUntil time.Time
}

func New(primary store.Primary, secondary store.Secondary, mirrorTimeout time.Duration) *Coordinator {
	if mirrorTimeout <= 0 {
		mirrorTimeout = defaultMirrorTimeout
	}
	return &Coordinator{
		primary:       primary,
		secondary:     secondary,
		mirrorTimeout: mirrorTimeout,
	}
}

func (c *Coordinator) primaryDown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Before(c.downUntil)
}

func (c *Coordinator) markPrimaryDown() {
	c.mu.Lock()
	c.downUntil = time.Now().Add(primaryCooldown)
	c.mu.Unlock()
}

func (c *Coordinator) markPrimaryUp() {
	c.mu.Lock()
	c.downUntil = time.Time{}
	c.mu.Unlock()
}

// Commit writes the transaction. The bool reports whether the write
// landed on the secondary fallback instead of the primary.
//
// Validation failures from the primary (insufficient stock, short
// payment) are returned as-is: they mean the primary is healthy and the
// request is bad, so falling back would record a sale the primary
// rejected.
func (c *Coordinator) Commit(ctx context.Context, tx domain.Transaction) (*domain.Transaction, bool, error) {
	// A recent connectivity failure routes the commit straight to the
	// secondary instead of burning the request timeout on a dead primary.
	if c.primaryDown() && c.secondary != nil {
		return c.commitFallback(ctx, tx, store.ErrUnavailable)
	}

	committed, err := c.primary.CommitTransaction(ctx, tx)
	if err == nil {
		c.markPrimaryUp()
		c.mirror(*committed)
		return committed, false, nil
	}
	if !connectivityError(err) {
		return nil, false, err
	}

	c.markPrimaryDown()
	log.Printf("[hybrid] WARN: primary commit failed, degrading to secondary: %v", err)

	if c.secondary == nil {
		return nil, false, err
	}
	return c.commitFallback(ctx, tx, err)
}

func (c *Coordinator) commitFallback(ctx context.Context, tx domain.Transaction, cause error) (*domain.Transaction, bool, error) {
	// The secondary stores the provisional transaction as-is. Stock was
	// not decremented anywhere, so the row waits for reconciliation once
	// the primary returns.
	if serr := c.secondary.SaveTransaction(ctx, tx); serr != nil {
		log.Printf("[hybrid] WARN: secondary commit also failed: %v (primary: %v)", serr, cause)
		return nil, false, store.ErrUnavailable
	}
	return &tx, true, nil
}

// mirror replicates a committed transaction to the secondary without
// blocking the response. The goroutine gets its own context: the request
// context is already done by the time the HTTP handler returns.
func (c *Coordinator) mirror(tx domain.Transaction) {
	if c.secondary == nil {
		return
	}
	c.mirrors.Add(1)
	go func() {
		defer c.mirrors.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.mirrorTimeout)
		defer cancel()
		if err := c.secondary.SaveTransaction(ctx, tx); err != nil {
			log.Printf("[hybrid] WARN: replication to secondary failed for %s: %v", tx.ID, err)
		}
	}()
}

// Flush waits for in-flight mirror writes. Called during shutdown so a
// SIGTERM right after a sale does not drop the replica row.
func (c *Coordinator) Flush() {
	c.mirrors.Wait()
}

// Health probes both backends independently. OK is true as long as at
// least one backend can accept a transaction.
func (c *Coordinator) Health(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		Database:  "ok",
		Secondary: "ok",
		At:        time.Now().UTC().Format(time.RFC3339),
	}

	if err := c.primary.Ping(ctx); err != nil {
		status.Database = "down"
	}

	if c.secondary == nil {
		status.Secondary = "disabled"
	} else if err := c.secondary.Ping(ctx); err != nil {
		status.Secondary = "down"
	}

	status.OK = status.Database == "ok" || status.Secondary == "ok"
	return status
}

func connectivityError(err error) bool {
	return errors.Is(err, store.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Package checkout drives one terminal's cart from entry through
// confirmation to a committed transaction.
package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"tokopos/internal/cart"
	"tokopos/internal/domain"
	"tokopos/internal/payment"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInsufficientPayment = errors.New("tendered amount does not cover total")
	ErrSubmissionInFlight  = errors.New("a submission is already in flight")
	ErrAborted             = errors.New("checkout aborted by cashier")
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateConfirming
	StateSubmitting
	StateCommitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateConfirming:
		return "confirming"
	case StateSubmitting:
		return "submitting"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Submitter sends a validated cart to the transaction service.
type Submitter interface {
	Submit(ctx context.Context, req domain.CommitRequest) (domain.CommitResponse, error)
}

// Session identifies who is selling at which store. It replaces the
// ambient globals of older revisions: the orchestrator owns all checkout
// state explicitly.
type Session struct {
	StoreID     string
	CashierName string
}

// Summary is shown to the cashier for explicit confirmation before any
// network call.
type Summary struct {
	Lines    []cart.Line
	Total    int64
	Tendered int64
	Change   int64
}

// ConfirmFunc presents the summary; returning false aborts with no side
// effects.
type ConfirmFunc func(Summary) bool

type Orchestrator struct {
	mu        sync.Mutex
	state     State
	session   Session
	cart      *cart.Cart
	allocator *payment.Allocator
	submitter Submitter
	timeout   time.Duration
	onReceipt func(domain.CommitResponse)
	lastErr   error
}

func New(session Session, submitter Submitter, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Orchestrator{
		state:     StateIdle,
		session:   session,
		cart:      cart.New(),
		allocator: payment.New(),
		submitter: submitter,
		timeout:   timeout,
	}
}

// OnReceipt registers the receipt emission hook fired after a commit.
func (o *Orchestrator) OnReceipt(fn func(domain.CommitResponse)) {
	o.mu.Lock()
	o.onReceipt = fn
	o.mu.Unlock()
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// AddItem mutates the cart and, in single-payment mode, re-pins the
// tendered amount to the new total.
func (o *Orchestrator) AddItem(item domain.MenuItem) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.cart.AddItem(item); err != nil {
		return err
	}
	o.allocator.AutoFill(o.cart.Total())
	return nil
}

func (o *Orchestrator) SetQuantity(index int, qty int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.cart.SetQuantity(index, qty); err != nil {
		return err
	}
	o.allocator.AutoFill(o.cart.Total())
	return nil
}

func (o *Orchestrator) RemoveLine(index int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.cart.RemoveLine(index); err != nil {
		return err
	}
	o.allocator.AutoFill(o.cart.Total())
	return nil
}

func (o *Orchestrator) Total() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cart.Total()
}

func (o *Orchestrator) Lines() []cart.Line {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cart.Lines()
}

func (o *Orchestrator) Allocator() *payment.Allocator {
	return o.allocator
}

// Clear resets cart and payment state without submitting anything.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cart.Reset()
	o.allocator.Reset()
	o.state = StateIdle
	o.lastErr = nil
}

// Checkout runs the full Idle -> Validating -> Confirming -> Submitting
// sequence. Validation errors return before any network call with the cart
// untouched. At most one submission is in flight per orchestrator; a
// second call while submitting fails fast with ErrSubmissionInFlight.
func (o *Orchestrator) Checkout(ctx context.Context, confirm ConfirmFunc) (domain.CommitResponse, error) {
	o.mu.Lock()
	if o.state == StateSubmitting {
		o.mu.Unlock()
		return domain.CommitResponse{}, ErrSubmissionInFlight
	}

	o.state = StateValidating
	if err := o.validateLocked(); err != nil {
		o.state = StateIdle
		o.mu.Unlock()
		return domain.CommitResponse{}, err
	}

	total := o.cart.Total()
	summary := Summary{
		Lines:    o.cart.Lines(),
		Total:    total,
		Tendered: o.allocator.Tendered(),
		Change:   o.allocator.Change(total),
	}
	req := domain.CommitRequest{
		Lines:       o.cart.CommitLines(),
		StoreID:     o.session.StoreID,
		CashierName: o.session.CashierName,
		Tendered:    o.allocator.Breakdown(),
	}

	o.state = StateConfirming
	o.mu.Unlock()

	if confirm != nil && !confirm(summary) {
		o.mu.Lock()
		o.state = StateIdle
		o.mu.Unlock()
		return domain.CommitResponse{}, ErrAborted
	}

	o.mu.Lock()
	if o.state == StateSubmitting {
		o.mu.Unlock()
		return domain.CommitResponse{}, ErrSubmissionInFlight
	}
	o.state = StateSubmitting
	receipt := o.onReceipt
	o.mu.Unlock()

	submitCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	resp, err := o.submitter.Submit(submitCtx, req)

	o.mu.Lock()
	if err != nil {
		// Cart and payment state are preserved so the cashier can retry
		// without re-entering items.
		o.state = StateFailed
		o.lastErr = err
		o.mu.Unlock()
		return domain.CommitResponse{}, err
	}

	o.state = StateCommitted
	o.lastErr = nil
	o.cart.Reset()
	o.allocator.Reset()
	o.state = StateIdle
	o.mu.Unlock()

	// The hook runs unlocked so it can read orchestrator state.
	if receipt != nil {
		receipt(resp)
	}
	return resp, nil
}

func (o *Orchestrator) validateLocked() error {
	if o.cart.IsEmpty() {
		return ErrEmptyCart
	}
	for _, line := range o.cart.Lines() {
		if line.Qty > line.Stock {
			return cart.ErrStockExceeded
		}
	}
	if !o.allocator.Covers(o.cart.Total()) {
		return ErrInsufficientPayment
	}
	return nil
}

// Package payment tracks how the customer pays for the current sale:
// either a single cash amount or a split across cash, debit, e-wallet,
// and QRIS.
package payment

import (
	"errors"

	"tokopos/internal/domain"
)

var (
	ErrNegativeAmount = errors.New("payment amount must not be negative")
	ErrUnknownMethod  = errors.New("unknown payment method")
	ErrNotSplitMode   = errors.New("allocator is not in split mode")
)

type Mode int

const (
	ModeSingle Mode = iota
	ModeSplit
)

// Allocator owns the tendered amounts for one checkout session. In single
// mode only the cash bucket is used; split mode edits per-method buckets.
// The invariant Tendered() == sum of method amounts holds in both modes.
type Allocator struct {
	mode     Mode
	tender   domain.Tender
	autoFill bool
}

// New returns a single-mode allocator with auto-fill enabled: while the
// cashier has not touched the tendered field, cart mutations keep the
// tendered amount pinned to the cart total (exact-change common case).
func New() *Allocator {
	return &Allocator{mode: ModeSingle, autoFill: true}
}

func (a *Allocator) Mode() Mode {
	return a.mode
}

// SetSingle records a cashier-entered cash amount and disables auto-fill
// for the rest of the session.
func (a *Allocator) SetSingle(amount int64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	a.mode = ModeSingle
	a.tender = domain.Tender{Cash: amount}
	a.autoFill = false
	return nil
}

// AutoFill pins the tendered amount to the cart total after a cart
// mutation. It is a no-op in split mode or after a manual override.
func (a *Allocator) AutoFill(total int64) {
	if a.mode != ModeSingle || !a.autoFill {
		return
	}
	a.tender = domain.Tender{Cash: total}
}

// SwitchToSplit enters split mode, seeding the cash bucket with the prior
// tendered amount so no entered value is lost. If nothing was tendered yet
// the bucket is seeded with the cart total.
func (a *Allocator) SwitchToSplit(total int64) {
	if a.mode == ModeSplit {
		return
	}
	seed := a.tender.Total()
	if seed == 0 {
		seed = total
	}
	a.mode = ModeSplit
	a.tender = domain.Tender{Cash: seed}
	a.autoFill = false
}

// SwitchToSingle collapses the split buckets into one cash amount.
func (a *Allocator) SwitchToSingle() {
	if a.mode == ModeSingle {
		return
	}
	a.tender = domain.Tender{Cash: a.tender.Total()}
	a.mode = ModeSingle
}

// SetMethodAmount edits one bucket while in split mode. Intermediate
// states may be insufficient; coverage is enforced at checkout, not here.
func (a *Allocator) SetMethodAmount(method domain.PaymentMethod, amount int64) error {
	if a.mode != ModeSplit {
		return ErrNotSplitMode
	}
	if amount < 0 {
		return ErrNegativeAmount
	}
	for _, known := range domain.PaymentMethods {
		if method == known {
			a.tender.SetAmount(method, amount)
			return nil
		}
	}
	return ErrUnknownMethod
}

// MethodAmount reads one bucket, e.g. for the split-entry screen.
func (a *Allocator) MethodAmount(method domain.PaymentMethod) int64 {
	return a.tender.Amount(method)
}

func (a *Allocator) Tendered() int64 {
	return a.tender.Total()
}

func (a *Allocator) Breakdown() domain.Tender {
	return a.tender
}

// Change is the display value: tendered minus total, floored at zero.
// A negative raw difference blocks checkout; use Covers for that check.
func (a *Allocator) Change(total int64) int64 {
	change := a.tender.Total() - total
	if change < 0 {
		return 0
	}
	return change
}

func (a *Allocator) Covers(total int64) bool {
	return a.tender.Total() >= total
}

func (a *Allocator) Reset() {
	a.mode = ModeSingle
	a.tender = domain.Tender{}
	a.autoFill = true
}

package payment

import (
	"errors"
	"testing"

	"tokopos/internal/domain"
)

func TestAutoFillTracksTotal(t *testing.T) {
	a := New()

	a.AutoFill(15000)
	if a.Tendered() != 15000 {
		t.Fatalf("expected tendered 15000, got %d", a.Tendered())
	}

	a.AutoFill(35000)
	if a.Tendered() != 35000 {
		t.Fatalf("expected tendered 35000 after cart change, got %d", a.Tendered())
	}
	if a.Change(35000) != 0 {
		t.Fatalf("expected exact change 0, got %d", a.Change(35000))
	}
}

func TestManualOverrideDisablesAutoFill(t *testing.T) {
	a := New()

	if err := a.SetSingle(50000); err != nil {
		t.Fatalf("set single: %v", err)
	}
	a.AutoFill(35000)

	if a.Tendered() != 50000 {
		t.Fatalf("auto-fill must not clobber a manual amount, got %d", a.Tendered())
	}
	if a.Change(35000) != 15000 {
		t.Fatalf("expected change 15000, got %d", a.Change(35000))
	}
}

func TestSetSingleRejectsNegative(t *testing.T) {
	a := New()
	if err := a.SetSingle(-1); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestSwitchToSplitSeedsCash(t *testing.T) {
	a := New()
	if err := a.SetSingle(20000); err != nil {
		t.Fatalf("set single: %v", err)
	}

	a.SwitchToSplit(35000)
	if a.Mode() != ModeSplit {
		t.Fatalf("expected split mode")
	}
	if got := a.Breakdown().Cash; got != 20000 {
		t.Fatalf("split must seed cash with prior tendered, got %d", got)
	}
}

func TestSwitchToSplitSeedsTotalWhenUnset(t *testing.T) {
	a := New()
	a.SwitchToSplit(35000)
	if got := a.Breakdown().Cash; got != 35000 {
		t.Fatalf("split with nothing tendered should seed the total, got %d", got)
	}
}

func TestSplitEditKeepsSumInvariant(t *testing.T) {
	a := New()
	a.SwitchToSplit(35000)

	if err := a.SetMethodAmount(domain.MethodCash, 20000); err != nil {
		t.Fatalf("set cash: %v", err)
	}
	if err := a.SetMethodAmount(domain.MethodQRIS, 15000); err != nil {
		t.Fatalf("set qris: %v", err)
	}

	breakdown := a.Breakdown()
	sum := breakdown.Cash + breakdown.Debit + breakdown.Ewallet + breakdown.QRIS
	if a.Tendered() != sum {
		t.Fatalf("tendered %d != sum of methods %d", a.Tendered(), sum)
	}
	if a.Tendered() != 35000 {
		t.Fatalf("expected tendered 35000, got %d", a.Tendered())
	}
	if a.Change(35000) != 0 {
		t.Fatalf("expected change 0, got %d", a.Change(35000))
	}
}

func TestSetMethodAmountRequiresSplitMode(t *testing.T) {
	a := New()
	if err := a.SetMethodAmount(domain.MethodDebit, 1000); !errors.Is(err, ErrNotSplitMode) {
		t.Fatalf("expected ErrNotSplitMode, got %v", err)
	}
}

func TestSetMethodAmountRejectsUnknownMethod(t *testing.T) {
	a := New()
	a.SwitchToSplit(0)
	if err := a.SetMethodAmount(domain.PaymentMethod("cek"), 1000); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestSwitchToSingleCollapsesSum(t *testing.T) {
	a := New()
	a.SwitchToSplit(0)
	if err := a.SetMethodAmount(domain.MethodCash, 10000); err != nil {
		t.Fatalf("set cash: %v", err)
	}
	if err := a.SetMethodAmount(domain.MethodEwallet, 25000); err != nil {
		t.Fatalf("set ewallet: %v", err)
	}

	a.SwitchToSingle()
	if a.Mode() != ModeSingle {
		t.Fatalf("expected single mode")
	}
	if a.Breakdown().Cash != 35000 || a.Breakdown().Ewallet != 0 {
		t.Fatalf("expected collapsed cash 35000, got %+v", a.Breakdown())
	}
}

func TestChangeFlooredAtZero(t *testing.T) {
	a := New()
	if err := a.SetSingle(10000); err != nil {
		t.Fatalf("set single: %v", err)
	}
	if a.Change(35000) != 0 {
		t.Fatalf("display change must floor at 0, got %d", a.Change(35000))
	}
	if a.Covers(35000) {
		t.Fatalf("10000 must not cover a 35000 total")
	}
}

func TestResetRestoresAutoFill(t *testing.T) {
	a := New()
	if err := a.SetSingle(99999); err != nil {
		t.Fatalf("set single: %v", err)
	}
	a.Reset()

	if a.Tendered() != 0 {
		t.Fatalf("expected zero tendered after reset, got %d", a.Tendered())
	}
	a.AutoFill(12000)
	if a.Tendered() != 12000 {
		t.Fatalf("auto-fill should work again after reset, got %d", a.Tendered())
	}
}

func TestEverySupportedMethodAccepted(t *testing.T) {
	a := New()
	a.SwitchToSplit(0)

	for i, method := range domain.PaymentMethods {
		amount := int64((i + 1) * 1000)
		if err := a.SetMethodAmount(method, amount); err != nil {
			t.Fatalf("method %s rejected: %v", method, err)
		}
		if got := a.MethodAmount(method); got != amount {
			t.Fatalf("method %s: expected %d, got %d", method, amount, got)
		}
	}
	if a.Tendered() != 1000+2000+3000+4000 {
		t.Fatalf("expected bucket sum 10000, got %d", a.Tendered())
	}
}

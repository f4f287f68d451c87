package domain

import "time"

// AllStores is the sentinel store id for menu items sold at every outlet.
const AllStores = "ALL"

type MenuItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
	Stock    int    `json:"stock"`
	Active   bool   `json:"active"`
	StoreID  string `json:"store_id"`
}

// SoldAt reports whether the item is on the menu of the given store.
func (m MenuItem) SoldAt(storeID string) bool {
	return m.StoreID == AllStores || m.StoreID == storeID
}

type PaymentMethod string

const (
	MethodCash    PaymentMethod = "cash"
	MethodDebit   PaymentMethod = "debit"
	MethodEwallet PaymentMethod = "ewallet"
	MethodQRIS    PaymentMethod = "qris"
)

// PaymentMethods lists every supported method in display order.
var PaymentMethods = []PaymentMethod{MethodCash, MethodDebit, MethodEwallet, MethodQRIS}

// Tender is the amount offered per payment method for one transaction.
type Tender struct {
	Cash    int64 `json:"cash"`
	Debit   int64 `json:"debit"`
	Ewallet int64 `json:"ewallet"`
	QRIS    int64 `json:"qris"`
}

func (t Tender) Total() int64 {
	return t.Cash + t.Debit + t.Ewallet + t.QRIS
}

func (t Tender) Amount(method PaymentMethod) int64 {
	switch method {
	case MethodCash:
		return t.Cash
	case MethodDebit:
		return t.Debit
	case MethodEwallet:
		return t.Ewallet
	case MethodQRIS:
		return t.QRIS
	default:
		return 0
	}
}

func (t *Tender) SetAmount(method PaymentMethod, amount int64) {
	switch method {
	case MethodCash:
		t.Cash = amount
	case MethodDebit:
		t.Debit = amount
	case MethodEwallet:
		t.Ewallet = amount
	case MethodQRIS:
		t.QRIS = amount
	}
}

type CommitLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type CommitRequest struct {
	Lines       []CommitLine `json:"lines"`
	StoreID     string       `json:"store_id"`
	CashierName string       `json:"cashier_name"`
	Tendered    Tender       `json:"tendered_by_method"`
}

type CommitResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Total         int64  `json:"total"`
	Tendered      int64  `json:"tendered"`
	Change        int64  `json:"change"`
	Fallback      bool   `json:"fallback,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// TransactionLine is the immutable snapshot of one sold item, decoupled
// from any later menu change.
type TransactionLine struct {
	LineNo    int    `json:"line_no"`
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

type Transaction struct {
	ID          string            `json:"id"`
	StoreID     string            `json:"store_id"`
	CashierName string            `json:"cashier_name"`
	Lines       []TransactionLine `json:"lines"`
	Total       int64             `json:"total"`
	Tendered    Tender            `json:"tendered_by_method"`
	Change      int64             `json:"change"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (t Transaction) TenderedTotal() int64 {
	return t.Tendered.Total()
}

const ReportStatusSuccess = "SUKSES"

// ReportRecord is the per-transaction summary row used for aggregate
// reporting. Created only inside the same unit of work as its Transaction.
type ReportRecord struct {
	Date          string `json:"date"`
	TransactionID string `json:"transaction_id"`
	CashierName   string `json:"cashier_name"`
	StoreID       string `json:"store_id"`
	Total         int64  `json:"total"`
	Tendered      int64  `json:"tendered"`
	Change        int64  `json:"change"`
	Status        string `json:"status"`
}

type DailyReport struct {
	StoreID      string `json:"store_id"`
	Date         string `json:"date"`
	Transactions int64  `json:"transactions"`
	GrossSales   int64  `json:"gross_sales"`
	TotalChange  int64  `json:"total_change"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	CashierName string `json:"cashier_name"`
	StoreID     string `json:"store_id"`
	ExpiresAt   string `json:"expires_at"`
}

// Actor is the authenticated operator attached to a request context.
type Actor struct {
	Username    string
	CashierName string
	Role        string
	StoreID     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username    string
	Password    string
	CashierName string
	Role        string
	StoreID     string
	Active      bool
	CreatedAt   time.Time
}

const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

type QRISCodeRequest struct {
	StoreID string `json:"store_id"`
	Amount  int64  `json:"amount"`
}

type QRISCodeResponse struct {
	StoreID   string `json:"store_id"`
	Amount    int64  `json:"amount"`
	Payload   string `json:"payload"`
	PNGBase64 string `json:"png_base64"`
}

type HealthStatus struct {
	OK        bool   `json:"ok"`
	Database  string `json:"database"`
	Secondary string `json:"secondary"`
	At        string `json:"at"`
}

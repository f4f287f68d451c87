package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tokopos/internal/domain"
	"tokopos/internal/store"
	"tokopos/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle; used by tests with sqlmock.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (s *Store) ListMenu(ctx context.Context, storeID string) ([]domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, name, category, price, stock, active
		FROM menu_items
		WHERE active = true AND (store_id = $1 OR store_id = $2)
		ORDER BY category, name
	`, storeID, domain.AllStores)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0, 64)
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.StoreID, &item.Name, &item.Category, &item.Price, &item.Stock, &item.Active); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return items, nil
}

func (s *Store) GetMenuItem(ctx context.Context, storeID string, itemID string) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, name, category, price, stock, active
		FROM menu_items
		WHERE id = $1 AND (store_id = $2 OR store_id = $3)
	`, itemID, storeID, domain.AllStores).Scan(
		&item.ID, &item.StoreID, &item.Name, &item.Category, &item.Price, &item.Stock, &item.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, classify(err)
	}
	return &item, nil
}

// CommitTransaction persists one sale atomically: stock decrements, line
// rows, and the report row land in a single serializable transaction.
// Prices, names, and the total are recomputed from the menu table; the
// caller's line subtotals are never trusted.
//
// Stock is decremented conditionally (stock >= qty in the UPDATE itself),
// so two concurrent sales of the last unit serialize correctly: the loser
// gets zero affected rows and the whole transaction rolls back with
// ErrInsufficientStock.
func (s *Store) CommitTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
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

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = pgTx.Rollback() }()

	total := int64(0)
	recomputed := make([]domain.TransactionLine, 0, len(tx.Lines))
	for i, line := range tx.Lines {
		if line.Quantity < 1 {
			return nil, store.ErrInvalidTransaction
		}

		var name string
		var price int64
		err := pgTx.QueryRowContext(ctx, `
			SELECT name, price
			FROM menu_items
			WHERE id = $1 AND active = true AND (store_id = $2 OR store_id = $3)
		`, line.ItemID, tx.StoreID, domain.AllStores).Scan(&name, &price)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, store.ErrNotFound
			}
			return nil, classify(err)
		}

		res, err := pgTx.ExecContext(ctx, `
			UPDATE menu_items
			SET stock = stock - $1, updated_at = now()
			WHERE id = $2 AND (store_id = $3 OR store_id = $4) AND stock >= $1
		`, line.Quantity, line.ItemID, tx.StoreID, domain.AllStores)
		if err != nil {
			return nil, classify(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, classify(err)
		}
		if affected == 0 {
			return nil, store.ErrInsufficientStock
		}

		subtotal := price * int64(line.Quantity)
		recomputed = append(recomputed, domain.TransactionLine{
			LineNo:    i + 1,
			ItemID:    line.ItemID,
			Name:      name,
			Quantity:  line.Quantity,
			UnitPrice: price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	tendered := tx.Tendered.Total()
	if tendered < total {
		return nil, store.ErrInsufficientPayment
	}

	tx.Lines = recomputed
	tx.Total = total
	tx.Change = tendered - total

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, store_id, cashier_name, total,
			pay_cash, pay_debit, pay_ewallet, pay_qris,
			change, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, tx.ID, tx.StoreID, tx.CashierName, tx.Total,
		tx.Tendered.Cash, tx.Tendered.Debit, tx.Tendered.Ewallet, tx.Tendered.QRIS,
		tx.Change, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, classify(err)
	}

	for _, line := range tx.Lines {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO transaction_lines (transaction_id, line_no, item_id, name, qty, unit_price, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, tx.ID, line.LineNo, line.ItemID, line.Name, line.Quantity, line.UnitPrice, line.Subtotal)
		if err != nil {
			return nil, classify(err)
		}
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO reports (date, transaction_id, cashier_name, store_id, total, tendered, change, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, tx.CreatedAt.Format("2006-01-02"), tx.ID, tx.CashierName, tx.StoreID,
		tx.Total, tendered, tx.Change, domain.ReportStatusSuccess)
	if err != nil {
		return nil, classify(err)
	}

	if err := pgTx.Commit(); err != nil {
		return nil, classify(err)
	}

	return &tx, nil
}

func (s *Store) GetDailyReport(ctx context.Context, storeID string, from time.Time, to time.Time) (domain.DailyReport, error) {
	report := domain.DailyReport{
		StoreID: storeID,
		Date:    from.Format("2006-01-02"),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::bigint,
			COALESCE(SUM(total),0)::bigint,
			COALESCE(SUM(change),0)::bigint
		FROM reports
		WHERE store_id = $1
			AND date >= $2
			AND date < $3
			AND status = $4
	`, storeID, from.Format("2006-01-02"), to.Format("2006-01-02"), domain.ReportStatusSuccess).Scan(
		&report.Transactions,
		&report.GrossSales,
		&report.TotalChange,
	)
	if err != nil {
		return report, classify(err)
	}

	return report, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_id, cashier_name, total,
			pay_cash, pay_debit, pay_ewallet, pay_qris,
			change, created_at
		FROM transactions
		WHERE id = $1
	`, id).Scan(
		&tx.ID, &tx.StoreID, &tx.CashierName, &tx.Total,
		&tx.Tendered.Cash, &tx.Tendered.Debit, &tx.Tendered.Ewallet, &tx.Tendered.QRIS,
		&tx.Change, &tx.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, classify(err)
	}
	tx.CreatedAt = tx.CreatedAt.UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT line_no, item_id, name, qty, unit_price, subtotal
		FROM transaction_lines
		WHERE transaction_id = $1
		ORDER BY line_no ASC
	`, id)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	lines := make([]domain.TransactionLine, 0, 8)
	for rows.Next() {
		var line domain.TransactionLine
		if err := rows.Scan(&line.LineNo, &line.ItemID, &line.Name, &line.Quantity, &line.UnitPrice, &line.Subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	tx.Lines = lines

	return &tx, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, cashier_name, role, store_id, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.CashierName, &user.Role, &user.StoreID, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// classify tags connection-class failures with store.ErrUnavailable so
// callers can tell an unreachable database apart from a rejected request.
// Postgres error classes 08 (connection exception) and 57 (operator
// intervention, e.g. shutdown) count as unavailable; everything else
// passes through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		class := ""
		if len(pgErr.Code) >= 2 {
			class = pgErr.Code[:2]
		}
		if class == "08" || class == "57" {
			return fmt.Errorf("%v: %w", err, store.ErrUnavailable)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, store.ErrUnavailable)
	}

	return err
}

// Package ledger owns the durable state of the shop: products, sales and
// sale items, plus the supporting CRUD tables. All sale mutations run inside
// a single unit of work so a posting is observed fully applied or not at all.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"barberpos/m/domain"
)

var (
	// ErrNotFound signals a missing row.
	ErrNotFound = errors.New("ledger: not found")
	// ErrInsufficientStock signals a decrement that would drive stock negative.
	ErrInsufficientStock = errors.New("ledger: insufficient stock")
)

// Store wraps the database handle. It is passed explicitly to every
// component that needs durable state.
type Store struct {
	db  *sqlx.DB
	log *logrus.Logger
}

// New constructs a Store around an open database.
func New(db *sqlx.DB, log *logrus.Logger) *Store {
	return &Store{db: db, log: log}
}

// DB exposes the underlying handle for read-only collaborators.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithTx runs fn inside a transaction. The transaction is rolled back on
// error or panic and committed otherwise.
func (s *Store) WithTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ProductTx loads a product inside the given transaction.
func (s *Store) ProductTx(tx *sqlx.Tx, id int64) (domain.Product, error) {
	var p domain.Product
	err := tx.Get(&p, `SELECT * FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// DecrementStockTx subtracts qty from a product's stock. The guard in the
// WHERE clause makes the read-modify-write a single statement, so two
// concurrent sales can never drive the quantity negative or lose an update.
func (s *Store) DecrementStockTx(tx *sqlx.Tx, productID, qty int64) error {
	res, err := tx.Exec(`UPDATE products SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND quantity >= ?`, qty, productID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := tx.Get(&exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, productID); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// InsertSaleTx writes the sale header and returns its id.
func (s *Store) InsertSaleTx(tx *sqlx.Tx, sale domain.Sale) (int64, error) {
	res, err := tx.Exec(`
        INSERT INTO sales (receipt_no, customer_id, barber_id, subtotal, discount, tax, total, payment_method, paid_amount, change_amount, user_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ReceiptNo, sale.CustomerID, sale.BarberID, sale.Subtotal, sale.Discount, sale.Tax, sale.Total,
		sale.PaymentMethod, sale.PaidAmount, sale.ChangeAmount, sale.UserID, sale.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertSaleItemsTx writes the line items belonging to a sale.
func (s *Store) InsertSaleItemsTx(tx *sqlx.Tx, saleID int64, items []domain.SaleItem) error {
	stmt, err := tx.Preparex(`INSERT INTO sale_items (sale_id, product_id, quantity, price) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, item := range items {
		if _, err := stmt.Exec(saleID, item.ProductID, item.Quantity, item.Price); err != nil {
			return err
		}
	}
	return nil
}

// AccrueCustomerStatsTx folds a committed sale into the customer's running
// stats: one more visit, the amount spent and the loyalty points earned.
func (s *Store) AccrueCustomerStatsTx(tx *sqlx.Tx, customerID int64, amount float64, points int64, visitedAt string) error {
	res, err := tx.Exec(`
        UPDATE customers
        SET total_visits = total_visits + 1,
            total_spent = total_spent + ?,
            loyalty_points = loyalty_points + ?,
            last_visit = ?
        WHERE id = ?`, amount, points, visitedAt, customerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AccrueBarberStatsTx folds a committed sale into the barber's service count
// and revenue.
func (s *Store) AccrueBarberStatsTx(tx *sqlx.Tx, barberID int64, amount float64) error {
	res, err := tx.Exec(`
        UPDATE barbers
        SET total_services = total_services + 1,
            total_revenue = total_revenue + ?
        WHERE id = ?`, amount, barberID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSalesWithPrefixTx counts sales whose receipt number starts with the
// given prefix. Used for per-day receipt numbering inside the posting
// transaction.
func (s *Store) CountSalesWithPrefixTx(tx *sqlx.Tx, prefix string) (int64, error) {
	var n int64
	if err := tx.Get(&n, `SELECT COUNT(*) FROM sales WHERE receipt_no LIKE ?`, prefix+"%"); err != nil {
		return 0, err
	}
	return n, nil
}

// Package report derives dashboard metrics and date-ranged sales reports
// from the recorded ledger. It never writes.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"barberpos/m/domain"
)

// ErrQueryFailed wraps storage-layer read failures. A failed aggregation
// returns this error, never zero-filled metrics.
var ErrQueryFailed = errors.New("report: query failed")

// Engine answers read-only metric and report queries.
type Engine struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Engine {
	return &Engine{db: db}
}

type WindowTotals struct {
	Total  float64 `db:"total" json:"total"`
	Orders int64   `db:"orders" json:"orders"`
}

type ExpenseTotals struct {
	Total float64 `db:"total" json:"total"`
}

type TopProduct struct {
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Quantity  int64  `db:"quantity" json:"quantity"`
}

type TrendPoint struct {
	Date  string  `db:"date" json:"date"`
	Total float64 `db:"total" json:"total"`
}

type Dashboard struct {
	Today       WindowTotals  `json:"today"`
	Month       WindowTotals  `json:"month"`
	Expenses    ExpenseTotals `json:"expenses"`
	TopProducts []TopProduct  `json:"top_products"`
	SalesTrend  []TrendPoint  `json:"sales_trend"`
}

// DashboardMetrics computes the dashboard for the given moment. All date
// windows are derived from now in UTC so today and month stay consistent.
func (e *Engine) DashboardMetrics(now time.Time) (Dashboard, error) {
	now = now.UTC()
	day := now.Format("2006-01-02")
	month := now.Format("2006-01")
	trendStart := now.AddDate(0, 0, -13).Format("2006-01-02")

	var d Dashboard
	if err := e.db.Get(&d.Today, `SELECT COALESCE(SUM(total), 0) AS total, COUNT(*) AS orders FROM sales WHERE DATE(created_at) = ?`, day); err != nil {
		return Dashboard{}, fmt.Errorf("%w: today window: %v", ErrQueryFailed, err)
	}
	if err := e.db.Get(&d.Month, `SELECT COALESCE(SUM(total), 0) AS total, COUNT(*) AS orders FROM sales WHERE strftime('%Y-%m', created_at) = ?`, month); err != nil {
		return Dashboard{}, fmt.Errorf("%w: month window: %v", ErrQueryFailed, err)
	}
	if err := e.db.Get(&d.Expenses, `SELECT COALESCE(SUM(amount), 0) AS total FROM expenses WHERE strftime('%Y-%m', expense_date) = ?`, month); err != nil {
		return Dashboard{}, fmt.Errorf("%w: expenses: %v", ErrQueryFailed, err)
	}

	d.TopProducts = []TopProduct{}
	err := e.db.Select(&d.TopProducts, `
        SELECT p.id AS product_id, p.name AS name, SUM(si.quantity) AS quantity
        FROM sale_items si
        JOIN products p ON p.id = si.product_id
        GROUP BY p.id, p.name
        ORDER BY quantity DESC, p.name ASC
        LIMIT 5`)
	if err != nil {
		return Dashboard{}, fmt.Errorf("%w: top products: %v", ErrQueryFailed, err)
	}

	// Days without sales are simply absent; the renderer fills gaps.
	d.SalesTrend = []TrendPoint{}
	err = e.db.Select(&d.SalesTrend, `
        SELECT DATE(created_at) AS date, SUM(total) AS total
        FROM sales
        WHERE DATE(created_at) >= ? AND DATE(created_at) <= ?
        GROUP BY DATE(created_at)
        ORDER BY date ASC`, trendStart, day)
	if err != nil {
		return Dashboard{}, fmt.Errorf("%w: sales trend: %v", ErrQueryFailed, err)
	}

	return d, nil
}

// Row is one sales-report entry joined with the posting user.
type Row struct {
	domain.Sale
	Username string `db:"username" json:"username"`
}

// SalesReport lists sales whose date falls in [from, to] inclusive, newest
// first, optionally filtered to one user. Dates are YYYY-MM-DD.
func (e *Engine) SalesReport(from, to string, userID *int64) ([]Row, error) {
	query := `
        SELECT s.id, s.receipt_no, s.customer_id, s.subtotal, s.discount, s.tax, s.total,
               s.payment_method, s.paid_amount, s.change_amount, s.user_id, s.created_at,
               u.username
        FROM sales s
        JOIN users u ON u.id = s.user_id
        WHERE DATE(s.created_at) >= ? AND DATE(s.created_at) <= ?`
	args := []any{from, to}
	if userID != nil {
		query += ` AND s.user_id = ?`
		args = append(args, *userID)
	}
	query += ` ORDER BY s.created_at DESC, s.id DESC`

	rows := []Row{}
	if err := e.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("%w: sales report: %v", ErrQueryFailed, err)
	}
	return rows, nil
}

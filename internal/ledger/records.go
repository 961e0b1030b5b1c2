package ledger

import (
	"database/sql"
	"errors"
	"strconv"

	"barberpos/m/domain"
)

// Customers

func (s *Store) ListCustomers(search string) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	if search == "" {
		err := s.db.Select(&customers, `SELECT * FROM customers ORDER BY created_at DESC`)
		return customers, err
	}
	like := "%" + search + "%"
	err := s.db.Select(&customers, `SELECT * FROM customers WHERE name LIKE ? OR phone LIKE ? ORDER BY created_at DESC`, like, like)
	return customers, err
}

func (s *Store) Customer(id int64) (domain.Customer, error) {
	var c domain.Customer
	err := s.db.Get(&c, `SELECT * FROM customers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, ErrNotFound
	}
	if err != nil {
		return domain.Customer{}, err
	}
	return c, nil
}

func (s *Store) CreateCustomer(c domain.Customer) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO customers (name, phone, email, address, notes) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Phone, c.Email, c.Address, c.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UpdateCustomer(c domain.Customer) error {
	res, err := s.db.Exec(`UPDATE customers SET name = ?, phone = ?, email = ?, address = ?, notes = ? WHERE id = ?`,
		c.Name, c.Phone, c.Email, c.Address, c.Notes, c.ID)
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

func (s *Store) DeleteCustomer(id int64) error {
	res, err := s.db.Exec(`DELETE FROM customers WHERE id = ?`, id)
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

// Expenses

func (s *Store) ListExpenses(from, to string) ([]domain.Expense, error) {
	expenses := []domain.Expense{}
	if from == "" && to == "" {
		err := s.db.Select(&expenses, `SELECT * FROM expenses ORDER BY expense_date DESC, id DESC`)
		return expenses, err
	}
	err := s.db.Select(&expenses, `SELECT * FROM expenses WHERE expense_date >= ? AND expense_date <= ? ORDER BY expense_date DESC, id DESC`, from, to)
	return expenses, err
}

func (s *Store) CreateExpense(e domain.Expense) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO expenses (name, amount, category, expense_date) VALUES (?, ?, ?, ?)`,
		e.Name, e.Amount, e.Category, e.ExpenseDate)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) DeleteExpense(id int64) error {
	res, err := s.db.Exec(`DELETE FROM expenses WHERE id = ?`, id)
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

// Settings

func (s *Store) Setting(key string) (string, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

func (s *Store) PutSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

func (s *Store) AllSettings() (map[string]string, error) {
	rows := []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}{}
	if err := s.db.Select(&rows, `SELECT key, value FROM settings`); err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

// TaxRate reads the configured tax rate as a fraction. A missing or
// malformed setting falls back to zero, with a warning so a corrupt value
// does not silently make sales tax-free.
func (s *Store) TaxRate() float64 {
	value, err := s.Setting("tax_rate")
	if err != nil {
		s.log.WithError(err).Warn("tax_rate setting unreadable, falling back to 0")
		return 0
	}
	rate, err := strconv.ParseFloat(value, 64)
	if err != nil || rate < 0 {
		s.log.WithField("value", value).Warn("tax_rate setting malformed, falling back to 0")
		return 0
	}
	return rate
}

// Users

func (s *Store) UserByEmail(email string) (domain.User, error) {
	var u domain.User
	err := s.db.Get(&u, `SELECT id, username, email, password, role, created_at FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *Store) CreateUser(u domain.User) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO users (username, email, password, role) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, u.Password, u.Role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UpdateUserPassword(id int64, hashed string) error {
	_, err := s.db.Exec(`UPDATE users SET password = ? WHERE id = ?`, hashed, id)
	return err
}

package ledger

import (
	"database/sql"
	"errors"

	"barberpos/m/domain"
)

func (s *Store) Product(id int64) (domain.Product, error) {
	var p domain.Product
	err := s.db.Get(&p, `SELECT * FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *Store) ProductByBarcode(barcode string) (domain.Product, error) {
	var p domain.Product
	err := s.db.Get(&p, `SELECT * FROM products WHERE barcode = ?`, barcode)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// ListProducts returns products, optionally filtered by a name/barcode
// search term.
func (s *Store) ListProducts(search string) ([]domain.Product, error) {
	products := []domain.Product{}
	if search == "" {
		err := s.db.Select(&products, `SELECT * FROM products ORDER BY category, name`)
		return products, err
	}
	like := "%" + search + "%"
	err := s.db.Select(&products, `SELECT * FROM products WHERE name LIKE ? OR barcode LIKE ? ORDER BY category, name`, like, like)
	return products, err
}

// LowStockProducts lists products at or below their low-stock threshold.
func (s *Store) LowStockProducts() ([]domain.Product, error) {
	products := []domain.Product{}
	err := s.db.Select(&products, `SELECT * FROM products WHERE quantity <= low_stock_threshold ORDER BY quantity ASC, name ASC`)
	return products, err
}

func (s *Store) CreateProduct(p domain.Product) (int64, error) {
	res, err := s.db.Exec(`
        INSERT INTO products (name, barcode, price, cost, quantity, low_stock_threshold, category, image)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Barcode, p.Price, p.Cost, p.Quantity, p.LowStockThreshold, p.Category, p.Image)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UpdateProduct(p domain.Product) error {
	res, err := s.db.Exec(`
        UPDATE products
        SET name = ?, barcode = ?, price = ?, cost = ?, quantity = ?, low_stock_threshold = ?, category = ?, image = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ?`,
		p.Name, p.Barcode, p.Price, p.Cost, p.Quantity, p.LowStockThreshold, p.Category, p.Image, p.ID)
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

func (s *Store) DeleteProduct(id int64) error {
	res, err := s.db.Exec(`DELETE FROM products WHERE id = ?`, id)
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

package ledger

import (
	"database/sql"
	"errors"

	"barberpos/m/domain"
)

func (s *Store) Barber(id int64) (domain.Barber, error) {
	var b domain.Barber
	err := s.db.Get(&b, `SELECT * FROM barbers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Barber{}, ErrNotFound
	}
	if err != nil {
		return domain.Barber{}, err
	}
	return b, nil
}

// ListBarbers returns barbers ordered by name, optionally only active ones.
func (s *Store) ListBarbers(activeOnly bool) ([]domain.Barber, error) {
	barbers := []domain.Barber{}
	if activeOnly {
		err := s.db.Select(&barbers, `SELECT * FROM barbers WHERE status = ? ORDER BY name`, domain.BarberActive)
		return barbers, err
	}
	err := s.db.Select(&barbers, `SELECT * FROM barbers ORDER BY name`)
	return barbers, err
}

func (s *Store) CreateBarber(b domain.Barber) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO barbers (name, phone, specialization, commission_rate, status) VALUES (?, ?, ?, ?, ?)`,
		b.Name, b.Phone, b.Specialization, b.CommissionRate, b.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) UpdateBarber(b domain.Barber) error {
	res, err := s.db.Exec(`UPDATE barbers SET name = ?, phone = ?, specialization = ?, commission_rate = ?, status = ? WHERE id = ?`,
		b.Name, b.Phone, b.Specialization, b.CommissionRate, b.Status, b.ID)
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

func (s *Store) DeleteBarber(id int64) error {
	res, err := s.db.Exec(`DELETE FROM barbers WHERE id = ?`, id)
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

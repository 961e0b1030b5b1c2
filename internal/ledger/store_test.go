package ledger

import (
	"errors"
	"io"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	_ "modernc.org/sqlite"

	"barberpos/m/domain"
	"barberpos/m/internal/migrations"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	migrations.Run(db)
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(newTestDB(t), log)
}

func seedProduct(t *testing.T, s *Store, name string, price float64, quantity int64) int64 {
	t.Helper()
	id, err := s.CreateProduct(domain.Product{Name: name, Price: price, Quantity: quantity, LowStockThreshold: 2})
	if err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return id
}

func TestDecrementStockTx(t *testing.T) {
	s := newTestStore(t)
	id := seedProduct(t, s, "Pomade", 15, 10)

	err := s.WithTx(func(tx *sqlx.Tx) error {
		return s.DecrementStockTx(tx, id, 4)
	})
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}

	p, err := s.Product(id)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if p.Quantity != 6 {
		t.Fatalf("expected quantity 6, got %d", p.Quantity)
	}
}

func TestDecrementStockTx_InsufficientStock(t *testing.T) {
	s := newTestStore(t)
	id := seedProduct(t, s, "Razor Blades", 8, 3)

	err := s.WithTx(func(tx *sqlx.Tx) error {
		return s.DecrementStockTx(tx, id, 5)
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	p, _ := s.Product(id)
	if p.Quantity != 3 {
		t.Fatalf("stock must be untouched after rejection, got %d", p.Quantity)
	}
}

func TestDecrementStockTx_UnknownProduct(t *testing.T) {
	s := newTestStore(t)

	err := s.WithTx(func(tx *sqlx.Tx) error {
		return s.DecrementStockTx(tx, 9999, 1)
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := newTestStore(t)
	id := seedProduct(t, s, "Shampoo", 12, 10)

	boom := errors.New("boom")
	err := s.WithTx(func(tx *sqlx.Tx) error {
		if err := s.DecrementStockTx(tx, id, 3); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	p, _ := s.Product(id)
	if p.Quantity != 10 {
		t.Fatalf("decrement must roll back with the transaction, got quantity %d", p.Quantity)
	}
}

func TestLowStockProducts(t *testing.T) {
	s := newTestStore(t)
	seedProduct(t, s, "Plenty", 5, 50)
	low := seedProduct(t, s, "Nearly Out", 5, 1)

	products, err := s.LowStockProducts()
	if err != nil {
		t.Fatalf("low stock query: %v", err)
	}
	if len(products) != 1 || products[0].ID != low {
		t.Fatalf("expected only the low product, got %+v", products)
	}
}

func TestUpdateProduct_NotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateProduct(domain.Product{ID: 42, Name: "Ghost", Price: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettings_TaxRate(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := New(newTestDB(t), log)

	if rate := s.TaxRate(); rate != 0 {
		t.Fatalf("missing setting must read as 0, got %v", rate)
	}

	if err := s.PutSetting("tax_rate", "0.15"); err != nil {
		t.Fatalf("put setting: %v", err)
	}
	hook.Reset()
	if rate := s.TaxRate(); rate != 0.15 {
		t.Fatalf("expected 0.15, got %v", rate)
	}
	if len(hook.Entries) != 0 {
		t.Fatalf("valid rate must not log, got %d entries", len(hook.Entries))
	}

	if err := s.PutSetting("tax_rate", "not a number"); err != nil {
		t.Fatalf("put setting: %v", err)
	}
	hook.Reset()
	if rate := s.TaxRate(); rate != 0 {
		t.Fatalf("malformed setting must read as 0, got %v", rate)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatal("malformed rate must log a warning")
	}
}

func TestBarbers_CRUD(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateBarber(domain.Barber{Name: "Karim", CommissionRate: 30, Status: domain.BarberActive})
	if err != nil {
		t.Fatalf("create barber: %v", err)
	}
	if _, err := s.CreateBarber(domain.Barber{Name: "Adel", CommissionRate: 25, Status: domain.BarberInactive}); err != nil {
		t.Fatalf("create second barber: %v", err)
	}

	active, err := s.ListBarbers(true)
	if err != nil {
		t.Fatalf("list active barbers: %v", err)
	}
	if len(active) != 1 || active[0].ID != id {
		t.Fatalf("expected only Karim active, got %+v", active)
	}

	all, err := s.ListBarbers(false)
	if err != nil {
		t.Fatalf("list barbers: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Adel" {
		t.Fatalf("expected both barbers ordered by name, got %+v", all)
	}

	if err := s.UpdateBarber(domain.Barber{ID: id, Name: "Karim", CommissionRate: 40, Status: domain.BarberActive}); err != nil {
		t.Fatalf("update barber: %v", err)
	}
	b, err := s.Barber(id)
	if err != nil {
		t.Fatalf("reload barber: %v", err)
	}
	if b.CommissionRate != 40 {
		t.Fatalf("expected commission 40, got %v", b.CommissionRate)
	}

	if err := s.DeleteBarber(id); err != nil {
		t.Fatalf("delete barber: %v", err)
	}
	if err := s.DeleteBarber(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestAccrueStatsTx(t *testing.T) {
	s := newTestStore(t)

	customerID, err := s.CreateCustomer(domain.Customer{Name: "Omar", Phone: "555-0199"})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	barberID, err := s.CreateBarber(domain.Barber{Name: "Karim", CommissionRate: 30, Status: domain.BarberActive})
	if err != nil {
		t.Fatalf("seed barber: %v", err)
	}

	err = s.WithTx(func(tx *sqlx.Tx) error {
		if err := s.AccrueCustomerStatsTx(tx, customerID, 103.5, 10, "2026-09-01 14:30:00"); err != nil {
			return err
		}
		return s.AccrueBarberStatsTx(tx, barberID, 103.5)
	})
	if err != nil {
		t.Fatalf("accrue: %v", err)
	}

	c, err := s.Customer(customerID)
	if err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	if c.TotalVisits != 1 || c.TotalSpent != 103.5 || c.LoyaltyPoints != 10 {
		t.Fatalf("unexpected customer stats: %+v", c)
	}
	if c.LastVisit == nil || *c.LastVisit != "2026-09-01 14:30:00" {
		t.Fatalf("expected last visit recorded, got %+v", c.LastVisit)
	}

	b, err := s.Barber(barberID)
	if err != nil {
		t.Fatalf("reload barber: %v", err)
	}
	if b.TotalServices != 1 || b.TotalRevenue != 103.5 {
		t.Fatalf("unexpected barber stats: %+v", b)
	}

	err = s.WithTx(func(tx *sqlx.Tx) error {
		return s.AccrueCustomerStatsTx(tx, 9999, 1, 0, "2026-09-01 14:30:00")
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown customer, got %v", err)
	}
}

func TestCustomer_PhoneUnique(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateCustomer(domain.Customer{Name: "Ana", Phone: "555-0101"}); err != nil {
		t.Fatalf("first customer: %v", err)
	}
	if _, err := s.CreateCustomer(domain.Customer{Name: "Bruno", Phone: "555-0101"}); err == nil {
		t.Fatal("duplicate phone must be rejected")
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"barberpos/m/domain"
	"barberpos/m/internal/ledger"
	"barberpos/m/internal/migrations"
	"barberpos/m/internal/report"
	"barberpos/m/internal/sales"
)

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Store) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "pos.db")
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	migrations.Run(db)

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := ledger.New(db, log)
	poster := sales.NewPoster(store, log)
	reports := report.New(db)
	h := New(store, poster, reports, log, "test_secret", dbPath, filepath.Join(dir, "backups"))

	server := httptest.NewServer(h.Router())
	t.Cleanup(server.Close)
	return server, store
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	decoded := map[string]json.RawMessage{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)
	return resp, decoded
}

func registerUser(t *testing.T, baseURL, email, role string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, baseURL+"/auth/register", "", map[string]string{
		"username": "tester",
		"email":    email,
		"password": "s3cret-pass",
		"role":     role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d", email, resp.StatusCode)
	}
	var token string
	if err := json.Unmarshal(body["token"], &token); err != nil || token == "" {
		t.Fatalf("register %s: missing token", email)
	}
	return token
}

func TestAuth_LoginFlow(t *testing.T) {
	server, _ := newTestServer(t)
	registerUser(t, server.URL, "owner@shop.test", "admin")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/auth/login", "", map[string]string{
		"email":    "owner@shop.test",
		"password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	if _, ok := body["token"]; !ok {
		t.Fatal("login response missing token")
	}

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/auth/login", "", map[string]string{
		"email":    "owner@shop.test",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", resp.StatusCode)
	}
}

func TestAuth_MissingTokenRejected(t *testing.T) {
	server, _ := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/products/", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestSaleEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	token := registerUser(t, server.URL, "owner@shop.test", "admin")

	if err := store.PutSetting("tax_rate", "0.15"); err != nil {
		t.Fatalf("put setting: %v", err)
	}

	resp, created := doJSON(t, http.MethodPost, server.URL+"/products/", token, map[string]any{
		"name":     "Haircut",
		"price":    35.0,
		"quantity": 10,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create product: status %d", resp.StatusCode)
	}
	var productID int64
	if err := json.Unmarshal(created["id"], &productID); err != nil {
		t.Fatalf("decode product id: %v", err)
	}

	resp, receipt := doJSON(t, http.MethodPost, server.URL+"/sales", token, map[string]any{
		"items":          []map[string]any{{"product_id": productID, "unit_price": 35.0, "quantity": 2}},
		"discount":       0,
		"payment_method": "cash",
		"paid_amount":    100.0,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post sale: status %d, body %v", resp.StatusCode, receipt)
	}
	var total float64
	if err := json.Unmarshal(receipt["total"], &total); err != nil {
		t.Fatalf("decode total: %v", err)
	}
	if total != 80.5 {
		t.Fatalf("expected total 80.5 with configured tax, got %v", total)
	}

	// More than the remaining stock.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/sales", token, map[string]any{
		"items":          []map[string]any{{"product_id": productID, "unit_price": 35.0, "quantity": 50}},
		"payment_method": "cash",
		"paid_amount":    5000.0,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("oversell: expected 409, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/sales", token, map[string]any{
		"items":          []map[string]any{},
		"payment_method": "cash",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty cart: expected 400, got %d", resp.StatusCode)
	}
}

func TestBarberEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	admin := registerUser(t, server.URL, "owner@shop.test", "admin")
	cashier := registerUser(t, server.URL, "cashier@shop.test", "cashier")

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/barbers/", cashier, map[string]any{
		"name": "Karim", "commission_rate": 30.0,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cashier barber create: expected 403, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/barbers/", admin, map[string]any{
		"name": "Karim", "commission_rate": 30.0,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create barber: status %d, body %v", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/barbers/?active=true", cashier, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list barbers: status %d", resp.StatusCode)
	}
}

func TestSaleEndpoint_UnknownCustomer(t *testing.T) {
	server, store := newTestServer(t)
	token := registerUser(t, server.URL, "owner@shop.test", "admin")

	productID, err := store.CreateProduct(domain.Product{Name: "Comb", Price: 5, Quantity: 10})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/sales", token, map[string]any{
		"items":          []map[string]any{{"product_id": productID, "unit_price": 5.0, "quantity": 1}},
		"payment_method": "cash",
		"paid_amount":    5.0,
		"customer_id":    9999,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown customer: expected 400, got %d", resp.StatusCode)
	}
}

func TestReports_AdminOnly(t *testing.T) {
	server, _ := newTestServer(t)
	cashier := registerUser(t, server.URL, "cashier@shop.test", "cashier")

	url := fmt.Sprintf("%s/reports/sales?start_date=2026-09-01&end_date=2026-09-30", server.URL)
	resp, _ := doJSON(t, http.MethodGet, url, cashier, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cashier report access: expected 403, got %d", resp.StatusCode)
	}

	admin := registerUser(t, server.URL, "owner2@shop.test", "admin")
	resp, _ = doJSON(t, http.MethodGet, url, admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin report access: expected 200, got %d", resp.StatusCode)
	}
}

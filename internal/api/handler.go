package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"barberpos/m/domain"
	"barberpos/m/internal/ledger"
	"barberpos/m/internal/report"
	"barberpos/m/internal/sales"
)

type ctxKey string

const (
	ctxUserID ctxKey = "userID"
	ctxRole   ctxKey = "role"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store     *ledger.Store
	poster    *sales.Poster
	reports   *report.Engine
	log       *logrus.Logger
	secret    string
	dbPath    string
	backupDir string
}

// New constructs a Handler.
func New(store *ledger.Store, poster *sales.Poster, reports *report.Engine, log *logrus.Logger, secret, dbPath, backupDir string) *Handler {
	return &Handler{store: store, poster: poster, reports: reports, log: log, secret: secret, dbPath: dbPath, backupDir: backupDir}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Post("/reset-password", h.resetPassword)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.createProduct)
			r.Get("/low-stock", h.lowStockProducts)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.deleteProduct)
		})

		pr.Route("/barbers", func(r chi.Router) {
			r.Get("/", h.listBarbers)
			r.Post("/", h.createBarber)
			r.Put("/{id}", h.updateBarber)
			r.Delete("/{id}", h.deleteBarber)
		})

		pr.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Post("/", h.createCustomer)
			r.Put("/{id}", h.updateCustomer)
			r.Delete("/{id}", h.deleteCustomer)
		})

		pr.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.listExpenses)
			r.Post("/", h.createExpense)
			r.Delete("/{id}", h.deleteExpense)
		})

		pr.Route("/settings", func(r chi.Router) {
			r.Get("/", h.getSettings)
			r.Put("/", h.putSettings)
		})

		pr.Post("/sales", h.postSale)
		pr.Get("/dashboard", h.dashboard)
		pr.Get("/reports/sales", h.salesReport)
		pr.Post("/admin/backup", h.backup)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) generateToken(userID int64, role string) (string, error) {
	claims := authClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	role := r.Context().Value(ctxRole)
	if role == nil {
		respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	current := role.(string)
	for _, allowedRole := range allowed {
		if current == allowedRole {
			return true
		}
	}
	respondError(w, http.StatusForbidden, "insufficient permissions")
	return false
}

func userIDFromContext(r *http.Request) int64 {
	if val := r.Context().Value(ctxUserID); val != nil {
		if id, ok := val.(int64); ok {
			return id
		}
	}
	return 0
}

// Auth handlers

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		respondError(w, http.StatusBadRequest, "username, email, password and role are required")
		return
	}
	if req.Role != domain.RoleAdmin && req.Role != domain.RoleCashier {
		respondError(w, http.StatusBadRequest, "role must be admin or cashier")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	userID, err := h.store.CreateUser(domain.User{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Password: string(hashed),
		Role:     req.Role,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			respondError(w, http.StatusConflict, "email already exists")
		} else {
			respondError(w, http.StatusInternalServerError, "unable to create user")
		}
		return
	}

	token, err := h.generateToken(userID, req.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: domain.User{ID: userID, Username: req.Username, Email: strings.ToLower(req.Email), Role: req.Role}})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.UserByEmail(strings.ToLower(req.Email))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.generateToken(user.ID, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	user.Password = ""
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "new_password is required")
		return
	}
	uid := userIDFromContext(r)
	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}
	if err := h.store.UpdateUserPassword(uid, string(hashed)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// Product handlers

type productRequest struct {
	Name              string  `json:"name"`
	Barcode           *string `json:"barcode,omitempty"`
	Price             float64 `json:"price"`
	Cost              float64 `json:"cost"`
	Quantity          int64   `json:"quantity"`
	LowStockThreshold int64   `json:"low_stock_threshold"`
	Category          *string `json:"category,omitempty"`
	Image             *string `json:"image,omitempty"`
}

func (req productRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if req.Price < 0 || req.Cost < 0 {
		return errors.New("price and cost must not be negative")
	}
	if req.Quantity < 0 || req.LowStockThreshold < 0 {
		return errors.New("quantity and low_stock_threshold must not be negative")
	}
	return nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("query"))
	if barcode := strings.TrimSpace(r.URL.Query().Get("barcode")); barcode != "" {
		product, err := h.store.ProductByBarcode(barcode)
		if errors.Is(err, ledger.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to look up product")
			return
		}
		respondJSON(w, http.StatusOK, product)
		return
	}
	products, err := h.store.ListProducts(search)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.LowStockProducts()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch alerts")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.store.CreateProduct(domain.Product{
		Name:              strings.TrimSpace(req.Name),
		Barcode:           req.Barcode,
		Price:             req.Price,
		Cost:              req.Cost,
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
		Category:          req.Category,
		Image:             req.Image,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			respondError(w, http.StatusConflict, "barcode already exists")
		} else {
			respondError(w, http.StatusInternalServerError, "unable to create product")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = h.store.UpdateProduct(domain.Product{
		ID:                id,
		Name:              strings.TrimSpace(req.Name),
		Barcode:           req.Barcode,
		Price:             req.Price,
		Cost:              req.Cost,
		Quantity:          req.Quantity,
		LowStockThreshold: req.LowStockThreshold,
		Category:          req.Category,
		Image:             req.Image,
	})
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	err = h.store.DeleteProduct(id)
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete product")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Barber handlers

type barberRequest struct {
	Name           string  `json:"name"`
	Phone          *string `json:"phone,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	CommissionRate float64 `json:"commission_rate"`
	Status         string  `json:"status"`
}

func (req barberRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.New("name is required")
	}
	if req.CommissionRate < 0 || req.CommissionRate > 100 {
		return errors.New("commission_rate must be a percentage between 0 and 100")
	}
	if req.Status != domain.BarberActive && req.Status != domain.BarberInactive {
		return errors.New("status must be active or inactive")
	}
	return nil
}

func (h *Handler) listBarbers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	barbers, err := h.store.ListBarbers(activeOnly)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list barbers")
		return
	}
	respondJSON(w, http.StatusOK, barbers)
}

func (h *Handler) createBarber(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	var req barberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status == "" {
		req.Status = domain.BarberActive
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.store.CreateBarber(domain.Barber{
		Name:           strings.TrimSpace(req.Name),
		Phone:          req.Phone,
		Specialization: req.Specialization,
		CommissionRate: req.CommissionRate,
		Status:         req.Status,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create barber")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) updateBarber(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid barber id")
		return
	}
	var req barberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = h.store.UpdateBarber(domain.Barber{
		ID:             id,
		Name:           strings.TrimSpace(req.Name),
		Phone:          req.Phone,
		Specialization: req.Specialization,
		CommissionRate: req.CommissionRate,
		Status:         req.Status,
	})
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "barber not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update barber")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deleteBarber(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid barber id")
		return
	}
	err = h.store.DeleteBarber(id)
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "barber not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete barber")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Customer handlers

type customerRequest struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("query"))
	customers, err := h.store.ListCustomers(search)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list customers")
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		respondError(w, http.StatusBadRequest, "name and phone are required")
		return
	}
	id, err := h.store.CreateCustomer(domain.Customer{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			respondError(w, http.StatusConflict, "phone already exists")
		} else {
			respondError(w, http.StatusInternalServerError, "unable to create customer")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid customer id")
		return
	}
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		respondError(w, http.StatusBadRequest, "name and phone are required")
		return
	}
	err = h.store.UpdateCustomer(domain.Customer{
		ID:      id,
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update customer")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid customer id")
		return
	}
	err = h.store.DeleteCustomer(id)
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete customer")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Expense handlers

type expenseRequest struct {
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Category    *string `json:"category,omitempty"`
	ExpenseDate string  `json:"expense_date"`
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	from := strings.TrimSpace(r.URL.Query().Get("start_date"))
	to := strings.TrimSpace(r.URL.Query().Get("end_date"))
	if (from == "") != (to == "") {
		respondError(w, http.StatusBadRequest, "start_date and end_date must be provided together")
		return
	}
	expenses, err := h.store.ListExpenses(from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list expenses")
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Amount < 0 {
		respondError(w, http.StatusBadRequest, "name and a non-negative amount are required")
		return
	}
	if _, err := time.Parse("2006-01-02", req.ExpenseDate); err != nil {
		respondError(w, http.StatusBadRequest, "expense_date must be in YYYY-MM-DD format")
		return
	}
	id, err := h.store.CreateExpense(domain.Expense{
		Name:        strings.TrimSpace(req.Name),
		Amount:      req.Amount,
		Category:    req.Category,
		ExpenseDate: req.ExpenseDate,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create expense")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	err = h.store.DeleteExpense(id)
	if errors.Is(err, ledger.ErrNotFound) {
		respondError(w, http.StatusNotFound, "expense not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete expense")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Settings handlers

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.AllSettings()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	var payload map[string]string
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if rate, ok := payload["tax_rate"]; ok {
		parsed, err := strconv.ParseFloat(rate, 64)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "tax_rate must be a non-negative fraction")
			return
		}
	}
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := h.store.PutSetting(key, strings.TrimSpace(payload[key])); err != nil {
			respondError(w, http.StatusInternalServerError, "unable to save settings")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Sales handler

type saleRequest struct {
	Items         []sales.CartItem `json:"items"`
	Discount      float64          `json:"discount"`
	TaxRate       *float64         `json:"tax_rate,omitempty"`
	PaymentMethod string           `json:"payment_method"`
	PaidAmount    float64          `json:"paid_amount"`
	CustomerID    *int64           `json:"customer_id,omitempty"`
	BarberID      *int64           `json:"barber_id,omitempty"`
}

func (h *Handler) postSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The configured rate is the snapshot unless the client sent one.
	taxRate := h.store.TaxRate()
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}

	receipt, err := h.poster.Post(r.Context(), sales.Request{
		Items:         req.Items,
		Discount:      req.Discount,
		TaxRate:       taxRate,
		PaymentMethod: req.PaymentMethod,
		PaidAmount:    req.PaidAmount,
		CustomerID:    req.CustomerID,
		BarberID:      req.BarberID,
		UserID:        userIDFromContext(r),
	})
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, receipt)
	case sales.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient stock")
	default:
		respondError(w, http.StatusInternalServerError, "unable to post sale")
	}
}

// Reports

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.reports.DashboardMetrics(time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute dashboard")
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

func (h *Handler) salesReport(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	from := strings.TrimSpace(r.URL.Query().Get("start_date"))
	to := strings.TrimSpace(r.URL.Query().Get("end_date"))
	for _, value := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", value); err != nil {
			respondError(w, http.StatusBadRequest, "start_date and end_date must be in YYYY-MM-DD format")
			return
		}
	}

	var userID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "user_id must be numeric")
			return
		}
		userID = &parsed
	}

	rows, err := h.reports.SalesReport(from, to, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch sales report")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// Backup copies the database file into the backup directory and keeps the
// newest 30 copies.
func (h *Handler) backup(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	if err := os.MkdirAll(h.backupDir, 0o755); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to prepare backup directory")
		return
	}
	name := fmt.Sprintf("backup_%s.db", time.Now().UTC().Format("20060102_150405"))
	target := filepath.Join(h.backupDir, name)
	if err := copyFile(h.dbPath, target); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create backup")
		return
	}
	pruneBackups(h.backupDir, 30)
	respondJSON(w, http.StatusCreated, map[string]string{"backup": target})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func pruneBackups(dir string, keep int) {
	matches, err := filepath.Glob(filepath.Join(dir, "backup_*.db"))
	if err != nil {
		return
	}
	sort.Strings(matches)
	for len(matches) > keep {
		_ = os.Remove(matches[0])
		matches = matches[1:]
	}
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

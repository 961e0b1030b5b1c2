// Package sales turns a cart into a durably recorded sale: validation,
// pricing, then one atomic write of header, line items and stock decrements.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"barberpos/m/domain"
	"barberpos/m/internal/ledger"
	"barberpos/m/internal/pricing"
)

var (
	ErrEmptyCart        = errors.New("sales: empty cart")
	ErrInvalidLine      = errors.New("sales: invalid cart line")
	ErrInvalidRequest   = errors.New("sales: invalid request")
	ErrInvalidDiscount  = errors.New("sales: invalid discount")
	ErrInvalidTaxRate   = errors.New("sales: invalid tax rate")
	ErrInvalidPayment   = errors.New("sales: invalid payment method")
	ErrProductNotFound  = errors.New("sales: product not found")
	ErrCustomerNotFound = errors.New("sales: customer not found")
	ErrBarberNotFound   = errors.New("sales: barber not found")

	// ErrPostingFailed wraps transactional write failures. Nothing partial
	// was persisted, so the caller may resubmit the identical cart.
	ErrPostingFailed = errors.New("sales: posting failed")
)

// IsValidation reports whether err is a pre-write rejection the caller can
// fix and resubmit.
func IsValidation(err error) bool {
	for _, sentinel := range []error{ErrEmptyCart, ErrInvalidLine, ErrInvalidRequest, ErrInvalidDiscount, ErrInvalidTaxRate, ErrInvalidPayment, ErrProductNotFound, ErrCustomerNotFound, ErrBarberNotFound} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// CartItem is one checkout line: the price is the price charged at sale
// time, not the live product price.
type CartItem struct {
	ProductID int64   `json:"product_id"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int64   `json:"quantity"`
}

// Request carries everything needed to post a sale. TaxRate is a snapshot
// of the configured rate at checkout time.
type Request struct {
	Items         []CartItem
	Discount      float64
	TaxRate       float64
	PaymentMethod string
	PaidAmount    float64
	CustomerID    *int64
	BarberID      *int64
	UserID        int64
}

// Receipt is the committed outcome returned to the caller.
type Receipt struct {
	SaleID        int64   `json:"sale_id"`
	ReceiptNo     string  `json:"receipt_no"`
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
	ChangeAmount  float64 `json:"change_amount"`
	LoyaltyPoints int64   `json:"loyalty_points"`
}

// Poster orchestrates sale posting against an explicitly injected store.
type Poster struct {
	store *ledger.Store
	log   *logrus.Logger
	now   func() time.Time
}

func NewPoster(store *ledger.Store, log *logrus.Logger) *Poster {
	return &Poster{store: store, log: log, now: time.Now}
}

const timeLayout = "2006-01-02 15:04:05"

// Post validates and prices the cart, then commits the sale atomically.
// Cancellation is honored up to the moment the transaction starts; once
// committing, the operation runs to completion or failure.
func (p *Poster) Post(ctx context.Context, req Request) (Receipt, error) {
	if err := validate(req); err != nil {
		return Receipt{}, err
	}

	lines := make([]pricing.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = pricing.Line{ProductID: item.ProductID, UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	quote := pricing.Quote(lines, req.Discount, req.TaxRate, req.PaidAmount)

	// A discount above the subtotal would push the total negative; that is
	// caller error, not a sale.
	if decimal.NewFromFloat(req.Discount).GreaterThan(quote.Subtotal) {
		return Receipt{}, fmt.Errorf("%w: discount exceeds subtotal", ErrInvalidDiscount)
	}

	// Customer and barber references are validated up front; the foreign
	// keys still guard the committed rows.
	if req.CustomerID != nil {
		if _, err := p.store.Customer(*req.CustomerID); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return Receipt{}, fmt.Errorf("%w: customer %d", ErrCustomerNotFound, *req.CustomerID)
			}
			return Receipt{}, fmt.Errorf("%w: %v", ErrPostingFailed, err)
		}
	}
	if req.BarberID != nil {
		if _, err := p.store.Barber(*req.BarberID); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return Receipt{}, fmt.Errorf("%w: barber %d", ErrBarberNotFound, *req.BarberID)
			}
			return Receipt{}, fmt.Errorf("%w: %v", ErrPostingFailed, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	// One loyalty point per ten spent, truncated.
	loyaltyPoints := quote.Total.Mul(decimal.NewFromFloat(0.1)).IntPart()

	now := p.now().UTC()
	sale := domain.Sale{
		CustomerID:    req.CustomerID,
		BarberID:      req.BarberID,
		Subtotal:      pricing.Round2(quote.Subtotal),
		Discount:      pricing.Round2(quote.Discount),
		Tax:           pricing.Round2(quote.Tax),
		Total:         pricing.Round2(quote.Total),
		PaymentMethod: req.PaymentMethod,
		PaidAmount:    req.PaidAmount,
		ChangeAmount:  pricing.Round2(quote.Change),
		UserID:        req.UserID,
		CreatedAt:     now.Format(timeLayout),
	}

	var saleID int64
	err := p.store.WithTx(func(tx *sqlx.Tx) error {
		// Every referenced product must exist before anything is written.
		for _, item := range req.Items {
			if _, err := p.store.ProductTx(tx, item.ProductID); err != nil {
				if errors.Is(err, ledger.ErrNotFound) {
					return fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
				}
				return err
			}
		}

		receiptNo, err := p.nextReceiptNo(tx, now)
		if err != nil {
			return err
		}
		sale.ReceiptNo = receiptNo

		saleID, err = p.store.InsertSaleTx(tx, sale)
		if err != nil {
			return err
		}

		items := make([]domain.SaleItem, len(req.Items))
		for i, item := range req.Items {
			items[i] = domain.SaleItem{SaleID: saleID, ProductID: item.ProductID, Quantity: item.Quantity, Price: item.UnitPrice}
		}
		if err := p.store.InsertSaleItemsTx(tx, saleID, items); err != nil {
			return err
		}

		for _, item := range req.Items {
			if err := p.store.DecrementStockTx(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if req.CustomerID != nil {
			if err := p.store.AccrueCustomerStatsTx(tx, *req.CustomerID, sale.Total, loyaltyPoints, sale.CreatedAt); err != nil {
				return err
			}
		}
		if req.BarberID != nil {
			if err := p.store.AccrueBarberStatsTx(tx, *req.BarberID, sale.Total); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if IsValidation(err) || errors.Is(err, ledger.ErrInsufficientStock) {
			return Receipt{}, err
		}
		p.log.WithFields(logrus.Fields{"user_id": req.UserID, "items": len(req.Items)}).WithError(err).Error("sale posting rolled back")
		return Receipt{}, fmt.Errorf("%w: %v", ErrPostingFailed, err)
	}

	p.log.WithFields(logrus.Fields{
		"sale_id":    saleID,
		"receipt_no": sale.ReceiptNo,
		"total":      sale.Total,
		"user_id":    req.UserID,
	}).Info("sale committed")

	receipt := Receipt{
		SaleID:       saleID,
		ReceiptNo:    sale.ReceiptNo,
		Subtotal:     sale.Subtotal,
		Discount:     sale.Discount,
		Tax:          sale.Tax,
		Total:        sale.Total,
		ChangeAmount: sale.ChangeAmount,
	}
	if req.CustomerID != nil {
		receipt.LoyaltyPoints = loyaltyPoints
	}
	return receipt, nil
}

func validate(req Request) error {
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 || item.UnitPrice < 0 {
			return fmt.Errorf("%w: product %d", ErrInvalidLine, item.ProductID)
		}
	}
	if req.Discount < 0 {
		return ErrInvalidDiscount
	}
	if req.TaxRate < 0 {
		return ErrInvalidTaxRate
	}
	switch req.PaymentMethod {
	case domain.PaymentCash, domain.PaymentCard, domain.PaymentMixed:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPayment, req.PaymentMethod)
	}
	if req.PaidAmount < 0 {
		return fmt.Errorf("%w: negative paid amount", ErrInvalidRequest)
	}
	if req.UserID <= 0 {
		return fmt.Errorf("%w: missing user", ErrInvalidRequest)
	}
	return nil
}

// nextReceiptNo numbers receipts per day, e.g. RCP-20260901-004. Counting
// happens inside the posting transaction, so concurrent checkouts cannot
// collide.
func (p *Poster) nextReceiptNo(tx *sqlx.Tx, now time.Time) (string, error) {
	prefix := "RCP-" + now.Format("20060102")
	count, err := p.store.CountSalesWithPrefixTx(tx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", prefix, count+1), nil
}

package domain

// Payment methods accepted at checkout.
const (
	PaymentCash  = "cash"
	PaymentCard  = "card"
	PaymentMixed = "mixed"
)

type Sale struct {
	ID            int64   `db:"id" json:"id"`
	ReceiptNo     string  `db:"receipt_no" json:"receipt_no"`
	CustomerID    *int64  `db:"customer_id" json:"customer_id,omitempty"`
	BarberID      *int64  `db:"barber_id" json:"barber_id,omitempty"`
	Subtotal      float64 `db:"subtotal" json:"subtotal"`
	Discount      float64 `db:"discount" json:"discount"`
	Tax           float64 `db:"tax" json:"tax"`
	Total         float64 `db:"total" json:"total"`
	PaymentMethod string  `db:"payment_method" json:"payment_method"`
	PaidAmount    float64 `db:"paid_amount" json:"paid_amount"`
	ChangeAmount  float64 `db:"change_amount" json:"change_amount"`
	UserID        int64   `db:"user_id" json:"user_id"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
}

type SaleItem struct {
	ID        int64   `db:"id" json:"id"`
	SaleID    int64   `db:"sale_id" json:"sale_id"`
	ProductID int64   `db:"product_id" json:"product_id"`
	Quantity  int64   `db:"quantity" json:"quantity"`
	Price     float64 `db:"price" json:"price"`
}

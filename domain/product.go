package domain

type Product struct {
	ID                int64   `db:"id" json:"id"`
	Name              string  `db:"name" json:"name"`
	Barcode           *string `db:"barcode" json:"barcode,omitempty"`
	Price             float64 `db:"price" json:"price"`
	Cost              float64 `db:"cost" json:"cost"`
	Quantity          int64   `db:"quantity" json:"quantity"`
	LowStockThreshold int64   `db:"low_stock_threshold" json:"low_stock_threshold"`
	Category          *string `db:"category" json:"category,omitempty"`
	Image             *string `db:"image" json:"image,omitempty"`
	CreatedAt         string  `db:"created_at" json:"created_at"`
	UpdatedAt         string  `db:"updated_at" json:"updated_at"`
}

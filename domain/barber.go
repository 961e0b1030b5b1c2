package domain

// Barber statuses.
const (
	BarberActive   = "active"
	BarberInactive = "inactive"
)

type Barber struct {
	ID             int64   `db:"id" json:"id"`
	Name           string  `db:"name" json:"name"`
	Phone          *string `db:"phone" json:"phone,omitempty"`
	Specialization *string `db:"specialization" json:"specialization,omitempty"`
	CommissionRate float64 `db:"commission_rate" json:"commission_rate"`
	Status         string  `db:"status" json:"status"`
	TotalServices  int64   `db:"total_services" json:"total_services"`
	TotalRevenue   float64 `db:"total_revenue" json:"total_revenue"`
	CreatedAt      string  `db:"created_at" json:"created_at"`
}

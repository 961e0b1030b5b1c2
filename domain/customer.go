package domain

type Customer struct {
	ID            int64   `db:"id" json:"id"`
	Name          string  `db:"name" json:"name"`
	Phone         string  `db:"phone" json:"phone"`
	Email         *string `db:"email" json:"email,omitempty"`
	Address       *string `db:"address" json:"address,omitempty"`
	Notes         *string `db:"notes" json:"notes,omitempty"`
	TotalVisits   int64   `db:"total_visits" json:"total_visits"`
	TotalSpent    float64 `db:"total_spent" json:"total_spent"`
	LoyaltyPoints int64   `db:"loyalty_points" json:"loyalty_points"`
	LastVisit     *string `db:"last_visit" json:"last_visit,omitempty"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
}

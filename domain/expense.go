package domain

type Expense struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Amount      float64 `db:"amount" json:"amount"`
	Category    *string `db:"category" json:"category,omitempty"`
	ExpenseDate string  `db:"expense_date" json:"expense_date"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
}

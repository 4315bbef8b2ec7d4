package expense

import (
	"time"

	"github.com/expensary/expensary/internal/classify"
)

// How a persisted category was chosen
const (
	CategorySourceSuggested = "suggested"
	CategorySourceManual    = "manual"
)

// Expense represents a submitted receipt with its extracted metadata
type Expense struct {
	ID              string            `json:"id"`
	Vendor          string            `json:"vendor"`
	Date            time.Time         `json:"date"`
	Amount          int               `json:"amount"` // Amount in cents
	Category        classify.Category `json:"category,omitempty"`
	CategorySource  string            `json:"category_source,omitempty"`
	Filename        string            `json:"filename"`
	ContentType     string            `json:"content_type"`
	ReimbursementID string            `json:"reimbursement_id,omitempty"` // ID of the reimbursement this expense belongs to
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Reimbursement represents a payout event covering a batch of expenses
type Reimbursement struct {
	ID          string    `json:"id"`
	ExpenseIDs  []string  `json:"expense_ids"` // IDs of expenses in this reimbursement
	TotalAmount int       `json:"total_amount"` // Total amount in cents
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

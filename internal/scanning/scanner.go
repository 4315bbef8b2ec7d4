package scanning

import "context"

// Fields contains the information extracted from a receipt
type Fields struct {
	Vendor string  `json:"vendor"`
	Date   string  `json:"date"` // ISO 8601 format
	Amount float64 `json:"amount"`
}

// Scanner defines the interface for receipt extraction backends
type Scanner interface {
	// Scan analyzes a receipt image/PDF and extracts its fields. The report
	// callback, when non-nil, receives stage updates as the scan advances.
	// The scanner never reports complete or error itself; that is the
	// caller's decision once Scan returns.
	Scan(ctx context.Context, data []byte, contentType string, report ProgressFunc) (*Fields, error)
	// Close closes the scanner and releases resources
	Close() error
}

// notify invokes the progress callback if one was supplied
func notify(report ProgressFunc, u StageUpdate) {
	if report != nil {
		report(u)
	}
}

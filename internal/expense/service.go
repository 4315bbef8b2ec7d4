package expense

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/expensary/expensary/internal/classify"
	"github.com/expensary/expensary/internal/scanning"
)

// IDGenerator generates unique IDs for expenses and sessions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles expense ingestion and lifecycle operations
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	table       *classify.Table
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage, table *classify.Table) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		table:       table,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, table *classify.Table, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		table:       table,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// NewSession creates an upload session classifying against the service's table
func (s *Service) NewSession() *Session {
	return NewSession(s.idGenerator.Generate(), s.table)
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	// Get the extension
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Remove special characters, keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	// Replace multiple spaces with single space
	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	// Trim spaces
	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	// If base is empty after sanitization, use a default
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// Ingest runs the full pipeline for one upload session: the preview render
// starts, the stored copy is written, the scanner drives the stage tracker
// through its callbacks, the extracted vendor feeds the classifier, and the
// resulting expense is persisted. A scan or persistence failure cleans up the
// stored file and surfaces as the session's error stage.
func (s *Service) Ingest(ctx context.Context, session *Session, filename string, data []byte, contentType string) (*Expense, error) {
	session.StartUpload(data, contentType)

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	// Sanitize filename to clean up phone-generated long filenames
	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		session.OnStageUpdate(scanning.StageUpdate{Stage: scanning.StageError, Message: "storing file failed"})
		return nil, fmt.Errorf("saving file: %w", err)
	}

	fields, err := s.scanner.Scan(ctx, data, contentType, session.OnStageUpdate)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since scanning failed
		s.storage.Delete(savedPath)
		session.OnStageUpdate(scanning.StageUpdate{Stage: scanning.StageError, Message: err.Error()})
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	session.OnVendorExtracted(fields.Vendor)

	// Parse date
	date, err := time.Parse("2006-01-02", fields.Date)
	if err != nil {
		date = now
	}

	// Convert amount from dollars (float) to cents (int)
	amountCents := int(fields.Amount * 100)

	category, source := session.Category()

	expense := &Expense{
		ID:             id,
		Vendor:         fields.Vendor,
		Date:           date,
		Amount:         amountCents,
		Category:       category,
		CategorySource: source,
		Filename:       savedPath,
		ContentType:    contentType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.SaveExpense(expense); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		session.OnStageUpdate(scanning.StageUpdate{Stage: scanning.StageError, Message: "saving expense failed"})
		return nil, fmt.Errorf("saving expense to database: %w", err)
	}

	session.setExpenseID(expense.ID)
	session.OnStageUpdate(scanning.StageUpdate{Stage: scanning.StageComplete, Progress: 100})

	return expense, nil
}

// SetCategory applies a category choice to a session, either accepting the
// standing suggestion or recording a manual value, and updates the persisted
// expense when one exists
func (s *Service) SetCategory(session *Session, category classify.Category, acceptSuggestion bool) (classify.Category, error) {
	if acceptSuggestion {
		accepted, ok := session.AcceptSuggestion()
		if !ok {
			return "", fmt.Errorf("no suggestion to accept")
		}
		category = accepted
	} else {
		if category == "" {
			return "", fmt.Errorf("category is required")
		}
		session.SetCategory(category)
	}

	if id := session.ExpenseID(); id != "" {
		expense, err := s.db.GetExpense(id)
		if err != nil {
			return "", fmt.Errorf("getting expense for category update: %w", err)
		}
		chosen, source := session.Category()
		expense.Category = chosen
		expense.CategorySource = source
		expense.UpdatedAt = s.timeSource.Now()
		if err := s.db.SaveExpense(expense); err != nil {
			return "", fmt.Errorf("updating expense category: %w", err)
		}
	}

	return category, nil
}

// GetExpense retrieves an expense by ID
func (s *Service) GetExpense(id string) (*Expense, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, fmt.Errorf("getting expense: %w", err)
	}
	return expense, nil
}

// ListExpenses returns all expenses
func (s *Service) ListExpenses() ([]*Expense, error) {
	expenses, err := s.db.ListExpenses()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense and its file
func (s *Service) DeleteExpense(id string) error {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return fmt.Errorf("getting expense for deletion: %w", err)
	}

	// Delete file
	if err := s.storage.Delete(expense.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", expense.Filename, "error", err)
	}

	// Delete from database
	if err := s.db.DeleteExpense(id); err != nil {
		return fmt.Errorf("deleting expense from database: %w", err)
	}
	return nil
}

// GetExpenseFile retrieves the file data for an expense
func (s *Service) GetExpenseFile(id string) ([]byte, string, error) {
	expense, err := s.db.GetExpense(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting expense: %w", err)
	}

	data, err := s.storage.Get(expense.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting expense file: %w", err)
	}

	return data, expense.ContentType, nil
}

// CreateReimbursement creates a new reimbursement and marks the specified expenses as reimbursed
func (s *Service) CreateReimbursement(expenseIDs []string) (*Reimbursement, error) {
	if len(expenseIDs) == 0 {
		return nil, fmt.Errorf("at least one expense is required")
	}

	now := s.timeSource.Now()
	id := s.idGenerator.Generate()

	// Validate all expenses exist, are categorized and unreimbursed, and calculate total
	var totalAmount int
	for _, expenseID := range expenseIDs {
		expense, err := s.db.GetExpense(expenseID)
		if err != nil {
			return nil, fmt.Errorf("getting expense %s: %w", expenseID, err)
		}
		if expense.ReimbursementID != "" {
			return nil, fmt.Errorf("expense %s is already reimbursed", expenseID)
		}
		if expense.Category == "" {
			return nil, fmt.Errorf("expense %s has no category", expenseID)
		}
		totalAmount += expense.Amount
	}

	reimbursement := &Reimbursement{
		ID:          id,
		ExpenseIDs:  expenseIDs,
		TotalAmount: totalAmount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveReimbursement(reimbursement); err != nil {
		return nil, fmt.Errorf("saving reimbursement: %w", err)
	}

	// Mark expenses as reimbursed
	for _, expenseID := range expenseIDs {
		expense, err := s.db.GetExpense(expenseID)
		if err != nil {
			return nil, fmt.Errorf("getting expense %s for update: %w", expenseID, err)
		}
		expense.ReimbursementID = id
		expense.UpdatedAt = now
		if err := s.db.SaveExpense(expense); err != nil {
			return nil, fmt.Errorf("updating expense %s: %w", expenseID, err)
		}
	}

	return reimbursement, nil
}

// GetReimbursement retrieves a reimbursement by ID
func (s *Service) GetReimbursement(id string) (*Reimbursement, error) {
	reimbursement, err := s.db.GetReimbursement(id)
	if err != nil {
		return nil, fmt.Errorf("getting reimbursement: %w", err)
	}
	return reimbursement, nil
}

// GetReimbursementWithExpenses retrieves a reimbursement with its associated expenses
func (s *Service) GetReimbursementWithExpenses(id string) (*Reimbursement, []*Expense, error) {
	reimbursement, err := s.db.GetReimbursement(id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting reimbursement: %w", err)
	}

	expenses := make([]*Expense, 0, len(reimbursement.ExpenseIDs))
	for _, expenseID := range reimbursement.ExpenseIDs {
		expense, err := s.db.GetExpense(expenseID)
		if err != nil {
			return nil, nil, fmt.Errorf("getting expense %s: %w", expenseID, err)
		}
		expenses = append(expenses, expense)
	}

	return reimbursement, expenses, nil
}

// ListReimbursements returns all reimbursements
func (s *Service) ListReimbursements() ([]*Reimbursement, error) {
	reimbursements, err := s.db.ListReimbursements()
	if err != nil {
		return nil, fmt.Errorf("listing reimbursements: %w", err)
	}
	return reimbursements, nil
}

package expense

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	expenseBucketName       = "expenses"
	reimbursementBucketName = "reimbursements"
)

// DB defines the interface for database operations
type DB interface {
	// SaveExpense saves an expense to the database
	SaveExpense(expense *Expense) error

	// GetExpense retrieves an expense by ID
	GetExpense(id string) (*Expense, error)

	// ListExpenses returns all expenses
	ListExpenses() ([]*Expense, error)

	// DeleteExpense removes an expense from the database
	DeleteExpense(id string) error

	// SaveReimbursement saves a reimbursement to the database
	SaveReimbursement(reimbursement *Reimbursement) error

	// GetReimbursement retrieves a reimbursement by ID
	GetReimbursement(id string) (*Reimbursement, error)

	// ListReimbursements returns all reimbursements
	ListReimbursements() ([]*Reimbursement, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	// Create buckets if they don't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(expenseBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(reimbursementBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveExpense saves an expense to the database
func (b *BoltDB) SaveExpense(expense *Expense) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		data, err := json.Marshal(expense)
		if err != nil {
			return fmt.Errorf("marshaling expense: %w", err)
		}
		return bucket.Put([]byte(expense.ID), data)
	})
}

// GetExpense retrieves an expense by ID
func (b *BoltDB) GetExpense(id string) (*Expense, error) {
	var expense *Expense
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("expense not found: %s", id)
		}
		return json.Unmarshal(data, &expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns all expenses
func (b *BoltDB) ListExpenses() ([]*Expense, error) {
	expenses := make([]*Expense, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var expense Expense
			if err := json.Unmarshal(v, &expense); err != nil {
				return fmt.Errorf("unmarshaling expense: %w", err)
			}
			expenses = append(expenses, &expense)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteExpense removes an expense from the database
func (b *BoltDB) DeleteExpense(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expenseBucketName))
		return bucket.Delete([]byte(id))
	})
}

// SaveReimbursement saves a reimbursement to the database
func (b *BoltDB) SaveReimbursement(reimbursement *Reimbursement) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(reimbursementBucketName))
		data, err := json.Marshal(reimbursement)
		if err != nil {
			return fmt.Errorf("marshaling reimbursement: %w", err)
		}
		return bucket.Put([]byte(reimbursement.ID), data)
	})
}

// GetReimbursement retrieves a reimbursement by ID
func (b *BoltDB) GetReimbursement(id string) (*Reimbursement, error) {
	var reimbursement *Reimbursement
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(reimbursementBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("reimbursement not found: %s", id)
		}
		return json.Unmarshal(data, &reimbursement)
	})
	if err != nil {
		return nil, err
	}
	return reimbursement, nil
}

// ListReimbursements returns all reimbursements
func (b *BoltDB) ListReimbursements() ([]*Reimbursement, error) {
	reimbursements := make([]*Reimbursement, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(reimbursementBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var reimbursement Reimbursement
			if err := json.Unmarshal(v, &reimbursement); err != nil {
				return fmt.Errorf("unmarshaling reimbursement: %w", err)
			}
			reimbursements = append(reimbursements, &reimbursement)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return reimbursements, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

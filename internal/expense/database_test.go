package expense

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/expensary/expensary/internal/classify"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newExpense := func(id string) *Expense {
		return &Expense{
			ID:          id,
			Vendor:      "Uber",
			Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Amount:      2599,
			Category:    classify.CategoryTravel,
			Filename:    "test.jpg",
			ContentType: "image/jpeg",
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
	}

	Describe("SaveExpense", func() {
		var (
			expense *Expense
			err     error
		)

		BeforeEach(func() {
			expense = newExpense("test-id")
		})

		JustBeforeEach(func() {
			err = db.SaveExpense(expense)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the expense to the database", func() {
				saved, getErr := db.GetExpense("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id"))
			})
		})

		When("saving an existing expense", func() {
			BeforeEach(func() {
				Expect(db.SaveExpense(newExpense("test-id"))).To(Succeed())
				expense.Vendor = "Lyft"
			})

			It("overwrites the stored record", func() {
				Expect(err).NotTo(HaveOccurred())
				saved, getErr := db.GetExpense("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Vendor).To(Equal("Lyft"))
			})
		})
	})

	Describe("GetExpense", func() {
		var (
			expenseID string
			expense   *Expense
			err       error
		)

		JustBeforeEach(func() {
			expense, err = db.GetExpense(expenseID)
		})

		When("expense exists", func() {
			BeforeEach(func() {
				expenseID = "test-id"
				Expect(db.SaveExpense(newExpense("test-id"))).To(Succeed())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the stored fields", func() {
				Expect(expense.ID).To(Equal("test-id"))
				Expect(expense.Vendor).To(Equal("Uber"))
				Expect(expense.Amount).To(Equal(2599))
				Expect(expense.Category).To(Equal(classify.CategoryTravel))
			})
		})

		When("expense does not exist", func() {
			BeforeEach(func() {
				expenseID = "nonexistent"
			})

			It("returns a not found error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("expense not found: nonexistent"))
			})
		})
	})

	Describe("ListExpenses", func() {
		var (
			expenses []*Expense
			err      error
		)

		JustBeforeEach(func() {
			expenses, err = db.ListExpenses()
		})

		When("expenses exist", func() {
			BeforeEach(func() {
				Expect(db.SaveExpense(newExpense("id-1"))).To(Succeed())
				Expect(db.SaveExpense(newExpense("id-2"))).To(Succeed())
			})

			It("returns all of them", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).To(HaveLen(2))
			})
		})

		When("no expenses exist", func() {
			It("returns an empty slice, not nil", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).NotTo(BeNil())
				Expect(expenses).To(BeEmpty())
			})
		})
	})

	Describe("DeleteExpense", func() {
		BeforeEach(func() {
			Expect(db.SaveExpense(newExpense("test-id"))).To(Succeed())
		})

		It("removes the expense", func() {
			Expect(db.DeleteExpense("test-id")).To(Succeed())
			_, err := db.GetExpense("test-id")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("reimbursements", func() {
		var reimbursement *Reimbursement

		BeforeEach(func() {
			reimbursement = &Reimbursement{
				ID:          "r-1",
				ExpenseIDs:  []string{"id-1", "id-2"},
				TotalAmount: 5198,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}
		})

		It("round-trips a reimbursement", func() {
			Expect(db.SaveReimbursement(reimbursement)).To(Succeed())

			saved, err := db.GetReimbursement("r-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.ExpenseIDs).To(Equal([]string{"id-1", "id-2"}))
			Expect(saved.TotalAmount).To(Equal(5198))
		})

		It("returns a not found error for an unknown reimbursement", func() {
			_, err := db.GetReimbursement("nonexistent")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("reimbursement not found"))
		})

		It("lists reimbursements", func() {
			Expect(db.SaveReimbursement(reimbursement)).To(Succeed())

			reimbursements, err := db.ListReimbursements()
			Expect(err).NotTo(HaveOccurred())
			Expect(reimbursements).To(HaveLen(1))
		})
	})

	Describe("persistence across reopen", func() {
		It("keeps saved expenses", func() {
			Expect(db.SaveExpense(newExpense("test-id"))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			reopened, err := NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			defer reopened.Close()

			saved, err := reopened.GetExpense("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Vendor).To(Equal("Uber"))
			db = nil
		})
	})
})

package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/expense"
	"github.com/condorlabs/comprobantes/internal/extractor"
	"github.com/condorlabs/comprobantes/internal/sunat"
)

func TestExpenseRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ExpenseRepository Suite")
}

type SQLiteExpense struct {
	ID              string     `gorm:"primaryKey"`
	ClientID        string     `gorm:"column:client_id;not null;index"`
	ProjectID       string     `gorm:"column:project_id"`
	CategoryID      string     `gorm:"column:category_id"`
	Total           float64    `gorm:"column:total"`
	FileURL         string     `gorm:"column:file_url"`
	Data            []byte     `gorm:"column:data"`
	Status          string     `gorm:"column:status;default:'pending'"`
	StatusDate      *time.Time `gorm:"column:status_date"`
	ApprovedBy      *string    `gorm:"column:approved_by"`
	RejectedBy      *string    `gorm:"column:rejected_by"`
	RejectionReason *string    `gorm:"column:rejection_reason"`
	CreatedBy       string     `gorm:"column:created_by"`
	FechaEmision    *time.Time `gorm:"column:fecha_emision"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (SQLiteExpense) TableName() string {
	return "expenses"
}

func newRecord(clientID, serie, correlativo string) *expense.Expense {
	now := time.Now()
	return &expense.Expense{
		ID:       uuid.New().String(),
		ClientID: clientID,
		Total:    decimal.NewFromInt(1000),
		Data: expense.RecordData{
			ExtractedInvoiceData: extractor.ExtractedInvoiceData{
				RucEmisor:       "20123456789",
				TipoComprobante: "01",
				Serie:           serie,
				Correlativo:     correlativo,
				FechaEmision:    "14/05/2025",
				MontoTotal:      decimal.NewFromInt(1000),
			},
			SunatValidation: sunat.PendingResult(),
		},
		Status:    expense.StatusPending,
		CreatedBy: "user-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var _ = Describe("ExpenseRepository", func() {
	var (
		db   *gorm.DB
		repo expense.Repository
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteExpense{})
		Expect(err).NotTo(HaveOccurred())

		err = db.Exec(`CREATE UNIQUE INDEX idx_expenses_client_serie_correlativo
			ON expenses (client_id, json_extract(data, '$.serie'), json_extract(data, '$.correlativo'))
			WHERE json_extract(data, '$.serie') IS NOT NULL AND json_extract(data, '$.serie') <> ''`).Error
		Expect(err).NotTo(HaveOccurred())

		repo = NewExpenseRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("Create", func() {
		It("should persist a record", func() {
			record := newRecord("client-1", "E001", "123")

			err := repo.Create(record)
			Expect(err).NotTo(HaveOccurred())

			retrieved, err := repo.GetByID(record.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ClientID).To(Equal("client-1"))
			Expect(retrieved.Data.Serie).To(Equal("E001"))
			Expect(retrieved.Data.Correlativo).To(Equal("123"))
		})

		It("should map a unique index violation to the duplicate error", func() {
			Expect(repo.Create(newRecord("client-1", "E001", "123"))).To(Succeed())

			err := repo.Create(newRecord("client-1", "E001", "123"))

			Expect(err).To(Equal(internal.ErrDuplicateInvoice))
		})

		It("should allow the same serie and correlativo under another client", func() {
			Expect(repo.Create(newRecord("client-1", "E001", "123"))).To(Succeed())
			Expect(repo.Create(newRecord("client-2", "E001", "123"))).To(Succeed())
		})
	})

	Describe("GetByID", func() {
		It("should return not found for an unknown id", func() {
			retrieved, err := repo.GetByID("no-such-id")

			Expect(err).To(Equal(internal.ErrExpenseNotFound))
			Expect(retrieved).To(BeNil())
		})
	})

	Describe("FindDuplicate", func() {
		It("should find an existing record by serie and correlativo", func() {
			record := newRecord("client-1", "E001", "123")
			Expect(repo.Create(record)).To(Succeed())

			dup, err := repo.FindDuplicate("client-1", "E001", "123")

			Expect(err).NotTo(HaveOccurred())
			Expect(dup).NotTo(BeNil())
			Expect(dup.ID).To(Equal(record.ID))
		})

		It("should return nil when no record matches", func() {
			Expect(repo.Create(newRecord("client-1", "E001", "123"))).To(Succeed())

			dup, err := repo.FindDuplicate("client-1", "E001", "999")

			Expect(err).NotTo(HaveOccurred())
			Expect(dup).To(BeNil())
		})

		It("should not match records of other clients", func() {
			Expect(repo.Create(newRecord("client-1", "E001", "123"))).To(Succeed())

			dup, err := repo.FindDuplicate("client-2", "E001", "123")

			Expect(err).NotTo(HaveOccurred())
			Expect(dup).To(BeNil())
		})

		It("should skip the lookup when serie or correlativo is empty", func() {
			dup, err := repo.FindDuplicate("client-1", "", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(dup).To(BeNil())
		})
	})

	Describe("ListByClient", func() {
		BeforeEach(func() {
			a := newRecord("client-1", "E001", "1")
			a.Status = expense.StatusApproved
			a.ProjectID = "project-1"
			b := newRecord("client-1", "E001", "2")
			b.ProjectID = "project-2"
			c := newRecord("client-2", "E001", "3")

			Expect(repo.Create(a)).To(Succeed())
			Expect(repo.Create(b)).To(Succeed())
			Expect(repo.Create(c)).To(Succeed())
		})

		It("should return only the client's records", func() {
			records, err := repo.ListByClient("client-1", expense.ListFilters{})

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})

		It("should filter by status", func() {
			records, err := repo.ListByClient("client-1", expense.ListFilters{Status: expense.StatusApproved})

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].Status).To(Equal(expense.StatusApproved))
		})

		It("should filter by project", func() {
			records, err := repo.ListByClient("client-1", expense.ListFilters{ProjectID: "project-2"})

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].ProjectID).To(Equal("project-2"))
		})

		It("should filter by amount range", func() {
			min := decimal.NewFromInt(500)
			max := decimal.NewFromInt(1500)
			records, err := repo.ListByClient("client-1", expense.ListFilters{AmountMin: &min, AmountMax: &max})

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})
	})

	Describe("Update", func() {
		It("should persist field changes", func() {
			record := newRecord("client-1", "E001", "123")
			Expect(repo.Create(record)).To(Succeed())

			record.Status = expense.StatusApproved
			actor := "manager-1"
			record.ApprovedBy = &actor
			Expect(repo.Update(record)).To(Succeed())

			retrieved, err := repo.GetByID(record.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Status).To(Equal(expense.StatusApproved))
			Expect(retrieved.ApprovedBy).NotTo(BeNil())
			Expect(*retrieved.ApprovedBy).To(Equal("manager-1"))
		})
	})

	Describe("Delete", func() {
		It("should remove the record", func() {
			record := newRecord("client-1", "E001", "123")
			Expect(repo.Create(record)).To(Succeed())

			Expect(repo.Delete(record.ID)).To(Succeed())

			_, err := repo.GetByID(record.ID)
			Expect(err).To(Equal(internal.ErrExpenseNotFound))
		})

		It("should report not found for an unknown id", func() {
			err := repo.Delete("no-such-id")

			Expect(err).To(Equal(internal.ErrExpenseNotFound))
		})
	})
})

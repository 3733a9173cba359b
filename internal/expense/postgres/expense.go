package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/expense"
)

// ExpenseRepository implements the expense.Repository interface using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) expense.Repository {
	return &ExpenseRepository{db: db}
}

// Create saves a new record. The unique index on (client_id, serie,
// correlativo) is the authoritative duplicate guard; a violation surfaces
// as the duplicate error regardless of what the pre-flight scan saw.
func (r *ExpenseRepository) Create(exp *expense.Expense) error {
	err := r.db.Create(exp).Error
	if err != nil && isUniqueViolation(err) {
		return internal.ErrDuplicateInvoice
	}
	return err
}

func (r *ExpenseRepository) GetByID(id string) (*expense.Expense, error) {
	var exp expense.Expense
	err := r.db.Where("id = ?", id).First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrExpenseNotFound
		}
		return nil, err
	}
	return &exp, nil
}

// FindDuplicate scans a client's records for one with the same serie and
// correlativo in its stored data. Rows whose data blob cannot be parsed are
// skipped rather than failing the whole scan.
func (r *ExpenseRepository) FindDuplicate(clientID, serie, correlativo string) (*expense.Expense, error) {
	if serie == "" || correlativo == "" {
		return nil, nil
	}

	type row struct {
		ID   string
		Data []byte
	}
	var rows []row
	err := r.db.Model(&expense.Expense{}).
		Select("id", "data").
		Where("client_id = ?", clientID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		var data expense.RecordData
		if err := json.Unmarshal(rw.Data, &data); err != nil {
			continue
		}
		if data.Serie == serie && data.Correlativo == correlativo {
			return r.GetByID(rw.ID)
		}
	}
	return nil, nil
}

// ListByClient retrieves a client's records with optional filters. Sorting
// defaults to created_at descending; sorting by fecha_emision breaks ties
// on created_at.
func (r *ExpenseRepository) ListByClient(clientID string, filters expense.ListFilters) ([]*expense.Expense, error) {
	q := r.db.Where("client_id = ?", clientID)

	if filters.ProjectID != "" {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.CategoryID != "" {
		q = q.Where("category_id = ?", filters.CategoryID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.CreatedBy != "" {
		q = q.Where("created_by = ?", filters.CreatedBy)
	}
	if filters.DateFrom != nil {
		q = q.Where("fecha_emision >= ?", filters.DateFrom)
	}
	if filters.DateTo != nil {
		q = q.Where("fecha_emision <= ?", filters.DateTo)
	}
	if filters.AmountMin != nil {
		q = q.Where("total >= ?", filters.AmountMin)
	}
	if filters.AmountMax != nil {
		q = q.Where("total <= ?", filters.AmountMax)
	}

	var records []*expense.Expense
	err := q.Order(orderClause(filters)).Find(&records).Error
	return records, err
}

func (r *ExpenseRepository) Update(exp *expense.Expense) error {
	return r.db.Save(exp).Error
}

func (r *ExpenseRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&expense.Expense{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrExpenseNotFound
	}
	return nil
}

func orderClause(filters expense.ListFilters) string {
	dir := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		dir = "ASC"
	}
	if filters.SortBy == "fecha_emision" {
		return fmt.Sprintf("fecha_emision %s, created_at %s", dir, dir)
	}
	return "created_at " + dir
}

// isUniqueViolation reports whether err is a unique constraint violation,
// for postgres (SQLSTATE 23505) and for the sqlite driver used in tests.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lab404/backend/internal/domain/order"
	"github.com/lab404/backend/internal/domain/quotation"
	"github.com/lab404/backend/internal/domain/shared"
)

// QuotationSortFields contains allowed sort fields for quotations
var QuotationSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"quotation_number": true,
	"customer_name":    true,
	"status":           true,
	"total_amount":     true,
	"valid_until":      true,
}

// GormQuotationRepository implements quotation.Repository using GORM
type GormQuotationRepository struct {
	db *gorm.DB
}

// NewGormQuotationRepository creates a new GormQuotationRepository
func NewGormQuotationRepository(db *gorm.DB) *GormQuotationRepository {
	return &GormQuotationRepository{db: db}
}

// FindByID finds a quotation with its items by ID
func (r *GormQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*quotation.Quotation, error) {
	var q quotation.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindByNumber finds a quotation by its quotation number
func (r *GormQuotationRepository) FindByNumber(ctx context.Context, number string) (*quotation.Quotation, error) {
	var q quotation.Quotation
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("quotation_number = ?", number).
		First(&q).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindAll finds quotations with filtering and pagination
func (r *GormQuotationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]quotation.Quotation, error) {
	var quotations []quotation.Quotation
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&quotation.Quotation{}).Preload("Items"),
		filter,
	)

	if err := query.Find(&quotations).Error; err != nil {
		return nil, err
	}
	return quotations, nil
}

// Count counts quotations matching the filter
func (r *GormQuotationRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&quotation.Quotation{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns quotation counts grouped by stored status
func (r *GormQuotationRepository) CountByStatus(ctx context.Context) (quotation.StatusCounts, error) {
	var rows []struct {
		Status quotation.Status
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&quotation.Quotation{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(quotation.StatusCounts, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumTotalAmount returns the sum of all quotation totals
func (r *GormQuotationRepository) SumTotalAmount(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&quotation.Quotation{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Save creates or updates a quotation and its items
func (r *GormQuotationRepository) Save(ctx context.Context, q *quotation.Quotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(q).Error; err != nil {
			return err
		}
		return r.syncItems(tx, q)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormQuotationRepository) SaveWithLock(ctx context.Context, q *quotation.Quotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion, err := r.readVersion(tx, q.ID)
		if err != nil {
			return err
		}
		if currentVersion != q.Version {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "The quotation has been modified by another user")
		}

		q.Version++
		q.UpdatedAt = time.Now()

		result := tx.Model(&quotation.Quotation{}).
			Where("id = ? AND version = ?", q.ID, currentVersion).
			Updates(r.quotationColumns(q))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "The quotation has been modified by another user")
		}

		return r.syncItems(tx, q)
	})
}

// SaveConversion persists a conversion as one transaction. The converted
// items are marked consumed with a conditional update: each row must still
// have consumed = false, so a concurrent conversion that already claimed an
// item fails the whole transaction instead of double-selling the line.
func (r *GormQuotationRepository) SaveConversion(ctx context.Context, q *quotation.Quotation, o *order.Order) error {
	convertedIDs := make([]uuid.UUID, len(o.Items))
	for i, item := range o.Items {
		convertedIDs[i] = item.QuotationItemID
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion, err := r.readVersion(tx, q.ID)
		if err != nil {
			return err
		}
		if currentVersion != q.Version {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "The quotation has been modified by another user")
		}

		// Claim the items. RowsAffected < selected means another conversion
		// consumed at least one of them after we loaded the aggregate.
		claim := tx.Model(&quotation.QuotationItem{}).
			Where("quotation_id = ? AND id IN ? AND consumed = ?", q.ID, convertedIDs, false).
			Updates(map[string]interface{}{
				"consumed":    true,
				"consumed_at": o.CreatedAt,
				"updated_at":  time.Now(),
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected != int64(len(convertedIDs)) {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "One or more items were already converted by another order")
		}

		q.Version++
		q.UpdatedAt = time.Now()

		result := tx.Model(&quotation.Quotation{}).
			Where("id = ? AND version = ?", q.ID, currentVersion).
			Updates(r.quotationColumns(q))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "The quotation has been modified by another user")
		}

		if err := tx.Create(o).Error; err != nil {
			return err
		}

		return nil
	})
}

// Delete deletes a quotation and its items
func (r *GormQuotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_id = ?", id).Delete(&quotation.QuotationItem{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&quotation.Quotation{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ExistsByNumber checks if a quotation number is already taken
func (r *GormQuotationRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&quotation.Quotation{}).
		Where("quotation_number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateNumber generates a unique quotation number
// Format: QT-YYYY-NNNNN (e.g., QT-2026-00001)
func (r *GormQuotationRepository) GenerateNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("QT-%d-", year)

	var last quotation.Quotation
	err := r.db.WithContext(ctx).
		Model(&quotation.Quotation{}).
		Where("quotation_number LIKE ?", prefix+"%").
		Order("quotation_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.QuotationNumber != "" {
		parts := strings.Split(last.QuotationNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	number := fmt.Sprintf("%s%05d", prefix, nextNum)

	exists, err := r.ExistsByNumber(ctx, number)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			number = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.ExistsByNumber(ctx, number)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return number, nil
}

// readVersion reads the current stored version of a quotation
func (r *GormQuotationRepository) readVersion(tx *gorm.DB, id uuid.UUID) (int, error) {
	var currentVersion int
	result := tx.Model(&quotation.Quotation{}).
		Where("id = ?", id).
		Select("version").
		Scan(&currentVersion)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}
	return currentVersion, nil
}

// quotationColumns lists the updatable quotation columns for a locked save
func (r *GormQuotationRepository) quotationColumns(q *quotation.Quotation) map[string]interface{} {
	return map[string]interface{}{
		"customer_name":    q.Customer.Name,
		"customer_email":   q.Customer.Email,
		"customer_phone":   q.Customer.Phone,
		"customer_company": q.Customer.Company,
		"valid_until":      q.ValidUntil,
		"total_amount":     q.TotalAmount,
		"status":           q.Status,
		"notes":            q.Notes,
		"sent_at":          q.SentAt,
		"approved_at":      q.ApprovedAt,
		"approval_note":    q.ApprovalNote,
		"rejected_at":      q.RejectedAt,
		"reject_reason":    q.RejectReason,
		"converted_at":     q.ConvertedAt,
		"version":          q.Version,
		"updated_at":       q.UpdatedAt,
	}
}

// syncItems reconciles stored items with the aggregate's current item list
func (r *GormQuotationRepository) syncItems(tx *gorm.DB, q *quotation.Quotation) error {
	currentItemIDs := make([]uuid.UUID, len(q.Items))
	for i, item := range q.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("quotation_id = ? AND id NOT IN ?", q.ID, currentItemIDs).
			Delete(&quotation.QuotationItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("quotation_id = ?", q.ID).
			Delete(&quotation.QuotationItem{}).Error; err != nil {
			return err
		}
	}

	for i := range q.Items {
		q.Items[i].QuotationID = q.ID
		if err := tx.Save(&q.Items[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// applyFilter applies filter options to the query
func (r *GormQuotationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, QuotationSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormQuotationRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("quotation_number ILIKE ? OR customer_name ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_name":
			query = query.Where("customer_name ILIKE ?", "%"+fmt.Sprint(value)+"%")
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		case "min_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("total_amount >= ?", d)
			}
		case "max_amount":
			if d, ok := value.(decimal.Decimal); ok {
				query = query.Where("total_amount <= ?", d)
			}
		}
	}

	return query
}

// Ensure GormQuotationRepository implements quotation.Repository
var _ quotation.Repository = (*GormQuotationRepository)(nil)

package persistence

import (
	"context"
	"fmt"

	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository implements the atomic sequence store using GORM.
// Every allocation runs inside a transaction that takes a row lock on the
// (tenant, voucher type) counter, so concurrent callers are serialized and
// each one observes the value committed by the previous holder.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

var _ numbering.SequenceRepository = (*GormSequenceRepository)(nil)

// NextValue atomically allocates the next value for the key inside its own
// transaction. Any storage failure is reported as ErrStoreUnavailable.
func (r *GormSequenceRepository) NextValue(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType, minimumStart int64) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := allocateNextValue(tx, tenantID, voucherType, minimumStart)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return value, nil
}

// NextValueInTx allocates the next value inside the caller's transaction.
// The counter update commits or rolls back together with the caller's
// writes, which is what the gap-free document creation path relies on.
func (r *GormSequenceRepository) NextValueInTx(tx *gorm.DB, tenantID uuid.UUID, voucherType numbering.VoucherType, minimumStart int64) (int64, error) {
	value, err := allocateNextValue(tx, tenantID, voucherType, minimumStart)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return value, nil
}

// FindAllForTenant returns the current counters for a tenant. Read-only,
// values may be stale by the time the caller looks at them.
func (r *GormSequenceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]numbering.SequenceCounter, error) {
	var counters []numbering.SequenceCounter
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("voucher_type ASC").
		Find(&counters).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreUnavailable, err)
	}
	return counters, nil
}

// allocateNextValue is the shared allocation path. It seeds a missing
// counter row, locks the row, advances it and persists the new value.
func allocateNextValue(tx *gorm.DB, tenantID uuid.UUID, voucherType numbering.VoucherType, minimumStart int64) (int64, error) {
	// First use of a key creates the counter just below the configured
	// starting number. ON CONFLICT DO NOTHING makes concurrent first
	// allocations converge on a single row instead of failing on the
	// unique index.
	seed := numbering.NewSequenceCounter(tenantID, voucherType, minimumStart)
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "voucher_type"}},
		DoNothing: true,
	}).Create(seed).Error; err != nil {
		return 0, err
	}

	// SQLite serializes writers at the database level and does not
	// accept FOR UPDATE, so the explicit row lock is postgres-only.
	query := tx
	if tx.Dialector.Name() != "sqlite" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var counter numbering.SequenceCounter
	if err := query.First(&counter, "tenant_id = ? AND voucher_type = ?", tenantID, voucherType).Error; err != nil {
		return 0, err
	}

	value := counter.Advance(minimumStart)

	if err := tx.Model(&numbering.SequenceCounter{}).
		Where("id = ?", counter.ID).
		Updates(map[string]any{
			"current_value": counter.CurrentValue,
			"updated_at":    counter.UpdatedAt,
		}).Error; err != nil {
		return 0, err
	}

	return value, nil
}

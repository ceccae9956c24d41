package numbering

import (
	"time"

	"github.com/google/uuid"
)

// SequenceCounter is the persisted high-water mark for one (tenant,
// voucher type) key. CurrentValue is the highest value ever allocated;
// zero means nothing has been allocated yet. Rows are written only under
// a row lock inside the sequence repository, and the value never
// decreases.
type SequenceCounter struct {
	ID           uuid.UUID   `gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_sequence_tenant_type,priority:1"`
	VoucherType  VoucherType `gorm:"type:varchar(20);not null;uniqueIndex:idx_sequence_tenant_type,priority:2"`
	CurrentValue int64       `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (SequenceCounter) TableName() string {
	return "sequence_counters"
}

// NewSequenceCounter creates a fresh counter positioned just below
// minimumStart, so the first increment yields minimumStart itself.
func NewSequenceCounter(tenantID uuid.UUID, voucherType VoucherType, minimumStart int64) *SequenceCounter {
	initial := minimumStart - 1
	if initial < 0 {
		initial = 0
	}
	now := time.Now()
	return &SequenceCounter{
		ID:           uuid.New(),
		TenantID:     tenantID,
		VoucherType:  voucherType,
		CurrentValue: initial,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Advance moves the counter to the next value, honoring minimumStart as a
// floor. The returned value is max(CurrentValue+1, minimumStart), so an
// operator raising the starting number causes a forward jump while a
// lowered starting number is ignored.
func (c *SequenceCounter) Advance(minimumStart int64) int64 {
	next := c.CurrentValue + 1
	if next < minimumStart {
		next = minimumStart
	}
	c.CurrentValue = next
	c.UpdatedAt = time.Now()
	return next
}

package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot carries identity, audit timestamps, the optimistic
// locking version, and the pending domain events of an aggregate.
type BaseAggregateRoot struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot assigns a fresh ID and starts at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

func (a *BaseAggregateRoot) GetID() uuid.UUID        { return a.ID }
func (a *BaseAggregateRoot) GetCreatedAt() time.Time { return a.CreatedAt }
func (a *BaseAggregateRoot) GetUpdatedAt() time.Time { return a.UpdatedAt }

// GetVersion returns the version the optimistic locking checks compare.
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion bumps the version on every state change.
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// AddDomainEvent queues an event for publication after the aggregate
// is persisted.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the queued events.
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.domainEvents }

// ClearDomainEvents drops the queue, called once the events are out.
func (a *BaseAggregateRoot) ClearDomainEvents() { a.domainEvents = nil }

// TenantAggregateRoot scopes an aggregate to a tenant. Format rules,
// counters, and voucher records all live under one.
type TenantAggregateRoot struct {
	BaseAggregateRoot
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewTenantAggregateRoot creates an aggregate owned by tenantID.
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	return TenantAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
	}
}

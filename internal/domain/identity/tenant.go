package identity

import (
	"strings"
	"time"

	"github.com/erp/numbering/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended" // Suspended due to payment/violation issues
)

// Tenant represents a tenant/organization in the multi-tenant system
type Tenant struct {
	shared.BaseAggregateRoot
	Code   string       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name   string       `gorm:"type:varchar(200);not null"`
	Status TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new tenant with required fields
func NewTenant(code, name string) (*Tenant, error) {
	if err := validateTenantCode(code); err != nil {
		return nil, err
	}
	if err := validateTenantName(name); err != nil {
		return nil, err
	}

	tenant := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            TenantStatusActive,
	}

	tenant.AddDomainEvent(NewTenantCreatedEvent(tenant))

	return tenant, nil
}

// Suspend suspends the tenant; allocation and settings calls are rejected
// while suspended
func (t *Tenant) Suspend() error {
	if t.Status == TenantStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already suspended")
	}
	t.Status = TenantStatusSuspended
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// Activate re-activates a suspended tenant
func (t *Tenant) Activate() error {
	if t.Status == TenantStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Tenant is already active")
	}
	t.Status = TenantStatusActive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// IsActive returns true when the tenant may operate
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

func validateTenantCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_INPUT", "Tenant code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_INPUT", "Tenant code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_') {
			return shared.NewDomainError("INVALID_INPUT", "Tenant code may only contain letters, digits, '-' and '_'")
		}
	}
	return nil
}

func validateTenantName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Tenant name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_INPUT", "Tenant name cannot exceed 200 characters")
	}
	return nil
}

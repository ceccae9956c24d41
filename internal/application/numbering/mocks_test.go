package numbering

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/numbering/internal/domain/identity"
	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockFormatRulesRepository is a mock implementation of numbering.FormatRulesRepository
type MockFormatRulesRepository struct {
	mock.Mock
}

func (m *MockFormatRulesRepository) FindByTenantAndType(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType) (*numbering.FormatRules, error) {
	args := m.Called(ctx, tenantID, voucherType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*numbering.FormatRules), args.Error(1)
}

func (m *MockFormatRulesRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]numbering.FormatRules, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]numbering.FormatRules), args.Error(1)
}

func (m *MockFormatRulesRepository) Save(ctx context.Context, rules *numbering.FormatRules) error {
	args := m.Called(ctx, rules)
	return args.Error(0)
}

// MockTenantRepository is a mock implementation of identity.TenantRepository
type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Tenant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockSequenceStore is a mock implementation of SequenceStore
type MockSequenceStore struct {
	mock.Mock
}

func (m *MockSequenceStore) NextValue(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType, minimumStart int64) (int64, error) {
	args := m.Called(ctx, tenantID, voucherType, minimumStart)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSequenceStore) NextValueInTx(tx *gorm.DB, tenantID uuid.UUID, voucherType numbering.VoucherType, minimumStart int64) (int64, error) {
	args := m.Called(tx, tenantID, voucherType, minimumStart)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSequenceStore) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]numbering.SequenceCounter, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]numbering.SequenceCounter), args.Error(1)
}

// MockRulesCache is a mock implementation of numbering.RulesCache
type MockRulesCache struct {
	mock.Mock
}

func (m *MockRulesCache) Get(ctx context.Context, key string) (*numbering.FormatRules, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*numbering.FormatRules), args.Error(1)
}

func (m *MockRulesCache) Set(ctx context.Context, key string, rules *numbering.FormatRules, ttl time.Duration) error {
	args := m.Called(ctx, key, rules, ttl)
	return args.Error(0)
}

func (m *MockRulesCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// memorySequenceStore is an in-process stand-in for the database-backed
// store. It applies the same advance rule under a mutex, which is enough
// to exercise the allocation service under concurrency.
type memorySequenceStore struct {
	mu       sync.Mutex
	counters map[string]*numbering.SequenceCounter
}

func newMemorySequenceStore() *memorySequenceStore {
	return &memorySequenceStore{counters: make(map[string]*numbering.SequenceCounter)}
}

func (s *memorySequenceStore) key(tenantID uuid.UUID, voucherType numbering.VoucherType) string {
	return fmt.Sprintf("%s/%s", tenantID, voucherType)
}

func (s *memorySequenceStore) NextValue(_ context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType, minimumStart int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(tenantID, voucherType)
	counter, ok := s.counters[k]
	if !ok {
		counter = numbering.NewSequenceCounter(tenantID, voucherType, minimumStart)
		s.counters[k] = counter
	}
	return counter.Advance(minimumStart), nil
}

func (s *memorySequenceStore) NextValueInTx(_ *gorm.DB, tenantID uuid.UUID, voucherType numbering.VoucherType, minimumStart int64) (int64, error) {
	return s.NextValue(context.Background(), tenantID, voucherType, minimumStart)
}

func (s *memorySequenceStore) FindAllForTenant(_ context.Context, tenantID uuid.UUID) ([]numbering.SequenceCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []numbering.SequenceCounter
	for _, c := range s.counters {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// staticResolver returns fixed rules without hitting any repository
type staticResolver struct {
	rules numbering.FormatRules
}

func (r *staticResolver) Resolve(_ context.Context, _ uuid.UUID, _ numbering.VoucherType) (numbering.FormatRules, error) {
	return r.rules, nil
}

package numbering

import (
	"context"

	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SequenceStore extends the domain sequence repository with a variant
// that joins a caller-managed transaction. Document workflows use it to
// couple allocation and document insert atomically (gap-free mode).
type SequenceStore interface {
	numbering.SequenceRepository
	NextValueInTx(tx *gorm.DB, tenantID uuid.UUID, voucherType numbering.VoucherType, minimumStart int64) (int64, error)
}

// AllocationService hands out formatted voucher numbers. Each call
// resolves the current rules, advances the sequence atomically and
// formats the value with the same resolved rules. Errors pass through
// unwrapped; there are no internal retries.
type AllocationService struct {
	resolver RulesResolver
	store    SequenceStore
	logger   *zap.Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(resolver RulesResolver, store SequenceStore, logger *zap.Logger) *AllocationService {
	return &AllocationService{
		resolver: resolver,
		store:    store,
		logger:   logger,
	}
}

// AllocationResponse represents an allocated number in API responses
type AllocationResponse struct {
	VoucherType     numbering.VoucherType `json:"voucher_type"`
	Value           int64                 `json:"value"`
	FormattedNumber string                `json:"formatted_number"`
}

// Allocate assigns the next number for the tenant and voucher type.
// The numeric value is committed by the store before this returns, so a
// caller that discards the result leaves a gap (gap-tolerant mode).
func (s *AllocationService) Allocate(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType) (*AllocationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "numbering", "allocate")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrVoucherType, voucherType.String(),
	)

	rules, err := s.resolver.Resolve(ctx, tenantID, voucherType)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	value, err := s.store.NextValue(ctx, tenantID, voucherType, rules.StartingNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	formatted := numbering.Format(value, rules)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSequenceValue, value,
		telemetry.SpanAttrVoucherNumber, formatted,
	)
	s.logger.Debug("voucher number allocated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("voucher_type", voucherType.String()),
		zap.Int64("value", value),
		zap.String("number", formatted))

	return &AllocationResponse{
		VoucherType:     voucherType,
		Value:           value,
		FormattedNumber: formatted,
	}, nil
}

// AllocateInTx assigns the next number inside the caller's transaction.
// If the transaction rolls back the counter update rolls back with it,
// so no gap is left behind (gap-free mode). The counter row stays locked
// until the transaction ends, serializing concurrent creators of the
// same voucher type.
func (s *AllocationService) AllocateInTx(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, voucherType numbering.VoucherType) (*AllocationResponse, error) {
	rules, err := s.resolver.Resolve(ctx, tenantID, voucherType)
	if err != nil {
		return nil, err
	}

	value, err := s.store.NextValueInTx(tx, tenantID, voucherType, rules.StartingNumber)
	if err != nil {
		return nil, err
	}

	return &AllocationResponse{
		VoucherType:     voucherType,
		Value:           value,
		FormattedNumber: numbering.Format(value, rules),
	}, nil
}

// SequenceResponse represents a counter row in API responses
type SequenceResponse struct {
	VoucherType  numbering.VoucherType `json:"voucher_type"`
	CurrentValue int64                 `json:"current_value"`
}

// ListSequences returns the current counters for a tenant, for
// operational visibility. Read-only.
func (s *AllocationService) ListSequences(ctx context.Context, tenantID uuid.UUID) ([]SequenceResponse, error) {
	counters, err := s.store.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]SequenceResponse, len(counters))
	for i, c := range counters {
		responses[i] = SequenceResponse{
			VoucherType:  c.VoucherType,
			CurrentValue: c.CurrentValue,
		}
	}
	return responses, nil
}

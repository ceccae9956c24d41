package numbering

import (
	"context"
	"errors"
	"time"

	"github.com/erp/numbering/internal/domain/identity"
	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/erp/numbering/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RulesResolver resolves the effective format rules for a tenant and
// voucher type, falling back to the built-in defaults when the tenant has
// not configured the type. Side-effect-free.
type RulesResolver interface {
	Resolve(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType) (numbering.FormatRules, error)
}

// SettingsService manages per-tenant numbering configuration and acts as
// the rules resolver for the allocation and preview services.
type SettingsService struct {
	rulesRepo  numbering.FormatRulesRepository
	tenantRepo identity.TenantRepository
	cache      numbering.RulesCache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// SettingsServiceOption is a functional option for configuring SettingsService
type SettingsServiceOption func(*SettingsService)

// WithRulesCache attaches a cache consulted before the repository
func WithRulesCache(cache numbering.RulesCache, ttl time.Duration) SettingsServiceOption {
	return func(s *SettingsService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(
	rulesRepo numbering.FormatRulesRepository,
	tenantRepo identity.TenantRepository,
	logger *zap.Logger,
	opts ...SettingsServiceOption,
) *SettingsService {
	s := &SettingsService{
		rulesRepo:  rulesRepo,
		tenantRepo: tenantRepo,
		cacheTTL:   5 * time.Minute,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ RulesResolver = (*SettingsService)(nil)

// FormatRulesResponse represents format rules in API responses
type FormatRulesResponse struct {
	VoucherType    numbering.VoucherType `json:"voucher_type"`
	Prefix         string                `json:"prefix"`
	Suffix         string                `json:"suffix"`
	Width          int                   `json:"width"`
	ZeroPad        bool                  `json:"zero_pad"`
	StartingNumber int64                 `json:"starting_number"`
	IsDefault      bool                  `json:"is_default"`
	UpdatedAt      *time.Time            `json:"updated_at,omitempty"`
}

// UpdateRulesRequest carries the configurable rule fields
type UpdateRulesRequest struct {
	Prefix         string `json:"prefix" binding:"required,min=1,max=10"`
	Suffix         string `json:"suffix" binding:"max=10"`
	Width          int    `json:"width" binding:"required,min=1,max=12"`
	ZeroPad        bool   `json:"zero_pad"`
	StartingNumber int64  `json:"starting_number" binding:"required,min=1"`
}

// Resolve returns the effective rules for a tenant and voucher type.
// A missing rule row falls back to the per-type default; an unknown
// tenant or an unreadable store maps to CONFIG_UNAVAILABLE.
func (s *SettingsService) Resolve(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType) (numbering.FormatRules, error) {
	if !voucherType.IsValid() {
		return numbering.FormatRules{}, shared.NewDomainError("CONFIG_INVALID", "Unknown voucher type: "+voucherType.String())
	}

	if s.cache != nil {
		key := numbering.RulesCacheKey(tenantID, voucherType)
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("rules cache read failed, falling through to store",
				zap.String("key", key), zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	if err := s.checkTenant(ctx, tenantID); err != nil {
		return numbering.FormatRules{}, err
	}

	rules, err := s.rulesRepo.FindByTenantAndType(ctx, tenantID, voucherType)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			defaults := numbering.DefaultFormatRules(tenantID, voucherType)
			return defaults, nil
		}
		s.logger.Error("failed to load format rules",
			zap.String("tenant_id", tenantID.String()),
			zap.String("voucher_type", voucherType.String()),
			zap.Error(err))
		return numbering.FormatRules{}, shared.ErrConfigUnavailable
	}

	if s.cache != nil {
		key := numbering.RulesCacheKey(tenantID, voucherType)
		if err := s.cache.Set(ctx, key, rules, s.cacheTTL); err != nil {
			s.logger.Warn("rules cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return *rules, nil
}

// GetRules returns the effective rules for one voucher type
func (s *SettingsService) GetRules(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType) (*FormatRulesResponse, error) {
	if !voucherType.IsValid() {
		return nil, shared.NewDomainError("CONFIG_INVALID", "Unknown voucher type: "+voucherType.String())
	}
	if err := s.checkTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	rules, err := s.rulesRepo.FindByTenantAndType(ctx, tenantID, voucherType)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			defaults := numbering.DefaultFormatRules(tenantID, voucherType)
			return toRulesResponse(&defaults, true), nil
		}
		return nil, shared.ErrConfigUnavailable
	}
	return toRulesResponse(rules, false), nil
}

// ListRules returns the effective rules for every voucher type, marking
// which ones come from the default table
func (s *SettingsService) ListRules(ctx context.Context, tenantID uuid.UUID) ([]FormatRulesResponse, error) {
	if err := s.checkTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	configured, err := s.rulesRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, shared.ErrConfigUnavailable
	}

	byType := make(map[numbering.VoucherType]*numbering.FormatRules, len(configured))
	for i := range configured {
		byType[configured[i].VoucherType] = &configured[i]
	}

	responses := make([]FormatRulesResponse, 0, len(numbering.AllVoucherTypes()))
	for _, vt := range numbering.AllVoucherTypes() {
		if rules, ok := byType[vt]; ok {
			responses = append(responses, *toRulesResponse(rules, false))
			continue
		}
		defaults := numbering.DefaultFormatRules(tenantID, vt)
		responses = append(responses, *toRulesResponse(&defaults, true))
	}
	return responses, nil
}

// UpdateRules creates or replaces the rules for one voucher type.
// Field validation happens here, at write time; allocation never sees an
// invalid configuration.
func (s *SettingsService) UpdateRules(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType, req UpdateRulesRequest) (*FormatRulesResponse, error) {
	if !voucherType.IsValid() {
		return nil, shared.NewDomainError("CONFIG_INVALID", "Unknown voucher type: "+voucherType.String())
	}
	if err := s.checkTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	existing, err := s.rulesRepo.FindByTenantAndType(ctx, tenantID, voucherType)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrConfigUnavailable
	}

	var rules *numbering.FormatRules
	if existing != nil {
		if err := existing.Update(req.Prefix, req.Suffix, req.Width, req.ZeroPad, req.StartingNumber); err != nil {
			return nil, err
		}
		rules = existing
	} else {
		rules, err = numbering.NewFormatRules(tenantID, voucherType, req.Prefix, req.Suffix, req.Width, req.ZeroPad, req.StartingNumber)
		if err != nil {
			return nil, err
		}
	}

	if err := s.rulesRepo.Save(ctx, rules); err != nil {
		s.logger.Error("failed to save format rules",
			zap.String("tenant_id", tenantID.String()),
			zap.String("voucher_type", voucherType.String()),
			zap.Error(err))
		return nil, shared.ErrConfigUnavailable
	}
	rules.ClearDomainEvents()

	s.invalidate(ctx, tenantID, voucherType)

	s.logger.Info("format rules updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("voucher_type", voucherType.String()),
		zap.String("prefix", rules.Prefix),
		zap.Int64("starting_number", rules.StartingNumber))

	return toRulesResponse(rules, false), nil
}

// SeedDefaults persists the default rules for every voucher type.
// Called when a tenant is provisioned; existing rows are left alone.
func (s *SettingsService) SeedDefaults(ctx context.Context, tenantID uuid.UUID) error {
	for _, vt := range numbering.AllVoucherTypes() {
		_, err := s.rulesRepo.FindByTenantAndType(ctx, tenantID, vt)
		if err == nil {
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return shared.ErrConfigUnavailable
		}

		defaults := numbering.DefaultFormatRules(tenantID, vt)
		if err := s.rulesRepo.Save(ctx, &defaults); err != nil {
			return shared.ErrConfigUnavailable
		}
	}
	return nil
}

func (s *SettingsService) checkTenant(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return shared.ErrConfigUnavailable
	}
	if !tenant.IsActive() {
		return shared.ErrForbidden
	}
	return nil
}

func (s *SettingsService) invalidate(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType) {
	if s.cache == nil {
		return
	}
	key := numbering.RulesCacheKey(tenantID, voucherType)
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("rules cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func toRulesResponse(rules *numbering.FormatRules, isDefault bool) *FormatRulesResponse {
	resp := &FormatRulesResponse{
		VoucherType:    rules.VoucherType,
		Prefix:         rules.Prefix,
		Suffix:         rules.Suffix,
		Width:          rules.Width,
		ZeroPad:        rules.ZeroPad,
		StartingNumber: rules.StartingNumber,
		IsDefault:      isDefault,
	}
	if !isDefault {
		updatedAt := rules.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

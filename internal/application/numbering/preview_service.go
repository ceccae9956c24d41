package numbering

import (
	"context"

	"github.com/erp/numbering/internal/domain/numbering"
	"github.com/google/uuid"
)

// PreviewService renders example voucher numbers without touching the
// sequence store. The settings UI uses it both for stored rules and for
// in-progress, unsaved rule edits.
type PreviewService struct {
	resolver RulesResolver
}

// NewPreviewService creates a new PreviewService
func NewPreviewService(resolver RulesResolver) *PreviewService {
	return &PreviewService{resolver: resolver}
}

// PreviewResponse represents a formatted preview in API responses
type PreviewResponse struct {
	Value           int64  `json:"value"`
	FormattedNumber string `json:"formatted_number"`
}

// PreviewRulesRequest carries unsaved rules submitted for preview
type PreviewRulesRequest struct {
	Prefix         string `json:"prefix" binding:"required,min=1,max=10"`
	Suffix         string `json:"suffix" binding:"max=10"`
	Width          int    `json:"width" binding:"required,min=1,max=12"`
	ZeroPad        bool   `json:"zero_pad"`
	StartingNumber int64  `json:"starting_number" binding:"required,min=1"`
}

// defaultSampleValues are the values rendered when the caller does not
// ask for a specific one
var defaultSampleValues = []int64{1, 10, 100}

// Preview formats a sample value using the tenant's stored rules
func (s *PreviewService) Preview(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType, value int64) (*PreviewResponse, error) {
	rules, err := s.resolver.Resolve(ctx, tenantID, voucherType)
	if err != nil {
		return nil, err
	}
	return &PreviewResponse{
		Value:           value,
		FormattedNumber: numbering.Format(value, rules),
	}, nil
}

// PreviewSamples formats the standard sample values with stored rules
func (s *PreviewService) PreviewSamples(ctx context.Context, tenantID uuid.UUID, voucherType numbering.VoucherType) ([]PreviewResponse, error) {
	rules, err := s.resolver.Resolve(ctx, tenantID, voucherType)
	if err != nil {
		return nil, err
	}
	return formatSamples(rules), nil
}

// PreviewWithRules formats the standard sample values with submitted,
// unsaved rules. The rules are validated but never persisted.
func (s *PreviewService) PreviewWithRules(tenantID uuid.UUID, voucherType numbering.VoucherType, req PreviewRulesRequest) ([]PreviewResponse, error) {
	rules, err := numbering.NewFormatRules(tenantID, voucherType, req.Prefix, req.Suffix, req.Width, req.ZeroPad, req.StartingNumber)
	if err != nil {
		return nil, err
	}
	return formatSamples(*rules), nil
}

func formatSamples(rules numbering.FormatRules) []PreviewResponse {
	responses := make([]PreviewResponse, len(defaultSampleValues))
	for i, v := range defaultSampleValues {
		responses[i] = PreviewResponse{
			Value:           v,
			FormattedNumber: numbering.Format(v, rules),
		}
	}
	return responses
}

package persistence

import "strings"

// ValidateSortOrder normalizes a sort direction to ASC or DESC. The
// listing endpoints default to newest-first, so anything that is not
// explicitly ASC becomes DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField checks a caller-supplied sort field against a
// whitelist. Anything unknown falls back to defaultField, keeping raw
// query input out of ORDER BY clauses.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields are allowed on every entity.
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// TenantSortFields are the sortable tenant columns.
var TenantSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"status":     true,
}

// VoucherRecordSortFields are the sortable voucher record columns.
var VoucherRecordSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"voucher_number": true,
	"voucher_type":   true,
	"status":         true,
	"amount":         true,
	"issued_at":      true,
}

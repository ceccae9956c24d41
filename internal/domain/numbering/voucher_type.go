package numbering

// VoucherType identifies the kind of financial document a number is issued for
type VoucherType string

const (
	VoucherTypeInvoice    VoucherType = "INVOICE"
	VoucherTypeReceipt    VoucherType = "RECEIPT"
	VoucherTypePayment    VoucherType = "PAYMENT"
	VoucherTypeJournal    VoucherType = "JOURNAL"
	VoucherTypeContra     VoucherType = "CONTRA"
	VoucherTypeCreditNote VoucherType = "CREDIT_NOTE"
	VoucherTypeDebitNote  VoucherType = "DEBIT_NOTE"
)

// IsValid checks if the type is a valid VoucherType
func (t VoucherType) IsValid() bool {
	switch t {
	case VoucherTypeInvoice, VoucherTypeReceipt, VoucherTypePayment,
		VoucherTypeJournal, VoucherTypeContra, VoucherTypeCreditNote, VoucherTypeDebitNote:
		return true
	}
	return false
}

// String returns the string representation
func (t VoucherType) String() string {
	return string(t)
}

// AllVoucherTypes returns every voucher type in a stable order
func AllVoucherTypes() []VoucherType {
	return []VoucherType{
		VoucherTypeInvoice,
		VoucherTypeReceipt,
		VoucherTypePayment,
		VoucherTypeJournal,
		VoucherTypeContra,
		VoucherTypeCreditNote,
		VoucherTypeDebitNote,
	}
}

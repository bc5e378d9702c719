package domain

// FieldKind is the declared type of a canonical field's value.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindDate   FieldKind = "date"
	KindAmount FieldKind = "amount"
)

// Canonical field names. Every extraction source is mapped onto this fixed
// vocabulary before anything downstream sees it.
const (
	FieldInvoiceNumber  = "invoice_number"
	FieldInvoiceDate    = "invoice_date"
	FieldDueDate        = "due_date"
	FieldVendorName     = "vendor_name"
	FieldVendorAddress  = "vendor_address"
	FieldVendorTaxID    = "vendor_tax_id"
	FieldCurrency       = "currency"
	FieldPONumber       = "po_number"
	FieldPaymentTerms   = "payment_terms"
	FieldSubtotalAmount = "subtotal_amount"
	FieldTaxAmount      = "tax_amount"
	FieldTotalAmount    = "total_amount"
)

// FieldSpec declares a canonical field's type and whether low confidence on
// it forces human review.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
}

// CanonicalFields is the full vocabulary, in presentation order.
var CanonicalFields = []FieldSpec{
	{Name: FieldInvoiceNumber, Kind: KindText, Required: true},
	{Name: FieldInvoiceDate, Kind: KindDate},
	{Name: FieldDueDate, Kind: KindDate},
	{Name: FieldVendorName, Kind: KindText, Required: true},
	{Name: FieldVendorAddress, Kind: KindText},
	{Name: FieldVendorTaxID, Kind: KindText},
	{Name: FieldCurrency, Kind: KindText},
	{Name: FieldPONumber, Kind: KindText},
	{Name: FieldPaymentTerms, Kind: KindText},
	{Name: FieldSubtotalAmount, Kind: KindAmount},
	{Name: FieldTaxAmount, Kind: KindAmount},
	{Name: FieldTotalAmount, Kind: KindAmount, Required: true},
}

var fieldSpecs = func() map[string]FieldSpec {
	m := make(map[string]FieldSpec, len(CanonicalFields))
	for _, s := range CanonicalFields {
		m[s.Name] = s
	}
	return m
}()

// FieldSpecFor looks up the declaration for a canonical field name.
func FieldSpecFor(name string) (FieldSpec, bool) {
	s, ok := fieldSpecs[name]
	return s, ok
}

// RequiredFieldNames returns the subset of fields that gate human review.
func RequiredFieldNames() []string {
	var out []string
	for _, s := range CanonicalFields {
		if s.Required {
			out = append(out, s.Name)
		}
	}
	return out
}

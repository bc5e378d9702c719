package port

import "context"

// RawField is one field as reported by an extraction source, before any
// canonical typing or merging.
type RawField struct {
	Value           any     `json:"value"`
	Confidence      float64 `json:"confidence"`
	SourceFieldName string  `json:"source_field_name"`
}

// RawLineItem is one line item as reported by an extraction source.
type RawLineItem struct {
	LineNumber  int     `json:"line_number"`
	Description string  `json:"description"`
	Quantity    any     `json:"quantity"`
	UnitPrice   any     `json:"unit_price"`
	Amount      any     `json:"amount"`
	TaxRate     any     `json:"tax_rate"`
	TaxAmount   any     `json:"tax_amount"`
	Confidence  float64 `json:"confidence"`
}

// ExtractInput carries the source bytes for one extraction call.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
}

// ExtractResult is the raw output of one extraction source, keyed by
// canonical field name.
type ExtractResult struct {
	Fields    map[string]RawField
	LineItems []RawLineItem
}

// FieldExtractor abstracts an extraction provider (OCR or reasoning-based).
// The call mechanics behind it are a black box to the core.
type FieldExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractResult, error)
}

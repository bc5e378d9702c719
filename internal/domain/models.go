package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResolvedField is one canonical field after source merging. Source is never
// empty once Value is non-nil.
type ResolvedField struct {
	Value      *string     `json:"value"`
	Confidence *float64    `json:"confidence"`
	Source     FieldSource `json:"source,omitempty"`
}

// Absent reports whether the field carries no value.
func (f ResolvedField) Absent() bool { return f.Value == nil }

// FieldMap maps canonical field names to resolved fields. It is persisted as
// a single JSONB column.
type FieldMap map[string]ResolvedField

// Value implements driver.Valuer.
func (m FieldMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *FieldMap) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = FieldMap{}
		return nil
	default:
		return fmt.Errorf("FieldMap.Scan: unsupported type %T", src)
	}
}

// Warning codes attached to documents and results. Warnings are data, not
// errors; they drive the review gate instead of aborting processing.
const (
	WarnSourceDisagreement = "source_disagreement"
	WarnMalformedValue     = "malformed_value"
	WarnSubtotalMismatch   = "subtotal_mismatch"
	WarnTotalMismatch      = "total_mismatch"
	WarnLineNumbering      = "line_numbering"
	WarnLowConfidence      = "low_confidence"
	WarnNoCandidates       = "no_candidates"
	WarnMissingField       = "missing_field"
)

// Warning is a non-fatal data-quality finding.
type Warning struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Warnings is persisted as a JSONB array.
type Warnings []Warning

// Value implements driver.Valuer.
func (w Warnings) Value() (driver.Value, error) {
	if w == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(w)
}

// Scan implements sql.Scanner.
func (w *Warnings) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, w)
	case string:
		return json.Unmarshal([]byte(v), w)
	case nil:
		*w = nil
		return nil
	default:
		return fmt.Errorf("Warnings.Scan: unsupported type %T", src)
	}
}

// LineItem is one invoice line. Line items are an owned child collection of
// the document; deleting the parent cascades. Amount is the only required
// monetary field.
type LineItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DocumentID  uuid.UUID `db:"document_id" json:"document_id"`
	LineNumber  int       `db:"line_number" json:"line_number"`
	Description string    `db:"description" json:"description"`
	Quantity    *float64  `db:"quantity" json:"quantity"`
	UnitPrice   *Amount   `db:"unit_price" json:"unit_price"`
	Amount      Amount    `db:"amount" json:"amount"`
	TaxRate     *float64  `db:"tax_rate" json:"tax_rate"`
	TaxAmount   *Amount   `db:"tax_amount" json:"tax_amount"`
	Confidence  *float64  `db:"confidence" json:"confidence"`
}

// CanonicalDocument is the persisted invoice snapshot. It is mutated only
// through the processing state machine's Apply; Version is the
// optimistic-lock token, bumped on every successful mutation.
type CanonicalDocument struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	ContentHash     string          `db:"content_hash" json:"content_hash"`
	SourceKey       string          `db:"source_key" json:"source_key"`
	ContentType     string          `db:"content_type" json:"content_type"`
	Fields          FieldMap        `db:"fields" json:"fields"`
	LineItems       []LineItem      `db:"-" json:"line_items"`
	State           ProcessingState `db:"processing_state" json:"processing_state"`
	Version         int64           `db:"version" json:"version"`
	LowConfidence   bool            `db:"low_confidence" json:"low_confidence"`
	Warnings        Warnings        `db:"warnings" json:"warnings"`
	ExtractAttempts int             `db:"extract_attempts" json:"extract_attempts"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Field returns the resolved field for a canonical name, if set.
func (d *CanonicalDocument) Field(name string) (ResolvedField, bool) {
	f, ok := d.Fields[name]
	return f, ok
}

// FieldString returns the field's value, or nil when absent.
func (d *CanonicalDocument) FieldString(name string) *string {
	if f, ok := d.Fields[name]; ok {
		return f.Value
	}
	return nil
}

// FieldAmount parses an amount-kind field's normalized value.
func (d *CanonicalDocument) FieldAmount(name string) *Amount {
	v := d.FieldString(name)
	if v == nil {
		return nil
	}
	a, err := ParseAmount(*v)
	if err != nil {
		return nil
	}
	return &a
}

// ReferenceDocument is a candidate reference record (e.g. a purchase order)
// the match engine scores documents against.
type ReferenceDocument struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Number          string    `db:"number" json:"number"`
	Date            time.Time `db:"date" json:"date"`
	VendorName      string    `db:"vendor_name" json:"vendor_name"`
	TotalAmount     Amount    `db:"total_amount" json:"total_amount"`
	ReferenceNumber string    `db:"reference_number" json:"reference_number"`
}

// MatchResult is the outcome of scoring one document against candidates.
// Produced fresh per call; never persisted.
type MatchResult struct {
	Matched            bool               `json:"matched"`
	Confidence         float64            `json:"confidence"`
	Strategy           string             `json:"strategy"`
	MatchedReferenceID *uuid.UUID         `json:"matched_reference_id"`
	SubScores          map[string]float64 `json:"sub_scores"`
	Warnings           []Warning          `json:"warnings"`
}

// TransitionAudit is one immutable row per successful state-machine Apply.
type TransitionAudit struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	DocumentID uuid.UUID       `db:"document_id" json:"document_id"`
	FromState  ProcessingState `db:"from_state" json:"from_state"`
	ToState    ProcessingState `db:"to_state" json:"to_state"`
	Event      Event           `db:"event" json:"event"`
	Version    int64           `db:"version" json:"version"`
	Actor      string          `db:"actor" json:"actor"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

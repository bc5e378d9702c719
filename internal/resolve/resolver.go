package resolve

import (
	"fmt"
	"log"

	"apflow/internal/domain"
	"apflow/internal/port"
)

// agreementBoost is applied when both sources report the same value: the
// remaining distance to 1.0 shrinks by this fraction.
const agreementBoost = 0.2

// Resolve merges a primary-source extraction and an optional fallback-source
// extraction into one canonical field set. The primary source wins whenever
// it has a non-empty value; the fallback fills gaps. Disagreements keep the
// primary value and surface a warning for review. Malformed raw values are
// logged and treated as absent, never fatal to the document.
func Resolve(primary, fallback map[string]port.RawField) (domain.FieldMap, []domain.Warning) {
	fields := make(domain.FieldMap, len(domain.CanonicalFields))
	var warnings []domain.Warning

	for _, spec := range domain.CanonicalFields {
		pVal, pConf, pOK := normalized(spec, primary, &warnings)
		fVal, fConf, fOK := normalized(spec, fallback, &warnings)

		switch {
		case pOK:
			conf := pConf
			if fOK && fVal == pVal && conf < 1.0 {
				conf += (1.0 - conf) * agreementBoost
			}
			if fOK && fVal != pVal {
				warnings = append(warnings, domain.Warning{
					Code:  domain.WarnSourceDisagreement,
					Field: spec.Name,
					Message: fmt.Sprintf("primary %q disagrees with fallback %q; primary kept",
						pVal, fVal),
				})
			}
			v := pVal
			fields[spec.Name] = domain.ResolvedField{Value: &v, Confidence: &conf, Source: domain.SourcePrimary}
		case fOK:
			v, conf := fVal, fConf
			fields[spec.Name] = domain.ResolvedField{Value: &v, Confidence: &conf, Source: domain.SourceFallback}
		default:
			fields[spec.Name] = domain.ResolvedField{}
		}
	}

	return fields, warnings
}

// normalized looks a field up in one source map and coerces it to canonical
// form. ok is false when the field is missing, empty, or malformed.
func normalized(spec domain.FieldSpec, source map[string]port.RawField, warnings *[]domain.Warning) (string, float64, bool) {
	if source == nil {
		return "", 0, false
	}
	raw, ok := source[spec.Name]
	if !ok {
		return "", 0, false
	}
	val, err := coerce(spec, raw.Value)
	if err != nil {
		log.Printf("resolve.Resolve: %v", err)
		*warnings = append(*warnings, domain.Warning{
			Code:    domain.WarnMalformedValue,
			Field:   spec.Name,
			Message: err.Error(),
		})
		return "", 0, false
	}
	if val == "" {
		return "", 0, false
	}
	return val, raw.Confidence, true
}

// ResolveLineItems picks the richer of the two line-item arrays (the source
// reporting more lines wins; primary wins ties) and coerces it into domain
// line items with contiguous numbering.
func ResolveLineItems(primary, fallback []port.RawLineItem) ([]domain.LineItem, []domain.Warning) {
	chosen := primary
	if len(fallback) > len(primary) {
		chosen = fallback
	}
	if len(chosen) == 0 {
		return nil, nil
	}

	var warnings []domain.Warning
	items := make([]domain.LineItem, 0, len(chosen))
	for i, raw := range chosen {
		item, err := coerceLineItem(i+1, raw)
		if err != nil {
			log.Printf("resolve.ResolveLineItems: line %d dropped: %v", i+1, err)
			warnings = append(warnings, domain.Warning{
				Code:    domain.WarnMalformedValue,
				Field:   fmt.Sprintf("line_items[%d]", i),
				Message: err.Error(),
			})
			continue
		}
		items = append(items, item)
	}

	// Renumber after drops so line numbers stay contiguous from 1.
	for i := range items {
		if items[i].LineNumber != i+1 {
			items[i].LineNumber = i + 1
		}
	}
	return items, warnings
}

func coerceLineItem(lineNumber int, raw port.RawLineItem) (domain.LineItem, error) {
	fieldPath := func(name string) string {
		return fmt.Sprintf("line_items[%d].%s", lineNumber-1, name)
	}

	amount, err := coerceOptionalAmount(fieldPath("amount"), raw.Amount)
	if err != nil {
		return domain.LineItem{}, err
	}
	if amount == nil {
		return domain.LineItem{}, &domain.MalformedSourceError{
			Field: fieldPath("amount"), Raw: raw.Amount,
			Err: fmt.Errorf("line amount is required"),
		}
	}

	unitPrice, err := coerceOptionalAmount(fieldPath("unit_price"), raw.UnitPrice)
	if err != nil {
		return domain.LineItem{}, err
	}
	taxAmount, err := coerceOptionalAmount(fieldPath("tax_amount"), raw.TaxAmount)
	if err != nil {
		return domain.LineItem{}, err
	}
	quantity, err := coerceOptionalFloat(fieldPath("quantity"), raw.Quantity)
	if err != nil {
		return domain.LineItem{}, err
	}
	taxRate, err := coerceOptionalFloat(fieldPath("tax_rate"), raw.TaxRate)
	if err != nil {
		return domain.LineItem{}, err
	}

	num := raw.LineNumber
	if num <= 0 {
		num = lineNumber
	}
	conf := raw.Confidence
	return domain.LineItem{
		LineNumber:  num,
		Description: raw.Description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      *amount,
		TaxRate:     taxRate,
		TaxAmount:   taxAmount,
		Confidence:  &conf,
	}, nil
}

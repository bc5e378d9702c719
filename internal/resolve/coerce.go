package resolve

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"apflow/internal/domain"
)

// dateLayouts are tried in order when normalizing date fields.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Canonicalize normalizes a raw value to the canonical string form for the
// field's declared kind. Manual review edits go through the same
// normalization as extractor output, so a corrected date or amount lands in
// the same shape downstream code expects.
func Canonicalize(spec domain.FieldSpec, raw any) (string, error) {
	return coerce(spec, raw)
}

// coerce normalizes a raw extractor value to the canonical string form for
// the field's declared kind. A value that cannot be coerced yields a
// *domain.MalformedSourceError; callers treat the field as absent.
func coerce(spec domain.FieldSpec, raw any) (string, error) {
	switch spec.Kind {
	case domain.KindAmount:
		return coerceAmount(spec.Name, raw)
	case domain.KindDate:
		return coerceDate(spec.Name, raw)
	default:
		return coerceText(spec.Name, raw)
	}
}

func coerceText(field string, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), "."), nil
	case int, int64:
		return fmt.Sprintf("%d", v), nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	case nil:
		return "", nil
	default:
		return "", &domain.MalformedSourceError{Field: field, Raw: raw,
			Err: fmt.Errorf("unsupported text type %T", raw)}
	}
}

func coerceDate(field string, raw any) (string, error) {
	s, err := coerceText(field, raw)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", nil
	}
	for _, layout := range dateLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", &domain.MalformedSourceError{Field: field, Raw: raw,
		Err: fmt.Errorf("unrecognized date format %q", s)}
}

func coerceAmount(field string, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", nil
		}
		a, err := domain.ParseAmount(v)
		if err != nil {
			return "", &domain.MalformedSourceError{Field: field, Raw: raw, Err: err}
		}
		return a.String(), nil
	case json.Number:
		a, err := domain.ParseAmount(v.String())
		if err != nil {
			return "", &domain.MalformedSourceError{Field: field, Raw: raw, Err: err}
		}
		return a.String(), nil
	case float64:
		return domain.AmountFromFloat(v).String(), nil
	case int:
		return domain.AmountFromFloat(float64(v)).String(), nil
	case int64:
		return domain.AmountFromFloat(float64(v)).String(), nil
	case nil:
		return "", nil
	default:
		return "", &domain.MalformedSourceError{Field: field, Raw: raw,
			Err: fmt.Errorf("unsupported amount type %T", raw)}
	}
}

// coerceOptionalAmount is the line-item variant: nil stays nil.
func coerceOptionalAmount(field string, raw any) (*domain.Amount, error) {
	if raw == nil {
		return nil, nil
	}
	s, err := coerceAmount(field, raw)
	if err != nil || s == "" {
		return nil, err
	}
	a, perr := domain.ParseAmount(s)
	if perr != nil {
		return nil, &domain.MalformedSourceError{Field: field, Raw: raw, Err: perr}
	}
	return &a, nil
}

func coerceOptionalFloat(field string, raw any) (*float64, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	case int64:
		f := float64(v)
		return &f, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, &domain.MalformedSourceError{Field: field, Raw: raw, Err: err}
		}
		return &f, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		var f float64
		if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
			return nil, &domain.MalformedSourceError{Field: field, Raw: raw, Err: err}
		}
		return &f, nil
	default:
		return nil, &domain.MalformedSourceError{Field: field, Raw: raw,
			Err: fmt.Errorf("unsupported numeric type %T", raw)}
	}
}

package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"MarketPulse/internal/domain/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Record is a normalized, typed pulse payload produced by Validate.
type Record struct {
	Fields      map[string]float64
	Annotations map[string]any
}

// Validate checks a raw decoded body against the kind's schema. It is total:
// every field is checked and all violations are reported together. Annotation
// payloads are accepted as opaque maps with no internal validation. Keys the
// schema does not know (including marketId) are ignored.
func Validate(kind models.Kind, raw map[string]any) (*Record, error) {
	s, ok := For(kind)
	if !ok {
		return nil, fmt.Errorf("no schema for kind %q", kind)
	}

	rec := &Record{Fields: make(map[string]float64, len(s.Fields))}
	var violations []models.Violation

	for _, f := range s.Fields {
		v, present := raw[f.Name]
		if !present || v == nil {
			violations = append(violations, models.Violation{
				Field:      f.Name,
				Constraint: "is required",
			})
			continue
		}

		n, ok := toNumber(v)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			violations = append(violations, models.Violation{
				Field:      f.Name,
				Constraint: "must be a number",
				Value:      v,
			})
			continue
		}

		if f.Rule != "" {
			if err := validate.Var(n, f.Rule); err != nil {
				violations = append(violations, models.Violation{
					Field:      f.Name,
					Constraint: constraintMessage(err),
					Value:      n,
				})
				continue
			}
		}

		rec.Fields[f.Name] = n
	}

	if s.Annotation != "" {
		if v, present := raw[s.Annotation]; present && v != nil {
			m, ok := v.(map[string]any)
			if !ok {
				violations = append(violations, models.Violation{
					Field:      s.Annotation,
					Constraint: "must be an object",
					Value:      v,
				})
			} else {
				rec.Annotations = map[string]any{s.Annotation: m}
			}
		}
	}

	if len(violations) > 0 {
		return nil, models.NewValidationError(violations...)
	}
	return rec, nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func constraintMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "gte":
			return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
		case "lte":
			return fmt.Sprintf("must be less than or equal to %s", fe.Param())
		default:
			return fmt.Sprintf("failed constraint %s=%s", fe.Tag(), fe.Param())
		}
	}
	return "is invalid"
}

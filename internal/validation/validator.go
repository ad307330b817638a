package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/pos-handoff/internal/handoff"
)

// New returns a validator that reports json field names and knows the
// handoff-specific rules.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(jsonName)

	// handoff_code: non-empty after normalisation and no longer than a
	// generous bound on formatted input.
	_ = v.RegisterValidation("handoff_code", func(fl validatorv10.FieldLevel) bool {
		raw := fl.Field().String()
		return len(raw) <= 32 && handoff.NormalizeCode(raw) != ""
	})

	v.RegisterStructValidation(lookupStructValidation, LookupQuery{})
	v.RegisterStructValidation(trackStructValidation, TrackRequest{})
	return v
}

func jsonName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// lookupStructValidation requires a barcode or a sku.
func lookupStructValidation(sl validatorv10.StructLevel) {
	q := sl.Current().Interface().(LookupQuery)
	if _, value := q.Kind(); value == "" {
		sl.ReportError(q.Barcode, "barcode", "Barcode", "barcode_or_sku", "")
	}
}

// trackStructValidation rejects a blank event type and non-object meta.
func trackStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(TrackRequest)
	if strings.TrimSpace(req.EventType) == "" {
		sl.ReportError(req.EventType, "eventType", "EventType", "required", "")
	}
	if len(req.Meta) > 1<<14 {
		sl.ReportError(req.Meta, "meta", "Meta", "max", "16384")
	}
}

package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var errNotNumeric = errors.New("must be numeric")

// Fields is the flat key/value encoding of CostInputs supplied by a form or JSON body.
// Values may be strings (locale formatted) or numbers.
type Fields map[string]any

// ParseDecimal normalizes a locale-formatted decimal string and parses it. Comma and period are
// both accepted as separators; the last one is the decimal point and the others are dropped as
// grouping. Any other non-numeric character is stripped, and a sign is kept only when it leads.
func ParseDecimal(raw string) (float64, error) {
	var b strings.Builder
	digits := 0
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == ',' || r == '.':
			b.WriteByte('.')
		case (r == '-' || r == '+') && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	if digits == 0 {
		return 0, errNotNumeric
	}

	s := b.String()
	if last := strings.LastIndexByte(s, '.'); last >= 0 {
		s = strings.ReplaceAll(s[:last], ".", "") + "." + s[last+1:]
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "+"), ".")
	if strings.HasPrefix(s, "-.") {
		s = "-0" + s[1:]
	} else if strings.HasPrefix(s, ".") {
		s = "0" + s
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, errNotNumeric)
	}
	return d.InexactFloat64(), nil
}

// parseNumber reads a JSON number literal as is, exponent included. Locale cleanup only
// applies to strings.
func parseNumber(n json.Number) (float64, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", n, errNotNumeric)
	}
	return d.InexactFloat64(), nil
}

// ParseInputs decodes a flat field map into CostInputs and validates it. Every rejected field is
// reported in the returned *ValidationError. A missing or blank extraction rate defaults to
// DefaultExtractionRatePct; the water and overhead groups are enabled when any of their keys is set.
func ParseInputs(fields Fields) (CostInputs, error) {
	p := fieldParser{fields: fields}

	in := CostInputs{
		ExtractionRatePct:            p.optional(FieldExtractionRatePct, DefaultExtractionRatePct),
		SecondaryByproductSharePct:   p.required(FieldSecondaryByproductSharePct),
		ElectricityKWhPerBatch:       p.required(FieldElectricityKWhPerBatch),
		ElectricityPricePerKWh:       p.required(FieldElectricityPricePerKWh),
		WheatPricePerKg:              p.required(FieldWheatPricePerKg),
		BranPricePerKg:               p.required(FieldBranPricePerKg),
		SecondaryByproductPricePerKg: p.required(FieldSecondaryByproductPricePerKg),
		LaborCostPerBatch:            p.required(FieldLaborCostPerBatch),
		BagCostPerBatch:              p.required(FieldBagCostPerBatch),
		TargetProfitPerBatch:         p.required(FieldTargetProfitPerBatch),
	}

	if p.anyPresent(waterFields) {
		in.Water = &WaterInputs{
			LitersPerBatch: p.optional(FieldWaterLitersPerBatch, 0),
			PricePerLiter:  p.optional(FieldWaterPricePerLiter, 0),
		}
	}

	if p.anyPresent(overheadFields) {
		in.Overhead = &OverheadInputs{
			MonthlyWheatVolumeKg:      p.optional(FieldMonthlyWheatVolumeKg, 0),
			KitchenExpense:            p.optional(FieldKitchenExpense, 0),
			MaintenanceExpense:        p.optional(FieldMaintenanceExpense, 0),
			SackThreadQty:             p.optional(FieldSackThreadQty, 0),
			SackThreadPrice:           p.optional(FieldSackThreadPrice, 0),
			DieselQty:                 p.optional(FieldDieselQty, 0),
			DieselPrice:               p.optional(FieldDieselPrice, 0),
			GasolineQty:               p.optional(FieldGasolineQty, 0),
			GasolinePrice:             p.optional(FieldGasolinePrice, 0),
			VehicleMaintenanceExpense: p.optional(FieldVehicleMaintenanceExpense, 0),
		}
	}

	if p.err == nil {
		return in, Validate(in)
	}

	// Range checks on fields that failed to parse would only repeat the parse error.
	err := p.err
	var ve *ValidationError
	if errors.As(Validate(in), &ve) {
		for _, f := range ve.Fields {
			if !p.failed[f.Field] {
				err = multierr.Append(err, f)
			}
		}
	}
	return in, validationError(err)
}

type fieldParser struct {
	fields Fields
	err    error
	failed map[string]bool
}

func (p *fieldParser) required(field string) float64 {
	v, ok := p.value(field)
	if !ok {
		p.fail(invalidField(field, "is required"))
		return 0
	}
	return v
}

func (p *fieldParser) optional(field string, def float64) float64 {
	v, ok := p.value(field)
	if !ok {
		return def
	}
	return v
}

func (p *fieldParser) anyPresent(fields []string) bool {
	for _, f := range fields {
		if !isBlank(p.fields[f]) {
			return true
		}
	}
	return false
}

// value reports ok=false for absent or blank fields and for fields that failed to parse.
func (p *fieldParser) value(field string) (float64, bool) {
	raw, exists := p.fields[field]
	if !exists || isBlank(raw) {
		return 0, false
	}

	var (
		v   float64
		err error
	)
	switch t := raw.(type) {
	case string:
		v, err = ParseDecimal(t)
	case json.Number:
		v, err = parseNumber(t)
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int64:
		v = float64(t)
	default:
		err = errNotNumeric
	}
	if err != nil {
		p.fail(invalidField(field, errNotNumeric.Error()))
		// Already reported; the caller must not report it as missing too.
		return 0, true
	}
	return v, true
}

func (p *fieldParser) fail(err error) {
	var fe *FieldError
	if errors.As(err, &fe) {
		if p.failed == nil {
			p.failed = make(map[string]bool)
		}
		p.failed[fe.Field] = true
	}
	p.err = multierr.Append(p.err, err)
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case json.Number:
		return strings.TrimSpace(t.String()) == ""
	}
	return false
}

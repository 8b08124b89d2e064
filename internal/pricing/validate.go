package pricing

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// Validate checks the range invariants of in. The returned error, if any, is a *ValidationError
// listing every offending field.
func Validate(in CostInputs) error {
	var err error

	err = multierr.Append(err, checkExtractionRate(in.ExtractionRatePct))
	err = multierr.Append(err, checkPercent(FieldSecondaryByproductSharePct, in.SecondaryByproductSharePct))
	err = multierr.Append(err, checkNonNegative(FieldElectricityKWhPerBatch, in.ElectricityKWhPerBatch))
	err = multierr.Append(err, checkNonNegative(FieldElectricityPricePerKWh, in.ElectricityPricePerKWh))
	err = multierr.Append(err, checkNonNegative(FieldWheatPricePerKg, in.WheatPricePerKg))
	err = multierr.Append(err, checkNonNegative(FieldBranPricePerKg, in.BranPricePerKg))
	err = multierr.Append(err, checkNonNegative(FieldSecondaryByproductPricePerKg, in.SecondaryByproductPricePerKg))
	err = multierr.Append(err, checkNonNegative(FieldLaborCostPerBatch, in.LaborCostPerBatch))
	err = multierr.Append(err, checkNonNegative(FieldBagCostPerBatch, in.BagCostPerBatch))
	err = multierr.Append(err, checkNonNegative(FieldTargetProfitPerBatch, in.TargetProfitPerBatch))

	if w := in.Water; w != nil {
		err = multierr.Append(err, checkNonNegative(FieldWaterLitersPerBatch, w.LitersPerBatch))
		err = multierr.Append(err, checkNonNegative(FieldWaterPricePerLiter, w.PricePerLiter))
	}

	if o := in.Overhead; o != nil {
		values := []float64{
			o.MonthlyWheatVolumeKg,
			o.KitchenExpense,
			o.MaintenanceExpense,
			o.SackThreadQty,
			o.SackThreadPrice,
			o.DieselQty,
			o.DieselPrice,
			o.GasolineQty,
			o.GasolinePrice,
			o.VehicleMaintenanceExpense,
		}
		for i, v := range values {
			err = multierr.Append(err, checkNonNegative(overheadFields[i], v))
		}
	}

	return validationError(err)
}

// splitTolerance absorbs rounding in table percentages.
const splitTolerance = 1e-9

// validateSplit checks a table split against the stated extraction rate: bran and secondary
// are fractions of milled wheat and cannot exceed what is left after the flour.
func validateSplit(extractionRatePct float64, s Split) error {
	var err error
	err = multierr.Append(err, checkPercent(FieldSplit, s.BranPct))
	err = multierr.Append(err, checkPercent(FieldSplit, s.SecondaryPct))
	if err != nil {
		return validationError(err)
	}

	sum := s.BranPct + s.SecondaryPct
	switch {
	case sum > 100:
		err = invalidField(FieldSplit, fmt.Sprintf("bran and secondary shares add up to %.2f%%, over 100", sum))
	case sum > 100-extractionRatePct+splitTolerance:
		err = invalidField(FieldSplit, fmt.Sprintf(
			"bran and secondary shares add up to %.2f%%, more than the %.2f%% of wheat left at %.2f%% extraction",
			sum, 100-extractionRatePct, extractionRatePct))
	}
	return validationError(err)
}

func checkExtractionRate(v float64) error {
	switch {
	case !isFinite(v):
		return invalidField(FieldExtractionRatePct, "must be a finite number")
	case v == 0:
		return degenerateField(FieldExtractionRatePct, "must be greater than 0")
	case v < 0 || v > 100:
		return invalidField(FieldExtractionRatePct, "must be greater than 0 and at most 100")
	}
	return nil
}

func checkPercent(field string, v float64) error {
	if err := checkNonNegative(field, v); err != nil {
		return err
	}
	if v > 100 {
		return invalidField(field, "must be between 0 and 100")
	}
	return nil
}

func checkNonNegative(field string, v float64) error {
	if !isFinite(v) {
		return invalidField(field, "must be a finite number")
	}
	if v < 0 {
		return invalidField(field, "must be greater than or equal to 0")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package pricing

// Input field names, shared by the flat-map decoder and the validation errors.
const (
	FieldExtractionRatePct            = "extraction_rate_pct"
	FieldSecondaryByproductSharePct   = "secondary_byproduct_share_pct"
	FieldElectricityKWhPerBatch       = "electricity_kwh_per_batch"
	FieldElectricityPricePerKWh       = "electricity_price_per_kwh"
	FieldWheatPricePerKg              = "wheat_price_per_kg"
	FieldBranPricePerKg               = "bran_price_per_kg"
	FieldSecondaryByproductPricePerKg = "secondary_byproduct_price_per_kg"
	FieldLaborCostPerBatch            = "labor_cost_per_batch"
	FieldBagCostPerBatch              = "bag_cost_per_batch"
	FieldTargetProfitPerBatch         = "target_profit_per_batch"

	FieldWaterLitersPerBatch = "water_liters_per_batch"
	FieldWaterPricePerLiter  = "water_price_per_liter"

	FieldMonthlyWheatVolumeKg      = "monthly_wheat_volume_kg"
	FieldKitchenExpense            = "kitchen_expense"
	FieldMaintenanceExpense        = "maintenance_expense"
	FieldSackThreadQty             = "sack_thread_qty"
	FieldSackThreadPrice           = "sack_thread_price"
	FieldDieselQty                 = "diesel_qty"
	FieldDieselPrice               = "diesel_price"
	FieldGasolineQty               = "gasoline_qty"
	FieldGasolinePrice             = "gasoline_price"
	FieldVehicleMaintenanceExpense = "vehicle_maintenance_expense"

	// Only used for table-supplied splits.
	FieldSplit = "yield_split"
)

var waterFields = []string{FieldWaterLitersPerBatch, FieldWaterPricePerLiter}

var overheadFields = []string{
	FieldMonthlyWheatVolumeKg,
	FieldKitchenExpense,
	FieldMaintenanceExpense,
	FieldSackThreadQty,
	FieldSackThreadPrice,
	FieldDieselQty,
	FieldDieselPrice,
	FieldGasolineQty,
	FieldGasolinePrice,
	FieldVehicleMaintenanceExpense,
}

package pricing

// BatchFlourKg is the flour output of one batch: a single 50 kg sack.
const BatchFlourKg = 50.0

// DefaultExtractionRatePct is used when a workflow leaves the extraction rate blank.
const DefaultExtractionRatePct = 75.0

const (
	SplitSourceShare = "share"
	SplitSourceTable = "table"
)

// CostInputs represents the per-batch cost and efficiency parameters of a mill.
type CostInputs struct {
	ExtractionRatePct            float64
	SecondaryByproductSharePct   float64
	ElectricityKWhPerBatch       float64
	ElectricityPricePerKWh       float64
	WheatPricePerKg              float64
	BranPricePerKg               float64
	SecondaryByproductPricePerKg float64
	LaborCostPerBatch            float64
	BagCostPerBatch              float64
	TargetProfitPerBatch         float64

	Water    *WaterInputs
	Overhead *OverheadInputs
}

// WaterInputs prices the water used for one batch.
type WaterInputs struct {
	LitersPerBatch float64
	PricePerLiter  float64
}

// OverheadInputs holds the monthly administrative expenses amortized over milled wheat.
type OverheadInputs struct {
	MonthlyWheatVolumeKg      float64
	KitchenExpense            float64
	MaintenanceExpense        float64
	SackThreadQty             float64
	SackThreadPrice           float64
	DieselQty                 float64
	DieselPrice               float64
	GasolineQty               float64
	GasolinePrice             float64
	VehicleMaintenanceExpense float64
}

// MonthlyTotal sums the direct expense lines and the quantity x price consumable lines.
func (o OverheadInputs) MonthlyTotal() float64 {
	return o.KitchenExpense +
		o.MaintenanceExpense +
		o.SackThreadQty*o.SackThreadPrice +
		o.DieselQty*o.DieselPrice +
		o.GasolineQty*o.GasolinePrice +
		o.VehicleMaintenanceExpense
}

// Yield contains the physical quantities milled for one batch.
type Yield struct {
	WheatRequiredKg      float64
	TotalByproductKg     float64
	BranKg               float64
	SecondaryByproductKg float64
}

// Split is a byproduct split expressed as percentages of milled wheat, as found in a yield table.
type Split struct {
	BranPct      float64
	SecondaryPct float64
}

// CostBreakdown contains every intermediate and line-item value of the pricing calculation.
type CostBreakdown struct {
	WheatRequiredKg      float64 `json:"wheat_required_kg"`
	TotalByproductKg     float64 `json:"total_byproduct_kg"`
	BranKg               float64 `json:"bran_kg"`
	SecondaryByproductKg float64 `json:"secondary_byproduct_kg"`

	ElectricityCost            float64 `json:"electricity_cost"`
	WaterCost                  float64 `json:"water_cost"`
	WheatCost                  float64 `json:"wheat_cost"`
	LaborCost                  float64 `json:"labor_cost"`
	BagCost                    float64 `json:"bag_cost"`
	MonthlyAdminTotal          float64 `json:"monthly_admin_total"`
	AdministrativeCostPerBatch float64 `json:"administrative_cost_per_batch"`

	BranRevenue               float64 `json:"bran_revenue"`
	SecondaryByproductRevenue float64 `json:"secondary_byproduct_revenue"`

	TotalCost    float64 `json:"total_cost"`
	TargetProfit float64 `json:"target_profit"`
	FinalPrice   float64 `json:"final_price"`

	SplitSource string `json:"split_source"`
}

// Decompose derives wheat and byproduct quantities for one batch from the extraction rate,
// splitting the byproduct by the secondary share. extractionRatePct must be > 0.
func Decompose(extractionRatePct, secondarySharePct float64) Yield {
	wheat := BatchFlourKg / (extractionRatePct / 100.0)
	byproduct := wheat - BatchFlourKg
	secondary := byproduct * (secondarySharePct / 100.0)

	return Yield{
		WheatRequiredKg:      wheat,
		TotalByproductKg:     byproduct,
		BranKg:               byproduct - secondary,
		SecondaryByproductKg: secondary,
	}
}

// DecomposeWithSplit derives quantities using percentages of milled wheat from a yield table.
// Whatever the table leaves unaccounted for is treated as milling loss.
func DecomposeWithSplit(extractionRatePct float64, split Split) Yield {
	wheat := BatchFlourKg / (extractionRatePct / 100.0)
	bran := wheat * (split.BranPct / 100.0)
	secondary := wheat * (split.SecondaryPct / 100.0)

	return Yield{
		WheatRequiredKg:      wheat,
		TotalByproductKg:     bran + secondary,
		BranKg:               bran,
		SecondaryByproductKg: secondary,
	}
}

// AdminCostPerBatch amortizes monthly overhead over the monthly wheat volume and charges it
// per kg of wheat milled for the batch. A nil overhead or a zero volume disables it.
func AdminCostPerBatch(overhead *OverheadInputs, wheatRequiredKg float64) (monthlyTotal, perBatch float64) {
	if overhead == nil {
		return 0, 0
	}
	monthlyTotal = overhead.MonthlyTotal()
	if overhead.MonthlyWheatVolumeKg == 0 {
		return monthlyTotal, 0
	}
	return monthlyTotal, (monthlyTotal / overhead.MonthlyWheatVolumeKg) * wheatRequiredKg
}

// Compute validates the inputs and prices one batch with the closed-form byproduct split.
func Compute(in CostInputs) (CostBreakdown, error) {
	if err := Validate(in); err != nil {
		return CostBreakdown{}, err
	}
	return compose(in, Decompose(in.ExtractionRatePct, in.SecondaryByproductSharePct), SplitSourceShare), nil
}

// ComputeWithSplit validates the inputs and prices one batch with a table-supplied split.
// SecondaryByproductSharePct is still validated but does not affect the quantities. A split
// that needs more byproduct than the extraction rate leaves is rejected.
func ComputeWithSplit(in CostInputs, split Split) (CostBreakdown, error) {
	if err := Validate(in); err != nil {
		return CostBreakdown{}, err
	}
	if err := validateSplit(in.ExtractionRatePct, split); err != nil {
		return CostBreakdown{}, err
	}
	return compose(in, DecomposeWithSplit(in.ExtractionRatePct, split), SplitSourceTable), nil
}

func compose(in CostInputs, y Yield, source string) CostBreakdown {
	electricityCost := in.ElectricityKWhPerBatch * in.ElectricityPricePerKWh
	wheatCost := y.WheatRequiredKg * in.WheatPricePerKg
	laborCost := in.LaborCostPerBatch
	bagCost := in.BagCostPerBatch

	waterCost := 0.0
	if in.Water != nil {
		waterCost = in.Water.LitersPerBatch * in.Water.PricePerLiter
	}

	monthlyAdmin, adminCost := AdminCostPerBatch(in.Overhead, y.WheatRequiredKg)

	branRevenue := y.BranKg * in.BranPricePerKg
	secondaryRevenue := y.SecondaryByproductKg * in.SecondaryByproductPricePerKg

	totalCost := (electricityCost + waterCost + wheatCost + laborCost + bagCost + adminCost) -
		(branRevenue + secondaryRevenue)

	return CostBreakdown{
		WheatRequiredKg:            y.WheatRequiredKg,
		TotalByproductKg:           y.TotalByproductKg,
		BranKg:                     y.BranKg,
		SecondaryByproductKg:       y.SecondaryByproductKg,
		ElectricityCost:            electricityCost,
		WaterCost:                  waterCost,
		WheatCost:                  wheatCost,
		LaborCost:                  laborCost,
		BagCost:                    bagCost,
		MonthlyAdminTotal:          monthlyAdmin,
		AdministrativeCostPerBatch: adminCost,
		BranRevenue:                branRevenue,
		SecondaryByproductRevenue:  secondaryRevenue,
		TotalCost:                  totalCost,
		TargetProfit:               in.TargetProfitPerBatch,
		FinalPrice:                 totalCost + in.TargetProfitPerBatch,
		SplitSource:                source,
	}
}

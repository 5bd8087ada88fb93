package restock

import (
	"math"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

// demandHorizonDays is the period the model's demand prediction covers.
const demandHorizonDays = 7

// Calculator applies the reorder-point policy to a predicted demand.
type Calculator struct {
	leadTimeDays float64
	safetyDays   float64
}

// NewCalculator creates a calculator for the given lead time and number of
// days of demand held as safety stock.
func NewCalculator(leadTimeDays, safetyDays float64) *Calculator {
	return &Calculator{leadTimeDays: leadTimeDays, safetyDays: safetyDays}
}

// Calculate turns the next-7-days demand and the stock on hand into a
// recommendation.
func (c *Calculator) Calculate(predictedDemand, currentStock float64) domain.RestockRecommendation {
	rec := domain.RestockRecommendation{
		Recommendation: domain.RecommendationHold,
	}

	// 1. Daily demand over the prediction horizon
	dailyDemand := predictedDemand / demandHorizonDays

	// 2. Safety stock = daily demand * safety days
	safetyStock := dailyDemand * c.safetyDays

	// 3. Reorder point = demand during lead time + safety stock
	reorderPoint := dailyDemand*c.leadTimeDays + safetyStock

	// 4. Restock strictly below the reorder point, up to demand + safety stock
	if currentStock < reorderPoint {
		rec.Recommendation = domain.RecommendationRestock
		target := predictedDemand + safetyStock
		rec.SuggestedQuantity = int(math.Max(0, math.Ceil(target-currentStock)))
	}

	// 5. Presentation rounding
	rec.ReorderPoint = roundFloat(reorderPoint, 2)
	rec.SafetyStock = roundFloat(safetyStock, 2)
	rec.PredictedDemandNext7Days = roundFloat(predictedDemand, 2)

	return rec
}

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

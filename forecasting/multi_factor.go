package forecasting

import (
	"math"
	"time"
)

// Factor names reported in the multi-factor explanation.
const (
	FactorStockTrend       = "stock_trend"
	FactorTimeOfDay        = "time_of_day"
	FactorWeekday          = "weekday"
	FactorTransactions     = "transaction_volume"
	FactorPrice            = "price"
	FactorMicroSeasonality = "micro_seasonality"
)

// MultiFactor scales the series mean by six bounded multiplicative factors,
// one per input signal. It is a fixed heuristic, not a trained model.
type MultiFactor struct{}

func (MultiFactor) Name() ModelName { return ModelMultiFactor }

// FactorContribution explains one factor of the multi-factor model.
type FactorContribution struct {
	Factor     float64 `json:"factor"`
	Importance float64 `json:"importance_pct"`
}

func (MultiFactor) Forecast(in ModelInput) ModelForecast {
	s := in.Series
	points := len(s) + in.Aligned.stockPoints + in.Aligned.transactionPoints

	confidence := ConfidenceLow
	switch {
	case points >= 10:
		confidence = ConfidenceHigh
	case points >= 5:
		confidence = ConfidenceMedium
	}

	if len(s) == 0 {
		return ModelForecast{Value: 0, RangeLow: 0, RangeHigh: 1, Confidence: ConfidenceLow, Trend: TrendStable}
	}

	base := mean(s)
	factors := map[string]float64{
		FactorStockTrend:       stockTrendFactor(in.Aligned.stockDeltas),
		FactorTimeOfDay:        timeOfDayFactor(in.At),
		FactorWeekday:          weekdayFactor(in.At),
		FactorTransactions:     transactionFactor(in.Aligned.Transactions),
		FactorPrice:            priceFactor(in.Product),
		FactorMicroSeasonality: microSeasonalityFactor(s, base),
	}

	product := 1.0
	for _, name := range factorOrder {
		product *= factors[name]
	}
	value := roundNonNegative(base * product)

	spread := int(math.Max(1, math.Round(float64(value)*0.2)))
	return ModelForecast{
		Value:      value,
		RangeLow:   maxInt(0, value-spread),
		RangeHigh:  value + spread,
		Confidence: confidence,
		Trend:      classifyRatio(float64(value), base),
		Extra: map[string]any{
			"base_mean":          base,
			"feature_importance": factorImportance(factors),
		},
	}
}

// factorOrder fixes the multiplication order so results are reproducible.
var factorOrder = []string{
	FactorStockTrend, FactorTimeOfDay, FactorWeekday,
	FactorTransactions, FactorPrice, FactorMicroSeasonality,
}

// factorImportance shares 100% across factors by their distance from 1.
func factorImportance(factors map[string]float64) map[string]FactorContribution {
	var total float64
	for _, f := range factors {
		total += math.Abs(f - 1)
	}
	out := make(map[string]FactorContribution, len(factors))
	for name, f := range factors {
		share := 0.0
		if total > 0 {
			share = math.Round(math.Abs(f-1)/total*1000) / 10
		}
		out[name] = FactorContribution{Factor: f, Importance: share}
	}
	return out
}

func stockTrendFactor(deltas []int) float64 {
	if len(deltas) == 0 {
		return 1
	}
	last := math.Abs(float64(deltas[len(deltas)-1]))
	return math.Max(0.5, 1-last/10)
}

func timeOfDayFactor(at time.Time) float64 {
	if h := at.Hour(); h >= 9 && h <= 21 {
		return 1.2
	}
	return 0.8
}

func weekdayFactor(at time.Time) float64 {
	switch at.Weekday() {
	case time.Saturday, time.Sunday:
		return 1.1
	}
	return 1.0
}

func transactionFactor(perDay []float64) float64 {
	if len(perDay) == 0 {
		return 1
	}
	return math.Min(2, mean(perDay)/10)
}

func priceFactor(p Product) float64 {
	price, _ := p.Price.Float64()
	if price <= 0 {
		return 1
	}
	return math.Max(0.5, 1-price/100)
}

// microSeasonalityFactor compares the latest day with the same weekday one
// week earlier. It needs at least eight days and is bounded to [0.5, 1.5].
func microSeasonalityFactor(s []float64, base float64) float64 {
	n := len(s)
	if n < 8 {
		return 1
	}
	delta := s[n-1] - s[n-8]
	return clamp(1+delta/(base+1), 0.5, 1.5)
}

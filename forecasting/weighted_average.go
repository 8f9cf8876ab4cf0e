package forecasting

import "math"

// wmaWeights apply to today, yesterday and the day before.
var wmaWeights = [3]float64{0.6, 0.3, 0.1}

// WeightedMovingAverage weights the last three days 0.6/0.3/0.1. Its
// confidence comes from how much stock moved across the last three snapshots.
type WeightedMovingAverage struct{}

func (WeightedMovingAverage) Name() ModelName { return ModelWeightedMovingAverage }

func (WeightedMovingAverage) Forecast(in ModelInput) ModelForecast {
	s := in.Series
	n := len(s)
	if n == 0 {
		return ModelForecast{Value: 0, RangeLow: 0, RangeHigh: 2, Confidence: ConfidenceLow, Trend: TrendStable}
	}

	var sum, used float64
	for i := 0; i < 3 && i < n; i++ {
		sum += s[n-1-i] * wmaWeights[i]
		used += wmaWeights[i]
	}
	value := roundNonNegative(sum / used)

	deltas := in.Aligned.stockDeltas
	if len(deltas) > 2 {
		deltas = deltas[len(deltas)-2:]
	}
	volatility := 0.0
	if len(deltas) > 0 {
		for _, d := range deltas {
			volatility += math.Abs(float64(d))
		}
		volatility /= float64(len(deltas))
	}

	confidence := ConfidenceHigh
	switch {
	case volatility > 10:
		confidence = ConfidenceLow
	case volatility > 5:
		confidence = ConfidenceMedium
	}

	return ModelForecast{
		Value:      value,
		RangeLow:   maxInt(0, value-2),
		RangeHigh:  value + 2,
		Confidence: confidence,
		Trend:      classifyRatio(float64(value), s[n-1]),
		Extra: map[string]any{
			"stock_volatility": volatility,
		},
	}
}

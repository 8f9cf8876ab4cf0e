package forecasting

import "math"

const (
	hwAlpha  = 0.3
	hwBeta   = 0.1
	hwGamma  = 0.1
	hwPhi    = 0.98
	hwPeriod = 7
)

// HoltWinters is additive triple exponential smoothing with a weekly season
// and a damped trend. Below one full season it falls back to the mean.
type HoltWinters struct{}

func (HoltWinters) Name() ModelName { return ModelHoltWinters }

func (HoltWinters) Forecast(in ModelInput) ModelForecast {
	s := in.Series
	n := len(s)
	if n < hwPeriod {
		if n == 0 {
			return ModelForecast{Value: 0, RangeLow: 0, RangeHigh: 2, Confidence: ConfidenceLow, Trend: TrendStable}
		}
		value := roundNonNegative(mean(s))
		confidence := ConfidenceLow
		if n > 3 {
			confidence = ConfidenceMedium
		}
		return ModelForecast{
			Value:      value,
			RangeLow:   maxInt(0, value-2),
			RangeHigh:  value + 2,
			Confidence: confidence,
			Trend:      classifyRatio(float64(value), s[n-1]),
		}
	}

	level := mean(s[:hwPeriod])
	trend := (s[hwPeriod-1] - s[0]) / float64(hwPeriod-1)
	seasonal := make([]float64, hwPeriod)
	for i := 0; i < hwPeriod; i++ {
		seasonal[i] = s[i] - level
	}

	for t := 0; t < n; t++ {
		prevLevel := level
		k := t % hwPeriod
		level = hwAlpha*(s[t]-seasonal[k]) + (1-hwAlpha)*(prevLevel+hwPhi*trend)
		trend = hwBeta*(level-prevLevel) + (1-hwBeta)*hwPhi*trend
		seasonal[k] = hwGamma*(s[t]-level) + (1-hwGamma)*seasonal[k]
	}

	raw := level + hwPhi*trend + seasonal[n%hwPeriod]
	value := roundNonNegative(raw)

	var variance float64
	for t := n - hwPeriod; t < n; t++ {
		diff := s[t] - (level + seasonal[t%hwPeriod])
		variance += diff * diff
	}
	variance /= hwPeriod

	confidence := ConfidenceLow
	switch {
	case variance <= 4:
		confidence = ConfidenceHigh
	case variance <= 9:
		confidence = ConfidenceMedium
	}

	spread := int(math.Max(1, math.Round(math.Sqrt(variance))))
	return ModelForecast{
		Value:      value,
		RangeLow:   maxInt(0, value-spread),
		RangeHigh:  value + spread,
		Confidence: confidence,
		Trend:      classifyRatio(float64(value), s[n-1]),
		Extra: map[string]any{
			"level":    level,
			"trend":    trend,
			"variance": variance,
		},
	}
}

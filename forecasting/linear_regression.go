package forecasting

import "math"

// LinearRegression fits OLS over the last 3 and last 7 points and averages
// the two next-step predictions.
type LinearRegression struct{}

func (LinearRegression) Name() ModelName { return ModelLinearRegression }

func (LinearRegression) Forecast(in ModelInput) ModelForecast {
	s := in.Series
	n := len(s)
	if n < 2 {
		value := 0
		if n == 1 {
			value = roundNonNegative(s[0])
		}
		return ModelForecast{
			Value:      value,
			RangeLow:   maxInt(0, value-1),
			RangeHigh:  value + 1,
			Confidence: ConfidenceLow,
			Trend:      TrendStable,
		}
	}

	short := roundNonNegative(olsNext(tail(s, 3)))
	long := roundNonNegative(olsNext(tail(s, 7)))
	value := roundNonNegative(float64(short+long) / 2)

	spread := math.Abs(float64(short - long))
	confidence := ConfidenceLow
	switch {
	case spread <= 3:
		confidence = ConfidenceHigh
	case spread <= 6:
		confidence = ConfidenceMedium
	}

	return ModelForecast{
		Value:      value,
		RangeLow:   minInt(short, long, value),
		RangeHigh:  maxInt(short, long, value),
		Confidence: confidence,
		Trend:      classifyRatio(float64(value), s[n-1]),
		Extra: map[string]any{
			"short_window_prediction": short,
			"long_window_prediction":  long,
		},
	}
}

func minInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}

func maxInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v > m {
			m = v
		}
	}
	return m
}

package forecasting

import (
	"fmt"
	"strings"
)

// NarrativeAverage is the plain 7-day mean with a recent-vs-prior trend and
// a short reasoning text derived from the latest stock movement.
type NarrativeAverage struct{}

func (NarrativeAverage) Name() ModelName { return ModelNarrative }

func (NarrativeAverage) Forecast(in ModelInput) ModelForecast {
	window := tail(in.Series, 7)
	if len(window) == 0 {
		return ModelForecast{
			Value:      0,
			RangeLow:   0,
			RangeHigh:  1,
			Confidence: ConfidenceLow,
			Trend:      TrendStable,
			Extra:      map[string]any{"reasoning": "No sales history in the window."},
		}
	}

	avg := mean(window)
	value := roundNonNegative(avg)
	trend := narrativeTrend(window)

	notes := []string{
		fmt.Sprintf("Average of %.1f units/day over the last %d days, trend %s.", avg, len(window), trend),
	}
	if deltas := in.Aligned.stockDeltas; len(deltas) > 0 {
		last := deltas[len(deltas)-1]
		switch {
		case last < 0 && float64(-last) > avg:
			notes = append(notes, "Stock is decreasing faster than recorded sales, indicating high demand.")
		case last > 0:
			notes = append(notes, "Stock is increasing, suggesting the shop anticipates demand.")
		}
	}

	return ModelForecast{
		Value:      value,
		RangeLow:   maxInt(0, value-1),
		RangeHigh:  value + 1,
		Confidence: ConfidenceMedium,
		Trend:      trend,
		Extra:      map[string]any{"reasoning": strings.Join(notes, " ")},
	}
}

// narrativeTrend compares the mean of the last three days with the three
// before them.
func narrativeTrend(window []float64) Trend {
	n := len(window)
	if n < 4 {
		return TrendStable
	}
	recent := mean(window[n-3:])
	priorStart := n - 6
	if priorStart < 0 {
		priorStart = 0
	}
	prior := mean(window[priorStart : n-3])
	if prior == 0 {
		if recent > 0 {
			return TrendUpward
		}
		return TrendStable
	}
	return classifyRatio(recent, prior)
}

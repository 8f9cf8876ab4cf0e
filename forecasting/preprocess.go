package forecasting

import "math"

// transactionFallbackRate converts an average transaction count into a
// per-product daily sales estimate when no stock evidence exists.
const transactionFallbackRate = 0.1

// RemoveOutliers drops points further than 2*MAD from the median. The result
// keeps the original order and may be shorter than the input. Series with
// fewer than three points are returned unchanged.
func RemoveOutliers(series []float64) []float64 {
	if len(series) < 3 {
		return series
	}

	med := median(series)
	deviations := make([]float64, len(series))
	for i, v := range series {
		deviations[i] = math.Abs(v - med)
	}
	threshold := 2 * median(deviations)

	kept := make([]float64, 0, len(series))
	for i, v := range series {
		if deviations[i] <= threshold {
			kept = append(kept, v)
		}
	}
	return kept
}

// FillMissingValues imputes days without observations. Stock depletion
// between day i and day i+1 is preferred; otherwise a tenth of the mean
// transaction count is used; otherwise the day stays at zero.
//
// stock is indexed like series and holds nil on days without a snapshot.
func FillMissingValues(series []DailyValue, stock []*int, transactions []float64) []float64 {
	filled := make([]float64, len(series))

	txEstimate := 0.0
	if len(transactions) > 0 {
		txEstimate = math.Max(0, mean(transactions)*transactionFallbackRate)
	}

	for i, day := range series {
		if day.Observed {
			filled[i] = math.Max(0, day.Quantity)
			continue
		}
		if i+1 < len(stock) && stock[i] != nil && stock[i+1] != nil {
			filled[i] = math.Max(0, float64(*stock[i]-*stock[i+1]))
			continue
		}
		if len(transactions) > 0 {
			filled[i] = txEstimate
		}
	}
	return filled
}

package forecasting

// FusionWeights are the fixed per-model weights of the ensemble, in percent.
// Sums stay integral so x.5 values and 1.5/2.5 scores compare exactly.
var FusionWeights = map[ModelName]int{
	ModelHoltWinters:           35,
	ModelLinearRegression:      25,
	ModelMultiFactor:           20,
	ModelWeightedMovingAverage: 15,
	ModelNarrative:             5,
}

// fusionOrder fixes the order models are summed in.
var fusionOrder = []ModelName{
	ModelHoltWinters,
	ModelLinearRegression,
	ModelMultiFactor,
	ModelWeightedMovingAverage,
	ModelNarrative,
}

// Fuse combines model outputs with FusionWeights, renormalizing over the
// models present. The trend compares the weighted forecast with the plain
// mean of the raw values; per-model trend labels are ignored.
func Fuse(forecasts map[ModelName]ModelForecast) FusedForecast {
	var weighted, confidence, used, plain int64
	count := 0
	for _, name := range fusionOrder {
		f, ok := forecasts[name]
		if !ok {
			continue
		}
		w := int64(FusionWeights[name])
		if w <= 0 {
			continue
		}
		value := int64(f.Value)
		if value < 0 {
			value = 0
		}
		weighted += w * value
		confidence += w * int64(f.Confidence.Score())
		used += w
		plain += value
		count++
	}

	if count == 0 {
		return FusedForecast{Value: 0, RangeLow: 0, RangeHigh: 1, Confidence: ConfidenceLow, Trend: TrendStable}
	}

	// round half up on the exact ratio weighted/used
	value := int((2*weighted + used) / (2 * used))
	point := float64(weighted) / float64(used)
	avg := float64(plain) / float64(count)

	trend := TrendStable
	if avg > 0 {
		trend = classifyRatio(point, avg)
	}

	return FusedForecast{
		Value:      value,
		RangeLow:   maxInt(0, value-1),
		RangeHigh:  value + 1,
		Confidence: ConfidenceFromScore(float64(confidence) / float64(used)),
		Trend:      trend,
		Models:     count,
	}
}

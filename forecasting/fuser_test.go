package forecasting

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mf(value int, c Confidence) ModelForecast {
	return ModelForecast{Value: value, Confidence: c}
}

func TestFuse(t *testing.T) {
	forecasts := map[ModelName]ModelForecast{
		ModelHoltWinters:           mf(10, ConfidenceHigh),
		ModelLinearRegression:      mf(12, ConfidenceHigh),
		ModelMultiFactor:           mf(8, ConfidenceMedium),
		ModelWeightedMovingAverage: mf(10, ConfidenceHigh),
		ModelNarrative:             mf(9, ConfidenceMedium),
	}

	got := Fuse(forecasts)
	assert.Equal(t, 10, got.Value)
	assert.Equal(t, 9, got.RangeLow)
	assert.Equal(t, 11, got.RangeHigh)
	assert.Equal(t, ConfidenceHigh, got.Confidence)
	assert.Equal(t, TrendStable, got.Trend)
	assert.Equal(t, 5, got.Models)
}

func TestFuseRenormalizesOverPresentModels(t *testing.T) {
	got := Fuse(map[ModelName]ModelForecast{
		ModelHoltWinters: mf(10, ConfidenceLow),
		ModelNarrative:   mf(20, ConfidenceMedium),
	})
	// (0.35*10 + 0.05*20) / 0.40
	assert.Equal(t, 11, got.Value)
	assert.Equal(t, 2, got.Models)
	// (0.35*1 + 0.05*2) / 0.40 = 1.125
	assert.Equal(t, ConfidenceLow, got.Confidence)
}

func TestFuseTrendIgnoresModelLabels(t *testing.T) {
	forecasts := map[ModelName]ModelForecast{
		ModelHoltWinters:           {Value: 20, Confidence: ConfidenceMedium, Trend: TrendDownward},
		ModelLinearRegression:      {Value: 20, Confidence: ConfidenceMedium, Trend: TrendDownward},
		ModelMultiFactor:           {Value: 2, Confidence: ConfidenceMedium, Trend: TrendDownward},
		ModelWeightedMovingAverage: {Value: 2, Confidence: ConfidenceMedium, Trend: TrendDownward},
		ModelNarrative:             {Value: 2, Confidence: ConfidenceMedium, Trend: TrendDownward},
	}
	got := Fuse(forecasts)
	// weighted 12.8 against a plain mean of 9.2
	assert.Equal(t, TrendUpward, got.Trend)
	assert.Equal(t, ConfidenceMedium, got.Confidence)
}

func TestFuseEmpty(t *testing.T) {
	got := Fuse(nil)
	assert.Equal(t, 0, got.Value)
	assert.Equal(t, ConfidenceLow, got.Confidence)
	assert.Equal(t, TrendStable, got.Trend)
}

func TestFuseStaysWithinModelRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	names := []ModelName{ModelHoltWinters, ModelLinearRegression, ModelMultiFactor, ModelWeightedMovingAverage, ModelNarrative}
	for trial := 0; trial < 500; trial++ {
		forecasts := make(map[ModelName]ModelForecast)
		lo, hi := 1<<30, -1
		for _, name := range names {
			if rng.Float64() < 0.2 {
				continue
			}
			v := rng.Intn(200)
			forecasts[name] = mf(v, Confidence(1+rng.Intn(3)))
			lo, hi = minInt(lo, v), maxInt(hi, v)
		}
		if len(forecasts) == 0 {
			continue
		}
		got := Fuse(forecasts)
		require.GreaterOrEqual(t, got.Value, lo)
		require.LessOrEqual(t, got.Value, hi)
	}
}

func TestFuseIsIdempotent(t *testing.T) {
	forecasts := map[ModelName]ModelForecast{
		ModelHoltWinters:      mf(7, ConfidenceHigh),
		ModelLinearRegression: mf(9, ConfidenceLow),
		ModelMultiFactor:      mf(4, ConfidenceMedium),
	}
	assert.Equal(t, Fuse(forecasts), Fuse(forecasts))
}

func TestFuseResolvesTiesTheSameWayEveryCall(t *testing.T) {
	cases := []struct {
		name       string
		forecasts  map[ModelName]ModelForecast
		value      int
		confidence Confidence
	}{
		{
			name: "value exactly half",
			forecasts: map[ModelName]ModelForecast{
				ModelHoltWinters:           mf(0, ConfidenceLow),
				ModelLinearRegression:      mf(0, ConfidenceLow),
				ModelMultiFactor:           mf(0, ConfidenceLow),
				ModelWeightedMovingAverage: mf(3, ConfidenceLow),
				ModelNarrative:             mf(1, ConfidenceLow),
			},
			value:      1,
			confidence: ConfidenceLow,
		},
		{
			name: "score exactly 1.5",
			forecasts: map[ModelName]ModelForecast{
				ModelHoltWinters:           mf(4, ConfidenceMedium),
				ModelLinearRegression:      mf(4, ConfidenceLow),
				ModelMultiFactor:           mf(4, ConfidenceLow),
				ModelWeightedMovingAverage: mf(4, ConfidenceMedium),
				ModelNarrative:             mf(4, ConfidenceLow),
			},
			value:      4,
			confidence: ConfidenceMedium,
		},
		{
			name: "score exactly 2.5",
			forecasts: map[ModelName]ModelForecast{
				ModelHoltWinters:           mf(6, ConfidenceHigh),
				ModelLinearRegression:      mf(6, ConfidenceMedium),
				ModelMultiFactor:           mf(6, ConfidenceHigh),
				ModelWeightedMovingAverage: mf(6, ConfidenceMedium),
				ModelNarrative:             mf(6, ConfidenceLow),
			},
			value:      6,
			confidence: ConfidenceHigh,
		},
		{
			name: "renormalized half",
			forecasts: map[ModelName]ModelForecast{
				ModelHoltWinters: mf(0, ConfidenceLow),
				ModelNarrative:   mf(4, ConfidenceLow),
			},
			value:      1,
			confidence: ConfidenceLow,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first := Fuse(tc.forecasts)
			assert.Equal(t, tc.value, first.Value)
			assert.Equal(t, tc.confidence, first.Confidence)
			for i := 0; i < 300; i++ {
				require.Equal(t, first, Fuse(tc.forecasts))
			}
		})
	}
}

func TestConfidenceFromScore(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ConfidenceFromScore(2.5))
	assert.Equal(t, ConfidenceMedium, ConfidenceFromScore(2.49))
	assert.Equal(t, ConfidenceMedium, ConfidenceFromScore(1.5))
	assert.Equal(t, ConfidenceLow, ConfidenceFromScore(1.49))
}

func TestConfidenceJSON(t *testing.T) {
	b, err := ConfidenceMedium.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"medium"`, string(b))

	var c Confidence
	require.NoError(t, c.UnmarshalJSON([]byte(`"high"`)))
	assert.Equal(t, ConfidenceHigh, c)
	assert.Error(t, c.UnmarshalJSON([]byte(`"certain"`)))
}

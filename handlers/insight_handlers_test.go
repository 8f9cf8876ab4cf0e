package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailforecast/config"
	"retailforecast/forecasting"
	"retailforecast/models"
)

func stubInsights(t *testing.T, fn func(ctx context.Context, prompt string) (string, error)) {
	t.Helper()
	prev := generateInsightText
	generateInsightText = fn
	t.Cleanup(func() { generateInsightText = prev })
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "", extractJSON("no json here"))
	assert.Equal(t, "", extractJSON("} backwards {"))
}

func TestParseInsight(t *testing.T) {
	got, err := parseInsight(`Sure! {"summary":"Demand is steady.","positive_factors":["weekend"],"negative_factors":[]}`)
	require.NoError(t, err)
	assert.Equal(t, "Demand is steady.", got.Summary)
	assert.Equal(t, []string{"weekend"}, got.PositiveFactors)

	_, err = parseInsight(`{"summary":""}`)
	assert.Error(t, err)
	_, err = parseInsight(`{"summary": oops}`)
	assert.Error(t, err)
}

func TestConstructInsightPromptCarriesNumbers(t *testing.T) {
	stockout := "2024-05-18"
	report := forecasting.ProductForecastReport{
		Product: forecasting.Product{Name: "Milk", CurrentStock: 12},
		Models: map[forecasting.ModelName]forecasting.ModelForecast{
			forecasting.ModelHoltWinters: {Value: 9, Confidence: forecasting.ConfidenceHigh},
		},
		Fused: forecasting.FusedForecast{Value: 9, RangeLow: 8, RangeHigh: 10, Confidence: forecasting.ConfidenceHigh, Trend: forecasting.TrendUpward},
		Breakdown: forecasting.Breakdown{
			Trend:            forecasting.BreakdownRising,
			TrendPercent:     12.5,
			TotalPredicted:   63,
			StockoutDate:     &stockout,
			SuggestedReorder: 51,
			Daily:            []forecasting.DailyPrediction{{Date: "2024-05-16", Weekday: "Thursday", PredictedSales: 9}},
		},
	}

	prompt := constructInsightPrompt(report)
	for _, want := range []string{
		"Milk (current stock 12 units)",
		"9 units/day, range 8-10, high confidence, trend upward",
		"holt_winters: 9 units/day",
		"RISING trend (12.5%), 63 units in total",
		"2024-05-16 (Thursday): 9 units",
		"**Projected stockout:** 2024-05-18",
		"**Suggested reorder:** 51 units",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestHandleGetProductInsights(t *testing.T) {
	useSource(t, memorySource())
	var prompt string
	stubInsights(t, func(_ context.Context, p string) (string, error) {
		prompt = p
		return `{"summary":"Steady seller.","positive_factors":["stable demand"],"negative_factors":["low stock"]}`, nil
	})

	resp, env := doRequest(t, newTestApp(), "POST", "/forecast/products/p1/insights?days=7")
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, prompt, "Item p1")

	var data models.ForecastInsightResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.ReportID)
	assert.Equal(t, "7-Day Demand Insight", data.ReportName)
	assert.Equal(t, "Steady seller.", data.AiAnalysis.Summary)
	assert.Equal(t, "p1", data.Report.Product.ID)
	assert.Equal(t, 2, data.Report.Fused.Value)
}

func TestHandleGetProductInsightsFailures(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, string) (string, error)
		want int
	}{
		{"disabled", func(context.Context, string) (string, error) { return "", errInsightsDisabled }, 503},
		{"upstream error", func(context.Context, string) (string, error) { return "", errors.New("quota") }, 502},
		{"unparseable", func(context.Context, string) (string, error) { return "I cannot help", nil }, 502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useSource(t, memorySource())
			stubInsights(t, tt.fn)
			resp, env := doRequest(t, newTestApp(), "POST", "/forecast/products/p1/insights")
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.False(t, env.Success)
		})
	}
}

func TestGenerateWithGeminiWithoutKey(t *testing.T) {
	prev := geminiConfig
	t.Cleanup(func() { ConfigureGemini(prev) })

	ConfigureGemini(config.GeminiConfig{Model: "gemini-2.5-flash-lite", RPS: 2})
	_, err := generateWithGemini(context.Background(), "hello")
	assert.ErrorIs(t, err, errInsightsDisabled)
}

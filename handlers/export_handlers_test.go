package handlers

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retailforecast/forecasting"
	"retailforecast/models"
)

func TestBuildPredictionsWorkbook(t *testing.T) {
	stockout := "2024-05-18"
	resp := models.PredictionsResponse{
		Days:        7,
		GeneratedAt: testNow,
		Products: []models.ProductPrediction{
			{
				Product: forecasting.Product{ID: "p1", Name: "Milk", CurrentStock: 5},
				Breakdown: forecasting.Breakdown{
					Trend:            forecasting.BreakdownRising,
					Confidence:       forecasting.ConfidenceMedium,
					TotalPredicted:   9,
					RemainingStock:   -4,
					StockoutDate:     &stockout,
					SuggestedReorder: 4,
					ProjectedRevenue: decimal.RequireFromString("13.50"),
					Daily: []forecasting.DailyPrediction{
						{Date: "2024-05-16", Weekday: "Thursday", PredictedSales: 4},
						{Date: "2024-05-17", Weekday: "Friday", PredictedSales: 5},
					},
				},
			},
			{Product: forecasting.Product{ID: "p2", Name: "Bread"}, Breakdown: forecasting.Breakdown{Trend: forecasting.BreakdownNotEnoughData}},
		},
	}

	f, err := buildPredictionsWorkbook(resp)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "Product ID", summary[0][0])
	assert.Equal(t, []string{"p1", "Milk", "5", "RISING"}, summary[1][:4])
	assert.Equal(t, "medium", summary[1][5])
	assert.Equal(t, "2024-05-18", summary[1][8])
	assert.Equal(t, "13.5", summary[1][10])
	assert.Equal(t, "NOT_ENOUGH_DATA", summary[2][3])

	daily, err := f.GetRows(dailySheet)
	require.NoError(t, err)
	require.Len(t, daily, 3)
	assert.Equal(t, []string{"p1", "Milk", "2024-05-17", "Friday", "5"}, daily[2])
}

func TestHandleExportPredictions(t *testing.T) {
	useSource(t, memorySource())

	resp, err := newTestApp().Test(httptest.NewRequest("GET", "/forecast/predictions/export?days=14", nil), 5000)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, xlsxMIME, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "forecast-14d-"+time.Now().Format("2006-01-02")+".xlsx")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(summarySheet)
	require.NoError(t, err)
	assert.Len(t, summary, 4)

	daily, err := f.GetRows(dailySheet)
	require.NoError(t, err)
	assert.Len(t, daily, 1+3*14)
}

func TestHandleExportPredictionsRejectsHorizon(t *testing.T) {
	useSource(t, memorySource())
	resp, err := newTestApp().Test(httptest.NewRequest("GET", "/forecast/predictions/export?days=60", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

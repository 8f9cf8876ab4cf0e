package models

import (
	"time"

	"retailforecast/forecasting"
	"retailforecast/utils"
)

// ForecastListResponse is the paginated batch forecast for a merchant.
type ForecastListResponse struct {
	RequestID  string                            `json:"requestId"`
	Results    []forecasting.ProductResult       `json:"results"`
	Pagination *utils.Pagination                 `json:"pagination"`
	Completed  int                               `json:"completed"`
	Failed     int                               `json:"failed"`
	Cancelled  int                               `json:"cancelled"`
	Partial    bool                              `json:"partial"`
	TopPairs   []forecasting.ProductPairAffinity `json:"topPairs"`
}

// ProductPrediction is the breakdown-only view of one product.
type ProductPrediction struct {
	Product   forecasting.Product   `json:"product"`
	Breakdown forecasting.Breakdown `json:"breakdown"`
}

// PredictionsResponse lists the multi-day breakdown for every product in scope.
type PredictionsResponse struct {
	Days        int                 `json:"days"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Products    []ProductPrediction `json:"products"`
	// Skipped holds product ids whose history could not be read.
	Skipped []string `json:"skipped,omitempty"`
}

// AiAnalysis is the narrative returned by the language model.
type AiAnalysis struct {
	Summary         string   `json:"summary"`
	PositiveFactors []string `json:"positive_factors"`
	NegativeFactors []string `json:"negative_factors"`
}

// ForecastInsightResponse pairs the deterministic report with the AI narrative.
// The numbers always come from Report, never from the model.
type ForecastInsightResponse struct {
	ReportID    string                            `json:"reportId"`
	ReportName  string                            `json:"reportName"`
	GeneratedAt time.Time                         `json:"generatedAt"`
	Report      forecasting.ProductForecastReport `json:"report"`
	AiAnalysis  AiAnalysis                        `json:"aiAnalysis"`
}

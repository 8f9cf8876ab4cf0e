package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"retailforecast/config"
	"retailforecast/forecasting"
	"retailforecast/models"
)

var errInsightsDisabled = errors.New("AI insights are not configured")

var (
	geminiConfig  = config.GeminiConfig{Model: "gemini-2.5-flash-lite", RPS: 1}
	geminiLimiter = rate.NewLimiter(rate.Limit(1), 1)

	// generateInsightText sends the prompt to the language model and returns
	// its raw text answer.
	generateInsightText = generateWithGemini
)

// ConfigureGemini sets the model, key and request rate for insight calls.
func ConfigureGemini(cfg config.GeminiConfig) {
	geminiConfig = cfg
	geminiLimiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
}

func generateWithGemini(ctx context.Context, prompt string) (string, error) {
	if geminiConfig.APIKey == "" {
		return "", errInsightsDisabled
	}
	if err := geminiLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for AI rate limit: %w", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(geminiConfig.APIKey))
	if err != nil {
		return "", fmt.Errorf("failed to create AI client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(geminiConfig.Model)
	model.ResponseMIMEType = "application/json"
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate insight: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content received from AI")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	return text.String(), nil
}

// constructInsightPrompt asks the model to explain a finished report. The
// numbers are given, not asked for.
func constructInsightPrompt(report forecasting.ProductForecastReport) string {
	var daily strings.Builder
	for _, d := range report.Breakdown.Daily {
		fmt.Fprintf(&daily, "- %s (%s): %d units\n", d.Date, d.Weekday, d.PredictedSales)
	}

	var perModel strings.Builder
	for _, name := range []forecasting.ModelName{
		forecasting.ModelHoltWinters, forecasting.ModelLinearRegression, forecasting.ModelMultiFactor,
		forecasting.ModelWeightedMovingAverage, forecasting.ModelNarrative,
	} {
		if m, ok := report.Models[name]; ok {
			fmt.Fprintf(&perModel, "- %s: %d units/day (%s confidence)\n", name, m.Value, m.Confidence)
		}
	}

	stockout := "not expected within the horizon"
	if report.Breakdown.StockoutDate != nil {
		stockout = *report.Breakdown.StockoutDate
	}

	jsonFormat := `{"summary":"string","positive_factors":["string",...],"negative_factors":["string",...]}`

	return fmt.Sprintf(`
        You are an expert retail data analyst. Explain the demand forecast below to a shop owner.
        Do not change or recompute any of the numbers.

        **Product:** %s (current stock %d units)
        **Next-day ensemble forecast:** %d units/day, range %d-%d, %s confidence, trend %s
        **Per model:**
%s
        **Multi-day outlook:** %s trend (%.1f%%), %d units in total
%s
        **Projected stockout:** %s
        **Suggested reorder:** %d units

        **Required Output:**
        You must provide a single, minified JSON object with the following exact structure. Do not include any markdown formatting, backticks, or explanatory text before or after the JSON object.

        %s
    `, report.Product.Name, report.Product.CurrentStock,
		report.Fused.Value, report.Fused.RangeLow, report.Fused.RangeHigh, report.Fused.Confidence, report.Fused.Trend,
		perModel.String(),
		report.Breakdown.Trend, report.Breakdown.TrendPercent, report.Breakdown.TotalPredicted,
		daily.String(), stockout, report.Breakdown.SuggestedReorder, jsonFormat)
}

func extractJSON(rawString string) string {
	start := strings.Index(rawString, "{")
	end := strings.LastIndex(rawString, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return rawString[start : end+1]
}

// parseInsight reads the model's JSON answer.
func parseInsight(text string) (models.AiAnalysis, error) {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		log.Printf("Could not extract JSON from Gemini response: %s", text)
		return models.AiAnalysis{}, fmt.Errorf("failed to parse AI response format")
	}

	var analysis models.AiAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		log.Printf("Error parsing Gemini JSON: %v\nRaw JSON: %s", err, jsonStr)
		return models.AiAnalysis{}, fmt.Errorf("failed to parse AI insight data")
	}
	if analysis.Summary == "" {
		return models.AiAnalysis{}, fmt.Errorf("AI insight has no summary")
	}
	return analysis, nil
}

// HandleGetProductInsights forecasts one product and asks the language model
// to explain the result.
// POST /api/v1/merchant/forecast/products/:itemId/insights?days=7
func HandleGetProductInsights(c *fiber.Ctx) error {
	scope, err := requestScope(c)
	if err != nil {
		return unauthorized(c)
	}
	days, err := parseDays(c)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.UserContext()
	report, err := forecaster.ForecastProduct(ctx, newForecastSource(), scope, c.Params("itemId"), days)
	if err != nil {
		return respondError(c, err)
	}

	aiCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	text, err := generateInsightText(aiCtx, constructInsightPrompt(report))
	if errors.Is(err, errInsightsDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	if err != nil {
		log.Printf("❌ [INSIGHTS] Error from Gemini API: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": "Failed to generate insight from AI"})
	}

	analysis, err := parseInsight(text)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true, "data": models.ForecastInsightResponse{
		ReportID:    uuid.New().String(),
		ReportName:  fmt.Sprintf("%d-Day Demand Insight", days),
		GeneratedAt: time.Now(),
		Report:      report,
		AiAnalysis:  analysis,
	}})
}

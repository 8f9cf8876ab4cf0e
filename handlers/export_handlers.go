package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"retailforecast/models"
)

const (
	summarySheet = "Summary"
	dailySheet   = "Daily"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var summaryHeader = []interface{}{
	"Product ID", "Product", "Current Stock", "Trend", "Trend %", "Confidence",
	"Total Predicted", "Remaining Stock", "Stockout Date", "Suggested Reorder", "Projected Revenue",
}

var dailyHeader = []interface{}{"Product ID", "Product", "Date", "Weekday", "Predicted Sales"}

// buildPredictionsWorkbook lays the predictions out on two sheets: one row per
// product on Summary and one row per product-day on Daily.
func buildPredictionsWorkbook(resp models.PredictionsResponse) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(dailySheet, "A1", &dailyHeader); err != nil {
		return nil, err
	}

	dailyRow := 2
	for i, p := range resp.Products {
		b := p.Breakdown
		stockout := ""
		if b.StockoutDate != nil {
			stockout = *b.StockoutDate
		}
		revenue, _ := b.ProjectedRevenue.Float64()
		row := []interface{}{
			p.Product.ID, p.Product.Name, p.Product.CurrentStock, string(b.Trend),
			b.TrendPercent, b.Confidence.String(), b.TotalPredicted, b.RemainingStock,
			stockout, b.SuggestedReorder, revenue,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}

		for _, d := range b.Daily {
			line := []interface{}{p.Product.ID, p.Product.Name, d.Date, d.Weekday, d.PredictedSales}
			cell, _ := excelize.CoordinatesToCellName(1, dailyRow)
			if err := f.SetSheetRow(dailySheet, cell, &line); err != nil {
				return nil, err
			}
			dailyRow++
		}
	}
	return f, nil
}

// HandleExportPredictions streams the predictions as an xlsx workbook.
// GET /api/v1/merchant/forecast/predictions/export?days=7|14|30
func HandleExportPredictions(c *fiber.Ctx) error {
	scope, err := requestScope(c)
	if err != nil {
		return unauthorized(c)
	}
	days, err := parseDays(c)
	if err != nil {
		return respondError(c, err)
	}

	resp, err := collectPredictions(c.UserContext(), scope, days)
	if err != nil {
		return respondError(c, err)
	}

	f, err := buildPredictionsWorkbook(resp)
	if err != nil {
		log.Printf("❌ [EXPORT] Failed to build workbook: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to build export"})
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Printf("❌ [EXPORT] Failed to write workbook: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to build export"})
	}

	log.Printf("📊 [EXPORT] Merchant %s exported %d products for %d days", scope.MerchantID, len(resp.Products), days)
	c.Set(fiber.HeaderContentType, xlsxMIME)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="forecast-%dd-%s.xlsx"`,
		days, resp.GeneratedAt.Format("2006-01-02")))
	return c.Send(buf.Bytes())
}

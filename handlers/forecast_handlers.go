package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"retailforecast/database"
	"retailforecast/forecasting"
	"retailforecast/middleware"
	"retailforecast/models"
	"retailforecast/utils"
)

var (
	forecaster = forecasting.NewForecaster(forecasting.DefaultOptions(), nil)

	// newForecastSource builds the data source for one request.
	newForecastSource = func() forecasting.DataSource {
		return database.NewForecastRepository(database.GetDB())
	}
)

// SetForecaster installs the configured pipeline.
func SetForecaster(f *forecasting.Forecaster) {
	forecaster = f
}

// allowedHorizons are the prediction lengths the API offers.
var allowedHorizons = map[int]bool{7: true, 14: true, 30: true}

func parseDays(c *fiber.Ctx) (int, error) {
	days := c.QueryInt("days", 7)
	if !allowedHorizons[days] {
		return 0, fmt.Errorf("%w: days must be one of 7, 14 or 30", forecasting.ErrInvalidInput)
	}
	return days, nil
}

// requestScope resolves the merchant from the token and the optional shopId filter.
func requestScope(c *fiber.Ctx) (forecasting.Scope, error) {
	claims, err := middleware.ExtractClaims(c)
	if err != nil {
		return forecasting.Scope{}, err
	}
	return forecasting.Scope{MerchantID: middleware.MerchantID(claims), ShopID: c.Query("shopId")}, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
}

// respondError maps pipeline errors onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	var upstreamErr *forecasting.UpstreamFetchError
	switch {
	case errors.Is(err, forecasting.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	case errors.Is(err, forecasting.ErrUnknownProduct):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Product not found"})
	case errors.As(err, &upstreamErr):
		log.Printf("❌ [FORECAST] Upstream fetch failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": "Failed to read sales data"})
	default:
		log.Printf("❌ [FORECAST] Unexpected error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to generate forecast"})
	}
}

func listProducts(ctx context.Context, src forecasting.DataSource, scope forecasting.Scope) ([]forecasting.Product, error) {
	products, err := src.Products(ctx, scope)
	if err != nil {
		return nil, &forecasting.UpstreamFetchError{Resource: "products", Err: err}
	}
	return products, nil
}

// HandleGetForecasts runs the ensemble and breakdown for one page of products.
// GET /api/v1/merchant/forecast?days=7&page=1&pageSize=20&shopId=
func HandleGetForecasts(c *fiber.Ctx) error {
	scope, err := requestScope(c)
	if err != nil {
		return unauthorized(c)
	}
	days, err := parseDays(c)
	if err != nil {
		return respondError(c, err)
	}

	requestID := uuid.New().String()
	log.Printf("📈 [FORECAST] Request %s - Merchant: %s, ShopID: %s, Days: %d",
		requestID, scope.MerchantID, scope.ShopID, days)

	ctx := c.UserContext()
	src := newForecastSource()
	products, err := listProducts(ctx, src, scope)
	if err != nil {
		return respondError(c, err)
	}

	pagination := utils.CreatePagination(len(products), c.QueryInt("page", 1), c.QueryInt("pageSize", 20))
	start, end := pagination.Bounds()
	batch := forecaster.ForecastBatch(ctx, src, scope, products[start:end], days)

	pairs, err := forecaster.Correlations(ctx, src, scope, 0)
	if err != nil {
		log.Printf("⚠️  [FORECAST] Request %s: correlations unavailable: %v", requestID, err)
		pairs = []forecasting.ProductPairAffinity{}
	}

	log.Printf("✅ [FORECAST] Request %s returning %d products (partial=%v)", requestID, len(batch.Results), batch.Partial)
	return c.JSON(fiber.Map{"success": true, "data": models.ForecastListResponse{
		RequestID:  requestID,
		Results:    batch.Results,
		Pagination: pagination,
		Completed:  batch.Completed,
		Failed:     batch.Failed,
		Cancelled:  batch.Cancelled,
		Partial:    batch.Partial,
		TopPairs:   pairs,
	}})
}

// HandleGetProductForecast returns the full report for one product.
// GET /api/v1/merchant/forecast/products/:itemId?days=7
func HandleGetProductForecast(c *fiber.Ctx) error {
	scope, err := requestScope(c)
	if err != nil {
		return unauthorized(c)
	}
	days, err := parseDays(c)
	if err != nil {
		return respondError(c, err)
	}

	report, err := forecaster.ForecastProduct(c.UserContext(), newForecastSource(), scope, c.Params("itemId"), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": report})
}

// collectPredictions runs the breakdown for every product in scope. Products
// whose history cannot be read are listed in Skipped.
func collectPredictions(ctx context.Context, scope forecasting.Scope, days int) (models.PredictionsResponse, error) {
	src := newForecastSource()
	products, err := listProducts(ctx, src, scope)
	if err != nil {
		return models.PredictionsResponse{}, err
	}

	batch := forecaster.PredictBatch(ctx, src, scope, products, days)
	out := models.PredictionsResponse{
		Days:        days,
		GeneratedAt: time.Now(),
		Products:    make([]models.ProductPrediction, 0, len(batch.Results)),
	}
	for _, r := range batch.Results {
		if r.Breakdown == nil {
			out.Skipped = append(out.Skipped, r.Product.ID)
			continue
		}
		out.Products = append(out.Products, models.ProductPrediction{
			Product:   r.Product,
			Breakdown: *r.Breakdown,
		})
	}
	return out, nil
}

// HandleGetPredictions returns the day-of-week breakdown for every product.
// GET /api/v1/merchant/forecast/predictions?days=7|14|30
func HandleGetPredictions(c *fiber.Ctx) error {
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
	return c.JSON(fiber.Map{"success": true, "data": resp})
}

// HandleGetCorrelations returns the product pairs most often sold in the same hour.
// GET /api/v1/merchant/forecast/correlations?limit=10
func HandleGetCorrelations(c *fiber.Ctx) error {
	scope, err := requestScope(c)
	if err != nil {
		return unauthorized(c)
	}
	limit := c.QueryInt("limit", 0)
	if limit < 0 || limit > 100 {
		return respondError(c, fmt.Errorf("%w: limit must be between 1 and 100", forecasting.ErrInvalidInput))
	}

	pairs, err := forecaster.Correlations(c.UserContext(), newForecastSource(), scope, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"pairs": pairs}})
}

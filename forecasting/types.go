package forecasting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Confidence is the qualitative confidence attached to a forecast.
// The ordinal value doubles as the fusion score (low=1, medium=2, high=3).
type Confidence int

const (
	ConfidenceLow Confidence = iota + 1
	ConfidenceMedium
	ConfidenceHigh
)

// Score returns the points used when fusing confidences.
func (c Confidence) Score() int {
	if c < ConfidenceLow || c > ConfidenceHigh {
		return int(ConfidenceLow)
	}
	return int(c)
}

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	parsed, err := ParseConfidence(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseConfidence converts "low", "medium" or "high" into a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(s) {
	case "high":
		return ConfidenceHigh, nil
	case "medium":
		return ConfidenceMedium, nil
	case "low":
		return ConfidenceLow, nil
	}
	return ConfidenceLow, fmt.Errorf("unknown confidence level %q", s)
}

// ConfidenceFromScore thresholds a fused score back to a level.
func ConfidenceFromScore(score float64) Confidence {
	switch {
	case score >= 2.5:
		return ConfidenceHigh
	case score >= 1.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Trend is the short-horizon direction reported by the ensemble.
type Trend string

const (
	TrendUpward   Trend = "upward"
	TrendDownward Trend = "downward"
	TrendStable   Trend = "stable"
)

// trendThreshold is the +/-10% band shared by every ratio-based trend label.
const trendThreshold = 0.1

// classifyRatio labels current against reference at the shared 10% band.
func classifyRatio(current, reference float64) Trend {
	switch {
	case current > reference*(1+trendThreshold):
		return TrendUpward
	case current < reference*(1-trendThreshold):
		return TrendDownward
	default:
		return TrendStable
	}
}

// SalesPoint is one historical sale event for a product.
type SalesPoint struct {
	Date     time.Time `json:"date" validate:"required"`
	Quantity int       `json:"quantity" validate:"gte=0"`
}

// StockSnapshot is the stock level of a product at a point in time.
type StockSnapshot struct {
	Timestamp    time.Time `json:"timestamp" validate:"required"`
	CurrentStock int       `json:"current_stock"`
}

// TransactionPoint is a coarse per-period transaction count for the whole shop.
type TransactionPoint struct {
	Date  time.Time `json:"date" validate:"required"`
	Count int       `json:"count" validate:"gte=0"`
}

// SaleLine is one product line of a sale, used for co-occurrence analysis.
type SaleLine struct {
	SaleID      string    `json:"sale_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	SoldAt      time.Time `json:"sold_at"`
}

// Product is the static metadata of an inventory item plus its current stock.
type Product struct {
	ID           string          `json:"product_id" validate:"required"`
	Name         string          `json:"product_name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	CurrentStock int             `json:"current_stock"`
}

// ModelForecast is the single-number output of one model in the bank.
type ModelForecast struct {
	Model      ModelName      `json:"model"`
	Value      int            `json:"value"`
	RangeLow   int            `json:"range_low"`
	RangeHigh  int            `json:"range_high"`
	Confidence Confidence     `json:"confidence"`
	Trend      Trend          `json:"trend,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// FusedForecast is the weighted combination of the model bank outputs.
type FusedForecast struct {
	Value      int        `json:"value"`
	RangeLow   int        `json:"range_low"`
	RangeHigh  int        `json:"range_high"`
	Confidence Confidence `json:"confidence"`
	Trend      Trend      `json:"trend"`
	Models     int        `json:"models_used"`
}

// ProductForecastReport is everything computed for one product in one request.
type ProductForecastReport struct {
	Product     Product                     `json:"product"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Models      map[ModelName]ModelForecast `json:"models"`
	Fused       FusedForecast               `json:"fused"`
	Breakdown   Breakdown                   `json:"breakdown"`
}

// ProductPairAffinity counts how often two products sold in the same hour.
type ProductPairAffinity struct {
	ProductA     string `json:"product_a"`
	ProductAName string `json:"product_a_name,omitempty"`
	ProductB     string `json:"product_b"`
	ProductBName string `json:"product_b_name,omitempty"`
	Frequency    int    `json:"frequency"`
}

// ProductHistory bundles the raw series fetched for one product.
type ProductHistory struct {
	Product      Product
	Sales        []SalesPoint       `validate:"dive"`
	Stock        []StockSnapshot    `validate:"dive"`
	Transactions []TransactionPoint `validate:"dive"`
}

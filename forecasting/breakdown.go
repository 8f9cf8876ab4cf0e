package forecasting

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// BreakdownTrend classifies recent demand against the historical baseline.
type BreakdownTrend string

const (
	BreakdownRising        BreakdownTrend = "RISING"
	BreakdownFalling       BreakdownTrend = "FALLING"
	BreakdownStable        BreakdownTrend = "STABLE"
	BreakdownNotEnoughData BreakdownTrend = "NOT_ENOUGH_DATA"
)

// breakdownTrendBand is the +/-5% band around the baseline.
const breakdownTrendBand = 5.0

// DayOfWeekMultipliers is indexed by time.Weekday (Sunday first).
var DayOfWeekMultipliers = [7]float64{1.15, 0.85, 0.90, 0.95, 1.00, 1.10, 1.20}

// NormalizedDayOfWeekMultipliers rescales the table so its mean is exactly 1.
func NormalizedDayOfWeekMultipliers() [7]float64 {
	var sum float64
	for _, m := range DayOfWeekMultipliers {
		sum += m
	}
	avg := sum / 7
	var out [7]float64
	for i, m := range DayOfWeekMultipliers {
		out[i] = m / avg
	}
	return out
}

// DailyPrediction is one future day of the breakdown.
type DailyPrediction struct {
	Date           string  `json:"date"`
	Weekday        string  `json:"weekday"`
	Expected       float64 `json:"expected"`
	PredictedSales int     `json:"predicted_sales"`
}

// Breakdown is the day-of-week adjusted multi-day view of one product.
type Breakdown struct {
	Days              int               `json:"days"`
	RecentAvg         float64           `json:"recent_avg"`
	HistoricalAvg     float64           `json:"historical_avg"`
	Trend             BreakdownTrend    `json:"trend"`
	TrendPercent      float64           `json:"trend_percent"`
	Multiplier        float64           `json:"multiplier"`
	ConfidenceScore   float64           `json:"confidence_score"`
	Confidence        Confidence        `json:"confidence"`
	Daily             []DailyPrediction `json:"daily"`
	TotalPredicted    int               `json:"total_predicted"`
	RemainingStock    int               `json:"remaining_stock"`
	StockoutDate      *string           `json:"stockout_date,omitempty"`
	SuggestedReorder  int               `json:"suggested_reorder"`
	ProjectedRevenue  decimal.Decimal   `json:"projected_revenue"`
	JitterApplied     bool              `json:"jitter_applied"`
	NormalizedWeekday bool              `json:"normalized_weekday"`
}

// BreakdownOptions controls the multi-day view.
type BreakdownOptions struct {
	RecentWindowDays  int
	NormalizeWeekdays bool
}

// ComputeBreakdown derives the deterministic multi-day view from a zero-filled
// daily sales series (oldest first, last entry = the day of from). The last
// RecentWindowDays entries are "recent", everything before is "historical".
func ComputeBreakdown(daily []float64, product Product, from time.Time, daysToPredict int, opts BreakdownOptions) Breakdown {
	recentDays := opts.RecentWindowDays
	if recentDays <= 0 {
		recentDays = 7
	}
	if recentDays > len(daily) {
		recentDays = len(daily)
	}
	recent := daily[len(daily)-recentDays:]
	historical := daily[:len(daily)-recentDays]

	b := Breakdown{
		Days:              daysToPredict,
		RecentAvg:         mean(recent),
		HistoricalAvg:     mean(historical),
		Multiplier:        1,
		NormalizedWeekday: opts.NormalizeWeekdays,
	}

	if b.HistoricalAvg == 0 {
		b.Trend = BreakdownNotEnoughData
		b.ConfidenceScore = 0
		b.Confidence = ConfidenceLow
	} else {
		b.TrendPercent = (b.RecentAvg - b.HistoricalAvg) / b.HistoricalAvg * 100
		switch {
		case b.TrendPercent > breakdownTrendBand:
			b.Trend = BreakdownRising
		case b.TrendPercent < -breakdownTrendBand:
			b.Trend = BreakdownFalling
		default:
			b.Trend = BreakdownStable
		}
		b.Multiplier = 1 + b.TrendPercent/100
		b.ConfidenceScore = breakdownConfidence(daily, b.HistoricalAvg)
		b.Confidence = scoreLevel(b.ConfidenceScore)
	}

	table := DayOfWeekMultipliers
	if opts.NormalizeWeekdays {
		table = NormalizedDayOfWeekMultipliers()
	}

	start := startOfDay(from)
	base := b.RecentAvg * b.Multiplier
	b.Daily = make([]DailyPrediction, daysToPredict)
	for i := range b.Daily {
		day := start.AddDate(0, 0, i+1)
		expected := math.Max(0, base*table[day.Weekday()])
		b.Daily[i] = DailyPrediction{
			Date:           day.Format("2006-01-02"),
			Weekday:        day.Weekday().String(),
			Expected:       expected,
			PredictedSales: roundNonNegative(expected),
		}
	}

	b.settle(product)
	return b
}

// breakdownConfidence is 1 - std/historicalAvg over the whole window, clamped
// to [0,1] and capped at 0.6 when the series is very noisy (CV > 0.5).
func breakdownConfidence(daily []float64, historicalAvg float64) float64 {
	std := popStdDev(daily)
	score := clamp(1-std/historicalAvg, 0, 1)
	if m := mean(daily); m > 0 && std/m > 0.5 {
		score = math.Min(score, 0.6)
	}
	return score
}

// scoreLevel maps a breakdown score onto a level. The 0.6 cap on noisy
// series can never reach high.
func scoreLevel(score float64) Confidence {
	switch {
	case score >= 0.75:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// settle recomputes the stock and revenue projections from Daily.
func (b *Breakdown) settle(product Product) {
	b.TotalPredicted = 0
	b.StockoutDate = nil
	for _, d := range b.Daily {
		b.TotalPredicted += d.PredictedSales
		if b.StockoutDate == nil && b.TotalPredicted > product.CurrentStock {
			date := d.Date
			b.StockoutDate = &date
		}
	}
	b.RemainingStock = product.CurrentStock - b.TotalPredicted
	b.SuggestedReorder = 0
	if b.RemainingStock < 0 {
		b.SuggestedReorder = -b.RemainingStock
	}
	b.ProjectedRevenue = product.Price.Mul(decimal.NewFromInt(int64(b.TotalPredicted)))
}

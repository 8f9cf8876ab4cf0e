package forecasting

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// Scope restricts every fetch to one merchant and, optionally, one shop.
type Scope struct {
	MerchantID string
	ShopID     string
}

// DataSource is the read-only store the forecaster pulls history from.
// Implementations must be safe for concurrent use.
type DataSource interface {
	Products(ctx context.Context, scope Scope) ([]Product, error)
	Product(ctx context.Context, scope Scope, productID string) (Product, error)
	SalesHistory(ctx context.Context, scope Scope, productID string, since time.Time) ([]SalesPoint, error)
	StockHistory(ctx context.Context, scope Scope, productID string, since time.Time) ([]StockSnapshot, error)
	TransactionCounts(ctx context.Context, scope Scope, since time.Time) ([]TransactionPoint, error)
	SaleLines(ctx context.Context, scope Scope, since time.Time) ([]SaleLine, error)
}

// Options are the tunables of the pipeline. Zero values fall back to
// DefaultOptions.
type Options struct {
	EnsembleLookbackDays    int
	BreakdownLookbackDays   int
	RecentWindowDays        int
	JitterEnabled           bool
	NormalizeWeekdays       bool
	BatchConcurrency        int
	BatchTimeout            time.Duration
	CorrelationLookbackDays int
	TopPairs                int
	DisabledModels          []ModelName
}

func DefaultOptions() Options {
	return Options{
		EnsembleLookbackDays:    7,
		BreakdownLookbackDays:   30,
		RecentWindowDays:        7,
		BatchConcurrency:        8,
		BatchTimeout:            20 * time.Second,
		CorrelationLookbackDays: 30,
		TopPairs:                10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.EnsembleLookbackDays <= 0 {
		o.EnsembleLookbackDays = d.EnsembleLookbackDays
	}
	if o.BreakdownLookbackDays <= 0 {
		o.BreakdownLookbackDays = d.BreakdownLookbackDays
	}
	if o.RecentWindowDays <= 0 {
		o.RecentWindowDays = d.RecentWindowDays
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = d.BatchConcurrency
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = d.BatchTimeout
	}
	if o.CorrelationLookbackDays <= 0 {
		o.CorrelationLookbackDays = d.CorrelationLookbackDays
	}
	if o.TopPairs <= 0 {
		o.TopPairs = d.TopPairs
	}
	return o
}

// Forecaster runs Assembler -> Preprocessor -> ModelBank -> Fuser per product
// and the day-of-week breakdown next to it.
type Forecaster struct {
	opts      Options
	bank      *ModelBank
	assembler *Assembler
	random    RandomSource
	now       func() time.Time
}

// NewForecaster builds a forecaster. random is only consulted when
// opts.JitterEnabled is set.
func NewForecaster(opts Options, random RandomSource) *Forecaster {
	opts = opts.withDefaults()
	if opts.JitterEnabled && random == nil {
		random = NewRandomSource(time.Now().UnixNano())
	}
	return &Forecaster{
		opts:      opts,
		bank:      NewModelBank(opts.DisabledModels...),
		assembler: NewAssembler(),
		random:    random,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock, mainly for tests.
func (f *Forecaster) WithClock(now func() time.Time) *Forecaster {
	f.now = now
	return f
}

// Options returns the effective options.
func (f *Forecaster) Options() Options {
	return f.opts
}

// Forecast is the pure function boundary: history in, report out.
func (f *Forecaster) Forecast(h ProductHistory, horizonDays int, at time.Time) (ProductForecastReport, error) {
	if err := f.assembler.Validate(h); err != nil {
		return ProductForecastReport{}, err
	}
	if horizonDays < 1 {
		return ProductForecastReport{}, fmt.Errorf("%w: horizon must be at least one day", ErrInvalidInput)
	}

	ensemble := f.assembler.Align(h, at, f.opts.EnsembleLookbackDays)
	filled := FillMissingValues(ensemble.Days, ensemble.Stock, ensemble.Transactions)
	cleaned := RemoveOutliers(filled)

	models := f.bank.Run(ModelInput{
		Series:  cleaned,
		Aligned: ensemble,
		Product: h.Product,
		At:      at,
	})

	return ProductForecastReport{
		Product:     h.Product,
		GeneratedAt: at,
		Models:      models,
		Fused:       Fuse(models),
		Breakdown:   f.breakdown(h, horizonDays, at),
	}, nil
}

// Predict computes only the day-of-week breakdown.
func (f *Forecaster) Predict(h ProductHistory, days int, at time.Time) (Breakdown, error) {
	if err := f.assembler.Validate(h); err != nil {
		return Breakdown{}, err
	}
	if days < 1 {
		return Breakdown{}, fmt.Errorf("%w: horizon must be at least one day", ErrInvalidInput)
	}
	return f.breakdown(h, days, at), nil
}

func (f *Forecaster) breakdown(h ProductHistory, days int, at time.Time) Breakdown {
	daily := f.assembler.Align(h, at, f.opts.BreakdownLookbackDays).Quantities()
	b := ComputeBreakdown(daily, h.Product, at, days, BreakdownOptions{
		RecentWindowDays:  f.opts.RecentWindowDays,
		NormalizeWeekdays: f.opts.NormalizeWeekdays,
	})
	if f.opts.JitterEnabled {
		b = ApplyJitter(b, h.Product, f.random)
	}
	return b
}

// historyStart is the earliest instant any window needs.
func (f *Forecaster) historyStart(at time.Time) time.Time {
	days := f.opts.EnsembleLookbackDays
	if f.opts.BreakdownLookbackDays > days {
		days = f.opts.BreakdownLookbackDays
	}
	return startOfDay(at).AddDate(0, 0, -(days - 1))
}

// fetchHistory loads the per-product series. Transactions are shared across
// the batch and passed in.
func (f *Forecaster) fetchHistory(ctx context.Context, src DataSource, scope Scope, p Product, txs []TransactionPoint, at time.Time) (ProductHistory, error) {
	since := f.historyStart(at)
	sales, err := src.SalesHistory(ctx, scope, p.ID, since)
	if err != nil {
		return ProductHistory{}, upstream(p.ID, "sales", err)
	}
	stock, err := src.StockHistory(ctx, scope, p.ID, since)
	if err != nil {
		return ProductHistory{}, upstream(p.ID, "stock", err)
	}
	return ProductHistory{Product: p, Sales: sales, Stock: stock, Transactions: txs}, nil
}

// transactions fetches the optional shop-wide transaction series. A failure
// degrades the multi-factor and imputation paths instead of failing.
func (f *Forecaster) transactions(ctx context.Context, src DataSource, scope Scope, at time.Time) []TransactionPoint {
	txs, err := src.TransactionCounts(ctx, scope, f.historyStart(at))
	if err != nil {
		log.Printf("⚠️  [FORECAST] Transaction counts unavailable for merchant %s: %v", scope.MerchantID, err)
		return nil
	}
	return txs
}

// ForecastProduct fetches one product's history and forecasts it.
func (f *Forecaster) ForecastProduct(ctx context.Context, src DataSource, scope Scope, productID string, horizonDays int) (ProductForecastReport, error) {
	defer observeDuration("product", time.Now())
	at := f.now()

	p, err := src.Product(ctx, scope, productID)
	if err != nil {
		if errors.Is(err, ErrUnknownProduct) {
			return ProductForecastReport{}, err
		}
		forecastProducts.WithLabelValues(outcomeUpstreamError).Inc()
		return ProductForecastReport{}, upstream(productID, "product", err)
	}

	h, err := f.fetchHistory(ctx, src, scope, p, f.transactions(ctx, src, scope, at), at)
	if err != nil {
		forecastProducts.WithLabelValues(outcomeUpstreamError).Inc()
		return ProductForecastReport{}, err
	}

	report, err := f.Forecast(h, horizonDays, at)
	forecastProducts.WithLabelValues(outcomeFor(err)).Inc()
	return report, err
}

// ProductResult is one entry of a batch; exactly one of Report and Error is set.
type ProductResult struct {
	ProductID string                 `json:"product_id"`
	Report    *ProductForecastReport `json:"report,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Err       error                  `json:"-"`
}

// BatchStats counts the outcomes of a batch.
type BatchStats struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	// Partial is set when the batch deadline cut work short.
	Partial bool `json:"partial"`
}

func (s *BatchStats) record(productID string, err error) {
	outcome := outcomeFor(err)
	forecastProducts.WithLabelValues(outcome).Inc()
	switch outcome {
	case outcomeOK:
		s.Completed++
	case outcomeCancelled:
		s.Cancelled++
		s.Partial = true
	default:
		s.Failed++
	}
	if err != nil {
		log.Printf("❌ [FORECAST] Product %s: %v", productID, err)
	}
}

// BatchResult holds every product of a batch in input order.
type BatchResult struct {
	Results []ProductResult `json:"results"`
	BatchStats
}

// runBounded calls work for each product with at most limit calls in flight.
// Products not started before ctx is done get ctx.Err().
func runBounded[T any](ctx context.Context, limit int, products []Product, work func(Product) (T, error)) ([]T, []error) {
	values := make([]T, len(products))
	errs := make([]error, len(products))

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, p := range products {
		if ctx.Err() != nil {
			errs[i] = ctx.Err()
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return nil
			}
			values[i], errs[i] = work(p)
			return nil
		})
	}
	_ = g.Wait()
	return values, errs
}

// ForecastBatch forecasts products with at most BatchConcurrency fetches in
// flight. A failing product is reported in its own slot; when the batch
// deadline expires, finished products are kept and the rest are marked
// cancelled.
func (f *Forecaster) ForecastBatch(ctx context.Context, src DataSource, scope Scope, products []Product, horizonDays int) BatchResult {
	defer observeDuration("batch", time.Now())
	ctx, cancel := context.WithTimeout(ctx, f.opts.BatchTimeout)
	defer cancel()

	at := f.now()
	txs := f.transactions(ctx, src, scope, at)
	reports, errs := runBounded(ctx, f.opts.BatchConcurrency, products, func(p Product) (*ProductForecastReport, error) {
		h, err := f.fetchHistory(ctx, src, scope, p, txs, at)
		if err != nil {
			return nil, err
		}
		report, err := f.Forecast(h, horizonDays, at)
		if err != nil {
			return nil, err
		}
		return &report, nil
	})

	out := BatchResult{Results: make([]ProductResult, len(products))}
	for i, p := range products {
		r := ProductResult{ProductID: p.ID, Report: reports[i], Err: errs[i]}
		if r.Err != nil {
			r.Report = nil
			r.Error = r.Err.Error()
		}
		out.record(p.ID, r.Err)
		out.Results[i] = r
	}
	log.Printf("📈 [FORECAST] Batch done for merchant %s: %d ok, %d failed, %d cancelled",
		scope.MerchantID, out.Completed, out.Failed, out.Cancelled)
	return out
}

// PredictionResult is one product of a breakdown-only batch.
type PredictionResult struct {
	Product   Product
	Breakdown *Breakdown
	Err       error
}

// PredictionBatch holds the breakdown-only results in input order.
type PredictionBatch struct {
	Results []PredictionResult
	BatchStats
}

// PredictBatch computes only the day-of-week breakdown for each product. Only
// sales history is fetched; the model bank does not run.
func (f *Forecaster) PredictBatch(ctx context.Context, src DataSource, scope Scope, products []Product, days int) PredictionBatch {
	defer observeDuration("predictions", time.Now())
	ctx, cancel := context.WithTimeout(ctx, f.opts.BatchTimeout)
	defer cancel()

	at := f.now()
	since := startOfDay(at).AddDate(0, 0, -(f.opts.BreakdownLookbackDays - 1))
	breakdowns, errs := runBounded(ctx, f.opts.BatchConcurrency, products, func(p Product) (*Breakdown, error) {
		sales, err := src.SalesHistory(ctx, scope, p.ID, since)
		if err != nil {
			return nil, upstream(p.ID, "sales", err)
		}
		b, err := f.Predict(ProductHistory{Product: p, Sales: sales}, days, at)
		if err != nil {
			return nil, err
		}
		return &b, nil
	})

	out := PredictionBatch{Results: make([]PredictionResult, len(products))}
	for i, p := range products {
		r := PredictionResult{Product: p, Breakdown: breakdowns[i], Err: errs[i]}
		if r.Err != nil {
			r.Breakdown = nil
		}
		out.record(p.ID, r.Err)
		out.Results[i] = r
	}
	log.Printf("📈 [FORECAST] Predictions done for merchant %s: %d ok, %d failed, %d cancelled",
		scope.MerchantID, out.Completed, out.Failed, out.Cancelled)
	return out
}

// Correlations returns the top product pairs sold in the same hour over the
// correlation lookback window.
func (f *Forecaster) Correlations(ctx context.Context, src DataSource, scope Scope, topN int) ([]ProductPairAffinity, error) {
	defer observeDuration("correlation", time.Now())
	if topN <= 0 {
		topN = f.opts.TopPairs
	}
	since := startOfDay(f.now()).AddDate(0, 0, -(f.opts.CorrelationLookbackDays - 1))
	lines, err := src.SaleLines(ctx, scope, since)
	if err != nil {
		return nil, upstream("", "sale lines", err)
	}
	return AnalyzeCorrelations(lines, topN), nil
}

// outcomeFor labels a product result. Fetches aborted by the deadline wrap the
// context error and count as cancelled; any other fetch error is a failure even
// when the deadline has passed since.
func outcomeFor(err error) string {
	var upstreamErr *UpstreamFetchError
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return outcomeCancelled
	case errors.Is(err, ErrInvalidInput):
		return outcomeInvalidInput
	case errors.As(err, &upstreamErr):
		return outcomeUpstreamError
	default:
		return outcomeUnknown
	}
}

package forecasting

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DailyValue is one calendar day of aggregated sales. Observed is false when
// no sale row fell on that day.
type DailyValue struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
	Observed bool      `json:"observed"`
}

// AlignedSeries holds the three input series projected onto one
// lookback window, oldest day first.
type AlignedSeries struct {
	Days []DailyValue
	// Stock is the last snapshot of each day, nil where none was taken.
	Stock []*int
	// Transactions holds per-day totals for days that reported any.
	Transactions []float64

	// raw point counts inside the window, before daily aggregation
	stockPoints       int
	transactionPoints int
	stockDeltas       []int
}

// Quantities returns the daily sales with unobserved days as zero.
func (a AlignedSeries) Quantities() []float64 {
	out := make([]float64, len(a.Days))
	for i, d := range a.Days {
		out[i] = d.Quantity
	}
	return out
}

// Assembler validates raw history and aligns it to daily windows.
type Assembler struct {
	validate *validator.Validate
}

func NewAssembler() *Assembler {
	return &Assembler{validate: validator.New()}
}

// Validate rejects negative quantities and out-of-order timestamps.
func (a *Assembler) Validate(h ProductHistory) error {
	if err := a.validate.Struct(h); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	for i := 1; i < len(h.Sales); i++ {
		if h.Sales[i].Date.Before(h.Sales[i-1].Date) {
			return fmt.Errorf("%w: sales out of order at index %d", ErrInvalidInput, i)
		}
	}
	for i := 1; i < len(h.Stock); i++ {
		if h.Stock[i].Timestamp.Before(h.Stock[i-1].Timestamp) {
			return fmt.Errorf("%w: stock snapshots out of order at index %d", ErrInvalidInput, i)
		}
	}
	for i := 1; i < len(h.Transactions); i++ {
		if h.Transactions[i].Date.Before(h.Transactions[i-1].Date) {
			return fmt.Errorf("%w: transaction counts out of order at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}

// Align projects the history onto the lookbackDays calendar days ending on
// the day of end (inclusive). Points outside the window are ignored.
func (a *Assembler) Align(h ProductHistory, end time.Time, lookbackDays int) AlignedSeries {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	loc := end.Location()
	last := startOfDay(end)
	first := last.AddDate(0, 0, -(lookbackDays - 1))

	out := AlignedSeries{
		Days:  make([]DailyValue, lookbackDays),
		Stock: make([]*int, lookbackDays),
	}
	for i := range out.Days {
		out.Days[i].Date = first.AddDate(0, 0, i)
	}

	for _, p := range h.Sales {
		idx, ok := dayIndex(first, p.Date.In(loc), lookbackDays)
		if !ok {
			continue
		}
		out.Days[idx].Quantity += float64(p.Quantity)
		out.Days[idx].Observed = true
	}

	var prev *int
	for _, s := range h.Stock {
		idx, ok := dayIndex(first, s.Timestamp.In(loc), lookbackDays)
		if !ok {
			continue
		}
		level := s.CurrentStock
		out.Stock[idx] = &level
		out.stockPoints++
		if prev != nil {
			out.stockDeltas = append(out.stockDeltas, level-*prev)
		}
		prev = &level
	}

	txByDay := make([]float64, lookbackDays)
	txSeen := make([]bool, lookbackDays)
	for _, t := range h.Transactions {
		idx, ok := dayIndex(first, t.Date.In(loc), lookbackDays)
		if !ok {
			continue
		}
		txByDay[idx] += float64(t.Count)
		txSeen[idx] = true
		out.transactionPoints++
	}
	for i, seen := range txSeen {
		if seen {
			out.Transactions = append(out.Transactions, txByDay[i])
		}
	}

	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dayIndex counts calendar days from first to t, independent of DST shifts.
func dayIndex(first, t time.Time, n int) (int, bool) {
	fy, fm, fd := first.Date()
	ty, tm, td := t.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	idx := int(b.Sub(a).Hours() / 24)
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

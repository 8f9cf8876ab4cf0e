package forecasting

import (
	"context"
	"time"
)

// MemorySource is a DataSource over fixed in-memory series. The scope is
// ignored. It must not be mutated while forecasts are running.
type MemorySource struct {
	Items        []Product
	Sales        map[string][]SalesPoint
	Stock        map[string][]StockSnapshot
	Transactions []TransactionPoint
	Lines        []SaleLine
}

var _ DataSource = (*MemorySource)(nil)

func (m *MemorySource) Products(ctx context.Context, _ Scope) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Product, len(m.Items))
	copy(out, m.Items)
	return out, nil
}

func (m *MemorySource) Product(ctx context.Context, _ Scope, productID string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	for _, p := range m.Items {
		if p.ID == productID {
			return p, nil
		}
	}
	return Product{}, ErrUnknownProduct
}

func (m *MemorySource) SalesHistory(ctx context.Context, _ Scope, productID string, since time.Time) ([]SalesPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []SalesPoint
	for _, s := range m.Sales[productID] {
		if !s.Date.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemorySource) StockHistory(ctx context.Context, _ Scope, productID string, since time.Time) ([]StockSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []StockSnapshot
	for _, s := range m.Stock[productID] {
		if !s.Timestamp.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemorySource) TransactionCounts(ctx context.Context, _ Scope, since time.Time) ([]TransactionPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []TransactionPoint
	for _, t := range m.Transactions {
		if !t.Date.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemorySource) SaleLines(ctx context.Context, _ Scope, since time.Time) ([]SaleLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []SaleLine
	for _, l := range m.Lines {
		if !l.SoldAt.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"retailforecast/forecasting"
)

// Querier is the subset of *pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ForecastRepository reads sales, stock and catalogue data for the
// forecasting pipeline.
type ForecastRepository struct {
	db Querier
}

var _ forecasting.DataSource = (*ForecastRepository)(nil)

func NewForecastRepository(db Querier) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// scopedArgs appends the optional shop filter. column is the shop_id column
// to compare against; the returned clause is empty when no shop is set.
func scopedArgs(scope forecasting.Scope, column string, args []any) (string, []any) {
	if scope.ShopID == "" {
		return "", args
	}
	args = append(args, scope.ShopID)
	return fmt.Sprintf(" AND %s = $%d", column, len(args)), args
}

const productColumns = `
	SELECT i.id::text, i.name, COALESCE(i.category, ''), i.selling_price::text,
	       COALESCE(SUM(ss.quantity), 0)::int
	FROM inventory_items i
	LEFT JOIN shop_stock ss ON ss.inventory_item_id = i.id`

func scanProduct(row pgx.Row) (forecasting.Product, error) {
	var p forecasting.Product
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &price, &p.CurrentStock); err != nil {
		return forecasting.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return forecasting.Product{}, fmt.Errorf("parse price of %s: %w", p.ID, err)
	}
	p.Price = d
	return p, nil
}

// Products lists the merchant's active inventory items with stock summed over
// the shops in scope.
func (r *ForecastRepository) Products(ctx context.Context, scope forecasting.Scope) ([]forecasting.Product, error) {
	shopClause, args := scopedArgs(scope, "ss.shop_id", []any{scope.MerchantID})
	query := productColumns + shopClause + `
	WHERE i.merchant_id = $1 AND NOT i.is_archived
	GROUP BY i.id
	ORDER BY i.name, i.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []forecasting.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ForecastRepository) Product(ctx context.Context, scope forecasting.Scope, productID string) (forecasting.Product, error) {
	shopClause, args := scopedArgs(scope, "ss.shop_id", []any{scope.MerchantID, productID})
	query := productColumns + shopClause + `
	WHERE i.merchant_id = $1 AND i.id::text = $2
	GROUP BY i.id`

	p, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return forecasting.Product{}, forecasting.ErrUnknownProduct
	}
	if err != nil {
		return forecasting.Product{}, fmt.Errorf("query product %s: %w", productID, err)
	}
	return p, nil
}

// SalesHistory returns one point per sale line, oldest first.
func (r *ForecastRepository) SalesHistory(ctx context.Context, scope forecasting.Scope, productID string, since time.Time) ([]forecasting.SalesPoint, error) {
	shopClause, args := scopedArgs(scope, "s.shop_id", []any{scope.MerchantID, productID, since})
	query := `
		SELECT s.sale_date, si.quantity_sold
		FROM sales s
		JOIN sale_items si ON s.id = si.sale_id
		WHERE s.merchant_id = $1 AND si.inventory_item_id::text = $2 AND s.sale_date >= $3` + shopClause + `
		ORDER BY s.sale_date`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []forecasting.SalesPoint
	for rows.Next() {
		var p forecasting.SalesPoint
		if err := rows.Scan(&p.Date, &p.Quantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StockMovement is one row of stock_movements.
type StockMovement struct {
	At          time.Time
	Changed     int
	NewQuantity int
}

// StockHistory returns stock snapshots, oldest first. For a single shop the
// recorded new_quantity is the level. Across shops the level is rebuilt
// backwards from the current total stock.
func (r *ForecastRepository) StockHistory(ctx context.Context, scope forecasting.Scope, productID string, since time.Time) ([]forecasting.StockSnapshot, error) {
	shopClause, args := scopedArgs(scope, "m.shop_id", []any{productID, since, scope.MerchantID})
	query := `
		SELECT m.movement_date, m.quantity_changed, m.new_quantity
		FROM stock_movements m
		JOIN inventory_items i ON i.id = m.inventory_item_id
		WHERE m.inventory_item_id::text = $1 AND m.movement_date >= $2 AND i.merchant_id = $3` + shopClause + `
		ORDER BY m.movement_date`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []StockMovement
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.At, &m.Changed, &m.NewQuantity); err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if scope.ShopID != "" {
		out := make([]forecasting.StockSnapshot, len(moves))
		for i, m := range moves {
			out[i] = forecasting.StockSnapshot{Timestamp: m.At, CurrentStock: m.NewQuantity}
		}
		return out, nil
	}

	p, err := r.Product(ctx, scope, productID)
	if err != nil {
		return nil, err
	}
	return RebuildStockLevels(p.CurrentStock, moves), nil
}

// RebuildStockLevels walks movements (oldest first) backwards from the current
// level and returns the level right after each movement.
func RebuildStockLevels(current int, moves []StockMovement) []forecasting.StockSnapshot {
	sorted := make([]StockMovement, len(moves))
	copy(sorted, moves)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	out := make([]forecasting.StockSnapshot, len(sorted))
	level := current
	for i := len(sorted) - 1; i >= 0; i-- {
		out[i] = forecasting.StockSnapshot{Timestamp: sorted[i].At, CurrentStock: level}
		level -= sorted[i].Changed
	}
	return out
}

// TransactionCounts returns the number of sales per day, oldest first.
func (r *ForecastRepository) TransactionCounts(ctx context.Context, scope forecasting.Scope, since time.Time) ([]forecasting.TransactionPoint, error) {
	shopClause, args := scopedArgs(scope, "shop_id", []any{scope.MerchantID, since})
	query := `
		SELECT date_trunc('day', sale_date) AS day, COUNT(*)::int
		FROM sales
		WHERE merchant_id = $1 AND sale_date >= $2` + shopClause + `
		GROUP BY day
		ORDER BY day`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []forecasting.TransactionPoint
	for rows.Next() {
		var p forecasting.TransactionPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaleLines returns every product line sold since the given time.
func (r *ForecastRepository) SaleLines(ctx context.Context, scope forecasting.Scope, since time.Time) ([]forecasting.SaleLine, error) {
	shopClause, args := scopedArgs(scope, "s.shop_id", []any{scope.MerchantID, since})
	query := `
		SELECT s.id::text, si.inventory_item_id::text, COALESCE(i.name, si.item_name, ''), s.sale_date
		FROM sales s
		JOIN sale_items si ON s.id = si.sale_id
		LEFT JOIN inventory_items i ON i.id = si.inventory_item_id
		WHERE s.merchant_id = $1 AND s.sale_date >= $2` + shopClause + `
		ORDER BY s.sale_date`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []forecasting.SaleLine
	for rows.Next() {
		var l forecasting.SaleLine
		if err := rows.Scan(&l.SaleID, &l.ProductID, &l.ProductName, &l.SoldAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

package forecasting

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks series rejected before modelling (negative
// quantities, out-of-order dates, missing product identity).
var ErrInvalidInput = errors.New("invalid forecast input")

// ErrUnknownProduct is returned by a DataSource when the product is not in scope.
var ErrUnknownProduct = errors.New("product not found")

// UpstreamFetchError reports a failed read from the data source for one product.
// It aborts that product's forecast only.
type UpstreamFetchError struct {
	ProductID string
	Resource  string
	Err       error
}

func (e *UpstreamFetchError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("fetch %s for product %s: %v", e.Resource, e.ProductID, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}

func upstream(productID, resource string, err error) error {
	return &UpstreamFetchError{ProductID: productID, Resource: resource, Err: err}
}

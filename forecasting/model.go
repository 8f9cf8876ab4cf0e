package forecasting

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ModelName identifies one forecaster in the bank.
type ModelName string

const (
	ModelLinearRegression      ModelName = "linear_regression"
	ModelWeightedMovingAverage ModelName = "weighted_moving_average"
	ModelHoltWinters           ModelName = "holt_winters"
	ModelMultiFactor           ModelName = "random_forest"
	ModelNarrative             ModelName = "ai_reasoning"
)

// ModelInput is what every model sees: the cleaned daily series (most recent
// last) plus the aligned raw series and product metadata.
type ModelInput struct {
	Series  []float64
	Aligned AlignedSeries
	Product Product
	// At is the moment the forecast is made; it drives time-of-day factors.
	At time.Time
}

// Model is a single-number forecaster with its own low-data fallback.
type Model interface {
	Name() ModelName
	Forecast(in ModelInput) ModelForecast
}

// DefaultModels returns the five models in fusion-weight order.
func DefaultModels() []Model {
	return []Model{
		HoltWinters{},
		LinearRegression{},
		MultiFactor{},
		WeightedMovingAverage{},
		NarrativeAverage{},
	}
}

// ParseModelNames turns a comma separated list into model names, rejecting
// names the bank does not know.
func ParseModelNames(list string) ([]ModelName, error) {
	known := make(map[ModelName]bool)
	for _, m := range DefaultModels() {
		known[m.Name()] = true
	}
	var out []ModelName
	for _, part := range strings.Split(list, ",") {
		name := ModelName(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("unknown model %q", name)
		}
		out = append(out, name)
	}
	return out, nil
}

// ModelBank runs a fixed set of models over the same input.
type ModelBank struct {
	models []Model
}

// NewModelBank builds a bank from DefaultModels minus the disabled ones.
func NewModelBank(disabled ...ModelName) *ModelBank {
	skip := make(map[ModelName]bool, len(disabled))
	for _, name := range disabled {
		skip[name] = true
	}
	bank := &ModelBank{}
	for _, m := range DefaultModels() {
		if !skip[m.Name()] {
			bank.models = append(bank.models, m)
		}
	}
	return bank
}

// Names lists the enabled models, sorted.
func (b *ModelBank) Names() []ModelName {
	names := make([]ModelName, 0, len(b.models))
	for _, m := range b.models {
		names = append(names, m.Name())
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Run evaluates every enabled model. Models never fail; low data yields a
// fallback value with low confidence.
func (b *ModelBank) Run(in ModelInput) map[ModelName]ModelForecast {
	out := make(map[ModelName]ModelForecast, len(b.models))
	for _, m := range b.models {
		f := m.Forecast(in)
		f.Model = m.Name()
		out[m.Name()] = f
	}
	return out
}

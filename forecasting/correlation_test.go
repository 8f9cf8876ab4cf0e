package forecasting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(product string, at time.Time) SaleLine {
	return SaleLine{ProductID: product, ProductName: "name-" + product, SoldAt: at}
}

func TestAnalyzeCorrelations(t *testing.T) {
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	var lines []SaleLine
	for h := 0; h < 4; h++ {
		at := base.Add(time.Duration(h) * time.Hour)
		lines = append(lines, line("A", at.Add(5*time.Minute)), line("B", at.Add(40*time.Minute)))
	}
	for h := 10; h < 12; h++ {
		at := base.Add(time.Duration(h) * time.Hour)
		lines = append(lines, line("D", at), line("C", at.Add(time.Minute)))
	}

	pairs := AnalyzeCorrelations(lines, 10)
	require.Len(t, pairs, 2)
	assert.Equal(t, ProductPairAffinity{
		ProductA: "A", ProductAName: "name-A",
		ProductB: "B", ProductBName: "name-B",
		Frequency: 4,
	}, pairs[0])
	assert.Equal(t, "C", pairs[1].ProductA)
	assert.Equal(t, "D", pairs[1].ProductB)
	assert.Equal(t, 2, pairs[1].Frequency)
}

func TestAnalyzeCorrelationsCountsEachHourOnce(t *testing.T) {
	at := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	lines := []SaleLine{
		line("A", at), line("A", at.Add(time.Minute)),
		line("B", at.Add(2*time.Minute)), line("B", at.Add(59*time.Minute)),
		// next hour
		line("A", at.Add(time.Hour)),
	}
	pairs := AnalyzeCorrelations(lines, 0)
	require.Len(t, pairs, 1)
	assert.Equal(t, 1, pairs[0].Frequency)
}

func TestAnalyzeCorrelationsTopN(t *testing.T) {
	at := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	lines := []SaleLine{line("A", at), line("B", at), line("C", at), line("D", at)}

	all := AnalyzeCorrelations(lines, 0)
	assert.Len(t, all, 6)

	top := AnalyzeCorrelations(lines, 2)
	require.Len(t, top, 2)
	// ties break on product ids
	assert.Equal(t, "A", top[0].ProductA)
	assert.Equal(t, "B", top[0].ProductB)
	assert.Equal(t, "C", top[1].ProductB)
}

func TestAnalyzeCorrelationsIgnoresSingletons(t *testing.T) {
	at := time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)
	assert.Empty(t, AnalyzeCorrelations([]SaleLine{line("A", at), line("", at)}, 5))
	assert.Empty(t, AnalyzeCorrelations(nil, 5))
}

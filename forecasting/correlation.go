package forecasting

import (
	"sort"
	"time"
)

// AnalyzeCorrelations counts, for every unordered pair of distinct products,
// how many hour buckets contain sales of both, and returns the topN pairs.
//
// The hour bucket stands in for a basket because sale lines do not always
// carry a shared transaction key. Two customers buying in the same hour are
// counted as co-occurring, so frequencies are an upper bound on true
// bought-together counts.
func AnalyzeCorrelations(lines []SaleLine, topN int) []ProductPairAffinity {
	buckets := make(map[int64]map[string]struct{})
	names := make(map[string]string)
	for _, l := range lines {
		if l.ProductID == "" {
			continue
		}
		if l.ProductName != "" {
			names[l.ProductID] = l.ProductName
		}
		hour := truncateToHour(l.SoldAt).Unix()
		set, ok := buckets[hour]
		if !ok {
			set = make(map[string]struct{})
			buckets[hour] = set
		}
		set[l.ProductID] = struct{}{}
	}

	type pairKey struct{ a, b string }
	counts := make(map[pairKey]int)
	for _, set := range buckets {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				counts[pairKey{ids[i], ids[j]}]++
			}
		}
	}

	pairs := make([]ProductPairAffinity, 0, len(counts))
	for k, freq := range counts {
		pairs = append(pairs, ProductPairAffinity{
			ProductA:     k.a,
			ProductAName: names[k.a],
			ProductB:     k.b,
			ProductBName: names[k.b],
			Frequency:    freq,
		})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Frequency != pairs[j].Frequency {
			return pairs[i].Frequency > pairs[j].Frequency
		}
		if pairs[i].ProductA != pairs[j].ProductA {
			return pairs[i].ProductA < pairs[j].ProductA
		}
		return pairs[i].ProductB < pairs[j].ProductB
	})

	if topN > 0 && len(pairs) > topN {
		pairs = pairs[:topN]
	}
	return pairs
}

// truncateToHour keeps the wall-clock hour in the line's own location.
func truncateToHour(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
}

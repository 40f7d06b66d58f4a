package sector

import (
	"sort"

	"github.com/seenimoa/ratiolens/pkg/models"
)

// lowerBetter lists ratios where a smaller value ranks higher.
var lowerBetter = map[models.RatioName]bool{
	models.DebtToEquity:        true,
	models.DebtToAssets:        true,
	models.LiabilitiesToEquity: true,
}

// Compare ranks target against peers ratio by ratio, in catalog order.
// Percentile is the share of peers with a defined value that target beats;
// it is undefined when target's own value is undefined or no peer has one.
func Compare(target models.RatioResult, peers []models.RatioResult) []models.PeerMetric {
	out := make([]models.PeerMetric, 0, len(models.RatioNames()))
	for _, name := range models.RatioNames() {
		m := models.PeerMetric{
			Ratio:       name,
			Value:       target.Get(name),
			LowerBetter: lowerBetter[name],
		}

		var vals []float64
		for _, p := range peers {
			if v, ok := p.Get(name).Get(); ok {
				vals = append(vals, v)
			}
		}
		if st := Summarize(vals); st.Defined {
			m.SectorAvg = models.Num(st.Average)
			m.SectorMed = models.Num(st.Median)
			if tv, ok := m.Value.Get(); ok {
				m.Percentile = models.Num(percentile(tv, vals, m.LowerBetter))
			}
		}
		out = append(out, m)
	}
	return out
}

func percentile(tv float64, vals []float64, lowerIsBetter bool) float64 {
	beaten := 0
	for _, v := range vals {
		if (lowerIsBetter && v > tv) || (!lowerIsBetter && v < tv) {
			beaten++
		}
	}
	return float64(beaten) / float64(len(vals)) * 100
}

// Rank orders tickers by their percentile on name, best first. Tickers
// without a defined value go last, alphabetically.
func Rank(results map[string]models.RatioResult, name models.RatioName) []string {
	tickers := make([]string, 0, len(results))
	for t := range results {
		tickers = append(tickers, t)
	}
	lower := lowerBetter[name]
	sort.Slice(tickers, func(i, j int) bool {
		a, aok := results[tickers[i]].Get(name).Get()
		b, bok := results[tickers[j]].Get(name).Get()
		switch {
		case aok && bok && a != b:
			if lower {
				return a < b
			}
			return a > b
		case aok != bok:
			return aok
		}
		return tickers[i] < tickers[j]
	})
	return tickers
}

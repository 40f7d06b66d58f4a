// Package sector folds per-company ratio results into sector statistics and
// ranks a company against its peers.
package sector

import (
	"sort"

	"github.com/seenimoa/ratiolens/pkg/models"
)

// Aggregate computes per-ratio statistics over the companies of sector.
// companyRatios is keyed by ticker; tickers not in membership, or in another
// sector, are ignored. Undefined ratio values are left out of every
// statistic, and a ratio with no defined value at all is undefined.
func Aggregate(companyRatios map[string]models.RatioResult, membership *Membership, sector string) models.SectorAggregate {
	agg := models.SectorAggregate{
		Sector: sector,
		Stats:  make(map[models.RatioName]models.AggregateStat, len(models.RatioNames())),
	}

	want := sectorKey(sector)
	tickers := make([]string, 0, len(companyRatios))
	for t := range companyRatios {
		if mem, ok := membership.Member(t); ok && sectorKey(mem.Sector) == want {
			tickers = append(tickers, t)
		}
	}
	sort.Strings(tickers)
	agg.Companies = len(tickers)

	periods := make(map[models.Period]bool)
	for _, t := range tickers {
		if p := companyRatios[t].Period; p != "" && !periods[p] {
			periods[p] = true
			agg.Periods = append(agg.Periods, p)
		}
	}
	sort.Slice(agg.Periods, func(i, j int) bool { return agg.Periods[i] > agg.Periods[j] })

	for _, name := range models.RatioNames() {
		var vals []float64
		for _, t := range tickers {
			if v, ok := companyRatios[t].Get(name).Get(); ok {
				vals = append(vals, v)
			}
		}
		agg.Stats[name] = Summarize(vals)
	}
	return agg
}

// Summarize returns the statistics of vals. vals is not modified.
func Summarize(vals []float64) models.AggregateStat {
	if len(vals) == 0 {
		return models.AggregateStat{}
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	return models.AggregateStat{
		Defined: true,
		Average: mean(sorted),
		Median:  median(sorted),
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		Count:   len(sorted),
	}
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// median expects sorted input.
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

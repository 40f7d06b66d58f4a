package models

// AggregateStat summarizes one ratio across the companies of a sector.
// Defined is false when no company had a value; the numbers are then zero
// and must not be read.
type AggregateStat struct {
	Defined bool    `json:"defined"`
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Count   int     `json:"count"` // companies with a defined value
}

// SectorAggregate holds per-ratio statistics for one sector. Periods lists the
// distinct reporting periods the member results came from.
type SectorAggregate struct {
	Sector    string                      `json:"sector"`
	Periods   []Period                    `json:"periods"`
	Companies int                         `json:"companies"` // members matched, defined or not
	Stats     map[RatioName]AggregateStat `json:"stats"`
}

// Stat returns the statistic for a ratio; undefined if not computed.
func (a SectorAggregate) Stat(name RatioName) AggregateStat { return a.Stats[name] }

// PeerMetric compares one company's ratio with its sector.
type PeerMetric struct {
	Ratio       RatioName `json:"ratio"`
	Value       Value     `json:"value"`
	SectorAvg   Value     `json:"sector_avg"`
	SectorMed   Value     `json:"sector_median"`
	Percentile  Value     `json:"percentile"` // 0-100, share of peers the company beats
	LowerBetter bool      `json:"lower_better"`
}

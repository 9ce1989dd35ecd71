package valuemap

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the observed part of the map.
type Stats struct {
	Observed       int     `json:"observed_cells"`
	Observations   int64   `json:"observations"`
	MeanValue      float64 `json:"mean_value"`
	WeightedValue  float64 `json:"confidence_weighted_value"`
	MeanConfidence float64 `json:"mean_confidence"`
	MaxValue       float64 `json:"max_value"`
	ValueStdDev    float64 `json:"value_stddev"`
}

// Stats computes summary statistics over cells with at least one observation.
func (m *Map) Stats() Stats {
	var values, confs []float64
	var total int64
	for i, n := range m.count {
		if n == 0 {
			continue
		}
		total += int64(n)
		values = append(values, m.value[i])
		confs = append(confs, m.conf[i])
	}
	st := Stats{Observed: len(values), Observations: total}
	if len(values) == 0 {
		return st
	}
	st.MeanValue = stat.Mean(values, nil)
	st.MeanConfidence = stat.Mean(confs, nil)
	if floats.Sum(confs) > 0 {
		st.WeightedValue = stat.Mean(values, confs)
	}
	st.MaxValue = floats.Max(values)
	if len(values) > 1 {
		st.ValueStdDev = stat.StdDev(values, nil)
	}
	return st
}

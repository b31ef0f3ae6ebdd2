package s2cell

import "math"

// Metric is a per-level cell measure on the unit sphere: a length (Dim 1)
// or an area (Dim 2) that halves or quarters with every level. Deriv is
// the value at level 0 and is specific to the quadratic warp.
type Metric struct {
	Dim   int
	Deriv float64
}

// Values for the quadratic warp.
var (
	MinAngleSpanMetric = Metric{1, 4.0 / 3}
	AvgAngleSpanMetric = Metric{1, math.Pi / 2}
	MaxAngleSpanMetric = Metric{1, 1.704897179199218452}

	MinWidthMetric = Metric{1, 2 * math.Sqrt2 / 3}
	AvgWidthMetric = Metric{1, 1.434523672886099389}
	MaxWidthMetric = Metric{1, MaxAngleSpanMetric.Deriv}

	MinEdgeMetric = Metric{1, 2 * math.Sqrt2 / 3}
	AvgEdgeMetric = Metric{1, 1.459213746386106062}
	MaxEdgeMetric = Metric{1, MaxAngleSpanMetric.Deriv}

	MinDiagMetric = Metric{1, 8 * math.Sqrt2 / 9}
	AvgDiagMetric = Metric{1, 2.060422738998471683}
	MaxDiagMetric = Metric{1, 2.438654594434021032}

	MinAreaMetric = Metric{2, 8 * math.Sqrt2 / 9}
	AvgAreaMetric = Metric{2, 4 * math.Pi / 6}
	MaxAreaMetric = Metric{2, 2.635799256963161491}
)

// Value returns the measure for cells at level.
func (m Metric) Value(level int) float64 {
	return math.Ldexp(m.Deriv, -m.Dim*level)
}

// MinLevel returns the minimum level at which the measure is at most val,
// or MaxLevel if there is none.
func (m Metric) MinLevel(val float64) int {
	if val <= 0 {
		return MaxLevel
	}
	// Frexp gives a fraction in [0.5, 1); rounding the exponent up is the
	// same as taking the ceiling of the fractional level.
	_, level := math.Frexp(val / m.Deriv)
	return clampInt(-((level - 1) >> (m.Dim - 1)), 0, MaxLevel)
}

// MaxLevel returns the maximum level at which the measure is at least val,
// or 0 if there is none.
func (m Metric) MaxLevel(val float64) int {
	if val <= 0 {
		return MaxLevel
	}
	_, level := math.Frexp(m.Deriv / val)
	return clampInt((level-1)>>(m.Dim-1), 0, MaxLevel)
}

// ClosestLevel returns the level at which the measure is closest to val.
func (m Metric) ClosestLevel(val float64) int {
	x := math.Sqrt2
	if m.Dim == 2 {
		x = 2
	}
	return m.MinLevel(x * val)
}

package generator

import (
	"fmt"
	"math"

	"github.com/spektr-org/synthdata/engine"
	"github.com/spektr-org/synthdata/schema"
)

// ============================================================================
// METRIC SAMPLER — draw, offset, clip, round
// ============================================================================

// Draw returns one value from the distribution, shift included.
func Draw(d schema.Distribution, src *Source) (float64, error) {
	var v float64
	switch d.Kind {
	case schema.DistNormal:
		v = src.Normal(d.Mean, d.Std)
	case schema.DistLogNormal:
		v = src.LogNormal(d.Mu, d.Sigma)
	case schema.DistBeta:
		v = src.Beta(d.Alpha, d.Beta)
	case schema.DistGamma:
		v = src.Gamma(d.Shape, d.Scale)
	case schema.DistPoisson:
		v = src.Poisson(d.Lambda)
	case schema.DistExponential:
		v = src.Exponential(d.Scale)
	case schema.DistUniform:
		v = src.Uniform(d.Low, d.High)
	default:
		return 0, fmt.Errorf("unknown distribution %q", d.Kind)
	}
	return v + d.Shift, nil
}

// Sample draws n values for a measure. base, when non-nil, is the
// earlier measure the draws are added to. Values are clipped to the
// inclusive clip range and rounded to the declared precision.
func Sample(m schema.MeasureSpec, n int, base []float64, src *Source) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := Draw(m.Distribution, src)
		if err != nil {
			return nil, fmt.Errorf("measure %q: %w", m.Name, err)
		}
		if base != nil {
			v += base[i]
		}
		out[i] = Clip(engine.RoundTo(Clip(v, m.Clip), m.Precision), m.Clip)
	}
	return out, nil
}

// Clip bounds v to r. A nil range leaves v untouched.
func Clip(v float64, r *schema.Range) float64 {
	if r == nil {
		return v
	}
	return math.Min(math.Max(v, r.Min), r.Max)
}

package generator

import (
	"math"
	"math/rand"
	"sort"
)

// ============================================================================
// RANDOM SOURCE — the one seeded stream a run draws from
// ============================================================================
// Every stage receives the same *Source. Draw order is fixed (timestamps,
// row ids, dimensions, measures, scenario rules), so a seed and a config
// reproduce the dataset bit for bit.
// ============================================================================

// Source wraps a seeded math/rand generator with the distribution
// families the sampler needs. It is not safe for concurrent use.
type Source struct {
	rng *rand.Rand
}

// NewSource creates a source seeded once for the whole run.
func NewSource(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform draw in [0, 1).
func (s *Source) Float64() float64 { return s.rng.Float64() }

// Intn returns a uniform draw in [0, n).
func (s *Source) Intn(n int) int { return s.rng.Intn(n) }

// Read fills p with random bytes. It lets uuid draw from the run stream.
func (s *Source) Read(p []byte) (int, error) { return s.rng.Read(p) }

// Shuffle permutes n elements in place.
func (s *Source) Shuffle(n int, swap func(i, j int)) { s.rng.Shuffle(n, swap) }

// Sample picks k distinct indices from [0, n) with a partial
// Fisher-Yates shuffle. The result is in selection order.
func (s *Source) Sample(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + s.rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// ============================================================================
// CONTINUOUS FAMILIES
// ============================================================================

// Uniform draws from [low, high).
func (s *Source) Uniform(low, high float64) float64 {
	return low + (high-low)*s.rng.Float64()
}

// Normal draws from N(mean, std²).
func (s *Source) Normal(mean, std float64) float64 {
	return mean + std*s.rng.NormFloat64()
}

// LogNormal draws exp(N(mu, sigma²)).
func (s *Source) LogNormal(mu, sigma float64) float64 {
	return math.Exp(s.Normal(mu, sigma))
}

// Exponential draws with the given mean (scale).
func (s *Source) Exponential(scale float64) float64 {
	return s.rng.ExpFloat64() * scale
}

// Gamma draws from Gamma(shape, scale) using Marsaglia and Tsang.
func (s *Source) Gamma(shape, scale float64) float64 {
	if shape < 1 {
		// boost: Gamma(a) = Gamma(a+1) * U^(1/a)
		u := s.rng.Float64()
		return s.Gamma(shape+1, scale) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		x := s.rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := s.rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// Beta draws from Beta(alpha, beta) as a ratio of gammas.
func (s *Source) Beta(alpha, beta float64) float64 {
	x := s.Gamma(alpha, 1)
	y := s.Gamma(beta, 1)
	if x+y == 0 {
		return 0
	}
	return x / (x + y)
}

// ============================================================================
// DISCRETE FAMILIES
// ============================================================================

// Poisson draws a count with mean lambda. Small means use Knuth's
// multiplication method, large means Hörmann's PTRS rejection.
func (s *Source) Poisson(lambda float64) float64 {
	if lambda <= 0 {
		return 0
	}
	if lambda < 30 {
		limit := math.Exp(-lambda)
		k := 0
		p := s.rng.Float64()
		for p > limit {
			k++
			p *= s.rng.Float64()
		}
		return float64(k)
	}

	slam := math.Sqrt(lambda)
	loglam := math.Log(lambda)
	b := 0.931 + 2.53*slam
	a := -0.059 + 0.02483*b
	invAlpha := 1.1239 + 1.1328/(b-3.4)
	vr := 0.9277 - 3.6224/(b-2)
	for {
		u := s.rng.Float64() - 0.5
		v := s.rng.Float64()
		us := 0.5 - math.Abs(u)
		k := math.Floor((2*a/us+b)*u + lambda + 0.43)
		if us >= 0.07 && v <= vr {
			return k
		}
		if k < 0 || (us < 0.013 && v > us) {
			continue
		}
		lg, _ := math.Lgamma(k + 1)
		if math.Log(v)+math.Log(invAlpha)-math.Log(a/(us*us)+b) <= -lambda+k*loglam-lg {
			return k
		}
	}
}

// ============================================================================
// WEIGHTED CHOICE
// ============================================================================

// Chooser picks indices with probability proportional to fixed weights.
type Chooser struct {
	cum   []float64
	total float64
}

// NewChooser builds a chooser. A nil or all-zero weight list means uniform
// over n entries.
func NewChooser(n int, weights []float64) *Chooser {
	c := &Chooser{cum: make([]float64, n)}
	uniform := true
	for _, w := range weights {
		if w != 0 {
			uniform = false
			break
		}
	}
	for i := 0; i < n; i++ {
		w := 1.0
		if !uniform {
			w = weights[i]
		}
		c.total += w
		c.cum[i] = c.total
	}
	return c
}

// Pick draws one index. Zero-weight entries are never chosen.
func (c *Chooser) Pick(s *Source) int {
	u := s.rng.Float64() * c.total
	i := sort.Search(len(c.cum), func(i int) bool { return c.cum[i] > u })
	if i == len(c.cum) {
		i--
	}
	return i
}

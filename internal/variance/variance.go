// Package variance propagates arrival-time uncertainty along a stop sequence.
package variance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrMatrix is returned for correlation matrices that are not 2x2, symmetric
// and finite, or whose correlation lies outside [-1, 1].
var ErrMatrix = errors.New("invalid correlation matrix")

const symmetryTolerance = 1e-9

// CorrelationMatrix is the 2x2 symmetric matrix relating a new leg's variance
// to the variance accumulated so far. The zero value is the identity.
type CorrelationMatrix struct {
	m *mat.SymDense
}

// Identity returns the zero-correlation matrix.
func Identity() CorrelationMatrix {
	return CorrelationMatrix{m: mat.NewSymDense(2, []float64{1, 0, 0, 1})}
}

// Unit returns the unit-diagonal matrix with rho off the diagonal, without
// validation. Pass it through NewCorrelationMatrix before use.
func Unit(rho float64) *mat.SymDense {
	return mat.NewSymDense(2, []float64{1, rho, rho, 1})
}

// WithCorrelation validates Unit(rho).
func WithCorrelation(rho float64) (CorrelationMatrix, error) {
	return NewCorrelationMatrix(Unit(rho))
}

// NewCorrelationMatrix validates m and copies it.
func NewCorrelationMatrix(m mat.Matrix) (CorrelationMatrix, error) {
	if m == nil {
		return Identity(), nil
	}
	r, c := m.Dims()
	if r != 2 || c != 2 {
		return CorrelationMatrix{}, fmt.Errorf("%w: want 2x2, got %dx%d", ErrMatrix, r, c)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return CorrelationMatrix{}, fmt.Errorf("%w: entry (%d,%d) is %v", ErrMatrix, i, j, v)
			}
		}
	}
	if math.Abs(m.At(0, 1)-m.At(1, 0)) > symmetryTolerance {
		return CorrelationMatrix{}, fmt.Errorf("%w: not symmetric (%v != %v)", ErrMatrix, m.At(0, 1), m.At(1, 0))
	}
	if rho := m.At(0, 1); rho < -1 || rho > 1 {
		return CorrelationMatrix{}, fmt.Errorf("%w: correlation %v outside [-1, 1]", ErrMatrix, rho)
	}
	sym := mat.NewSymDense(2, nil)
	sym.SetSym(0, 0, m.At(0, 0))
	sym.SetSym(0, 1, m.At(0, 1))
	sym.SetSym(1, 1, m.At(1, 1))
	return CorrelationMatrix{m: sym}, nil
}

// Correlation returns the off-diagonal entry.
func (c CorrelationMatrix) Correlation() float64 {
	if c.m == nil {
		return 0
	}
	return c.m.At(0, 1)
}

// Combine folds one leg's travel and wait variance into previous:
//
//	current = travel + wait
//	total   = previous + current + 2*rho*sqrt(previous*current)
//
// The result is clamped at zero so a later square root never sees a
// negative value.
func Combine(travel, wait, previous float64, c CorrelationMatrix) float64 {
	current := travel + wait
	product := previous * current
	if product < 0 {
		product = 0
	}
	covariance := c.Correlation() * math.Sqrt(product)
	total := previous + current + 2*covariance
	if total < 0 {
		return 0
	}
	return total
}

// Accumulator carries the running variance of one prediction pass.
type Accumulator struct {
	corr  CorrelationMatrix
	total float64
}

func NewAccumulator(c CorrelationMatrix) *Accumulator {
	return &Accumulator{corr: c}
}

// Add folds the next leg in and returns the new total.
func (a *Accumulator) Add(travel, wait float64) float64 {
	a.total = Combine(travel, wait, a.total, a.corr)
	return a.total
}

func (a *Accumulator) Total() float64 { return a.total }

// StdDev is the square root of the running total.
func (a *Accumulator) StdDev() float64 { return math.Sqrt(a.total) }

/*
Package xfloat implements the opaque extended-precision nonnegative
real scalar that the per-branch HMM and the ancestral reconstruction
multiply across thousands of alignment columns without underflowing a
plain float64. Rather than a (mantissa, exponent) pair, the value is
carried as its own natural logarithm: multiplication becomes addition,
and the constraint "nonnegative real with a finite log" falls out of
the representation directly, since the logarithm is simply a float64
that may be -Inf (to represent exact zero) but is never NaN so long as
callers stay on the nonnegative reals.
*/
package xfloat

import "math"

// Scalar is a nonnegative real number stored as its natural logarithm.
// Exact zero is NOT the zero value of this struct -- use Zero() --
// because the zero value's log field (0) would
// otherwise mean "the number 1". Always construct via From or Zero.
type Scalar struct {
	log float64
}

// Zero returns the scalar 0.
func Zero() Scalar {
	return Scalar{log: math.Inf(-1)}
}

// One returns the scalar 1.
func One() Scalar {
	return Scalar{log: 0}
}

// From converts a nonnegative float64 into a Scalar.
func From(x float64) Scalar {
	if x <= 0 {
		return Zero()
	}
	return Scalar{log: math.Log(x)}
}

// FromLog constructs a Scalar directly from a natural logarithm,
// e.g. a log-likelihood already computed elsewhere.
func FromLog(logX float64) Scalar {
	return Scalar{log: logX}
}

// IsZero reports whether the scalar is exactly zero.
func (s Scalar) IsZero() bool {
	return math.IsInf(s.log, -1)
}

// Float64 converts back to a standard-precision float64. May underflow
// to 0 or overflow to +Inf; callers needing the guaranteed-finite log
// should call Log instead.
func (s Scalar) Float64() float64 {
	return math.Exp(s.log)
}

// Log returns the natural logarithm of the scalar. This is the only
// operation whose result is a plain float64, and it is the point at
// which extended-precision arithmetic is allowed to leave the type.
func (s Scalar) Log() float64 {
	return s.log
}

// Mul returns s * other.
func (s Scalar) Mul(other Scalar) Scalar {
	if s.IsZero() || other.IsZero() {
		return Zero()
	}
	return Scalar{log: s.log + other.log}
}

// MulFloat64 returns s * x for a standard-precision x >= 0.
func (s Scalar) MulFloat64(x float64) Scalar {
	return s.Mul(From(x))
}

// Div returns s / other. Dividing by zero returns +Inf encoded as a
// log of +Inf; callers are expected never to do this in practice,
// mirroring the opaque type's "multiplies without underflow" contract
// rather than a general-purpose field.
func (s Scalar) Div(other Scalar) Scalar {
	return Scalar{log: s.log - other.log}
}

// Add returns s + other, computed in log-space via the standard
// log-sum-exp identity so that neither operand needs to leave
// extended precision.
func (s Scalar) Add(other Scalar) Scalar {
	if s.IsZero() {
		return other
	}
	if other.IsZero() {
		return s
	}
	hi, lo := s.log, other.log
	if lo > hi {
		hi, lo = lo, hi
	}
	return Scalar{log: hi + math.Log1p(math.Exp(lo-hi))}
}

// Pow returns s raised to a nonnegative integer power n, as used when
// a pattern's per-column likelihood is raised to its column count.
func (s Scalar) Pow(n int) Scalar {
	if n == 0 {
		return One()
	}
	if s.IsZero() {
		return Zero()
	}
	return Scalar{log: s.log * float64(n)}
}

// Greater reports whether s > other, compared directly in log-space
// so that callers ranking many near-zero scalars (as in an argmax
// traceback) never need to round-trip through Float64.
func (s Scalar) Greater(other Scalar) bool {
	return s.log > other.log
}

// Finite reports whether the scalar's logarithm is a finite number,
// the numerical contract every caller must check before trusting a
// returned likelihood.
func (s Scalar) Finite() bool {
	return !math.IsNaN(s.log) && !math.IsInf(s.log, 0)
}

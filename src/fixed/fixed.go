package fixed

import (
	"fmt"
	"math"
)

// Format describes a signed two's-complement fixed-point encoding. Every
// signal inside one pipeline instance shares a single Format; mixing formats
// across signals is a configuration error caught at construction.
type Format struct {
	Bits int // total width including the sign bit
	Frac int // fractional bits
}

// NewFormat validates the requested widths. The total width is capped at 32
// bits so that a full-precision product of two values always fits in int64.
func NewFormat(bits, frac int) (Format, error) {
	if bits < 2 || bits > 32 {
		return Format{}, fmt.Errorf("fixed: bits %d outside [2, 32]", bits)
	}
	if frac < 0 || frac >= bits {
		return Format{}, fmt.Errorf("fixed: frac %d outside [0, %d)", frac, bits)
	}
	return Format{Bits: bits, Frac: frac}, nil
}

// MustFormat is NewFormat for construction paths that treat a bad format as a
// build error.
func MustFormat(bits, frac int) Format {
	f, err := NewFormat(bits, frac)
	if err != nil {
		panic(err)
	}
	return f
}

// Min returns the most negative representable raw value. It doubles as the
// forced-negative sentinel for overflow handling in sign comparisons.
func (f Format) Min() int64 {
	return -(int64(1) << uint(f.Bits-1))
}

// Max returns the most positive representable raw value.
func (f Format) Max() int64 {
	return (int64(1) << uint(f.Bits-1)) - 1
}

// ForceNegative returns the sentinel used when an intermediate result has
// overflowed into the sign bit and must compare as definitely negative.
func (f Format) ForceNegative() int64 {
	return f.Min()
}

// One returns the raw encoding of 1.0, or Max when 1.0 is not representable
// (frac == bits-1 formats).
func (f Format) One() int64 {
	one := int64(1) << uint(f.Frac)
	if one > f.Max() {
		return f.Max()
	}
	return one
}

// Wrap reduces a wide intermediate to the format's width with two's-complement
// wraparound (mask then sign-extend).
func (f Format) Wrap(x int64) int64 {
	shift := uint(64 - f.Bits)
	return (x << shift) >> shift
}

// Overflows reports whether a wide intermediate falls outside the
// representable range, i.e. whether Wrap would change its value.
func (f Format) Overflows(x int64) bool {
	return f.Wrap(x) != x
}

// Add returns a+b wrapped to the format.
func (f Format) Add(a, b int64) int64 {
	return f.Wrap(a + b)
}

// Sub returns a-b wrapped to the format.
func (f Format) Sub(a, b int64) int64 {
	return f.Wrap(a - b)
}

// SubChecked returns a-b wrapped, plus whether the wide difference overflowed
// the representable range. Callers implementing sign tests must replace an
// overflowed result with ForceNegative before comparing.
func (f Format) SubChecked(a, b int64) (int64, bool) {
	wide := a - b
	return f.Wrap(wide), f.Overflows(wide)
}

// Neg returns -a wrapped to the format. Negating Min wraps back to Min.
func (f Format) Neg(a int64) int64 {
	return f.Wrap(-a)
}

// Mul returns the full-precision product truncated back to the fractional
// width by an arithmetic right shift, then wrapped to the format.
func (f Format) Mul(a, b int64) int64 {
	return f.Wrap((a * b) >> uint(f.Frac))
}

// FromFloat64 quantizes a float to the nearest representable raw value,
// saturating at the range limits.
func (f Format) FromFloat64(v float64) int64 {
	scaled := math.Round(v * float64(int64(1)<<uint(f.Frac)))
	if scaled >= float64(f.Max()) {
		return f.Max()
	}
	if scaled <= float64(f.Min()) {
		return f.Min()
	}
	return int64(scaled)
}

// Float64 converts a raw value back to a float.
func (f Format) Float64(x int64) float64 {
	return float64(x) / float64(int64(1)<<uint(f.Frac))
}

// FromFloat32 quantizes a float32 sample.
func (f Format) FromFloat32(v float32) int64 {
	return f.FromFloat64(float64(v))
}

// Float32 converts a raw value to float32.
func (f Format) Float32(x int64) float32 {
	return float32(f.Float64(x))
}

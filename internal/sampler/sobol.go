package sampler

import "fmt"

// Sobol low-discrepancy sequence after Bratley & Fox (ACM TOMS 659), using
// the primitive polynomials and initial direction numbers from Corrado
// Chisari's public-domain implementation. Supports up to 40 dimensions and
// 2^30 points, far beyond any realistic attribute count or sample size.

const (
	sobolMaxDims = 40
	sobolMaxCol  = 30
)

// Primitive polynomials over GF(2), one per dimension, encoded as binary
// coefficient masks (leading and trailing coefficients included).
var sobolPoly = [sobolMaxDims]uint32{
	1, 3, 7, 11, 13, 19, 25, 37, 59, 47,
	61, 55, 41, 67, 97, 91, 109, 103, 115, 131,
	193, 137, 145, 143, 241, 157, 185, 167, 229, 171,
	213, 191, 253, 203, 211, 239, 247, 285, 369, 299,
}

// Initial direction numbers per dimension. Column j seeds v[dim][j]; columns
// beyond a dimension's polynomial degree are derived by recurrence.
var sobolVInit = [8][]uint32{
	1: {2: 1, 3, 1, 3, 1, 3, 3, 1, 3, 1, 3, 1, 3, 1, 1, 3, 1, 3, 1, 3, 1, 3, 3, 1, 3, 1, 3, 1, 3, 1, 1, 3, 1, 3, 1, 3, 1, 3},
	2: {3: 7, 5, 1, 3, 3, 7, 5, 5, 7, 7, 1, 3, 3, 7, 5, 1, 1, 5, 3, 3, 1, 7, 5, 1, 3, 3, 7, 5, 1, 1, 5, 7, 7, 5, 1, 3, 3},
	3: {5: 1, 7, 9, 13, 11, 1, 3, 7, 9, 5, 13, 13, 11, 3, 15, 5, 3, 15, 7, 9, 13, 9, 1, 11, 7, 5, 15, 1, 15, 11, 5, 3, 1, 7, 9},
	4: {7: 9, 3, 27, 15, 29, 21, 23, 19, 11, 25, 7, 13, 17, 1, 25, 29, 3, 31, 11, 5, 23, 27, 19, 21, 5, 1, 17, 13, 7, 15, 9, 31, 9},
	5: {13: 37, 33, 7, 5, 11, 39, 63, 27, 17, 15, 23, 29, 3, 21, 13, 31, 25, 9, 49, 33, 19, 29, 11, 19, 27, 15, 25},
	6: {19: 13, 33, 115, 41, 79, 17, 29, 119, 75, 73, 105, 7, 59, 65, 21, 3, 113, 61, 89, 45, 107},
	7: {37: 7, 23, 39},
}

// SobolSequence generates successive points of the Sobol sequence for a
// fixed dimension count. The sequence is fully determined by (dims, skip):
// re-creating a sequence and skipping to the same offset reproduces the same
// points. Not safe for concurrent use; generate the point set up front and
// share it read-only.
type SobolSequence struct {
	dims   int
	v      [][sobolMaxCol]uint32
	lastq  []uint32
	seed   int
	recipd float64
}

// NewSobolSequence prepares direction numbers for dims dimensions.
// dims must be in [1, 40].
func NewSobolSequence(dims int) (*SobolSequence, error) {
	if dims < 1 || dims > sobolMaxDims {
		return nil, fmt.Errorf("sobol: dimension count %d outside [1, %d]", dims, sobolMaxDims)
	}

	s := &SobolSequence{
		dims:   dims,
		v:      make([][sobolMaxCol]uint32, dims),
		lastq:  make([]uint32, dims),
		recipd: 1.0 / float64(uint32(1)<<sobolMaxCol),
	}

	// Dimension 1 uses all-ones direction numbers (the van der Corput base-2
	// sequence); higher dimensions derive theirs from their polynomial.
	for j := 0; j < sobolMaxCol; j++ {
		s.v[0][j] = 1
	}
	for i := 1; i < dims; i++ {
		s.initDimension(i)
	}

	// Scale column j by 2^(maxcol-1-j) so each direction number sits in a
	// fixed 2^maxcol binary fraction.
	for i := 0; i < dims; i++ {
		shift := uint(sobolMaxCol - 1)
		for j := 0; j < sobolMaxCol; j++ {
			s.v[i][j] <<= shift
			shift--
		}
	}

	return s, nil
}

// initDimension fills the direction numbers for dimension index i (0-based)
// from its seed values and polynomial recurrence.
func (s *SobolSequence) initDimension(i int) {
	poly := sobolPoly[i]

	// Degree of the polynomial: index of its leading bit.
	m := 0
	for p := poly >> 1; p > 0; p >>= 1 {
		m++
	}

	// includ[k] is the coefficient of x^(m-1-k), the leading bit dropped.
	includ := make([]bool, m)
	p := poly
	for k := m - 1; k >= 0; k-- {
		includ[k] = p&1 == 1
		p >>= 1
	}

	// Seed columns from the initialization table.
	for j := 0; j < m; j++ {
		s.v[i][j] = vInitAt(j, i)
	}

	// Recurrence for the remaining columns.
	for j := m; j < sobolMaxCol; j++ {
		newv := s.v[i][j-m]
		l := uint32(1)
		for k := 1; k <= m; k++ {
			l <<= 1
			if includ[k-1] {
				newv ^= l * s.v[i][j-k]
			}
		}
		s.v[i][j] = newv
	}
}

// vInitAt returns the seed direction number for column col of dimension dim,
// defaulting to 1 where the table is sparse.
func vInitAt(col, dim int) uint32 {
	if col == 0 {
		return 1
	}
	if col >= len(sobolVInit) {
		return 1
	}
	row := sobolVInit[col]
	if dim >= len(row) || row[dim] == 0 {
		return 1
	}
	return row[dim]
}

// Skip advances the sequence past n points without materializing them.
func (s *SobolSequence) Skip(n int) {
	for i := 0; i < n; i++ {
		s.advance()
	}
}

// Next returns the current point of the sequence and advances. Coordinates
// lie in [0, 1). The returned slice is owned by the caller.
func (s *SobolSequence) Next() []float64 {
	point := make([]float64, s.dims)
	for i := range point {
		point[i] = float64(s.lastq[i]) * s.recipd
	}
	s.advance()
	return point
}

// advance folds the direction numbers for the current seed into the
// accumulator (gray-code construction: one XOR per point).
func (s *SobolSequence) advance() {
	col := bitLowZero(s.seed)
	for i := 0; i < s.dims; i++ {
		s.lastq[i] ^= s.v[i][col]
	}
	s.seed++
}

// bitLowZero returns the 0-based position of the lowest zero bit of n.
func bitLowZero(n int) int {
	pos := 0
	for n&1 == 1 {
		n >>= 1
		pos++
	}
	return pos
}

// GeneratePoints materializes n points of the dims-dimensional Sobol
// sequence starting at offset skip. Any coordinate that would land exactly
// on the unit upper bound is clamped just below 1 so a cumulative-weight
// lookup can never run off the end of a fully-massed row.
func GeneratePoints(dims, n, skip int) ([][]float64, error) {
	seq, err := NewSobolSequence(dims)
	if err != nil {
		return nil, err
	}
	seq.Skip(skip)

	points := make([][]float64, n)
	for k := 0; k < n; k++ {
		point := seq.Next()
		for i, c := range point {
			if c >= 1.0 {
				point[i] = 0.999999
			}
		}
		points[k] = point
	}
	return points, nil
}

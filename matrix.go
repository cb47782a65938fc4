/**
 * Matrix Algebra over an 8-bit Galois Field
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

package erasurecode

import (
	"strconv"
	"strings"
)

// matrix is a dense r x c grid of GF(2^8) elements stored as one
// contiguous row-major buffer with stride cols, rather than a slice of
// row slices: row r occupies data[r*cols : (r+1)*cols]. This keeps an
// entire matrix in one allocation and every row in one cache line run,
// at the cost of swapRows needing to copy two rows through a scratch
// buffer instead of repointing slice headers.
type matrix struct {
	data []byte
	rows int
	cols int
}

// newMatrix returns a matrix of zeros.
func newMatrix(rows, cols int) (matrix, error) {
	if rows <= 0 {
		return matrix{}, ErrInvalidRowSize
	}
	if cols <= 0 {
		return matrix{}, ErrInvalidColSize
	}
	return matrix{data: make([]byte, rows*cols), rows: rows, cols: cols}, nil
}

// newMatrixData builds a matrix from row-major data, copying each row
// into the matrix's single backing buffer. Every row must have the same
// number of columns.
func newMatrixData(data [][]byte) (matrix, error) {
	rows := len(data)
	if rows <= 0 {
		return matrix{}, ErrInvalidRowSize
	}
	cols := len(data[0])
	if cols <= 0 {
		return matrix{}, ErrInvalidColSize
	}
	for _, row := range data {
		if len(row) != cols {
			return matrix{}, ErrColSizeMismatch
		}
	}
	m := matrix{data: make([]byte, rows*cols), rows: rows, cols: cols}
	for r, row := range data {
		copy(m.row(r), row)
	}
	return m, nil
}

// identityMatrix returns an identity matrix of the given size.
func identityMatrix(size int) (matrix, error) {
	m, err := newMatrix(size, size)
	if err != nil {
		return matrix{}, err
	}
	for i := 0; i < size; i++ {
		m.row(i)[i] = 1
	}
	return m, nil
}

// row returns a view of row r's cols bytes, without a bounds check.
// Internal callers index with values they already know are in range;
// get/set are the bounds-checked entry points for anything else.
func (m matrix) row(r int) []byte {
	return m.data[r*m.cols : (r+1)*m.cols]
}

// get returns the element at (r, c), or ErrInvalidRowSize/ErrInvalidColSize
// if either index is out of range.
func (m matrix) get(r, c int) (byte, error) {
	if r < 0 || r >= m.rows {
		return 0, ErrInvalidRowSize
	}
	if c < 0 || c >= m.cols {
		return 0, ErrInvalidColSize
	}
	return m.data[r*m.cols+c], nil
}

// set writes v to the element at (r, c), or returns ErrInvalidRowSize/
// ErrInvalidColSize if either index is out of range.
func (m matrix) set(r, c int, v byte) error {
	if r < 0 || r >= m.rows {
		return ErrInvalidRowSize
	}
	if c < 0 || c >= m.cols {
		return ErrInvalidColSize
	}
	m.data[r*m.cols+c] = v
	return nil
}

// getRow returns row r as a freshly allocated byte slice, safe to keep
// past the matrix's own lifetime.
func (m matrix) getRow(r int) []byte {
	out := make([]byte, m.cols)
	copy(out, m.row(r))
	return out
}

// rowViews returns every row of m as a slice of views into m's backing
// buffer, suitable for passing to a coding loop as matrixRows. The
// views alias m; callers must treat them as read-only.
func (m matrix) rowViews() [][]byte {
	out := make([][]byte, m.rows)
	for r := range out {
		out[r] = m.row(r)
	}
	return out
}

// String returns a human-readable string of the matrix contents.
//
// Example: [[1, 2], [3, 4]]
func (m matrix) String() string {
	rowOut := make([]string, m.rows)
	for r := 0; r < m.rows; r++ {
		colOut := make([]string, m.cols)
		for c, v := range m.row(r) {
			colOut[c] = strconv.Itoa(int(v))
		}
		rowOut[r] = "[" + strings.Join(colOut, ", ") + "]"
	}
	return "[" + strings.Join(rowOut, ", ") + "]"
}

// equal reports whether m and other have the same dimensions and elements.
func (m matrix) equal(other matrix) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for r := 0; r < m.rows; r++ {
		a, b := m.row(r), other.row(r)
		for c := range a {
			if a[c] != b[c] {
				return false
			}
		}
	}
	return true
}

// multiply multiplies this matrix (the one on the left) by another
// matrix (the one on the right) and returns a new matrix with the result.
func (m matrix) multiply(right matrix) (matrix, error) {
	if m.cols != right.rows {
		return matrix{}, ErrMatrixSize
	}
	result, err := newMatrix(m.rows, right.cols)
	if err != nil {
		return matrix{}, err
	}
	for r := 0; r < result.rows; r++ {
		left := m.row(r)
		out := result.row(r)
		for c := 0; c < result.cols; c++ {
			var value byte
			for i, lv := range left {
				value ^= galMultiply(lv, right.row(i)[c])
			}
			out[c] = value
		}
	}
	return result, nil
}

// augment returns the concatenation of this matrix and the matrix on the right.
func (m matrix) augment(right matrix) (matrix, error) {
	if m.rows != right.rows {
		return matrix{}, ErrMatrixSize
	}
	result, err := newMatrix(m.rows, m.cols+right.cols)
	if err != nil {
		return matrix{}, err
	}
	for r := 0; r < m.rows; r++ {
		out := result.row(r)
		copy(out[:m.cols], m.row(r))
		copy(out[m.cols:], right.row(r))
	}
	return result, nil
}

// subMatrix returns a part of this matrix, [rmin:rmax, cmin:cmax). Data is copied.
func (m matrix) subMatrix(rmin, cmin, rmax, cmax int) (matrix, error) {
	result, err := newMatrix(rmax-rmin, cmax-cmin)
	if err != nil {
		return matrix{}, err
	}
	for r := rmin; r < rmax; r++ {
		copy(result.row(r-rmin), m.row(r)[cmin:cmax])
	}
	return result, nil
}

// swapRows exchanges two rows in the matrix. Rows are not separate
// slices here, so the exchange goes through a scratch buffer rather
// than a pointer swap.
func (m matrix) swapRows(r1, r2 int) error {
	if r1 < 0 || r1 >= m.rows || r2 < 0 || r2 >= m.rows {
		return ErrInvalidRowSize
	}
	if r1 == r2 {
		return nil
	}
	tmp := make([]byte, m.cols)
	copy(tmp, m.row(r1))
	copy(m.row(r1), m.row(r2))
	copy(m.row(r2), tmp)
	return nil
}

// isSquare reports whether the matrix has an equal number of rows and columns.
func (m matrix) isSquare() bool {
	return m.rows == m.cols
}

// invert returns the inverse of this matrix.
// Returns errSingular when the matrix is singular and doesn't have an inverse.
// The matrix must be square, otherwise ErrNotSquare is returned.
func (m matrix) invert() (matrix, error) {
	if !m.isSquare() {
		return matrix{}, ErrNotSquare
	}

	size := m.rows
	work, err := identityMatrix(size)
	if err != nil {
		return matrix{}, err
	}
	work, err = m.augment(work)
	if err != nil {
		return matrix{}, err
	}

	if err := work.gaussianElimination(); err != nil {
		return matrix{}, err
	}

	return work.subMatrix(0, size, size, size*2)
}

// gaussianElimination reduces the left half of the augmented matrix m
// to the identity by row operations, carrying the right half along, so
// that invert can read the inverse out of the right half afterward.
//
// For each pivot column r: if the diagonal entry is zero, swap in the
// first row below with a nonzero entry there, or fail as singular if
// none exists; scale the pivot row so the diagonal entry becomes one;
// then XOR a multiple of the pivot row into every other row that has a
// nonzero entry in column r, clearing it. The second pass only needs to
// sweep upward since the first pass already zeroed everything below the
// diagonal.
func (m matrix) gaussianElimination() error {
	for r := 0; r < m.rows; r++ {
		pivot := m.row(r)
		if pivot[r] == 0 {
			for below := r + 1; below < m.rows; below++ {
				if m.row(below)[r] != 0 {
					m.swapRows(r, below)
					pivot = m.row(r)
					break
				}
			}
		}
		if pivot[r] == 0 {
			return errSingular
		}
		if pivot[r] != 1 {
			scale := galDivide(1, pivot[r])
			for c := range pivot {
				pivot[c] = galMultiply(pivot[c], scale)
			}
		}
		for below := r + 1; below < m.rows; below++ {
			belowRow := m.row(below)
			if belowRow[r] == 0 {
				continue
			}
			scale := belowRow[r]
			for c := range belowRow {
				belowRow[c] ^= galMultiply(scale, pivot[c])
			}
		}
	}

	for d := 0; d < m.rows; d++ {
		pivot := m.row(d)
		for above := 0; above < d; above++ {
			aboveRow := m.row(above)
			if aboveRow[d] == 0 {
				continue
			}
			scale := aboveRow[d]
			for c := range aboveRow {
				aboveRow[c] ^= galMultiply(scale, pivot[c])
			}
		}
	}
	return nil
}

// vandermonde creates a Vandermonde matrix, which is guaranteed to have the
// property that any subset of rows that forms a square matrix
// is invertible. Entry (r, c) is fieldGenerator^(r*c).
func vandermonde(rows, cols int) (matrix, error) {
	result, err := newMatrix(rows, cols)
	if err != nil {
		return matrix{}, err
	}
	for r := 0; r < rows; r++ {
		out := result.row(r)
		for c := range out {
			out[c] = galExp(fieldGenerator, r*c)
		}
	}
	return result, nil
}

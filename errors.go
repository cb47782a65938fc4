/**
 * Error kinds for the erasure-coding core
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

package erasurecode

import "errors"

// ErrTooManyShards is returned by New when dataShards +
// parityShards exceeds 256: beyond that, rows of the Vandermonde matrix
// collide and some k-row submatrix becomes singular.
var ErrTooManyShards = errors.New("erasurecode: too many shards - max is 256")

// ErrInvShardNum is returned by New when dataShards or parityShards is
// zero or negative.
var ErrInvShardNum = errors.New("erasurecode: data and parity shard counts must be positive")

// ErrTooFewShards is returned by Reconstruct/ReconstructRange when fewer
// than dataShards shards are present, and by Join when a data shard is
// missing.
var ErrTooFewShards = errors.New("erasurecode: not enough shards present")

// ErrShardSize is returned when shards passed to Encode/Verify/Reconstruct
// don't all have the same length.
var ErrShardSize = errors.New("erasurecode: shards are different sizes")

// ErrInvalidShardCount is returned when the number of shards passed to a
// façade method does not equal dataShards+parityShards.
var ErrInvalidShardCount = errors.New("erasurecode: wrong number of shards")

// ErrInvalidRange is returned when offset or byteCount is negative, or
// offset+byteCount exceeds a buffer's length.
var ErrInvalidRange = errors.New("erasurecode: invalid offset/byteCount range")

// ErrShardNoData is returned when every shard has zero length.
var ErrShardNoData = errors.New("erasurecode: no shard data")

// errSingular is returned internally by matrix.invert when Gauss-Jordan
// elimination cannot find a pivot. It should never reach a caller of the
// façade, since every matrix it inverts is a square submatrix of a
// Vandermonde-derived, and therefore MDS, generator matrix; reaching this
// from ReconstructRange indicates a bug, not a caller error.
var errSingular = errors.New("erasurecode: matrix is singular")

// ErrNotSquare is returned by matrix.invert when called on a non-square
// matrix.
var ErrNotSquare = errors.New("erasurecode: only square matrices can be inverted")

// ErrMatrixSize is returned by matrix.augment when row counts don't
// match, and by matrix.multiply when the left matrix's column count
// differs from the right matrix's row count.
var ErrMatrixSize = errors.New("erasurecode: matrix sizes do not match")

// ErrInvalidRowSize and ErrInvalidColSize are returned by newMatrix and
// row/column accessors given non-positive or out-of-range indices.
var ErrInvalidRowSize = errors.New("erasurecode: invalid row size or index")
var ErrInvalidColSize = errors.New("erasurecode: invalid column size or index")

// ErrColSizeMismatch is returned by newMatrixData when rows of the
// supplied data don't all have the same number of columns.
var ErrColSizeMismatch = errors.New("erasurecode: not all rows have the same number of columns")

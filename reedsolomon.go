/**
 * Reed-Solomon Coding over 8-bit values.
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

package erasurecode

// ReedSolomon codes and decodes data shards against parity shards over
// GF(2^8). An instance is immutable after New: the generator matrix and
// its cached parity rows never change, so a single instance may be
// shared across goroutines.
type ReedSolomon struct {
	dataShards   int
	parityShards int
	totalShards  int
	m            matrix
	parity       matrix
	parityRows   [][]byte // parity.rowViews(), cached since parity is never rebuilt
	loop         codingLoop
	opts         options
}

// DataShards returns the number of data shards this instance was
// constructed with.
func (r *ReedSolomon) DataShards() int { return r.dataShards }

// ParityShards returns the number of parity shards this instance was
// constructed with.
func (r *ReedSolomon) ParityShards() int { return r.parityShards }

// TotalShards returns DataShards() + ParityShards().
func (r *ReedSolomon) TotalShards() int { return r.totalShards }

// New constructs a ReedSolomon instance for the given number of data and
// parity shards. dataShards and parityShards must each be at least 1,
// and their sum at most 256.
//
// The coding matrix starts life as a Vandermonde matrix, which alone
// would work but wouldn't leave the data shards unchanged by encoding.
// Multiplying by the inverse of its own top square block reduces that
// top block to the identity, while keeping the defining Vandermonde
// property that any square subset of rows is invertible.
func New(dataShards, parityShards int, opts ...Option) (*ReedSolomon, error) {
	if dataShards <= 0 || parityShards <= 0 {
		return nil, ErrInvShardNum
	}
	total := dataShards + parityShards
	if total > 256 {
		return nil, ErrTooManyShards
	}

	vm, err := vandermonde(total, dataShards)
	if err != nil {
		return nil, err
	}
	top, err := vm.subMatrix(0, 0, dataShards, dataShards)
	if err != nil {
		return nil, err
	}
	top, err = top.invert()
	if err != nil {
		return nil, err
	}
	m, err := vm.multiply(top)
	if err != nil {
		return nil, err
	}

	parity, err := newMatrix(parityShards, dataShards)
	if err != nil {
		return nil, err
	}
	for i := 0; i < parityShards; i++ {
		copy(parity.row(i), m.row(dataShards+i))
	}

	resolved := resolveOptions(opts)
	return &ReedSolomon{
		dataShards:   dataShards,
		parityShards: parityShards,
		totalShards:  total,
		m:            m,
		parity:       parity,
		parityRows:   parity.rowViews(),
		loop:         newCodingLoop(resolved.strategy),
		opts:         resolved,
	}, nil
}

// checkShards verifies shard count and uniform size. nilOK permits
// missing (zero-length) shards, as Reconstruct does.
func (r *ReedSolomon) checkShards(shards [][]byte, nilOK bool) error {
	if len(shards) != r.totalShards {
		return ErrInvalidShardCount
	}
	size := 0
	for _, s := range shards {
		if len(s) != 0 {
			size = len(s)
			break
		}
	}
	if size == 0 {
		return ErrShardNoData
	}
	for _, s := range shards {
		if len(s) != size {
			if len(s) != 0 || !nilOK {
				return ErrShardSize
			}
		}
	}
	return nil
}

// checkRange validates that offset and byteCount describe a half-open
// range [offset, offset+byteCount) that fits inside every shard of the
// given length, and inside temp when temp is non-nil.
func checkRange(offset, byteCount, shardLen int, temp []byte) error {
	if offset < 0 || byteCount < 0 {
		return ErrInvalidRange
	}
	end := offset + byteCount
	if end < offset || end > shardLen {
		return ErrInvalidRange
	}
	if temp != nil && len(temp) < end {
		return ErrInvalidRange
	}
	return nil
}

// Encode computes parity for a complete set of shards: data shards
// followed by parity shards, one per TotalShards. Data shards are left
// unchanged; parity shards are always overwritten.
func (r *ReedSolomon) Encode(shards [][]byte) error {
	if err := r.checkShards(shards, false); err != nil {
		return err
	}
	return r.EncodeRange(shards, 0, len(shards[0]))
}

// EncodeRange is Encode restricted to the half-open byte range
// [offset, offset+byteCount) shared by every shard.
func (r *ReedSolomon) EncodeRange(shards [][]byte, offset, byteCount int) error {
	if err := r.checkShards(shards, false); err != nil {
		return err
	}
	if err := checkRange(offset, byteCount, len(shards[0]), nil); err != nil {
		return err
	}
	inputs := shards[:r.dataShards]
	outputs := shards[r.dataShards:]
	codeSomeShardsSplit(r.loop, r.parityRows, inputs, r.dataShards, outputs, r.parityShards, offset, byteCount, r.opts.maxGoroutines, r.opts.minSplitSize)
	return nil
}

// Verify reports whether the parity shards are consistent with the data
// shards. No shard is modified.
func (r *ReedSolomon) Verify(shards [][]byte) (bool, error) {
	if err := r.checkShards(shards, false); err != nil {
		return false, err
	}
	return r.VerifyRange(shards, 0, len(shards[0]))
}

// VerifyRange is Verify restricted to the half-open byte range
// [offset, offset+byteCount) shared by every shard.
func (r *ReedSolomon) VerifyRange(shards [][]byte, offset, byteCount int) (bool, error) {
	return r.verifyRange(shards, offset, byteCount, nil)
}

// VerifyWithTemp is Verify, but reuses the caller-supplied temp buffer
// as scratch space instead of allocating one internally for every
// checked output row.
func (r *ReedSolomon) VerifyWithTemp(shards [][]byte, temp []byte) (bool, error) {
	if err := r.checkShards(shards, false); err != nil {
		return false, err
	}
	return r.verifyRange(shards, 0, len(shards[0]), temp)
}

func (r *ReedSolomon) verifyRange(shards [][]byte, offset, byteCount int, temp []byte) (bool, error) {
	if err := r.checkShards(shards, false); err != nil {
		return false, err
	}
	if err := checkRange(offset, byteCount, len(shards[0]), temp); err != nil {
		return false, err
	}
	inputs := shards[:r.dataShards]
	toCheck := shards[r.dataShards:]
	ok := checkSomeShardsSplit(r.loop, r.parityRows, inputs, r.dataShards, toCheck, r.parityShards, offset, byteCount, temp, r.opts.maxGoroutines, r.opts.minSplitSize)
	return ok, nil
}

// Reconstruct fills in any missing shards (signaled by a nil or
// zero-length entry) from the ones present. Given at least DataShards
// shards, it is always possible. A missing entry whose capacity is at
// least the shard size is rebuilt in its own backing array; otherwise a
// new buffer is allocated.
//
// Missing data shards are recreated first, by inverting the square
// submatrix of the generator matrix that corresponds to whichever
// DataShards rows happen to be present. Only once every data shard is
// intact are any missing parity shards recomputed from them, since a
// parity row's formula always refers to the full set of data shards.
func (r *ReedSolomon) Reconstruct(shards [][]byte) error {
	if err := r.checkShards(shards, true); err != nil {
		return err
	}
	shardSize := 0
	for _, s := range shards {
		if len(s) != 0 {
			shardSize = len(s)
			break
		}
	}
	return r.ReconstructRange(shards, 0, shardSize)
}

// ReconstructRange is Reconstruct restricted to the half-open byte range
// [offset, offset+byteCount) shared by every present shard; missing
// shards are given full shardSize length (reusing their capacity when it
// suffices) but only that range is filled in.
func (r *ReedSolomon) ReconstructRange(shards [][]byte, offset, byteCount int) error {
	if err := r.checkShards(shards, true); err != nil {
		return err
	}

	shardSize := 0
	present := 0
	for _, s := range shards {
		if len(s) != 0 {
			present++
			shardSize = len(s)
		}
	}
	if err := checkRange(offset, byteCount, shardSize, nil); err != nil {
		return err
	}
	if present == r.totalShards {
		return nil
	}
	if present < r.dataShards {
		return ErrTooFewShards
	}

	subMatrix, err := newMatrix(r.dataShards, r.dataShards)
	if err != nil {
		return err
	}
	subShards := make([][]byte, r.dataShards)
	subRow := 0
	for row := 0; row < r.totalShards && subRow < r.dataShards; row++ {
		if len(shards[row]) != 0 {
			copy(subMatrix.row(subRow), r.m.row(row))
			subShards[subRow] = shards[row]
			subRow++
		}
	}

	dataDecodeMatrix, err := subMatrix.invert()
	if err != nil {
		return err
	}

	outputs := make([][]byte, r.parityShards)
	matrixRows := make([][]byte, r.parityShards)
	outputCount := 0
	for i := 0; i < r.dataShards; i++ {
		if len(shards[i]) == 0 {
			if cap(shards[i]) >= shardSize {
				shards[i] = shards[i][:shardSize]
			} else {
				shards[i] = make([]byte, shardSize)
			}
			outputs[outputCount] = shards[i]
			matrixRows[outputCount] = dataDecodeMatrix.row(i)
			outputCount++
		}
	}
	if outputCount > 0 {
		codeSomeShardsSplit(r.loop, matrixRows[:outputCount], subShards, r.dataShards, outputs[:outputCount], outputCount, offset, byteCount, r.opts.maxGoroutines, r.opts.minSplitSize)
	}

	outputCount = 0
	for i := r.dataShards; i < r.totalShards; i++ {
		if len(shards[i]) == 0 {
			if cap(shards[i]) >= shardSize {
				shards[i] = shards[i][:shardSize]
			} else {
				shards[i] = make([]byte, shardSize)
			}
			outputs[outputCount] = shards[i]
			matrixRows[outputCount] = r.parity.row(i - r.dataShards)
			outputCount++
		}
	}
	if outputCount > 0 {
		codeSomeShardsSplit(r.loop, matrixRows[:outputCount], shards[:r.dataShards], r.dataShards, outputs[:outputCount], outputCount, offset, byteCount, r.opts.maxGoroutines, r.opts.minSplitSize)
	}
	return nil
}

// Split partitions data into DataShards equal-sized shards, padding
// the end with zeros if necessary, and appends ParityShards more
// empty shards sized to match, ready for Encode.
func (r *ReedSolomon) Split(data []byte) ([][]byte, error) {
	if len(data) == 0 {
		return nil, ErrShardNoData
	}
	perShard := (len(data) + r.dataShards - 1) / r.dataShards

	padded := data
	if len(data) != perShard*r.dataShards {
		padded = make([]byte, perShard*r.dataShards)
		copy(padded, data)
	}

	shards := make([][]byte, r.totalShards)
	for i := 0; i < r.dataShards; i++ {
		shards[i] = padded[i*perShard : (i+1)*perShard]
	}
	for i := r.dataShards; i < r.totalShards; i++ {
		shards[i] = make([]byte, perShard)
	}
	return shards, nil
}

// Join concatenates the data shards' bytes in order, truncating to
// outSize, and reports ErrTooFewShards if any data shard is missing.
func (r *ReedSolomon) Join(shards [][]byte, outSize int) ([]byte, error) {
	if len(shards) < r.dataShards {
		return nil, ErrTooFewShards
	}
	shards = shards[:r.dataShards]
	size := 0
	for _, s := range shards {
		if len(s) == 0 {
			return nil, ErrTooFewShards
		}
		size += len(s)
	}
	if outSize < 0 || outSize > size {
		return nil, ErrInvalidRange
	}

	out := make([]byte, 0, outSize)
	for _, s := range shards {
		if len(out)+len(s) >= outSize {
			out = append(out, s[:outSize-len(out)]...)
			break
		}
		out = append(out, s...)
	}
	return out, nil
}

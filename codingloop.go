/**
 * Coding-loop strategies: the hot inner kernel of erasure coding
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

package erasurecode

// LoopOrder names the nesting order of the three loop axes in the hot
// kernel: byte (b, index within the shard range), input (i, which source
// shard), and output (o, which destination shard). All six permutations
// produce identical results; they differ only in cache behavior.
type LoopOrder int

const (
	LoopByteInputOutput LoopOrder = iota
	LoopByteOutputInput
	LoopInputByteOutput
	LoopInputOutputByte
	LoopOutputByteInput
	LoopOutputInputByte
)

func (o LoopOrder) String() string {
	switch o {
	case LoopByteInputOutput:
		return "ByteInputOutput"
	case LoopByteOutputInput:
		return "ByteOutputInput"
	case LoopInputByteOutput:
		return "InputByteOutput"
	case LoopInputOutputByte:
		return "InputOutputByte"
	case LoopOutputByteInput:
		return "OutputByteInput"
	case LoopOutputInputByte:
		return "OutputInputByte"
	default:
		return "Unknown"
	}
}

// MultiplyMethod names the GF(2^8) multiply technique used inside the
// kernel: the log/exponent tables, or the precomputed multiplication
// table.
type MultiplyMethod int

const (
	MultiplyExp MultiplyMethod = iota
	MultiplyTable
)

func (m MultiplyMethod) String() string {
	if m == MultiplyTable {
		return "Table"
	}
	return "Exp"
}

// Strategy identifies one of the 12 coding-loop variants by its loop
// order and multiply method.
type Strategy struct {
	Order    LoopOrder
	Multiply MultiplyMethod
}

func (s Strategy) String() string {
	return s.Order.String() + s.Multiply.String()
}

// AllStrategies returns all 12 coding-loop variants, in the same order
// as the source's ALL_CODING_LOOPS: the six loop orders, each paired
// first with Exp then with Table.
func AllStrategies() []Strategy {
	orders := []LoopOrder{
		LoopByteInputOutput, LoopByteOutputInput,
		LoopInputByteOutput, LoopInputOutputByte,
		LoopOutputByteInput, LoopOutputInputByte,
	}
	strategies := make([]Strategy, 0, len(orders)*2)
	for _, order := range orders {
		strategies = append(strategies,
			Strategy{Order: order, Multiply: MultiplyExp},
			Strategy{Order: order, Multiply: MultiplyTable},
		)
	}
	return strategies
}

// DefaultStrategy is the permutation selected by the façade when the
// caller doesn't request one: (input, output, byte) nesting with the
// table multiply method, empirically strong on commodity CPUs with
// large L1 data caches.
var DefaultStrategy = Strategy{Order: LoopInputOutputByte, Multiply: MultiplyTable}

// codingLoop is the pluggable strategy interface: one concrete
// implementation of the matrix-times-shards inner kernel.
type codingLoop interface {
	// codeSomeShards multiplies matrixRows (one row per output) by the
	// first inputCount shards of inputs, writing outputCount results
	// into outputs, over the byte range [offset, offset+byteCount).
	// The first input contribution to each output byte assigns;
	// subsequent ones XOR-accumulate.
	codeSomeShards(matrixRows, inputs [][]byte, inputCount int, outputs [][]byte, outputCount int, offset, byteCount int)

	// checkSomeShards performs the same computation as codeSomeShards
	// but compares against toCheck instead of writing, returning true
	// iff every byte in every checked shard matches. If temp is
	// non-nil, it is scratch space of length >= offset+byteCount,
	// distinct from every input/output shard, used to avoid
	// per-output branching; otherwise implementations may compare
	// byte-by-byte with early exit.
	checkSomeShards(matrixRows, inputs [][]byte, inputCount int, toCheck [][]byte, checkCount int, offset, byteCount int, temp []byte) bool
}

// newCodingLoop returns the codingLoop implementing the given strategy.
// A single generic kernel, parameterized by loop order and multiply
// method, subsumes all 12 named variants.
func newCodingLoop(s Strategy) codingLoop {
	return strategyLoop{order: s.Order, mulByte: multiplyFunc(s.Multiply)}
}

// multiplyFunc returns the scalar GF(2^8) multiply used by one kernel
// pass: the log/exponent formula for MultiplyExp, or a direct
// multiplication-table lookup for MultiplyTable.
func multiplyFunc(m MultiplyMethod) func(a, b byte) byte {
	if m == MultiplyTable {
		return galMultiply
	}
	return func(a, b byte) byte {
		if a == 0 || b == 0 {
			return 0
		}
		return expTable[logTable[a]+logTable[b]]
	}
}

// strategyLoop is the one implementation behind all 12 named variants.
type strategyLoop struct {
	order   LoopOrder
	mulByte func(a, b byte) byte
}

func (s strategyLoop) codeSomeShards(matrixRows, inputs [][]byte, inputCount int, outputs [][]byte, outputCount int, offset, byteCount int) {
	if byteCount == 0 || outputCount == 0 {
		return
	}
	end := offset + byteCount
	switch s.order {
	case LoopByteInputOutput:
		for b := offset; b < end; b++ {
			for i := 0; i < inputCount; i++ {
				in := inputs[i][b]
				for o := 0; o < outputCount; o++ {
					v := s.mulByte(matrixRows[o][i], in)
					if i == 0 {
						outputs[o][b] = v
					} else {
						outputs[o][b] ^= v
					}
				}
			}
		}
	case LoopByteOutputInput:
		for b := offset; b < end; b++ {
			for o := 0; o < outputCount; o++ {
				row := matrixRows[o]
				var value byte
				for i := 0; i < inputCount; i++ {
					value ^= s.mulByte(row[i], inputs[i][b])
				}
				outputs[o][b] = value
			}
		}
	case LoopInputByteOutput:
		for i := 0; i < inputCount; i++ {
			in := inputs[i]
			for b := offset; b < end; b++ {
				v := in[b]
				for o := 0; o < outputCount; o++ {
					p := s.mulByte(matrixRows[o][i], v)
					if i == 0 {
						outputs[o][b] = p
					} else {
						outputs[o][b] ^= p
					}
				}
			}
		}
	case LoopInputOutputByte:
		for i := 0; i < inputCount; i++ {
			in := inputs[i]
			for o := 0; o < outputCount; o++ {
				coeff := matrixRows[o][i]
				out := outputs[o]
				if i == 0 {
					for b := offset; b < end; b++ {
						out[b] = s.mulByte(coeff, in[b])
					}
				} else {
					for b := offset; b < end; b++ {
						out[b] ^= s.mulByte(coeff, in[b])
					}
				}
			}
		}
	case LoopOutputByteInput:
		for o := 0; o < outputCount; o++ {
			row := matrixRows[o]
			out := outputs[o]
			for b := offset; b < end; b++ {
				var value byte
				for i := 0; i < inputCount; i++ {
					value ^= s.mulByte(row[i], inputs[i][b])
				}
				out[b] = value
			}
		}
	case LoopOutputInputByte:
		for o := 0; o < outputCount; o++ {
			row := matrixRows[o]
			out := outputs[o]
			for i := 0; i < inputCount; i++ {
				coeff := row[i]
				in := inputs[i]
				if i == 0 {
					for b := offset; b < end; b++ {
						out[b] = s.mulByte(coeff, in[b])
					}
				} else {
					for b := offset; b < end; b++ {
						out[b] ^= s.mulByte(coeff, in[b])
					}
				}
			}
		}
	}
}

func (s strategyLoop) checkSomeShards(matrixRows, inputs [][]byte, inputCount int, toCheck [][]byte, checkCount int, offset, byteCount int, temp []byte) bool {
	if byteCount == 0 || checkCount == 0 {
		return true
	}
	if temp != nil {
		// Recompute one output row at a time into the shared scratch
		// buffer, comparing before moving to the next row. This avoids
		// allocating a fresh buffer per output shard.
		end := offset + byteCount
		for o := 0; o < checkCount; o++ {
			s.codeSomeShards(matrixRows[o:o+1], inputs, inputCount, [][]byte{temp}, 1, offset, byteCount)
			for b := offset; b < end; b++ {
				if temp[b] != toCheck[o][b] {
					return false
				}
			}
		}
		return true
	}

	end := offset + byteCount
	for b := offset; b < end; b++ {
		for o := 0; o < checkCount; o++ {
			row := matrixRows[o]
			var value byte
			for i := 0; i < inputCount; i++ {
				value ^= s.mulByte(row[i], inputs[i][b])
			}
			if toCheck[o][b] != value {
				return false
			}
		}
	}
	return true
}

/**
 * Galois Field Arithmetic over GF(2^8)
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

package erasurecode

// The field is GF(2)[x] / (x^8 + x^4 + x^3 + x^2 + 1), i.e. the primitive
// polynomial 0x11D, with generator element 2. Addition and subtraction are
// XOR; multiplication and division go through logTable/expTable.
const (
	fieldGenerator  = 2
	fieldPolynomial = 0x11D
	fieldSize       = 256
)

// logTable[a] = i such that fieldGenerator^i == a, for a != 0.
// logTable[0] is unused (left at 0); callers handle zero operands before
// looking anything up.
var logTable [fieldSize]int

// expTable[i] = fieldGenerator^i, duplicated to length 2*(fieldSize-1) so
// that expTable[logTable[a]+logTable[b]] needs no modulo reduction.
var expTable [2 * (fieldSize - 1)]byte

// mulTable[a][b] = galMultiply(a, b), precomputed for the table strategy.
var mulTable [fieldSize][fieldSize]byte

func init() {
	buildTables()
}

// buildTables constructs logTable, expTable and mulTable from the
// primitive polynomial and generator above. It runs once, at package
// init, and the tables are read-only for the remaining life of the
// process.
func buildTables() {
	x := 1
	for i := 0; i < fieldSize-1; i++ {
		expTable[i] = byte(x)
		logTable[byte(x)] = i
		x <<= 1
		if x&fieldSize != 0 {
			x ^= fieldPolynomial
		}
	}
	// Duplicate so that log(a)+log(b) never needs a modulo.
	for i := fieldSize - 1; i < len(expTable); i++ {
		expTable[i] = expTable[i-(fieldSize-1)]
	}

	for a := 0; a < fieldSize; a++ {
		for b := 0; b < fieldSize; b++ {
			mulTable[a][b] = galExpMul(byte(a), byte(b))
		}
	}
}

// galExpMul is the log/exp multiply, used only to seed mulTable.
func galExpMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[logTable[a]+logTable[b]]
}

// galAdd returns a+b in GF(2^8), which is a XOR b.
func galAdd(a, b byte) byte {
	return a ^ b
}

// galSub returns a-b in GF(2^8). Subtraction equals addition in
// characteristic 2.
func galSub(a, b byte) byte {
	return a ^ b
}

// galMultiply returns a*b in GF(2^8) via the precomputed multiplication
// table.
func galMultiply(a, b byte) byte {
	return mulTable[a][b]
}

// galDivide returns a/b in GF(2^8). b must be non-zero.
func galDivide(a, b byte) byte {
	if a == 0 {
		return 0
	}
	if b == 0 {
		panic("erasurecode: division by zero in GF(2^8)")
	}
	logA := logTable[a]
	logB := logTable[b]
	logResult := logA - logB
	if logResult < 0 {
		logResult += fieldSize - 1
	}
	return expTable[logResult]
}

// galOneOver returns the multiplicative inverse of a, i.e. galDivide(1, a).
// a must be non-zero.
func galOneOver(a byte) byte {
	return galDivide(1, a)
}

// galExp returns a raised to the n-th power in GF(2^8). n must be >= 0.
// galExp(a, 0) == 1 for all a, including 0. galExp(0, n) == 0 for n >= 1.
func galExp(a byte, n int) byte {
	if n == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	logA := logTable[a]
	logResult := logA * n
	for logResult >= fieldSize-1 {
		logResult -= fieldSize - 1
	}
	return expTable[logResult]
}

/**
 * Splitting a coding-loop call across goroutines
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.
 */

package erasurecode

import "sync"

// codeSomeShardsSplit runs loop.codeSomeShards over [offset, offset+byteCount)
// using up to maxGoroutines goroutines, each handling a contiguous,
// disjoint byte sub-range of at least minSplitSize bytes (the last
// chunk also takes the remainder of the division). Loop-strategy
// equivalence (spec §8) holds per chunk, and chunks never overlap, so the
// combined result is byte-identical to a single unsplit call.
func codeSomeShardsSplit(loop codingLoop, matrixRows, inputs [][]byte, inputCount int, outputs [][]byte, outputCount int, offset, byteCount int, maxGoroutines, minSplitSize int) {
	if maxGoroutines <= 1 || byteCount <= minSplitSize {
		loop.codeSomeShards(matrixRows, inputs, inputCount, outputs, outputCount, offset, byteCount)
		return
	}

	chunks := byteCount / minSplitSize
	if chunks > maxGoroutines {
		chunks = maxGoroutines
	}
	chunkSize := byteCount / chunks
	if chunkSize == 0 {
		chunkSize = byteCount
	}

	var wg sync.WaitGroup
	start := offset
	end := offset + byteCount
	for start < end {
		size := chunkSize
		if end-start-size < chunkSize {
			size = end - start
		}
		wg.Add(1)
		go func(start, size int) {
			defer wg.Done()
			loop.codeSomeShards(matrixRows, inputs, inputCount, outputs, outputCount, start, size)
		}(start, size)
		start += size
	}
	wg.Wait()
}

// checkSomeShardsSplit is the check-path analog of codeSomeShardsSplit.
// All goroutines share temp (when non-nil); each one writes only its own
// byte sub-range of it. Once a chunk disagrees, chunks that have not yet
// started are skipped, and the result is false.
func checkSomeShardsSplit(loop codingLoop, matrixRows, inputs [][]byte, inputCount int, toCheck [][]byte, checkCount int, offset, byteCount int, temp []byte, maxGoroutines, minSplitSize int) bool {
	if maxGoroutines <= 1 || byteCount <= minSplitSize {
		return loop.checkSomeShards(matrixRows, inputs, inputCount, toCheck, checkCount, offset, byteCount, temp)
	}

	chunks := byteCount / minSplitSize
	if chunks > maxGoroutines {
		chunks = maxGoroutines
	}
	chunkSize := byteCount / chunks
	if chunkSize == 0 {
		chunkSize = byteCount
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	same := true

	start := offset
	end := offset + byteCount
	for start < end {
		size := chunkSize
		if end-start-size < chunkSize {
			size = end - start
		}
		wg.Add(1)
		go func(start, size int) {
			defer wg.Done()
			mu.Lock()
			if !same {
				mu.Unlock()
				return
			}
			mu.Unlock()

			// The kernel indexes temp by absolute byte offset and
			// writes only [start, start+size), so goroutines working
			// on disjoint sub-ranges can share it.
			ok := loop.checkSomeShards(matrixRows, inputs, inputCount, toCheck, checkCount, start, size, temp)
			if !ok {
				mu.Lock()
				same = false
				mu.Unlock()
			}
		}(start, size)
		start += size
	}
	wg.Wait()
	return same
}

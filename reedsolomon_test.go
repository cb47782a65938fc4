/**
 * Unit tests for ReedSolomon
 *
 * Copyright 2015, Klaus Post
 * Copyright 2015, Backblaze, Inc.  All rights reserved.
 */

package erasurecode

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"
)

func fillRandom(p []byte) {
	for i := 0; i < len(p); i += 7 {
		val := rand.Int63()
		for j := 0; i+j < len(p) && j < 7; j++ {
			p[i+j] = byte(val)
			val >>= 8
		}
	}
}

var testSizes = [][2]int{{1, 1}, {1, 2}, {3, 3}, {3, 1}, {5, 3}, {8, 4}, {10, 30}, {12, 10}, {14, 7}, {41, 17}, {49, 1}}
var testDataSizesShort = []int{10, 10001, 100003}

func TestEncoding(t *testing.T) {
	for _, size := range testSizes {
		data, parity := size[0], size[1]
		rng := rand.New(rand.NewSource(0xabadc0cac01a))
		t.Run(fmt.Sprintf("%dx%d", data, parity), func(t *testing.T) {
			for _, perShard := range testDataSizesShort {
				t.Run(fmt.Sprint(perShard), func(t *testing.T) {
					r, err := New(data, parity)
					if err != nil {
						t.Fatal(err)
					}
					shards := make([][]byte, data+parity)
					for s := range shards {
						shards[s] = make([]byte, perShard)
					}
					for s := 0; s < data; s++ {
						rng.Read(shards[s])
					}

					if err := r.Encode(shards); err != nil {
						t.Fatal(err)
					}
					ok, err := r.Verify(shards)
					if err != nil {
						t.Fatal(err)
					}
					if !ok {
						t.Fatal("verification failed")
					}

					idx := rng.Intn(data + parity)
					want := shards[idx]
					shards[idx] = nil
					if err := r.Reconstruct(shards); err != nil {
						t.Fatal(err)
					}
					if !bytes.Equal(shards[idx], want) {
						t.Fatal("did not reconstruct correctly")
					}

					if err := r.Encode(make([][]byte, 1)); err != ErrInvalidShardCount {
						t.Errorf("expected %v, got %v", ErrInvalidShardCount, err)
					}

					shards[idx] = shards[idx][:perShard-1]
					if err := r.Encode(shards); err != ErrShardSize {
						t.Errorf("expected %v, got %v", ErrShardSize, err)
					}
				})
			}
		})
	}
}

func TestReconstruct(t *testing.T) {
	perShard := 50000
	r, err := New(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	shards := make([][]byte, 13)
	for s := range shards {
		shards[s] = make([]byte, perShard)
	}
	for s := 0; s < 13; s++ {
		fillRandom(shards[s])
	}
	if err := r.Encode(shards); err != nil {
		t.Fatal(err)
	}

	// Reconstruct with all shards present is a no-op.
	if err := r.Reconstruct(shards); err != nil {
		t.Fatal(err)
	}

	// Reconstruct with 10 shards present. Use pre-allocated memory for one.
	shards[0] = nil
	shards[7] = nil
	shard11 := shards[11]
	shards[11] = shard11[:0]
	fillRandom(shard11)

	if err := r.Reconstruct(shards); err != nil {
		t.Fatal(err)
	}
	ok, err := r.Verify(shards)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("verification failed")
	}
	if &shard11[0] != &shards[11][0] {
		t.Error("shard was not reconstructed into pre-allocated memory")
	}

	// Reconstruct with 9 shards present should fail.
	shards[0] = nil
	shards[4] = nil
	shards[7] = nil
	shards[11] = nil
	if err := r.Reconstruct(shards); err != ErrTooFewShards {
		t.Errorf("expected %v, got %v", ErrTooFewShards, err)
	}

	if err := r.Reconstruct(make([][]byte, 1)); err != ErrInvalidShardCount {
		t.Errorf("expected %v, got %v", ErrInvalidShardCount, err)
	}
	if err := r.Reconstruct(make([][]byte, 13)); err != ErrShardNoData {
		t.Errorf("expected %v, got %v", ErrShardNoData, err)
	}
}

func TestVerify(t *testing.T) {
	perShard := 33333
	r, err := New(10, 4)
	if err != nil {
		t.Fatal(err)
	}
	shards := make([][]byte, 14)
	for s := range shards {
		shards[s] = make([]byte, perShard)
	}
	for s := 0; s < 10; s++ {
		fillRandom(shards[s])
	}
	if err := r.Encode(shards); err != nil {
		t.Fatal(err)
	}
	ok, err := r.Verify(shards)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("verification failed")
	}

	fillRandom(shards[10])
	ok, err = r.Verify(shards)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("verification did not fail")
	}

	if err := r.Encode(shards); err != nil {
		t.Fatal(err)
	}
	fillRandom(shards[0])
	ok, err = r.Verify(shards)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("verification did not fail")
	}

	if _, err := r.Verify(make([][]byte, 1)); err != ErrInvalidShardCount {
		t.Errorf("expected %v, got %v", ErrInvalidShardCount, err)
	}
	if _, err := r.Verify(make([][]byte, 14)); err != ErrShardNoData {
		t.Errorf("expected %v, got %v", ErrShardNoData, err)
	}
}

func TestVerifyWithTemp(t *testing.T) {
	r, err := New(6, 3)
	if err != nil {
		t.Fatal(err)
	}
	shards := make([][]byte, 9)
	for s := range shards {
		shards[s] = make([]byte, 4096)
	}
	for s := 0; s < 6; s++ {
		fillRandom(shards[s])
	}
	if err := r.Encode(shards); err != nil {
		t.Fatal(err)
	}

	temp := make([]byte, 4096)
	ok, err := r.VerifyWithTemp(shards, temp)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("verification with temp failed")
	}

	shards[7][10] ^= 0xFF
	ok, err = r.VerifyWithTemp(shards, temp)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("verification with temp did not detect corruption")
	}
}

// TestOneEncode exercises the systematic property (data shards survive
// Encode unchanged) and parity-check soundness (a single flipped byte is
// always caught) on a small concrete shard set.
func TestOneEncode(t *testing.T) {
	codec, err := New(5, 5)
	if err != nil {
		t.Fatal(err)
	}
	data := [][]byte{
		{0, 1},
		{4, 5},
		{2, 3},
		{6, 7},
		{8, 9},
	}
	shards := [][]byte{
		{0, 1},
		{4, 5},
		{2, 3},
		{6, 7},
		{8, 9},
		{0, 0},
		{0, 0},
		{0, 0},
		{0, 0},
		{0, 0},
	}
	if err := codec.Encode(shards); err != nil {
		t.Fatal(err)
	}
	for i := range data {
		if !bytes.Equal(shards[i], data[i]) {
			t.Fatalf("shard %d: data shard was modified by Encode", i)
		}
	}

	ok, err := codec.Verify(shards)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("did not verify")
	}
	shards[8][0]++
	ok, err = codec.Verify(shards)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("verify did not fail as expected")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		data, parity int
		err          error
	}{
		{127, 127, nil},
		{128, 128, nil},
		{255, 1, nil},
		{200, 100, ErrTooManyShards},
		{0, 1, ErrInvShardNum},
		{1, 0, ErrInvShardNum},
		{256, 1, ErrTooManyShards},
	}
	for _, test := range tests {
		_, err := New(test.data, test.parity)
		if err != test.err {
			t.Errorf("New(%v, %v): expected %v, got %v", test.data, test.parity, test.err, err)
		}
	}
}

// TestStandardMatrices exercises a grid of (data, parity) shard counts
// (data from 1 in steps of 17, parity from 1 in steps of 13) up to the
// 256-shard ceiling, reconstructing after removing one randomly chosen
// shard per parity slot. Runtime scales with the shard-count ceiling, so
// it's skipped in short mode.
func TestStandardMatrices(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow matrix check")
	}
	rng := rand.New(rand.NewSource(0))
	for i := 1; i < 256; i += 17 {
		for j := 1; j < 256-i; j += 13 {
			r, err := New(i, j)
			if err != nil {
				t.Fatalf("creating matrix size %d,%d: %v", i, j, err)
			}
			shards := make([][]byte, i+j)
			for s := range shards {
				shards[s] = []byte{byte(i)}
			}
			if err := r.Encode(shards); err != nil {
				t.Fatalf("encoding %d,%d: %v", i, j, err)
			}
			for k := 0; k < j; k++ {
				n := rng.Intn(i + j)
				shards[n] = shards[n][:0]
			}
			if err := r.Reconstruct(shards); err != nil {
				t.Fatalf("reconstructing %d,%d: %v", i, j, err)
			}
			ok, err := r.Verify(shards)
			if err != nil {
				t.Fatalf("verifying %d,%d: %v", i, j, err)
			}
			if !ok {
				t.Fatal(i, j, "did not verify")
			}
		}
	}
}

func TestEncoderReconstructSplitJoin(t *testing.T) {
	var data = make([]byte, 250000)
	fillRandom(data)

	enc, err := New(5, 3)
	if err != nil {
		t.Fatal(err)
	}
	shards, err := enc.Split(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(shards); err != nil {
		t.Fatal(err)
	}

	ok, err := enc.Verify(shards)
	if !ok || err != nil {
		t.Fatal("not ok:", ok, "err:", err)
	}

	shards[0] = nil
	if err := enc.Reconstruct(shards); err != nil {
		t.Fatal(err)
	}
	ok, err = enc.Verify(shards)
	if !ok || err != nil {
		t.Fatal("not ok:", ok, "err:", err)
	}

	out, err := enc.Join(shards, len(data))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("recovered bytes do not match")
	}

	// Corrupt a data shard in place without marking it missing: Verify
	// must report the set as inconsistent.
	shards[1][0], shards[1][500] = 75, 75
	ok, err = enc.Verify(shards)
	if ok || err != nil {
		t.Fatal("error or ok:", ok, "err:", err)
	}
}

func TestSplitJoin(t *testing.T) {
	var data = make([]byte, 250000)
	fillRandom(data)

	enc, _ := New(5, 3)
	shards, err := enc.Split(data)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := enc.Split([]byte{}); err != ErrShardNoData {
		t.Errorf("expected %v, got %v", ErrShardNoData, err)
	}

	out, err := enc.Join(shards, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data[:50]) {
		t.Fatal("recovered data does not match original")
	}

	if _, err := enc.Join([][]byte{}, 0); err != ErrTooFewShards {
		t.Errorf("expected %v, got %v", ErrTooFewShards, err)
	}

	if _, err := enc.Join(shards, len(data)+1); err != ErrInvalidRange {
		t.Errorf("expected %v, got %v", ErrInvalidRange, err)
	}

	shards[0] = nil
	if _, err := enc.Join(shards, len(data)); err != ErrTooFewShards {
		t.Errorf("expected %v, got %v", ErrTooFewShards, err)
	}
}

// TestEncodeVerifyReconstructRange covers the same end-to-end flow as
// TestEncoderReconstructSplitJoin, but restricted to a byte sub-range of
// each shard and encoded/verified/reconstructed in two halves, checking
// that the halves splice back together identically to an unrestricted
// Encode over the same data.
func TestEncodeVerifyReconstructRange(t *testing.T) {
	const perShard = 4096
	r, err := New(6, 3)
	if err != nil {
		t.Fatal(err)
	}

	whole := make([][]byte, 9)
	for s := range whole {
		whole[s] = make([]byte, perShard)
	}
	for s := 0; s < 6; s++ {
		fillRandom(whole[s])
	}
	if err := r.Encode(whole); err != nil {
		t.Fatal(err)
	}

	ranged := make([][]byte, 9)
	for s := range ranged {
		ranged[s] = make([]byte, perShard)
	}
	for s := 0; s < 6; s++ {
		copy(ranged[s], whole[s])
	}

	half := perShard / 2
	if err := r.EncodeRange(ranged, 0, half); err != nil {
		t.Fatal(err)
	}
	if err := r.EncodeRange(ranged, half, perShard-half); err != nil {
		t.Fatal(err)
	}
	for s := 6; s < 9; s++ {
		if !bytes.Equal(ranged[s], whole[s]) {
			t.Fatalf("shard %d: ranged encode does not match whole encode", s)
		}
	}

	okFirst, err := r.VerifyRange(ranged, 0, half)
	if err != nil {
		t.Fatal(err)
	}
	if !okFirst {
		t.Fatal("first half did not verify")
	}
	okSecond, err := r.VerifyRange(ranged, half, perShard-half)
	if err != nil {
		t.Fatal(err)
	}
	if !okSecond {
		t.Fatal("second half did not verify")
	}

	idx := 7
	missing := ranged[idx]
	ranged[idx] = nil
	if err := r.ReconstructRange(ranged, 0, half); err != nil {
		t.Fatal(err)
	}
	if err := r.ReconstructRange(ranged, half, perShard-half); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ranged[idx], missing) {
		t.Fatal("range reconstruction did not recover the missing shard")
	}
}

// TestRangeValidation checks that EncodeRange/VerifyRange/ReconstructRange
// reject negative offsets/byteCounts, out-of-bounds ranges, and an
// undersized temp buffer with ErrInvalidRange, as spec'd for the
// offset/byteCount parameters shared by the whole coding engine.
func TestRangeValidation(t *testing.T) {
	r, err := New(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	const perShard = 64
	shards := make([][]byte, 6)
	for s := range shards {
		shards[s] = make([]byte, perShard)
	}
	for s := 0; s < 4; s++ {
		fillRandom(shards[s])
	}
	if err := r.Encode(shards); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name      string
		offset    int
		byteCount int
		wantErr   error
	}{
		{"negative offset", -1, 10, ErrInvalidRange},
		{"negative byteCount", 0, -1, ErrInvalidRange},
		{"exceeds shard length", 0, perShard + 1, ErrInvalidRange},
		{"offset beyond shard", perShard + 1, 0, ErrInvalidRange},
		{"offset plus byteCount exceeds shard", 1, perShard, ErrInvalidRange},
		{"valid full range", 0, perShard, nil},
		{"valid empty range", 0, 0, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cp := make([][]byte, len(shards))
			for i, s := range shards {
				cp[i] = append([]byte(nil), s...)
			}

			if err := r.EncodeRange(cp, c.offset, c.byteCount); err != c.wantErr {
				t.Errorf("EncodeRange: expected %v, got %v", c.wantErr, err)
			}
			if _, err := r.VerifyRange(cp, c.offset, c.byteCount); err != c.wantErr {
				t.Errorf("VerifyRange: expected %v, got %v", c.wantErr, err)
			}

			missing := cp[0]
			cp[0] = nil
			rErr := r.ReconstructRange(cp, c.offset, c.byteCount)
			cp[0] = missing
			if rErr != c.wantErr {
				t.Errorf("ReconstructRange: expected %v, got %v", c.wantErr, rErr)
			}
		})
	}

	// A temp buffer shorter than offset+byteCount is also a RangeError,
	// even when offset/byteCount alone would be within the shard.
	temp := make([]byte, perShard/2)
	if _, err := r.verifyRange(shards, 0, perShard, temp); err != ErrInvalidRange {
		t.Errorf("expected %v, got %v", ErrInvalidRange, err)
	}
}

func TestCodeSomeShardsDirect(t *testing.T) {
	var data = make([]byte, 250000)
	fillRandom(data)
	enc, _ := New(5, 3)
	shards, _ := enc.Split(data)

	codeSomeShardsSplit(enc.loop, enc.parityRows, shards[:enc.dataShards], enc.dataShards, shards[enc.dataShards:], enc.parityShards, 0, len(shards[0]), enc.opts.maxGoroutines, enc.opts.minSplitSize)
	codeSomeShardsSplit(enc.loop, enc.parityRows, shards[:enc.dataShards], enc.dataShards, shards[enc.dataShards:], enc.parityShards, 0, len(shards[0]), 1, enc.opts.minSplitSize)
}

// Copyright 2024 The xorfilter Authors
// This file is part of the xorfilter library.
//
// The xorfilter library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The xorfilter library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the xorfilter library. If not, see <http://www.gnu.org/licenses/>.

package xorfilter

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/creadone/xorfilter/internal/xlog"
)

func randomKeys(n int, seed int64) []Key {
	r := rand.New(rand.NewSource(seed))
	out := make([]Key, n)
	seen := make(map[Key]bool, n)
	for i := 0; i < n; {
		buf := make([]byte, 16)
		r.Read(buf)
		k := Key(fmt.Sprintf("%x", buf))
		if seen[k] {
			continue
		}
		seen[k] = true
		out[i] = k
		i++
	}
	return out
}

func TestBuildEmptyKeySet(t *testing.T) {
	snap, err := build(nil, 8, defaultLoadFactor, xlog.New())
	if err != nil {
		t.Fatalf("build(nil) returned error: %v", err)
	}
	if snap.m != 0 {
		t.Fatalf("empty build should yield m=0, got %d", snap.m)
	}
	if snap.keys.Cardinality() != 0 {
		t.Fatalf("empty build should yield empty key set")
	}
}

func TestBuildSoundness(t *testing.T) {
	for _, n := range []int{1, 2, 5, 100, 5000} {
		keys := randomKeys(n, int64(n))
		snap, err := build(keys, 8, defaultLoadFactor, xlog.New())
		if err != nil {
			t.Fatalf("build(n=%d) failed: %v", n, err)
		}
		if !snap.satisfiesInvariant() {
			t.Fatalf("snapshot invariant violated for n=%d", n)
		}
		for _, k := range keys {
			if !snap.contains(k) {
				t.Fatalf("n=%d: key %q not found after build (false negative)", n, k)
			}
		}
	}
}

func TestBuildFalsePositiveRateBounded(t *testing.T) {
	const n = 20000
	const bits = 8
	keys := randomKeys(n, 1)
	snap, err := build(keys, bits, defaultLoadFactor, xlog.New())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	present := make(map[Key]bool, n)
	for _, k := range keys {
		present[k] = true
	}

	probes := randomKeys(n, 2)
	falsePositives := 0
	for _, p := range probes {
		if present[p] {
			continue
		}
		if snap.contains(p) {
			falsePositives++
		}
	}
	rate := float64(falsePositives) / float64(n)
	// 2^-8 ~= 0.0039; allow generous statistical slack.
	if rate > 0.02 {
		t.Fatalf("false positive rate too high: %v (%d/%d)", rate, falsePositives, n)
	}
}

func TestPeelToleratesCoincidentIndices(t *testing.T) {
	// A tiny table forces frequent index coincidences; build must still
	// either succeed with a sound table or retry/grow rather than produce
	// an unsound one.
	keys := randomKeys(10, 99)
	snap, err := build(keys, 8, 1.23, xlog.New())
	if err != nil {
		t.Fatalf("build with small key set failed: %v", err)
	}
	if !snap.satisfiesInvariant() {
		t.Fatalf("snapshot unsound despite successful build")
	}
}

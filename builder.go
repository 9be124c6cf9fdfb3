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
	"math"
	"math/rand"

	"github.com/creadone/xorfilter/internal/xlog"
)

const (
	defaultLoadFactor = 1.23

	// maxSeedAttempts bounds how many fresh seeds are tried at a given
	// table size before growing it.
	maxSeedAttempts = 10

	// growthFactor is applied to m after maxSeedAttempts consecutive
	// failures.
	growthFactor = 1.1

	// maxGrowthRounds is an implementation-defined cap on how many times m
	// may grow before build gives up with ErrBuildFailure. The spec allows
	// unbounded retry; in practice peeling at load factor 1.23 succeeds
	// within the first round with overwhelming probability, so this cap is
	// only ever hit on a malformed or adversarial key set.
	maxGrowthRounds = 64
)

// edge is a key's 3-hyperedge: the three (possibly coincident) table slots
// it touches.
type edge struct {
	i0, i1, i2 uint64
}

func (e edge) endpoints() [3]uint64 { return [3]uint64{e.i0, e.i1, e.i2} }

type peelStep struct {
	edgeIdx uint64
	vertex  uint64
}

// build constructs a snapshot from keys using bits-wide fingerprints and the
// given load factor. An empty key set returns the empty snapshot directly,
// with no build work.
func build(keys []Key, bits uint8, loadFactor float64, log xlog.Logger) (*snapshot, error) {
	n := uint64(len(keys))
	if n == 0 {
		return emptySnapshot(bits), nil
	}
	if loadFactor <= 0 {
		loadFactor = defaultLoadFactor
	}

	m := uint64(math.Ceil(float64(n) * loadFactor))
	if m < 1 {
		m = 1
	}

	for round := 0; round < maxGrowthRounds; round++ {
		for attempt := 0; attempt < maxSeedAttempts; attempt++ {
			seed := rand.Uint64()
			edges, order, ok := peel(keys, seed, m)
			if !ok {
				continue
			}
			table := assign(order, edges, keys, seed, bits, m)
			return newSnapshot(seed, bits, m, table, keySetFromSlice(keys)), nil
		}
		log.Debug("xor filter peel exhausted seed attempts, growing table",
			"n", n, "m", m, "round", round)
		m = uint64(math.Ceil(float64(m) * growthFactor))
	}
	return nil, fmt.Errorf("%w: exhausted %d growth rounds for %d keys", ErrBuildFailure, maxGrowthRounds, n)
}

// peel runs the 3-hypergraph peeling algorithm once, for a fixed seed and
// table size. It reports the edges derived from keys, the ordered peel log,
// and whether every key was peeled.
func peel(keys []Key, seed uint64, m uint64) ([]edge, []peelStep, bool) {
	n := uint64(len(keys))
	edges := make([]edge, n)
	count := make([]uint32, m)
	xorEdge := make([]uint64, m)

	for j, k := range keys {
		i0, i1, i2 := indices(k, seed, m)
		edges[j] = edge{i0, i1, i2}
		for _, v := range [3]uint64{i0, i1, i2} {
			count[v]++
			xorEdge[v] ^= uint64(j)
		}
	}

	queue := make([]uint64, 0, m)
	for v := uint64(0); v < m; v++ {
		if count[v] == 1 {
			queue = append(queue, v)
		}
	}

	order := make([]peelStep, 0, n)
	for len(queue) > 0 {
		v := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if count[v] != 1 {
			continue
		}
		e := xorEdge[v]
		order = append(order, peelStep{edgeIdx: e, vertex: v})

		for _, u := range edges[e].endpoints() {
			if count[u] == 0 {
				continue
			}
			count[u]--
			xorEdge[u] ^= e
			if count[u] == 1 {
				queue = append(queue, u)
			}
		}
		count[v] = 0
	}

	return edges, order, uint64(len(order)) == n
}

// assign runs the reverse pass, filling table so that every peeled key's
// XOR-over-its-three-slots equals its fingerprint.
func assign(order []peelStep, edges []edge, keys []Key, seed uint64, bits uint8, m uint64) []uint16 {
	mask := uint32(1)<<bits - 1
	table := make([]uint16, m)

	for i := len(order) - 1; i >= 0; i-- {
		step := order[i]
		e := edges[step.edgeIdx]

		var others [2]uint64
		removed := false
		oi := 0
		for _, x := range e.endpoints() {
			if !removed && x == step.vertex {
				removed = true
				continue
			}
			others[oi] = x
			oi++
		}

		f := fingerprint(keys[step.edgeIdx], seed) & mask
		table[step.vertex] = uint16(f ^ uint32(table[others[0]]) ^ uint32(table[others[1]]))
	}
	return table
}

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

import mapset "github.com/deckarep/golang-set"

// snapshot is the immutable bundle {seed, bits, table, key set} that readers
// consult. Once published via Filter.snap it is never mutated; rebuilds
// replace it wholesale.
type snapshot struct {
	seed  uint64
	bits  uint8
	mask  uint32
	m     uint64
	table []uint16 // m slots, each fitting in bits; packed as 16-bit words
	keys  mapset.Set
}

func emptySnapshot(bits uint8) *snapshot {
	return &snapshot{
		bits: bits,
		mask: uint32(1)<<bits - 1,
		keys: newKeySet(),
	}
}

func newSnapshot(seed uint64, bits uint8, m uint64, table []uint16, keys mapset.Set) *snapshot {
	return &snapshot{
		seed:  seed,
		bits:  bits,
		mask:  uint32(1)<<bits - 1,
		m:     m,
		table: table,
		keys:  keys,
	}
}

// contains evaluates the snapshot invariant equation directly; it does not
// consult any overlay.
func (s *snapshot) contains(k Key) bool {
	if s.m == 0 {
		return false
	}
	f := fingerprint(k, s.seed) & s.mask
	i0, i1, i2 := indices(k, s.seed, s.m)
	got := uint32(s.table[i0]) ^ uint32(s.table[i1]) ^ uint32(s.table[i2])
	return got == f
}

// satisfiesInvariant reports whether every key in s.keys satisfies the
// snapshot correctness equation; used by tests (property: snapshot
// soundness) rather than by any runtime path.
func (s *snapshot) satisfiesInvariant() bool {
	ok := true
	s.keys.Each(func(e interface{}) bool {
		if !s.contains(e.(Key)) {
			ok = false
			return true
		}
		return false
	})
	return ok
}

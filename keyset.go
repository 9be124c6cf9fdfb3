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
	"sort"

	mapset "github.com/deckarep/golang-set"
)

// newKeySet builds a thread-unsafe set: every published keySet is frozen
// before a reader can observe it, so the internal locking golang-set's
// thread-safe variant would otherwise do is pure overhead here.
func newKeySet() mapset.Set {
	return mapset.NewThreadUnsafeSet()
}

func keySetFromSlice(keys []Key) mapset.Set {
	s := newKeySet()
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

func cloneKeySet(s mapset.Set) mapset.Set {
	return s.Clone()
}

// keySlice drains a set into a []Key, sorted for deterministic iteration
// (builder input order and codec output both benefit from this: neither
// depends on golang-set's internal map iteration order).
func keySlice(s mapset.Set) []Key {
	raw := s.ToSlice()
	out := make([]Key, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(Key))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

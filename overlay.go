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

const (
	// rebuildRatio (R) and minRebuildThreshold together define the
	// rebuild policy: pending mutations trigger a rebuild once they reach
	// max(minRebuildThreshold, ceil(len(snapshot.keys) * rebuildRatio)).
	rebuildRatio        = 0.1
	minRebuildThreshold = 1000
)

// overlay is the mutable layer of pending additions and removals over a
// snapshot. Like snapshot, it is replaced wholesale on every mutation; a
// published overlay is never touched again.
type overlay struct {
	adds    mapset.Set
	removes mapset.Set
}

func emptyOverlay() *overlay {
	return &overlay{adds: newKeySet(), removes: newKeySet()}
}

func (o *overlay) clone() *overlay {
	return &overlay{adds: cloneKeySet(o.adds), removes: cloneKeySet(o.removes)}
}

func (o *overlay) pendingCount() int {
	return o.adds.Cardinality() + o.removes.Cardinality()
}

// rebuildThreshold computes the pending-mutation count at which the policy
// in maybeRebuildLocked triggers, given the current snapshot's key count.
func rebuildThreshold(snapshotKeyCount int) int {
	t := int(ceilRatio(snapshotKeyCount, rebuildRatio))
	if t < minRebuildThreshold {
		return minRebuildThreshold
	}
	return t
}

func ceilRatio(n int, r float64) int {
	v := float64(n) * r
	i := int(v)
	if float64(i) < v {
		i++
	}
	return i
}

// applyAdd mutates o in place per the add() decision table, consulting the
// immutable snap for the "already in snapshot.keys" branch. It is shared by
// the singular Add and the batched AddAll so both preserve the same
// per-key decisions.
func applyAdd(snap *snapshot, o *overlay, k Key) bool {
	if snap.keys.Contains(k) {
		if o.removes.Contains(k) {
			o.removes.Remove(k)
		}
		return false
	}
	if o.adds.Contains(k) {
		return false
	}
	o.adds.Add(k)
	return true
}

// applyRemove mutates o in place per the remove() decision table.
func applyRemove(snap *snapshot, o *overlay, k Key) bool {
	if o.adds.Contains(k) {
		o.adds.Remove(k)
		return true
	}
	if snap.keys.Contains(k) && !o.removes.Contains(k) {
		o.removes.Add(k)
		return true
	}
	return false
}

// validateInvariants checks the three overlay invariants (§3) against a
// snapshot's key set: pending_adds and pending_removes are disjoint,
// pending_adds shares nothing with snapshot.keys, and pending_removes is a
// subset of snapshot.keys.
func validateInvariants(snap *snapshot, o *overlay) error {
	if o.adds.Intersect(o.removes).Cardinality() != 0 {
		return ErrCorruptData
	}
	if o.adds.Intersect(snap.keys).Cardinality() != 0 {
		return ErrCorruptData
	}
	if !o.removes.IsSubset(snap.keys) {
		return ErrCorruptData
	}
	return nil
}

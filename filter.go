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
	"sync"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"

	"github.com/creadone/xorfilter/internal/xlog"
)

// Filter is a concurrent-safe, dynamically-updatable XOR membership filter.
// Reads (Contains, Size) never block. Writes (Add, Remove, AddAll,
// RemoveAll, Compact) are serialized by a single writer lock; the current
// snapshot and overlay are published behind atomic pointers so a reader in
// flight always observes one complete, self-consistent state.
type Filter struct {
	writeMu sync.Mutex

	snap atomic.Pointer[snapshot]
	ovl  atomic.Pointer[overlay]

	bits        uint8
	loadFactor  float64
	autoRebuild bool

	log xlog.Logger
}

// Option configures a Filter at construction time.
type Option func(*Filter)

// WithFingerprintBits sets the fingerprint width in [4, 16]. Default 8.
func WithFingerprintBits(bits uint8) Option {
	return func(f *Filter) { f.bits = bits }
}

// WithLoadFactor sets the builder's table-to-key ratio. Default 1.23.
func WithLoadFactor(loadFactor float64) Option {
	return func(f *Filter) { f.loadFactor = loadFactor }
}

// WithAutoRebuild enables or disables automatic rebuilds once pending
// mutations cross the rebuild threshold. Default true.
func WithAutoRebuild(enabled bool) Option {
	return func(f *Filter) { f.autoRebuild = enabled }
}

// New constructs a Filter. With no initial values, capacity is 0 and the
// result is the empty snapshot with no build work; with initial values, a
// snapshot is built from them immediately.
func New(initial []Value, opts ...Option) (*Filter, error) {
	f := &Filter{
		bits:        8,
		loadFactor:  defaultLoadFactor,
		autoRebuild: true,
		log:         xlog.New("component", "xorfilter"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.bits < 4 || f.bits > 16 {
		return nil, fmt.Errorf("%w: fingerprint_bits must be in [4, 16], got %d", ErrInvalidArgument, f.bits)
	}
	if f.loadFactor <= 0 {
		return nil, fmt.Errorf("%w: load_factor must be positive, got %v", ErrInvalidArgument, f.loadFactor)
	}

	keys := make([]Key, 0, len(initial))
	for _, v := range initial {
		keys = append(keys, Canonicalize(v))
	}
	snap, err := build(keys, f.bits, f.loadFactor, f.log)
	if err != nil {
		return nil, err
	}
	f.snap.Store(snap)
	f.ovl.Store(emptyOverlay())
	return f, nil
}

// Contains reports whether value might be in the set. It consults the
// overlay first (exact for pending state), then the snapshot (bounded
// false-positive rate). It never takes the writer lock.
func (f *Filter) Contains(value Value) bool {
	k := Canonicalize(value)
	ovl := f.ovl.Load()
	if ovl.adds.Contains(k) {
		return true
	}
	if ovl.removes.Contains(k) {
		return false
	}
	return f.snap.Load().contains(k)
}

// Size returns the effective set's cardinality. Readable without the
// writer lock; the scalar returned is always non-negative under the
// overlay invariants even if snap and ovl were read from slightly
// different instants.
func (f *Filter) Size() int {
	snap := f.snap.Load()
	ovl := f.ovl.Load()
	return snap.keys.Cardinality() + ovl.adds.Cardinality() - ovl.removes.Cardinality()
}

// Add inserts value into the effective set, returning true iff value was
// newly recorded as a pending add. Adding a snapshot key whose removal is
// pending cancels that removal and returns false.
func (f *Filter) Add(value Value) bool {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	k := Canonicalize(value)
	snap := f.snap.Load()
	working := f.ovl.Load().clone()

	added := applyAdd(snap, working, k)
	f.ovl.Store(working)
	if added {
		f.maybeRebuildLocked()
	}
	return added
}

// Remove deletes value from the effective set, returning true iff doing so
// changed it.
func (f *Filter) Remove(value Value) bool {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	k := Canonicalize(value)
	snap := f.snap.Load()
	working := f.ovl.Load().clone()

	removed := applyRemove(snap, working, k)
	f.ovl.Store(working)
	if removed {
		f.maybeRebuildLocked()
	}
	return removed
}

// AddAll inserts values as a batch: a single overlay copy absorbs every
// per-key decision, is published once, and the rebuild policy runs once at
// the end. Per-key decisions match what the singular Add would have
// returned had it been called in sequence.
func (f *Filter) AddAll(values []Value) []bool {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	snap := f.snap.Load()
	working := f.ovl.Load().clone()

	results := make([]bool, len(values))
	for i, v := range values {
		results[i] = applyAdd(snap, working, Canonicalize(v))
	}
	f.ovl.Store(working)
	f.maybeRebuildLocked()
	return results
}

// RemoveAll deletes values as a batch, with the same single-publish,
// single-rebuild-check discipline as AddAll.
func (f *Filter) RemoveAll(values []Value) []bool {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	snap := f.snap.Load()
	working := f.ovl.Load().clone()

	results := make([]bool, len(values))
	for i, v := range values {
		results[i] = applyRemove(snap, working, Canonicalize(v))
	}
	f.ovl.Store(working)
	f.maybeRebuildLocked()
	return results
}

// Compact forces a rebuild regardless of the pending-mutation threshold.
// With an empty overlay the current snapshot already holds the effective
// set and is kept as is, so repeated Compact calls leave Contains unchanged.
func (f *Filter) Compact() error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if f.ovl.Load().pendingCount() == 0 {
		return nil
	}
	return f.rebuildLocked()
}

// maybeRebuildLocked runs the rebuild policy. Callers must hold writeMu.
func (f *Filter) maybeRebuildLocked() {
	if !f.autoRebuild {
		return
	}
	snap := f.snap.Load()
	ovl := f.ovl.Load()
	if ovl.pendingCount() >= rebuildThreshold(snap.keys.Cardinality()) {
		if err := f.rebuildLocked(); err != nil {
			f.log.Warn("xor filter automatic rebuild failed, pending overlay left in place", "err", err)
		}
	}
}

// rebuildLocked folds the current overlay into a fresh snapshot. Callers
// must hold writeMu. The new snapshot is published before the overlay is
// cleared: a reader that observes the cleared overlay necessarily also
// observes the new snapshot (see atomic.Pointer's release/acquire
// semantics under the Go memory model).
func (f *Filter) rebuildLocked() error {
	snap := f.snap.Load()
	ovl := f.ovl.Load()

	newKeys := cloneKeySet(snap.keys)
	newKeys = newKeys.Union(ovl.adds)
	newKeys = newKeys.Difference(ovl.removes)

	newSnap, err := build(keySlice(newKeys), f.bits, f.loadFactor, f.log)
	if err != nil {
		return err
	}
	f.log.Info("xor filter rebuilt", "keys", newSnap.keys.Cardinality(), "slots", newSnap.m)
	f.snap.Store(newSnap)
	f.ovl.Store(emptyOverlay())
	return nil
}

// Dump renders the filter's internal state for debugging. It is not part
// of the persisted format and carries no stability guarantee across
// versions.
func (f *Filter) Dump() string {
	snap := f.snap.Load()
	ovl := f.ovl.Load()
	return spew.Sdump(struct {
		Seed           uint64
		FingerprintBit uint8
		TableSlots     uint64
		SnapshotKeys   int
		PendingAdds    int
		PendingRemoves int
	}{
		Seed:           snap.seed,
		FingerprintBit: snap.bits,
		TableSlots:     snap.m,
		SnapshotKeys:   snap.keys.Cardinality(),
		PendingAdds:    ovl.adds.Cardinality(),
		PendingRemoves: ovl.removes.Cardinality(),
	})
}

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
	"testing"
)

func TestScenarioFreshAdd(t *testing.T) {
	f, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Contains("a") {
		t.Fatalf("fresh filter should not contain \"a\"")
	}
	if !f.Add("a") {
		t.Fatalf("Add(\"a\") on a fresh filter should return true")
	}
	if !f.Contains("a") {
		t.Fatalf("Contains(\"a\") should be true after Add")
	}
}

func TestScenarioAddThenRemove(t *testing.T) {
	f, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.Add("a")
	if !f.Contains("a") {
		t.Fatalf("expected \"a\" present after Add")
	}
	if !f.Remove("a") {
		t.Fatalf("Remove(\"a\") should return true")
	}
	if f.Contains("a") {
		t.Fatalf("\"a\" should be gone after Remove")
	}
}

func TestScenarioAddAllRemoveAll(t *testing.T) {
	f, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.AddAll([]Value{"a", "b", "c", "d"})
	for _, k := range []string{"a", "b", "c", "d"} {
		if !f.Contains(k) {
			t.Fatalf("expected %q present after AddAll", k)
		}
	}
	f.RemoveAll([]Value{"b", "d"})
	want := map[string]bool{"a": true, "b": false, "c": true, "d": false}
	for k, exp := range want {
		if got := f.Contains(k); got != exp {
			t.Fatalf("Contains(%q) = %v, want %v", k, got, exp)
		}
	}
}

func TestScenarioManualCompact(t *testing.T) {
	f, err := New(nil, WithAutoRebuild(false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.AddAll([]Value{"a", "b", "c"})
	for _, k := range []string{"a", "b", "c"} {
		if !f.Contains(k) {
			t.Fatalf("expected %q present via overlay before compact", k)
		}
	}
	if err := f.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if !f.Contains(k) {
			t.Fatalf("expected %q present after compact", k)
		}
	}
	if got := f.Size(); got != 3 {
		t.Fatalf("Size() = %d, want 3", got)
	}
	ovl := f.ovl.Load()
	if ovl.adds.Cardinality() != 0 || ovl.removes.Cardinality() != 0 {
		t.Fatalf("overlay should be empty after compact")
	}
}

func TestScenarioSaveLoadRoundTrip(t *testing.T) {
	f, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.AddAll([]Value{"a", "b", "c"})

	path := t.TempDir() + "/filter.bin"
	if err := f.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if !loaded.Contains(k) {
			t.Fatalf("loaded filter missing %q", k)
		}
	}
	if loaded.Contains("z") {
		t.Fatalf("loaded filter should not contain \"z\"")
	}
}

func TestInvalidFingerprintBitsRejected(t *testing.T) {
	if _, err := New(nil, WithFingerprintBits(3)); err == nil {
		t.Fatalf("expected error for fingerprint_bits=3")
	}
	if _, err := New(nil, WithFingerprintBits(17)); err == nil {
		t.Fatalf("expected error for fingerprint_bits=17")
	}
}

func TestAddRemoveIdempotence(t *testing.T) {
	f, _ := New(nil)
	f.Add("x")
	if f.Add("x") {
		t.Fatalf("second Add of an already-pending key should return false")
	}
	f.Remove("x")
	if f.Remove("x") {
		t.Fatalf("second Remove of an already-absent key should return false")
	}
}

func TestCompactIdempotent(t *testing.T) {
	f, _ := New(nil)
	f.AddAll([]Value{"a", "b", "c"})
	if err := f.Compact(); err != nil {
		t.Fatalf("first Compact: %v", err)
	}
	before := map[string]bool{}
	for _, k := range []string{"a", "b", "c", "z"} {
		before[k] = f.Contains(k)
	}
	if err := f.Compact(); err != nil {
		t.Fatalf("second Compact: %v", err)
	}
	for _, k := range []string{"a", "b", "c", "z"} {
		if f.Contains(k) != before[k] {
			t.Fatalf("Contains(%q) changed across idempotent Compact calls", k)
		}
	}
}

func TestOverlayInvariantsHoldAfterMutation(t *testing.T) {
	f, _ := New([]Value{"a", "b", "c"})
	f.Remove("b")
	f.Add("d")
	f.Add("b") // cancels the pending removal

	snap := f.snap.Load()
	ovl := f.ovl.Load()
	if err := validateInvariants(snap, ovl); err != nil {
		t.Fatalf("overlay invariants violated: %v", err)
	}
	if ovl.removes.Contains(Key("b")) {
		t.Fatalf("re-adding a pending removal should cancel it")
	}
	if !f.Contains("b") {
		t.Fatalf("\"b\" should be present again")
	}
}

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

// Package xorfilter implements an approximate membership filter over an
// immutable XOR-filter snapshot built by 3-hypergraph peeling, with a
// dynamic overlay of pending adds/removes layered on top and rebuilt once
// enough pending mutations accumulate.
//
// Reads (Contains, Size) never block: the current snapshot and overlay are
// published behind atomic pointers, and a single writer lock serializes
// Add, Remove, AddAll, RemoveAll and Compact.
package xorfilter

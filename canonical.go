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

import "fmt"

// Key is the canonical byte identity a value is reduced to before it ever
// reaches a hash or a set. Two values that canonicalize to the same Key are
// indistinguishable to the filter.
type Key string

// Value is anything a caller may pass to Add, Remove or Contains.
type Value = interface{}

// Canonicalize reduces v to its canonical Key: byte-typed values (Key,
// string, []byte) are used verbatim, fmt.Stringer values use String(), and
// everything else is rendered through its default fmt representation. This
// is the sole identity used throughout the filter.
func Canonicalize(v Value) Key {
	switch t := v.(type) {
	case Key:
		return t
	case string:
		return Key(t)
	case []byte:
		return Key(t)
	case fmt.Stringer:
		return Key(t.String())
	default:
		return Key(fmt.Sprint(v))
	}
}

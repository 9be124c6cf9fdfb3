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

import "errors"

// Error kinds surfaced by this package. Callers should use errors.Is against
// these sentinels rather than matching error strings.
var (
	// ErrInvalidArgument is returned when a constructor parameter is out of
	// its documented range (e.g. fingerprint_bits outside [4, 16]).
	ErrInvalidArgument = errors.New("xorfilter: invalid argument")

	// ErrBuildFailure is returned when the static builder exhausts its
	// implementation-defined retry/growth budget without a successful peel.
	ErrBuildFailure = errors.New("xorfilter: build failure")

	// ErrIOError wraps failures from the underlying file system during
	// Save/Load.
	ErrIOError = errors.New("xorfilter: io error")

	// ErrInvalidFormat is returned by Load when the file's magic bytes
	// don't match.
	ErrInvalidFormat = errors.New("xorfilter: invalid format")

	// ErrUnsupportedVersion is returned by Load when the file's
	// format_version field is not one this package knows how to decode.
	ErrUnsupportedVersion = errors.New("xorfilter: unsupported format version")

	// ErrCorruptData is returned by Load on a short read, a malformed blob,
	// or a decoded overlay whose invariants don't hold against the decoded
	// snapshot's key set.
	ErrCorruptData = errors.New("xorfilter: corrupt data")
)

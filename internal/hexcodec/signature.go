// Copyright 2025 Emiliano Spinella (eminwux)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package hexcodec implements the dump/patch line format that is
// authoritative for both the hex formatter and the hex parser: a
// 12-digit offset, a 4-digit length, and a `|`-delimited array and
// mosaic, laid out so the hot loop stays a lookup and a store.
package hexcodec

import "github.com/bsed-project/bsed/internal/errdefs"

// Signature selects one of the four accepted format signatures.
type Signature int

const (
	// B is raw bytes, no envelope.
	B Signature = iota
	// NNB is accepted on input and treated exactly like B.
	NNB
	// X is offset-prefixed records; parsing treats offsets as authoritative.
	X
	// NNX is records with offsets ignored; arrays are concatenated.
	NNX
)

func (s Signature) String() string {
	switch s {
	case B:
		return "b"
	case NNB:
		return "nnb"
	case X:
		return "x"
	case NNX:
		return "nnx"
	default:
		return "?"
	}
}

// IsRaw reports whether the signature carries no line envelope.
func (s Signature) IsRaw() bool { return s == B || s == NNB }

// IsRecord reports whether the signature is the offset/length record form.
func (s Signature) IsRecord() bool { return s == X || s == NNX }

// ParseSignature validates a -F/-f format signature argument. Two-letter
// combinations other than nnb/nnx and anything else are invalid.
func ParseSignature(s string) (Signature, error) {
	switch s {
	case "b":
		return B, nil
	case "nnb":
		return NNB, nil
	case "x":
		return X, nil
	case "nnx":
		return NNX, nil
	default:
		return 0, errdefs.Newf(errdefs.KindARG, errdefs.ErrBadFormatSignature, s)
	}
}

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

package stream

import (
	"bytes"
	"errors"
	"io"

	"github.com/bsed-project/bsed/internal/errdefs"
)

// IsStdin reports whether name denotes the standard input stream.
func IsStdin(name string) bool {
	return name == "-" || name == "/dev/stdin"
}

// StdinGuard enforces that at most one of the stdin-consuming options
// (inputs, --patch, --guide) claims "-"/"/dev/stdin", across the whole
// invocation.
type StdinGuard struct {
	claimed bool
}

// Claim registers name's use of stdin, if any. It is idempotent for
// non-stdin names.
func (g *StdinGuard) Claim(name string) error {
	if !IsStdin(name) {
		return nil
	}
	if g.claimed {
		return errdefs.New(errdefs.KindSEMANTIC, errdefs.ErrDuplicateStdin)
	}
	g.claimed = true
	return nil
}

// Dedup returns names with duplicates removed, first occurrence order
// preserved. Used for --inplace's file list.
func Dedup(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// catReader concatenates srcs in order, padding each source's tail with
// filler so its length is a multiple of n (n == 1 means no padding).
type catReader struct {
	srcs   []io.Reader
	n      int
	filler byte

	idx          int
	bytesThisSrc int64
	padRemaining int
}

// Cat builds the Stage-1 `cat N` reader.
func Cat(srcs []io.Reader, n int, filler byte) io.Reader {
	return &catReader{srcs: srcs, n: n, filler: filler}
}

func (c *catReader) Read(p []byte) (int, error) {
	for {
		if c.padRemaining > 0 {
			k := len(p)
			if k > c.padRemaining {
				k = c.padRemaining
			}
			for i := 0; i < k; i++ {
				p[i] = c.filler
			}
			c.padRemaining -= k
			return k, nil
		}
		if c.idx >= len(c.srcs) {
			return 0, io.EOF
		}

		n, err := c.srcs[c.idx].Read(p)
		c.bytesThisSrc += int64(n)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}

		// Source exhausted: queue its tail padding, advance.
		if c.n > 1 {
			if rem := int(c.bytesThisSrc % int64(c.n)); rem != 0 {
				c.padRemaining = c.n - rem
			}
		}
		c.bytesThisSrc = 0
		c.idx++
	}
}

// zipReader reads n bytes round-robin from each source; an exhausted
// source contributes n filler bytes per round until every source is
// exhausted.
type zipReader struct {
	srcs      []io.Reader
	n         int
	filler    byte
	exhausted []bool
	pending   bytes.Buffer
	done      bool
}

// Zip builds the Stage-1 `zip N` reader.
func Zip(srcs []io.Reader, n int, filler byte) io.Reader {
	return &zipReader{srcs: srcs, n: n, exhausted: make([]bool, len(srcs)), filler: filler}
}

func (z *zipReader) Read(p []byte) (int, error) {
	for z.pending.Len() == 0 {
		if z.done {
			return 0, io.EOF
		}
		if err := z.fillRound(); err != nil {
			return 0, err
		}
	}
	return z.pending.Read(p)
}

// fillRound reads one full round into pending. A round in which every
// source turns out to be exhausted contributes nothing: the stream ends
// with the last round that carried at least one real byte.
func (z *zipReader) fillRound() error {
	allExhausted := true
	for _, ex := range z.exhausted {
		if !ex {
			allExhausted = false
			break
		}
	}
	if allExhausted {
		z.done = true
		return nil
	}

	var round bytes.Buffer
	buf := make([]byte, z.n)
	sawBytes := false
	for i, s := range z.srcs {
		if z.exhausted[i] {
			writeFiller(&round, z.n, z.filler)
			continue
		}
		nn, err := io.ReadFull(s, buf)
		switch {
		case err == nil:
			round.Write(buf[:nn])
			sawBytes = true
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			round.Write(buf[:nn])
			writeFiller(&round, z.n-nn, z.filler)
			z.exhausted[i] = true
			sawBytes = sawBytes || nn > 0
		default:
			return err
		}
	}
	if !sawBytes {
		z.done = true
		return nil
	}
	z.pending.Write(round.Bytes())
	return nil
}

func writeFiller(dst *bytes.Buffer, n int, filler byte) {
	for i := 0; i < n; i++ {
		dst.WriteByte(filler)
	}
}

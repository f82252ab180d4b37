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

package hexcodec

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/bsed-project/bsed/internal/errdefs"
)

// Record is one parsed dump/patch line: the bytes [Offset, Offset+Length)
// of the target are replaced by Payload. HasArray reports whether the
// line had a `|` array section; it is false only for the truncated
// "OFFSET LENGTH" form. Both that form and an empty array section are
// deletions with len(Payload) == 0.
type Record struct {
	Offset   uint64
	Length   uint64
	Payload  []byte
	HasArray bool
}

// RecordScanner reads Records line by line from the dump/patch text
// format shared by --patch, --guide, and x/nnx input.
type RecordScanner struct {
	sc  *bufio.Scanner
	lno int
}

// NewRecordScanner wraps r for line-by-line Record parsing.
func NewRecordScanner(r io.Reader) *RecordScanner {
	return &RecordScanner{sc: bufio.NewScanner(r)}
}

// Next returns the next Record. ok is false once the input is exhausted;
// blank lines are skipped transparently.
func (s *RecordScanner) Next() (rec Record, ok bool, err error) {
	for s.sc.Scan() {
		s.lno++
		line := s.sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err = parseLine(line)
		if err != nil {
			return Record{}, false, err
		}
		return rec, true, nil
	}
	if err := s.sc.Err(); err != nil {
		return Record{}, false, errdefs.New(errdefs.KindIO, err)
	}
	return Record{}, false, nil
}

// lineScanner is a tiny hand-rolled cursor over one record line; hex
// tokens are validated a rune at a time so the hot path stays a
// class-check and a store.
type lineScanner struct {
	s   string
	pos int
}

func (l *lineScanner) skipSpace() {
	for l.pos < len(l.s) && (l.s[l.pos] == ' ' || l.s[l.pos] == '\t') {
		l.pos++
	}
}

func (l *lineScanner) eof() bool { return l.pos >= len(l.s) }

func (l *lineScanner) peek() byte {
	if l.eof() {
		return 0
	}
	return l.s[l.pos]
}

func isHexByte(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (l *lineScanner) readHexRun() string {
	start := l.pos
	for l.pos < len(l.s) && isHexByte(l.s[l.pos]) {
		l.pos++
	}
	return l.s[start:l.pos]
}

func parseHexField(tok string) (uint64, error) {
	if len(tok) == 0 {
		return 0, errdefs.New(errdefs.KindFORMAT, errdefs.ErrBadHexDigit)
	}
	if len(tok) >= 16 {
		return 0, errdefs.New(errdefs.KindFORMAT, errdefs.ErrHexDigitTooLong)
	}
	v, err := strconv.ParseUint(tok, 16, 64)
	if err != nil {
		return 0, errdefs.New(errdefs.KindFORMAT, errdefs.ErrBadHexDigit)
	}
	return v, nil
}

func parseLine(line string) (Record, error) {
	l := &lineScanner{s: line}

	l.skipSpace()
	offTok := l.readHexRun()
	off, err := parseHexField(offTok)
	if err != nil {
		return Record{}, err
	}

	l.skipSpace()
	lenTok := l.readHexRun()
	length, err := parseHexField(lenTok)
	if err != nil {
		return Record{}, err
	}

	l.skipSpace()
	if l.eof() {
		// "OFFSET LENGTH" with nothing else: deletion.
		return Record{Offset: off, Length: length}, nil
	}
	if l.peek() != '|' {
		return Record{}, errdefs.New(errdefs.KindFORMAT, errdefs.ErrTruncatedRecord)
	}
	l.pos++ // consume first '|'

	l.skipSpace()
	if l.eof() || l.peek() == '|' {
		// array section present but empty: also a deletion.
		return Record{Offset: off, Length: length, HasArray: true}, nil
	}

	var payload []byte
	for {
		l.skipSpace()
		if l.eof() || l.peek() == '|' {
			break
		}
		tokStart := l.pos
		for l.pos < len(l.s) && l.s[l.pos] != ' ' && l.s[l.pos] != '\t' && l.s[l.pos] != '|' {
			l.pos++
		}
		tok := l.s[tokStart:l.pos]
		if len(tok) != 2 {
			return Record{}, errdefs.New(errdefs.KindFORMAT, errdefs.ErrOddHexToken)
		}
		if !isHexByte(tok[0]) || !isHexByte(tok[1]) {
			return Record{}, errdefs.New(errdefs.KindFORMAT, errdefs.ErrBadHexDigit)
		}
		b, _ := strconv.ParseUint(tok, 16, 8)
		payload = append(payload, byte(b))
	}

	// Whatever follows (a second '|' and the mosaic, or nothing) is
	// discarded; the mosaic is advisory only.
	return Record{Offset: off, Length: length, Payload: payload, HasArray: true}, nil
}

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

package drain

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/bsed-project/bsed/internal/errdefs"
	"github.com/bsed-project/bsed/internal/hexcodec"
	"github.com/bsed-project/bsed/internal/patch"
	"github.com/bsed-project/bsed/internal/slicer"
	"github.com/bsed-project/bsed/internal/stream"
	"golang.org/x/sync/errgroup"
)

// Run spawns cmdline, feeds it the formatted slices over its stdin using
// sig/width, concurrently drains its stdout as a patch stream (one
// pump goroutine per direction), then applies the resulting patches
// against the spooled Stage-2 bytes and writes the result to dst.
func Run(cmdline string, cache *stream.Spool, slices []slicer.Slice, sig hexcodec.Signature, width int, dst io.Writer) error {
	parts := strings.Fields(cmdline)
	if len(parts) == 0 {
		return errdefs.New(errdefs.KindARG, errdefs.ErrInvalidFlag)
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}
	if err := cmd.Start(); err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}

	g := new(errgroup.Group)
	var records []patch.Record

	g.Go(func() error {
		defer stdin.Close()
		w := bufio.NewWriter(stdin)
		formatter := hexcodec.NewFormatter(sig, width)
		buf := make([]byte, 0, width)
		for _, s := range slices {
			s = s.Clamp(cache.Size())
			if cap(buf) < int(s.Len()) {
				buf = make([]byte, s.Len())
			}
			buf = buf[:s.Len()]
			if _, err := cache.ReadAt(buf, s.Start); err != nil {
				return err
			}
			if err := formatter.WriteLine(w, uint64(s.Start), buf); err != nil {
				return errdefs.New(errdefs.KindIO, err)
			}
		}
		return w.Flush()
	})

	g.Go(func() error {
		recs, err := patch.LoadSorted(stdout)
		if err != nil {
			return err
		}
		records = recs
		return nil
	})

	if err := g.Wait(); err != nil {
		_ = cmd.Wait()
		return err
	}
	if err := cmd.Wait(); err != nil {
		return errdefs.New(errdefs.KindIO, err)
	}

	return patch.Apply(dst, cache.Reader(), records)
}

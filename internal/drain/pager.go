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
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/bsed-project/bsed/internal/errdefs"
	"golang.org/x/term"
)

// DefaultPager is used when neither --pager nor $PAGER is set.
const DefaultPager = "less -S -F -X"

// SelectPager resolves the pager command by precedence: --pager flag >
// $PAGER env > DefaultPager.
func SelectPager(flagVal, envVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if envVal != "" {
		return envVal
	}
	return DefaultPager
}

// ShouldPage reports whether drain output should be piped through a
// pager: stdout is the drain target and stdout is a terminal. inplace
// mode never pages.
func ShouldPage(isOutputStdout, inplace bool) bool {
	if inplace || !isOutputStdout {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Pager wraps a spawned pager process; writes to Stdin are forwarded to
// the pager, which inherits the real stdout.
type Pager struct {
	cmd   *exec.Cmd
	Stdin io.WriteCloser
}

// StartPager spawns cmdline (split on whitespace, no shell involved) with
// its stdout/stderr attached to the real terminal.
func StartPager(cmdline string) (*Pager, error) {
	parts := strings.Fields(cmdline)
	if len(parts) == 0 {
		return nil, errdefs.New(errdefs.KindARG, errdefs.ErrInvalidFlag)
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errdefs.New(errdefs.KindIO, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, errdefs.New(errdefs.KindIO, err)
	}
	return &Pager{cmd: cmd, Stdin: stdin}, nil
}

// Wait closes the pager's stdin and waits for it to exit. A pager that
// exits before reading all input (broken pipe) is treated as clean
// termination, not propagated as an error.
func (p *Pager) Wait() error {
	_ = p.Stdin.Close()
	if err := p.cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return errdefs.New(errdefs.KindIO, err)
	}
	return nil
}

/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package vcs

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	liblog "github.com/hashdist/sourcecache/logger"
)

// runner invokes the git binary against one bare mirror directory (passed as
// GIT_DIR so the subprocess never needs a working tree).
type runner struct {
	gitDir string
	log    liblog.Logger
}

func (r *runner) env() []string {
	return append(os.Environ(), "GIT_DIR="+r.gitDir)
}

func (r *runner) logDebug(args []string) {
	if r.log != nil {
		r.log.Debug("running git command", nil, "args", args, "gitDir", r.gitDir)
	}
}

// run executes git with args and returns its combined stdout+stderr.
// A non-zero exit becomes ErrorExternalToolFailure.
func (r *runner) run(ctx context.Context, args ...string) (string, error) {
	r.logDebug(args)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = r.env()

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return out.String(), ErrorExternalToolFailure.Error(err)
	}

	return out.String(), nil
}

// runSilent is run without capturing output, used for the in-use marker
// and bare-init steps whose output carries no information the caller needs.
func (r *runner) runSilent(ctx context.Context, args ...string) error {
	_, err := r.run(ctx, args...)
	return err
}

// runInteractive executes git with the controlling terminal attached so an
// upstream credential prompt reaches the caller. Used only for the
// resolved-rev fetch path, which is the one step the spec allows to be
// interactive.
func (r *runner) runInteractive(ctx context.Context, args ...string) error {
	r.logDebug(args)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = r.env()
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return ErrorExternalToolFailure.Error(err)
	}

	return nil
}

// runStream starts git with args and returns its stdout as a pipe the
// caller must fully drain and the *exec.Cmd so Wait can be called once
// draining is complete. Used for `git archive`, whose output can be large
// enough that buffering the whole thing first is wasteful.
func (r *runner) runStream(ctx context.Context, args ...string) (io.ReadCloser, *exec.Cmd, error) {
	r.logDebug(args)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = r.env()
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, ErrorExternalToolFailure.Error(err)
	}

	if err = cmd.Start(); err != nil {
		return nil, nil, ErrorExternalToolFailure.Error(err)
	}

	return stdout, cmd, nil
}

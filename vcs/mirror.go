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

// Package vcs manages one bare git mirror per logical project and exposes
// the fetch/unpack operations the facade dispatches "git:" keys to.
package vcs

import (
	"context"
	"os"
	"strings"

	liblog "github.com/hashdist/sourcecache/logger"
)

// Mirror is a single bare repository caching commits fetched from possibly
// many remotes under one project name.
type Mirror struct {
	project string
	dir     string
	r       *runner
}

// NewMirror returns a handle on the bare mirror for project, rooted at dir
// (typically "<cache root>/git/<project>"). The mirror is not created on
// disk until EnsureInit or a fetch touches it.
func NewMirror(project, dir string, log liblog.Logger) *Mirror {
	return &Mirror{
		project: project,
		dir:     dir,
		r:       &runner{gitDir: dir, log: log},
	}
}

// EnsureInit creates the bare mirror directory if it does not already exist.
func (m *Mirror) EnsureInit(ctx context.Context) error {
	if _, err := os.Stat(m.dir); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return ErrorMirrorInit.Error(err)
	}

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return ErrorMirrorInit.Error(err)
	}

	if err := m.r.runSilent(ctx, "init", "--bare", "--quiet"); err != nil {
		return ErrorMirrorInit.Error(err)
	}

	return nil
}

// ResolveRemoteRev asks url which commit rev currently names. Zero matches
// is ErrorNotFound, more than one is ErrorAmbiguousRev (the candidate lines
// are attached to the error for the caller to log).
func (m *Mirror) ResolveRemoteRev(ctx context.Context, url, rev string) (string, error) {
	out, err := m.r.run(ctx, "ls-remote", url, rev)
	if err != nil {
		return "", err
	}

	lines := nonEmptyLines(out)
	switch len(lines) {
	case 0:
		return "", ErrorNotFound.Error()
	case 1:
		fields := strings.Fields(lines[0])
		if len(fields) < 1 {
			return "", ErrorNotFound.Error()
		}
		return fields[0], nil
	default:
		return "", ErrorAmbiguousRev.Errorf(strings.Join(lines, "; "))
	}
}

// RemoteHeads lists every non-peeled head ref on url, as commit IDs.
func (m *Mirror) RemoteHeads(ctx context.Context, url string) ([]string, error) {
	out, err := m.r.run(ctx, "ls-remote", "--heads", url)
	if err != nil {
		return nil, err
	}

	var commits []string
	for _, line := range nonEmptyLines(out) {
		if strings.HasSuffix(line, "^{}") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			commits = append(commits, fields[0])
		}
	}

	return commits, nil
}

// HasCommit reports whether commit is reachable in this mirror.
func (m *Mirror) HasCommit(ctx context.Context, commit string) bool {
	_, err := m.r.run(ctx, "rev-list", "-n1", "--quiet", commit)
	return err == nil
}

// FetchRev fetches rev from url, interactively so the user may supply
// credentials, then returns the resolved commit.
func (m *Mirror) FetchRev(ctx context.Context, url, rev string) (string, error) {
	commit, err := m.ResolveRemoteRev(ctx, url, rev)
	if err != nil {
		return "", err
	}

	if err = m.r.runInteractive(ctx, "fetch", "--no-tags", url, rev); err != nil {
		return "", err
	}

	return commit, nil
}

// FetchAllHeads fetches every head ref on url into this mirror, for callers
// that did not pin a rev.
func (m *Mirror) FetchAllHeads(ctx context.Context, url string) error {
	heads, err := m.r.run(ctx, "ls-remote", "--heads", url)
	if err != nil {
		return err
	}

	var refs []string
	for _, line := range nonEmptyLines(heads) {
		if strings.HasSuffix(line, "^{}") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 2 {
			refs = append(refs, fields[1])
		}
	}

	if len(refs) == 0 {
		return nil
	}

	args := append([]string{"fetch", "--no-tags", url}, refs...)
	return m.r.runSilent(ctx, args...)
}

// MarkInUse creates branch inuse/<commit> to anchor commit against future
// pruning. An existing branch already pointing at commit is tolerated; one
// pointing elsewhere is a collision the caller must treat as a hard failure.
func (m *Mirror) MarkInUse(ctx context.Context, commit string) error {
	branch := "inuse/" + commit

	out, err := m.r.run(ctx, "branch", branch, commit)
	if err == nil {
		return nil
	}

	existing, resolveErr := m.r.run(ctx, "rev-parse", branch)
	if resolveErr == nil && strings.TrimSpace(existing) == commit {
		return nil
	}

	return ErrorExternalToolFailure.Errorf(out)
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

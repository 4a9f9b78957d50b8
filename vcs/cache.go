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
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"

	liblog "github.com/hashdist/sourcecache/logger"
	libguard "github.com/hashdist/sourcecache/pathguard"
)

// Cache owns the "git/" subtree of a source cache root: one bare Mirror
// directory per project name.
type Cache struct {
	root string
	log  liblog.Logger
}

// NewCache returns a Cache rooted at <cacheRoot>/git.
func NewCache(cacheRoot string, log liblog.Logger) *Cache {
	return &Cache{root: filepath.Join(cacheRoot, "git"), log: log}
}

func (c *Cache) mirror(project string) *Mirror {
	return NewMirror(project, filepath.Join(c.root, project), c.log)
}

func (c *Cache) logState(project string, s State) {
	if c.log != nil {
		c.log.Info("vcs fetch state", nil, "project", project, "state", s.String())
	}
}

// FetchVCS resolves url/rev against project's mirror and returns the commit
// now anchored there. If expectedCommit is non-empty and already present in
// the mirror, the network is never touched. If rev is empty every head ref
// is fetched and expectedCommit (which must be set in that case) is verified
// present afterward.
func (c *Cache) FetchVCS(ctx context.Context, url, rev, project, expectedCommit string) (string, error) {
	if project == "" || url == "" {
		return "", ErrorInvalidArgument.Error()
	}

	m := c.mirror(project)

	c.logState(project, Idle)
	if err := m.EnsureInit(ctx); err != nil {
		return "", err
	}

	if expectedCommit != "" {
		c.logState(project, Verifying)
		if m.HasCommit(ctx, expectedCommit) {
			c.logState(project, Done)
			return expectedCommit, nil
		}
	}

	var commit string
	var err error

	if rev != "" {
		c.logState(project, Resolving)
		c.logState(project, Fetching)
		commit, err = m.FetchRev(ctx, url, rev)
		if err != nil {
			return "", err
		}
	} else {
		if expectedCommit == "" {
			return "", ErrorInvalidArgument.Error()
		}
		c.logState(project, Fetching)
		if err = m.FetchAllHeads(ctx, url); err != nil {
			return "", err
		}
		commit = expectedCommit
	}

	c.logState(project, Verifying)
	if !m.HasCommit(ctx, commit) {
		return "", ErrorNotFound.Error()
	}

	c.logState(project, Marking)
	if err = m.MarkInUse(ctx, commit); err != nil {
		return "", err
	}

	c.logState(project, Done)
	return commit, nil
}

// Contains reports whether commit is already reachable from any mirror
// under this cache root, without touching the network.
func (c *Cache) Contains(ctx context.Context, commit string) bool {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return false
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if c.mirror(e.Name()).HasCommit(ctx, commit) {
			return true
		}
	}

	return false
}

// Unpack locates commit in any mirror under this cache root and extracts its
// tree into targetDir via `git archive`, with no leading-directory stripping
// (a commit tree has no single archive-root wrapper the way a release
// tarball does) and a pathguard containment check per entry.
func (c *Cache) Unpack(ctx context.Context, commit, targetDir string) error {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrorNotFound.Error()
		}
		return ErrorNotFound.Error(err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		m := c.mirror(e.Name())
		if !m.HasCommit(ctx, commit) {
			continue
		}

		return m.UnpackCommit(ctx, commit, targetDir)
	}

	return ErrorNotFound.Error()
}

// UnpackCommit streams `git archive` for commit directly into targetDir.
// git archive's stdout is a one-pass pipe, not a seekable buffer, so it is
// read with the standard library's archive/tar reader instead of this
// module's archive.Reader (which List()s before Walk()ing and therefore
// needs random access).
func (m *Mirror) UnpackCommit(ctx context.Context, commit, targetDir string) error {
	stdout, cmd, err := m.r.runStream(ctx, "archive", "--format=tar", commit)
	if err != nil {
		return err
	}

	tr := tar.NewReader(stdout)

	for {
		hdr, terr := tr.Next()
		if terr == io.EOF {
			break
		}
		if terr != nil {
			_ = stdout.Close()
			_ = cmd.Wait()
			return ErrorExternalToolFailure.Error(terr)
		}

		if hdr.Typeflag == tar.TypeDir {
			continue
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		dest, gerr := libguard.Within(targetDir, hdr.Name)
		if gerr != nil {
			_ = stdout.Close()
			_ = cmd.Wait()
			return ErrorExternalToolFailure.Error(gerr)
		}

		if err = os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			_ = stdout.Close()
			_ = cmd.Wait()
			return ErrorExternalToolFailure.Error(err)
		}

		f, ferr := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if ferr != nil {
			_ = stdout.Close()
			_ = cmd.Wait()
			return ErrorExternalToolFailure.Error(ferr)
		}

		_, cerr := io.Copy(f, tr)
		_ = f.Close()
		if cerr != nil {
			_ = stdout.Close()
			_ = cmd.Wait()
			return ErrorExternalToolFailure.Error(cerr)
		}
	}

	if err = stdout.Close(); err != nil {
		_ = cmd.Wait()
		return ErrorExternalToolFailure.Error(err)
	}

	if err = cmd.Wait(); err != nil {
		return ErrorExternalToolFailure.Error(err)
	}

	return nil
}

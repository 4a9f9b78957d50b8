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

package sourcecache

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	libarc "github.com/hashdist/sourcecache/archive"
	liblog "github.com/hashdist/sourcecache/logger"
	libpack "github.com/hashdist/sourcecache/pack"
	libvcs "github.com/hashdist/sourcecache/vcs"
)

// Cache is the facade a consumer embeds: it parses a "type:digest" key,
// dispatches to the archive backend or the vcs package, and owns the cache
// root's lifecycle (existence, optional creation, realpath resolution).
type Cache struct {
	root    string
	archive *ArchiveBackend
	vcs     *libvcs.Cache
	log     liblog.Logger
}

// New initializes a Cache from cfg. The cache root must already exist
// unless cfg.CreateDirs is set, in which case it is created. The resolved
// root is the absolute, symlink-evaluated ("realpath") form of cfg.Dir, so
// later path comparisons are stable regardless of how the caller originally
// spelled it.
func New(cfg Config, log liblog.Logger) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.Dir); err != nil {
		if !os.IsNotExist(err) {
			return nil, ErrorInvalidArgument.Error(err)
		}
		if !cfg.CreateDirs {
			return nil, ErrorInvalidArgument.Errorf("cache dir %q does not exist", cfg.Dir)
		}
		if err = os.MkdirAll(cfg.Dir, os.FileMode(dirMode)); err != nil {
			return nil, ErrorInvalidArgument.Error(err)
		}
	}

	abs, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, ErrorInvalidArgument.Error(err)
	}

	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, ErrorInvalidArgument.Error(err)
	}

	cfg.Dir = real

	archive, err := NewArchiveBackend(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Cache{
		root:    real,
		archive: archive,
		vcs:     libvcs.NewCache(real, log),
		log:     log,
	}, nil
}

// splitKey parses "type:digest" and rejects anything else.
func splitKey(key string) (typ, digest string, err error) {
	idx := strings.IndexByte(key, ':')
	if idx <= 0 || idx == len(key)-1 {
		return "", "", ErrorInvalidArgument.Errorf("malformed key %q", key)
	}
	return key[:idx], key[idx+1:], nil
}

func isArchiveType(typ string) bool {
	return typ == libpack.KeyPrefix || libarc.IsKnownType(typ)
}

// FetchArchive downloads rawURL (or serves it from the cache/mirrors when
// expectedDigest is already known) and returns its key.
func (c *Cache) FetchArchive(ctx context.Context, rawURL, typ, expectedDigest string) (string, error) {
	return c.archive.FetchArchive(ctx, rawURL, typ, expectedDigest)
}

// FetchVCS resolves url/rev against project's mirror and returns the "git:"
// key for the resulting commit.
func (c *Cache) FetchVCS(ctx context.Context, url, rev, project, expectedCommit string) (string, error) {
	commit, err := c.vcs.FetchVCS(ctx, url, rev, project, expectedCommit)
	if err != nil {
		return "", err
	}
	return "git:" + commit, nil
}

// Put stores a synthetic file bundle and returns its "files:" key.
func (c *Cache) Put(files []libpack.Entry) (string, error) {
	return c.archive.Put(files)
}

// Contains reports whether key is already present in the cache without
// touching the network.
func (c *Cache) Contains(key string) bool {
	typ, digest, err := splitKey(key)
	if err != nil {
		return false
	}

	if typ == "git" {
		return c.vcs.Contains(context.Background(), digest)
	}

	if !isArchiveType(typ) {
		return false
	}

	if typ == libpack.KeyPrefix {
		_, statErr := os.Stat(filepath.Join(c.root, "files", digest))
		return statErr == nil
	}

	return c.archive.Contains(typ, digest)
}

// Unpack parses key and extracts it into targetDir, dispatching to the
// archive backend or the vcs package by key type.
func (c *Cache) Unpack(ctx context.Context, key, targetDir string) error {
	typ, digest, err := splitKey(key)
	if err != nil {
		return err
	}

	switch {
	case typ == "git":
		return c.vcs.Unpack(ctx, digest, targetDir)
	case isArchiveType(typ):
		return c.archive.Unpack(typ, digest, targetDir)
	default:
		return ErrorUnknownKeyPrefix.Errorf("unrecognized key type %q", typ)
	}
}

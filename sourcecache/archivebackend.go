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

// Package sourcecache is the content-addressed source cache facade: it
// dispatches "type:digest" keys to either the archive backend in this file
// (compressed release tarballs and synthetic file packs) or the vcs package
// (git commits), and exposes the discovery-source clients in source_s3.go,
// source_github.go and source_gitlab.go as additional places FetchArchive's
// implicit URL may come from.
package sourcecache

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	hcuuid "github.com/hashicorp/go-uuid"
	hcretry "github.com/hashicorp/go-retryablehttp"

	libarc "github.com/hashdist/sourcecache/archive"
	libcert "github.com/hashdist/sourcecache/certificates"
	libhash "github.com/hashdist/sourcecache/hash"
	liblog "github.com/hashdist/sourcecache/logger"
	libhclog "github.com/hashdist/sourcecache/logger/hashicorp"
	libpack "github.com/hashdist/sourcecache/pack"
	libperm "github.com/hashdist/sourcecache/file/perm"
)

const (
	dirMode  = libperm.Perm(0755)
	fileMode = libperm.Perm(0444)
)

// ArchiveBackend owns the "packs/" and "files/" subtrees of a cache root: the
// download-verify-publish pipeline for release tarballs, synthetic file
// packs, and the mirror fallback chain that feeds it.
type ArchiveBackend struct {
	root    string
	mirrors []string
	client  *http.Client
	log     liblog.Logger

	s3     *s3Source
	github *githubSource
	gitlab *gitlabSource
}

// NewArchiveBackend returns a backend rooted at cfg.Dir, with a
// go-retryablehttp client configured from cfg.HTTPRetries/HTTPTimeout and,
// when cfg.TLSRootCAFiles is set, a TLS transport trusting those CAs on top
// of the system pool.
func NewArchiveBackend(cfg Config, log liblog.Logger) (*ArchiveBackend, error) {
	rc := hcretry.NewClient()
	rc.RetryMax = cfg.HTTPRetries
	rc.HTTPClient.Timeout = cfg.HTTPTimeout
	rc.CheckRetry = retryOnTransientOnly

	if log != nil {
		rc.Logger = libhclog.New(func() liblog.Logger { return log })
	} else {
		rc.Logger = nil
	}

	if len(cfg.TLSRootCAFiles) > 0 {
		tlsCfg := libcert.New()
		for _, f := range cfg.TLSRootCAFiles {
			if err := tlsCfg.AddRootCAFile(f); err != nil {
				return nil, ErrorConfigInvalid.Error(err)
			}
		}
		rc.HTTPClient.Transport = &http.Transport{
			TLSClientConfig: tlsCfg.TlsConfig(cfg.TLSServerName),
		}
	}

	return &ArchiveBackend{
		root:    cfg.Dir,
		mirrors: cfg.Mirrors,
		client:  rc.StandardClient(),
		log:     log,
	}, nil
}

// WithS3Source enables "s3://" mirror entries, resolved through s.
func (b *ArchiveBackend) WithS3Source(s *s3Source) *ArchiveBackend {
	b.s3 = s
	return b
}

// WithGithubSource enables "github://" mirror entries, resolved through g.
func (b *ArchiveBackend) WithGithubSource(g *githubSource) *ArchiveBackend {
	b.github = g
	return b
}

// WithGitlabSource enables "gitlab://" mirror entries, resolved through g.
func (b *ArchiveBackend) WithGitlabSource(g *gitlabSource) *ArchiveBackend {
	b.gitlab = g
	return b
}

// retryOnTransientOnly retries connection failures and 5xx responses only; a
// 404 (the only outcome FetchFromMirrors cares about distinguishing) is
// terminal on the first try.
func retryOnTransientOnly(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return hcretry.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return hcretry.DefaultRetryPolicy(ctx, resp, err)
}

func (b *ArchiveBackend) packPath(typ, digest string) string {
	return filepath.Join(b.root, "packs", typ, digest)
}

func (b *ArchiveBackend) filesPath(digest string) string {
	return filepath.Join(b.root, "files", digest)
}

// Contains reports whether packs/<type>/<digest> already exists.
func (b *ArchiveBackend) Contains(typ, digest string) bool {
	_, err := os.Stat(b.packPath(typ, digest))
	return err == nil
}

// download fetches uri in full, honoring the file: scheme as a local path
// open instead of a network request.
func (b *ArchiveBackend) download(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "file:") {
		p := strings.TrimPrefix(uri, "file:")
		p = strings.TrimPrefix(p, "//")
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, ErrorNotFound.Error(err)
			}
			return nil, ErrorDownload.Error(err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, ErrorDownload.Error(err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, ErrorDownload.Error(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrorNotFound.Error()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ErrorDownload.Errorf("unexpected status %s from %s", resp.Status, uri)
	}

	hr := libhash.NewReader(io.NopCloser(resp.Body))
	data, err := io.ReadAll(hr)
	if err != nil {
		return nil, ErrorDownload.Error(err)
	}

	return data, nil
}

// FetchFromMirrors tries each configured mirror in order, appending
// "/packs/<type>/<digest>" (or delegating to a discovery-source client for
// s3://, github:// and gitlab:// mirror entries). The first mirror to
// produce bytes wins; a not-found from one mirror simply advances to the
// next.
func (b *ArchiveBackend) FetchFromMirrors(ctx context.Context, typ, digest string) ([]byte, error) {
	suffix := "/packs/" + typ + "/" + digest

	for _, m := range b.mirrors {
		var (
			data []byte
			err  error
		)

		switch {
		case strings.HasPrefix(m, "s3://"):
			if b.s3 == nil {
				continue
			}
			data, err = b.s3.fetch(ctx, m, typ, digest)
		case strings.HasPrefix(m, "github://"):
			if b.github == nil {
				continue
			}
			data, err = b.github.fetchArtifact(ctx, m, b)
		case strings.HasPrefix(m, "gitlab://"):
			if b.gitlab == nil {
				continue
			}
			data, err = b.gitlab.fetchArtifact(ctx, m, b)
		default:
			data, err = b.download(ctx, m+suffix)
		}

		if err == nil {
			if !libhash.VerifyDigest(data, digest) {
				continue
			}
			return data, nil
		}
	}

	return nil, ErrorNoMirror.Error()
}

// FetchArchive implements the download-verify-publish pipeline described in
// the archive backend's design: short-circuit on an already-cached digest,
// then mirrors, then a direct download from url.
func (b *ArchiveBackend) FetchArchive(ctx context.Context, rawURL, typ, expectedDigest string) (string, error) {
	if typ == "" {
		inferred, ok := libarc.InferType(rawURL)
		if !ok {
			return "", ErrorInvalidArchive.Errorf("cannot infer archive type from %q", rawURL)
		}
		typ = inferred
	} else if !libarc.IsKnownType(typ) {
		return "", ErrorInvalidArchive.Errorf("unsupported archive type %q", typ)
	}

	if expectedDigest != "" {
		if b.Contains(typ, expectedDigest) {
			return typ + ":" + expectedDigest, nil
		}
		if len(b.mirrors) > 0 {
			if data, err := b.FetchFromMirrors(ctx, typ, expectedDigest); err == nil {
				if err = b.publish(typ, expectedDigest, data); err != nil {
					return "", err
				}
				return typ + ":" + expectedDigest, nil
			}
		}
	}

	data, err := b.download(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if err = libarc.Verify(data); err != nil {
		return "", ErrorInvalidArchive.Error(err)
	}

	digest := libhash.Digest(data)
	if expectedDigest != "" && digest != expectedDigest {
		return "", ErrorDigestMismatch.Errorf("got %s, want %s", digest, expectedDigest)
	}

	if err = b.publish(typ, digest, data); err != nil {
		return "", err
	}

	return typ + ":" + digest, nil
}

// publish streams data into a uniquely-named temp file under packs/ and
// atomically renames it into place, tolerating a concurrent publish of
// identical content.
func (b *ArchiveBackend) publish(typ, digest string, data []byte) error {
	dir := filepath.Join(b.root, "packs", typ)
	if err := os.MkdirAll(dir, os.FileMode(dirMode)); err != nil {
		return ErrorPublish.Error(err)
	}

	suffix, err := hcuuid.GenerateUUID()
	if err != nil {
		return ErrorPublish.Error(err)
	}

	tmp := filepath.Join(dir, digest+".tmp-"+suffix)
	if err = os.WriteFile(tmp, data, os.FileMode(dirMode)); err != nil {
		return ErrorPublish.Error(err)
	}

	if err = os.Chmod(tmp, os.FileMode(fileMode)); err != nil {
		_ = os.Remove(tmp)
		return ErrorPublish.Error(err)
	}

	dest := filepath.Join(dir, digest)
	if err = os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		if b.Contains(typ, digest) {
			return nil
		}
		return ErrorPublish.Error(err)
	}

	return nil
}

// Put computes the hit-pack key for files and writes it to files/<digest>
// if not already present; a concurrent writer with identical content is
// benign.
func (b *ArchiveBackend) Put(files []libpack.Entry) (string, error) {
	key := libpack.Key(files)
	digest := strings.TrimPrefix(key, libpack.KeyPrefix+":")

	dest := b.filesPath(digest)
	if _, err := os.Stat(dest); err == nil {
		return key, nil
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, os.FileMode(dirMode)); err != nil {
		return "", ErrorPublish.Error(err)
	}

	data := libpack.Pack(files)

	suffix, err := hcuuid.GenerateUUID()
	if err != nil {
		return "", ErrorPublish.Error(err)
	}

	tmp := dest + ".tmp-" + suffix
	if err = os.WriteFile(tmp, data, os.FileMode(dirMode)); err != nil {
		return "", ErrorPublish.Error(err)
	}

	if err = os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		if _, serr := os.Stat(dest); serr == nil {
			return key, nil
		}
		return "", ErrorPublish.Error(err)
	}

	return key, nil
}

// Unpack loads the pack named by type/digest into memory, verifies it, and
// either runs the archive handler (compressed types) or pack.Unpack +
// pack.Scatter (files) into targetDir.
func (b *ArchiveBackend) Unpack(typ, digest, targetDir string) error {
	var path string
	if typ == libpack.KeyPrefix {
		path = b.filesPath(digest)
	} else {
		path = b.packPath(typ, digest)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrorNotFound.Error(err)
		}
		return ErrorCorruptArchive.Error(err)
	}

	if typ == libpack.KeyPrefix {
		entries, uerr := libpack.Unpack(data, digest)
		if uerr != nil {
			return ErrorCorruptArchive.Error(uerr)
		}
		return libpack.Scatter(entries, targetDir)
	}

	return libarc.SafeUnpack(data, targetDir, digest)
}

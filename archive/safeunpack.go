/*
 *  MIT License
 *
 *  Copyright (c) 2025 Nicolas JUHEL
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package archive

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	libhash "github.com/hashdist/sourcecache/hash"
	"github.com/hashdist/sourcecache/pathguard"
)

// SafeUnpack verifies data against expectedDigest, detects its compression and
// archive framing exactly as ExtractAll does, then extracts every regular
// member into targetDir after stripping the archive's common leading
// directory component and confirming each stripped path stays inside
// targetDir.
//
// Unlike ExtractAll, SafeUnpack never trusts the bytes on disk a second time:
// the digest is checked once against the buffer already held in memory, so
// nothing can swap the artifact between verification and extraction.
func SafeUnpack(data []byte, targetDir string, expectedDigest string) error {
	if !libhash.VerifyDigest(data, expectedDigest) {
		return ErrorDigestMismatch.Error()
	}

	r := io.NopCloser(bytes.NewReader(data))

	a, o, err := DetectCompression(r)
	if err != nil {
		return ErrorUnknownType.Error(err)
	}
	if !a.IsNone() && o != nil {
		r = o
	}

	_, z, _, err := DetectArchive(r)
	if err != nil {
		return ErrorUnknownType.Error(err)
	} else if z == nil {
		return ErrorUnknownType.Error()
	}
	defer func() { _ = z.Close() }()

	names, err := z.List()
	if err != nil {
		return err
	}

	prefix := commonDirPrefix(names)
	var walkErr error

	z.Walk(func(info fs.FileInfo, closer io.ReadCloser, dst, _ string) bool {
		defer func() {
			if closer != nil {
				_, _ = io.Copy(io.Discard, closer)
				_ = closer.Close()
			}
		}()

		if info.IsDir() {
			return true
		}

		stripped := stripDirPrefix(dst, prefix)
		if stripped == "" {
			return true
		}

		dest, e := pathguard.Within(targetDir, stripped)
		if e != nil {
			walkErr = ErrorSecurityViolation.Error(e)
			return false
		}

		if e = os.MkdirAll(filepath.Dir(dest), 0755); e != nil {
			walkErr = ErrorDirCreate.Error(e)
			return false
		}

		f, e := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if e != nil {
			walkErr = ErrorFileOpen.Error(e)
			return false
		}

		_, e = io.Copy(f, closer)
		cerr := f.Close()

		if e != nil {
			walkErr = ErrorIOCopy.Error(e)
			return false
		}
		if cerr != nil {
			walkErr = ErrorFileClose.Error(cerr)
			return false
		}

		return true
	})

	return walkErr
}

// commonDirPrefix returns the longest sequence of leading directory segments
// shared by every name in names. A name with no directory component at all
// (a file sitting at archive root) forces an empty prefix for the whole set.
func commonDirPrefix(names []string) []string {
	var prefix []string
	first := true

	for _, n := range names {
		segs := strings.Split(path.Clean(filepath.ToSlash(n)), "/")
		if len(segs) <= 1 {
			return nil
		}

		dirs := segs[:len(segs)-1]
		if first {
			prefix = dirs
			first = false
			continue
		}

		prefix = commonSlicePrefix(prefix, dirs)
		if len(prefix) == 0 {
			return nil
		}
	}

	return prefix
}

func commonSlicePrefix(a, b []string) []string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	i := 0
	for i < n && a[i] == b[i] {
		i++
	}

	return a[:i]
}

// stripDirPrefix removes prefix's directory segments from name and returns
// the remainder in native separator form. A name equal to the prefix itself
// (the stripped directory entry) yields "".
func stripDirPrefix(name string, prefix []string) string {
	segs := strings.Split(path.Clean(filepath.ToSlash(name)), "/")

	if len(prefix) == 0 {
		return filepath.FromSlash(strings.Join(segs, "/"))
	}

	if len(segs) <= len(prefix) {
		return ""
	}

	for i, p := range prefix {
		if segs[i] != p {
			return filepath.FromSlash(strings.Join(segs, "/"))
		}
	}

	return filepath.FromSlash(strings.Join(segs[len(prefix):], "/"))
}

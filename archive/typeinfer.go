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

import "strings"

// KnownTypes are the three archive cache key types this package can verify
// and safely unpack.
var KnownTypes = []string{"tar.gz", "tar.bz2", "zip"}

// typeExtensions maps each recognized cache key type to the URL suffixes
// that identify it.
var typeExtensions = map[string][]string{
	"tar.gz":  {".tar.gz", ".tgz"},
	"tar.bz2": {".tar.bz2", ".tb2", ".tbz2"},
	"zip":     {".zip"},
}

// InferType returns the archive cache key type matching name's suffix, and
// false when no known extension matches.
func InferType(name string) (string, bool) {
	lower := strings.ToLower(name)

	for t, exts := range typeExtensions {
		for _, ext := range exts {
			if strings.HasSuffix(lower, ext) {
				return t, true
			}
		}
	}

	return "", false
}

// IsKnownType reports whether t is one of the three recognized archive key
// types.
func IsKnownType(t string) bool {
	for _, k := range KnownTypes {
		if k == t {
			return true
		}
	}
	return false
}

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

// Package pathguard resolves an archive or pack member name against a target
// directory and confirms the result stays a descendant of that directory.
//
// It is the single point of path-traversal defense shared by the archive
// handlers (safe unpack) and the pack scatter logic: both call Within before
// writing a single byte so the containment check has one implementation and
// one set of edge-case tests.
package pathguard

import (
	"path/filepath"
	"strings"

	liberr "github.com/hashdist/sourcecache/errors"
)

// Within cleans member, joins it under root, and verifies the cleaned,
// absolute result is root itself or one of its descendants.
//
// It rejects absolute member paths, ".." segments that climb above root, and
// (on platforms where filepath.Separator is '\') a member carrying the other
// platform's separator, since such a member could otherwise be written
// outside root by a consumer that interprets separators differently.
//
// Returns the cleaned absolute path on success.
func Within(root string, member string) (string, error) {
	if root == "" {
		return "", ErrorEmptyRoot.Error()
	}

	absRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", ErrorEscape.Error(err)
	}

	member = strings.ReplaceAll(member, "\\", "/")
	joined := filepath.Join(absRoot, filepath.FromSlash(member))
	cleaned := filepath.Clean(joined)

	if cleaned == absRoot {
		return cleaned, nil
	}

	prefix := absRoot + string(filepath.Separator)
	if !strings.HasPrefix(cleaned, prefix) {
		return "", ErrorEscape.Error()
	}

	return cleaned, nil
}

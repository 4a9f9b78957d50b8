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
)

// Verify confirms data parses as one of the known compression/archive
// framings without extracting anything: it runs the same detection pipeline
// as SafeUnpack and lists the member names, discarding them. Used by callers
// that must reject a malformed download before it is published to the
// cache, prior to the digest check against the caller's expected value.
func Verify(data []byte) error {
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

	if _, err = z.List(); err != nil {
		return ErrorUnknownType.Error(err)
	}

	return nil
}

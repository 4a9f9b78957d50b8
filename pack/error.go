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

package pack

import (
	"fmt"

	liberr "github.com/hashdist/sourcecache/errors"
)

const (
	ErrorBadMagic liberr.CodeError = iota + liberr.MinPkgPack
	ErrorTruncated
	ErrorDigestMismatch
	ErrorInvalidName
	ErrorFileExists
	ErrorFileCreate
	ErrorFileWrite
	ErrorDirCreate
	ErrorSecurityViolation
)

func init() {
	if liberr.ExistInMapMessage(ErrorBadMagic) {
		panic(fmt.Errorf("error code collision golib/pack"))
	}
	liberr.RegisterIdFctMessage(ErrorBadMagic, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorBadMagic:
		return "pack stream does not start with the expected magic bytes"
	case ErrorTruncated:
		return "pack stream ended before an entry was fully read"
	case ErrorDigestMismatch:
		return "pack stream digest does not match expected digest"
	case ErrorInvalidName:
		return "pack entry name is empty, absolute, or escapes the target directory"
	case ErrorFileExists:
		return "scatter target file already exists"
	case ErrorFileCreate:
		return "cannot create scatter target file"
	case ErrorFileWrite:
		return "cannot write scatter target file"
	case ErrorDirCreate:
		return "cannot create scatter parent directory"
	case ErrorSecurityViolation:
		return "pack entry would write outside the target directory"
	}

	return liberr.NullMessage
}

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
	"fmt"

	liberr "github.com/hashdist/sourcecache/errors"
)

const (
	ErrorNotFound liberr.CodeError = iota + liberr.MinPkgSourceCache
	ErrorUnknownKeyPrefix
	ErrorInvalidArgument
	ErrorDigestMismatch
	ErrorCorruptArchive
	ErrorInvalidArchive
	ErrorDownload
	ErrorPublish
	ErrorConfigInvalid
	ErrorNoMirror
)

func init() {
	if liberr.ExistInMapMessage(ErrorNotFound) {
		panic(fmt.Errorf("error code collision golib/sourcecache"))
	}
	liberr.RegisterIdFctMessage(ErrorNotFound, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorNotFound:
		return "key not present in the cache and no source could produce it"
	case ErrorUnknownKeyPrefix:
		return "key does not use a recognized type prefix"
	case ErrorInvalidArgument:
		return "missing or malformed argument"
	case ErrorDigestMismatch:
		return "fetched content does not match the digest named by the key"
	case ErrorCorruptArchive:
		return "archive could not be parsed"
	case ErrorInvalidArchive:
		return "archive type is not supported"
	case ErrorDownload:
		return "download of source content failed"
	case ErrorPublish:
		return "could not publish fetched content into the cache"
	case ErrorConfigInvalid:
		return "source cache configuration is invalid"
	case ErrorNoMirror:
		return "no mirror produced the requested key"
	}

	return liberr.NullMessage
}

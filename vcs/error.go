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
	"fmt"

	liberr "github.com/hashdist/sourcecache/errors"
)

const (
	ErrorNotFound liberr.CodeError = iota + liberr.MinPkgVCS
	ErrorAmbiguousRev
	ErrorInvalidArgument
	ErrorExternalToolFailure
	ErrorMirrorInit
)

func init() {
	if liberr.ExistInMapMessage(ErrorNotFound) {
		panic(fmt.Errorf("error code collision golib/vcs"))
	}
	liberr.RegisterIdFctMessage(ErrorNotFound, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorNotFound:
		return "commit or rev not found in any known mirror"
	case ErrorAmbiguousRev:
		return "remote rev matched more than one ref"
	case ErrorInvalidArgument:
		return "missing or malformed vcs argument"
	case ErrorExternalToolFailure:
		return "git subprocess exited with an error"
	case ErrorMirrorInit:
		return "cannot initialize bare mirror repository"
	}

	return liberr.NullMessage
}

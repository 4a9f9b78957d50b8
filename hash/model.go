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

// Package hash provides streaming SHA-256 read/write wrappers producing the
// content-addressed digest format used throughout the cache: the raw 32-byte
// sum, base-64 encoded with the URL-safe alphabet and no padding, always 43
// characters long.
//
// The wrappers follow this module's encoding.Coder pass-through idiom (see
// encoding/sha256): bytes flow through unchanged while the hash state
// accumulates, so a caller can tee a download or a file copy through a Reader
// or Writer and read the digest once the stream is exhausted.
package hash

import (
	"crypto/sha256"
	"encoding/base64"
	gohash "hash"
	"io"
)

// Digest returns the content-addressed digest of p: unpadded, URL-safe
// base-64 encoding of SHA-256(p).
func Digest(p []byte) string {
	sum := sha256.Sum256(p)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyDigest reports whether Digest(p) equals want.
func VerifyDigest(p []byte, want string) bool {
	return Digest(p) == want
}

// EncodeSum formats a raw SHA-256 sum using the cache's digest alphabet.
func EncodeSum(sum []byte) string {
	return base64.RawURLEncoding.EncodeToString(sum)
}

// Reader tees reads from an underlying io.ReadCloser through a running
// SHA-256 state. Read never alters the bytes returned to the caller.
type Reader struct {
	r io.ReadCloser
	h gohash.Hash
}

// NewReader wraps r so every byte read through the result also updates a
// SHA-256 digest, retrievable via Sum/Digest once the caller has drained r.
func NewReader(r io.ReadCloser) *Reader {
	return &Reader{r: r, h: sha256.New()}
}

func (o *Reader) Read(p []byte) (n int, err error) {
	n, err = o.r.Read(p)
	if n > 0 {
		o.h.Write(p[:n])
	}
	return n, err
}

func (o *Reader) Close() error {
	return o.r.Close()
}

// Sum returns the raw SHA-256 sum of the bytes read so far.
func (o *Reader) Sum() []byte {
	return o.h.Sum(nil)
}

// Digest returns the cache digest format of the bytes read so far.
func (o *Reader) Digest() string {
	return EncodeSum(o.Sum())
}

// Writer tees writes to an underlying io.WriteCloser through a running
// SHA-256 state. Write never alters the bytes forwarded to the sink.
type Writer struct {
	w io.WriteCloser
	h gohash.Hash
}

// NewWriter wraps w so every byte written through the result also updates a
// SHA-256 digest, retrievable via Sum/Digest once the caller is done writing.
func NewWriter(w io.WriteCloser) *Writer {
	return &Writer{w: w, h: sha256.New()}
}

func (o *Writer) Write(p []byte) (n int, err error) {
	n, err = o.w.Write(p)
	if n > 0 {
		o.h.Write(p[:n])
	}
	return n, err
}

func (o *Writer) Close() error {
	return o.w.Close()
}

// Sum returns the raw SHA-256 sum of the bytes written so far.
func (o *Writer) Sum() []byte {
	return o.h.Sum(nil)
}

// Digest returns the cache digest format of the bytes written so far.
func (o *Writer) Digest() string {
	return EncodeSum(o.Sum())
}

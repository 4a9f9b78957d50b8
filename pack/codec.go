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

// Package pack implements the "hit-pack" deterministic binary container used
// for synthetic file bundles (files: keys): a sorted, length-prefixed record
// stream whose bytes - and therefore whose content-addressed digest - depend
// only on the (filename, contents) multiset, never on the order entries were
// supplied in.
package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	libhash "github.com/hashdist/sourcecache/hash"
)

// Magic is the fixed 8-byte header identifying a hit-pack stream.
const Magic = "HDSTPCK1"

// KeyPrefix is the cache key type prefix for hit-pack artifacts.
const KeyPrefix = "files"

// Entry is one (filename, contents) member of a hit-pack.
type Entry struct {
	Name     string
	Contents []byte
}

// Pack serializes entries into the deterministic hit-pack byte stream:
// magic, then each entry sorted ascending by Name, as
// {u32 LE len(Name)}{u32 LE len(Contents)}{Name}{Contents}.
func Pack(entries []Entry) []byte {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	buf := bytes.NewBuffer(make([]byte, 0, 64*len(sorted)))
	buf.WriteString(Magic)

	var lenbuf [4]byte
	for _, e := range sorted {
		binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(e.Name)))
		buf.Write(lenbuf[:])
		binary.LittleEndian.PutUint32(lenbuf[:], uint32(len(e.Contents)))
		buf.Write(lenbuf[:])
		buf.WriteString(e.Name)
		buf.Write(e.Contents)
	}

	return buf.Bytes()
}

// Key returns the files: cache key for the hit-pack built from entries.
func Key(entries []Entry) string {
	return KeyPrefix + ":" + libhash.Digest(Pack(entries))
}

// Unpack parses a hit-pack stream, verifies its digest against expected, and
// returns the decoded entries in on-disk (sorted) order.
//
// A magic mismatch fails with ErrorBadMagic, a truncated record with
// ErrorTruncated, and a digest mismatch with ErrorDigestMismatch - no
// entries are returned in the error case.
func Unpack(data []byte, expectedDigest string) ([]Entry, error) {
	if !libhash.VerifyDigest(data, expectedDigest) {
		return nil, ErrorDigestMismatch.Error()
	}

	r := bytes.NewReader(data)

	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != Magic {
		return nil, ErrorBadMagic.Error()
	}

	var entries []Entry
	var lenbuf [4]byte

	for {
		_, err := io.ReadFull(r, lenbuf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ErrorTruncated.Error(err)
		}
		nameLen := binary.LittleEndian.Uint32(lenbuf[:])

		if _, err = io.ReadFull(r, lenbuf[:]); err != nil {
			return nil, ErrorTruncated.Error(err)
		}
		contentsLen := binary.LittleEndian.Uint32(lenbuf[:])

		name := make([]byte, nameLen)
		if _, err = io.ReadFull(r, name); err != nil {
			return nil, ErrorTruncated.Error(err)
		}

		contents := make([]byte, contentsLen)
		if _, err = io.ReadFull(r, contents); err != nil {
			return nil, ErrorTruncated.Error(err)
		}

		entries = append(entries, Entry{Name: string(name), Contents: contents})
	}

	return entries, nil
}

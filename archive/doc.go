/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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
 */

// Package archive detects, verifies and extracts the archive formats the
// source cache accepts: TAR and ZIP framing, optionally wrapped in GZIP,
// BZIP2, LZ4 or XZ compression.
//
// The root package holds the digest-trusting extraction path used by the
// cache (SafeUnpack, Verify) plus format detection (DetectCompression,
// DetectArchive) and type-name inference (InferType, IsKnownType) used to
// pick a pack's storage subdirectory. Two subpackages back it:
//
//   - archive/compress: single-stream compression algorithms (GZIP, BZIP2,
//     LZ4, XZ), magic-number detection.
//   - archive/archive: TAR/ZIP container reading, magic-number detection of
//     the archive framing once any compression layer has been stripped.
//
// # Basic usage
//
//	if err := archive.Verify(data); err != nil {
//	    return err // reject before publishing to the cache
//	}
//	digest := hash.Digest(data)
//	return archive.SafeUnpack(data, targetDir, digest)
//
// SafeUnpack and Verify both run the same pipeline: DetectCompression peels
// off an outer compression layer if present, DetectArchive identifies the
// TAR or ZIP framing underneath, and the result is walked member-by-member.
// SafeUnpack additionally strips each archive's common leading directory
// (the way a release tarball's "project-1.2.3/" wrapper is conventionally
// discarded) and confirms every extracted path stays inside targetDir via
// pathguard.Within before anything is written.
package archive

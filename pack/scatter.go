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
	"os"
	"path/filepath"

	libperm "github.com/hashdist/sourcecache/file/perm"
	"github.com/hashdist/sourcecache/pathguard"
)

// dirMode and fileMode match this module's convention for cache-owned,
// world-readable artifacts.
const (
	dirMode  = libperm.Perm(0755)
	fileMode = libperm.Perm(0444)
)

// Scatter materializes every entry under targetDir. Parent directories are
// created as needed. An entry whose name is empty or resolves outside
// targetDir fails with ErrorInvalidName/ErrorSecurityViolation and no further
// entries are written. An existing destination file fails with
// ErrorFileExists: scatter never overwrites.
func Scatter(entries []Entry, targetDir string) error {
	for _, e := range entries {
		if e.Name == "" {
			return ErrorInvalidName.Error()
		}

		dest, err := pathguard.Within(targetDir, e.Name)
		if err != nil {
			return ErrorSecurityViolation.Error(err)
		}

		if err = os.MkdirAll(filepath.Dir(dest), dirMode.FileMode()); err != nil {
			return ErrorDirCreate.Error(err)
		}

		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode.FileMode())
		if err != nil {
			if os.IsExist(err) {
				return ErrorFileExists.Error(err)
			}
			return ErrorFileCreate.Error(err)
		}

		_, err = f.Write(e.Contents)
		closeErr := f.Close()

		if err != nil {
			return ErrorFileWrite.Error(err)
		}
		if closeErr != nil {
			return ErrorFileWrite.Error(closeErr)
		}
	}

	return nil
}

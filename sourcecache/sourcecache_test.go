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

package sourcecache_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"time"

	libpack "github.com/hashdist/sourcecache/pack"
	libsc "github.com/hashdist/sourcecache/sourcecache"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newTestCache() (*libsc.Cache, string) {
	dir, err := os.MkdirTemp("", "sourcecache-")
	Expect(err).ToNot(HaveOccurred())

	cfg := libsc.Config{
		Dir:            dir,
		CreateDirs:     true,
		HTTPTimeout:    5 * time.Second,
		HTTPRetries:    0,
		VCSInteractive: false,
	}

	c, err := libsc.New(cfg, nil)
	Expect(err).ToNot(HaveOccurred())

	return c, dir
}

func buildTarGzFile(dir string, members map[string]string) string {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, contents := range members {
		Expect(tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(contents))})).To(Succeed())
		_, err := tw.Write([]byte(contents))
		Expect(err).ToNot(HaveOccurred())
	}

	Expect(tw.Close()).To(Succeed())
	Expect(gz.Close()).To(Succeed())

	path := filepath.Join(dir, "src.tar.gz")
	Expect(os.WriteFile(path, buf.Bytes(), 0644)).To(Succeed())
	return path
}

var _ = Describe("sourcecache facade", func() {
	It("stores and unpacks a files: bundle", func() {
		c, _ := newTestCache()

		key, err := c.Put([]libpack.Entry{
			{Name: "a.txt", Contents: []byte("one")},
			{Name: "dir/b.txt", Contents: []byte("two")},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(key).To(HavePrefix("files:"))
		Expect(c.Contains(key)).To(BeTrue())

		target, err := os.MkdirTemp("", "sourcecache-unpack-")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(target)

		Expect(c.Unpack(context.Background(), key, target)).To(Succeed())

		data, err := os.ReadFile(filepath.Join(target, "dir/b.txt"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("two"))
	})

	It("is idempotent: putting the same files twice yields the same key", func() {
		c, _ := newTestCache()

		entries := []libpack.Entry{{Name: "x", Contents: []byte("y")}}
		k1, err := c.Put(entries)
		Expect(err).ToNot(HaveOccurred())
		k2, err := c.Put(entries)
		Expect(err).ToNot(HaveOccurred())
		Expect(k1).To(Equal(k2))
	})

	It("fetches a tar.gz archive from a file: URL and publishes it into the cache", func() {
		c, root := newTestCache()

		srcDir, err := os.MkdirTemp("", "sourcecache-src-")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(srcDir)

		archivePath := buildTarGzFile(srcDir, map[string]string{
			"proj-1/hello.txt": "hi",
		})

		key, err := c.FetchArchive(context.Background(), "file:"+archivePath, "", "")
		Expect(err).ToNot(HaveOccurred())
		Expect(key).To(HavePrefix("tar.gz:"))
		Expect(c.Contains(key)).To(BeTrue())

		digest := key[len("tar.gz:"):]
		_, err = os.Stat(filepath.Join(root, "packs", "tar.gz", digest))
		Expect(err).ToNot(HaveOccurred())

		target, err := os.MkdirTemp("", "sourcecache-unpack-archive-")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(target)

		Expect(c.Unpack(context.Background(), key, target)).To(Succeed())

		data, err := os.ReadFile(filepath.Join(target, "hello.txt"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("hi"))
	})

	It("short-circuits FetchArchive when the expected digest is already cached", func() {
		c, _ := newTestCache()

		srcDir, err := os.MkdirTemp("", "sourcecache-src2-")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(srcDir)

		archivePath := buildTarGzFile(srcDir, map[string]string{"proj/f": "v"})

		key, err := c.FetchArchive(context.Background(), "file:"+archivePath, "", "")
		Expect(err).ToNot(HaveOccurred())
		digest := key[len("tar.gz:"):]

		Expect(os.RemoveAll(archivePath)).To(Succeed())

		got, err := c.FetchArchive(context.Background(), "file:"+archivePath, "tar.gz", digest)
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(key))
	})

	It("rejects an unrecognized key prefix", func() {
		c, _ := newTestCache()
		err := c.Unpack(context.Background(), "bogus:abcd", os.TempDir())
		Expect(err).To(HaveOccurred())
	})

	It("rejects a malformed key", func() {
		c, _ := newTestCache()
		err := c.Unpack(context.Background(), "no-colon-here", os.TempDir())
		Expect(err).To(HaveOccurred())
	})
})

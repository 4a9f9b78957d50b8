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
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3Source serves mirror entries of the form "s3://bucket/prefix" by issuing
// a GetObject for "prefix/packs/<type>/<digest>". An S3 "no such key" is the
// same non-fatal not-found FetchFromMirrors treats any other mirror miss as.
type s3Source struct {
	client *s3.Client
}

// NewS3Source builds an s3Source from the ambient AWS SDK configuration
// (environment, shared config file, or instance role).
func NewS3Source(ctx context.Context) (*s3Source, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, ErrorConfigInvalid.Error(err)
	}

	return &s3Source{client: s3.NewFromConfig(cfg)}, nil
}

func parseS3Mirror(mirror string) (bucket, prefix string) {
	rest := strings.TrimPrefix(mirror, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix
}

func (s *s3Source) fetch(ctx context.Context, mirror, typ, digest string) ([]byte, error) {
	bucket, prefix := parseS3Mirror(mirror)
	key := strings.TrimPrefix(prefix+"/packs/"+typ+"/"+digest, "/")

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awsString(bucket),
		Key:    awsString(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrorNotFound.Error(err)
		}
		return nil, ErrorDownload.Error(err)
	}
	defer func() { _ = out.Body.Close() }()

	var buf bytes.Buffer
	if _, err = io.Copy(&buf, out.Body); err != nil {
		return nil, ErrorDownload.Error(err)
	}

	return buf.Bytes(), nil
}

func awsString(s string) *string { return &s }

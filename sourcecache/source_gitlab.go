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
	"context"
	"strings"

	"github.com/xanzy/go-gitlab"
)

// gitlabSource resolves mirror entries of the form
// "gitlab://project/path/tag/asset-name-substring" to a release link URL,
// the same shape as githubSource but against a GitLab project's release API.
type gitlabSource struct {
	client *gitlab.Client
}

// NewGitlabSource returns a gitlabSource against the default gitlab.com API,
// optionally authenticated with token (pass "" for anonymous access to
// public projects).
func NewGitlabSource(token string) (*gitlabSource, error) {
	c, err := gitlab.NewClient(token)
	if err != nil {
		return nil, ErrorConfigInvalid.Error(err)
	}
	return &gitlabSource{client: c}, nil
}

func (g *gitlabSource) fetchArtifact(ctx context.Context, mirror string, b *ArchiveBackend) ([]byte, error) {
	project, tag, asset, err := parseGitlabMirror(mirror)
	if err != nil {
		return nil, err
	}

	release, _, err := g.client.Releases.GetRelease(project, tag, gitlab.WithContext(ctx))
	if err != nil {
		return nil, ErrorNotFound.Error(err)
	}

	for _, l := range release.Assets.Links {
		if strings.Contains(l.Name, asset) {
			return b.download(ctx, l.URL)
		}
	}

	return nil, ErrorNotFound.Errorf("no asset matching %q in %s release %s", asset, project, tag)
}

func parseGitlabMirror(mirror string) (project, tag, asset string, err error) {
	rest := strings.TrimPrefix(mirror, "gitlab://")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", ErrorInvalidArgument.Errorf("malformed gitlab mirror %q, want gitlab://project/tag/asset-pattern", mirror)
	}
	return parts[0], parts[1], parts[2], nil
}

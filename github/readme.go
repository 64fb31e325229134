// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/stargaze/core"
)

// MaxReadmeChars caps stored README content.
const MaxReadmeChars = 50_000

// FetchReadme retrieves the raw README of owner/name.
//
// A missing README, an unexpected status or a transport failure all yield an
// absent README and no error; the distinction is only logged. An error is
// returned only when ctx is done or the call stayed rate limited after every
// retry.
func (c *Client) FetchReadme(ctx context.Context, owner, name string) (core.Readme, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/readme", c.baseURL, url.PathEscape(owner), url.PathEscape(name))
	log := c.logger.With("repo", owner+"/"+name)

	resp, err := c.send(ctx, endpoint, acceptRaw)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.Readme{}, ctxErr
		}
		if errors.Is(err, ErrRateLimitExhausted) {
			return core.Readme{}, err
		}
		log.Warn("readme request failed", "err", err)
		return core.Readme{}, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		log.Debug("no readme")
		return core.Readme{}, nil
	default:
		log.Warn("unexpected readme status", "status", resp.StatusCode)
		return core.Readme{}, nil
	}

	// A rune is at most four bytes
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxReadmeChars*utf8.UTFMax))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.Readme{}, ctxErr
		}
		log.Warn("reading readme failed", "err", err)
		return core.Readme{}, nil
	}

	content := core.TruncateRunes(strings.TrimSpace(string(body)), MaxReadmeChars)
	if content == "" {
		return core.Readme{}, nil
	}

	format := core.ReadmeMarkdown
	if strings.Contains(resp.Header.Get("Content-Type"), "text/plain") {
		format = core.ReadmePlaintext
	}
	return core.Readme{Content: content, Format: format}, nil
}

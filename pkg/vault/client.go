/*
Copyright The Flotilla Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/flotilla-dev/flotilla/pkg/configparser"
	"github.com/flotilla-dev/flotilla/pkg/log"
)

const (
	connectionTimeout = 2 * time.Second
	requestTimeout    = 30 * time.Second

	tokenHeader = "X-Vault-Token" // #nosec
)

// Client is the live secret store client
type Client struct {
	client *http.Client
	addr   string
	token  string
}

// NewClient creates a client against the given store address,
// authenticating every request with the given token
func NewClient(addr, token string) (*Client, error) {
	if addr == "" {
		return nil, ErrMissingAddr
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	timeoutClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: connectionTimeout,
			}).DialContext,
		},
		Timeout: requestTimeout,
	}

	return &Client{
		client: timeoutClient,
		addr:   strings.TrimSuffix(addr, "/"),
		token:  token,
	}, nil
}

// NewClientFromEnv creates a client from the process environment, the way
// the vault CLI would
func NewClientFromEnv(env configparser.EnvironmentSource) (*Client, error) {
	addr, err := ResolveAddr(env)
	if err != nil {
		return nil, err
	}

	token, err := ResolveToken(env)
	if err != nil {
		return nil, err
	}

	return NewClient(addr, token)
}

// NewRegional creates a client against a region's own store address. The
// token still comes from the caller's environment.
func NewRegional(addr string, env configparser.EnvironmentSource) (*Client, error) {
	token, err := ResolveToken(env)
	if err != nil {
		return nil, err
	}
	return NewClient(addr, token)
}

// secretReply is the document the store returns for a single secret
type secretReply struct {
	Data map[string]interface{} `json:"data"`
}

// listReply is the document the store returns for a listing
type listReply struct {
	Data struct {
		Keys []string `json:"keys"`
	} `json:"data"`
}

// Read fetches the value stored at path. Integer values are coerced to
// their decimal string form; any other non-string payload is rejected.
func (c *Client) Read(ctx context.Context, path string) (string, error) {
	url := fmt.Sprintf("%s/v1/secret/%s", c.addr, path)

	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}

	var reply secretReply
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&reply); err != nil {
		return "", fmt.Errorf("malformed secret document at %s: %w", path, err)
	}

	raw, found := reply.Data["value"]
	if !found {
		return "", &InvalidSecretFormError{Path: path}
	}

	switch value := raw.(type) {
	case string:
		return value, nil
	case json.Number:
		return value.String(), nil
	default:
		return "", &InvalidSecretFormError{Path: path}
	}
}

// List enumerates the keys directly below path. Subfolders come back from
// the store with a trailing slash and are filtered out.
func (c *Client) List(ctx context.Context, path string) ([]string, error) {
	url := fmt.Sprintf("%s/v1/secret/%s?list=true", c.addr, path)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var reply listReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return nil, fmt.Errorf("malformed listing at %s: %w", path, err)
	}

	keys := make([]string, 0, len(reply.Data.Keys))
	for _, key := range reply.Data.Keys {
		if strings.HasSuffix(key, "/") {
			continue
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// Mode reports that this client returns real values
func (c *Client) Mode() Mode {
	return ModeStandard
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	log.FromContext(ctx).Trace("reading from secret store", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UnexpectedStatusError{Status: resp.StatusCode, URL: url}
	}

	return body, nil
}

// Package opendap reads subsets of remote gridded datasets from DAP2 servers
package opendap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ClientOptions configures a Client
type ClientOptions struct {
	Timeout  time.Duration // Per request; 0 keeps the 5 minute default
	Username string
	Password string
}

// Client talks to a DAP2 server over HTTP
type Client struct {
	httpClient *http.Client
	username   string
	password   string
	userAgent  string
}

// NewClient creates a DAP2 client
func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		username:   opts.Username,
		password:   opts.Password,
		userAgent:  "wind-wave (github.com/ngmaloney/wind-wave)",
	}
}

// Open reads the structure and attributes of the dataset at rawURL. No
// array data is transferred until a Selection is realized. Credentials
// embedded in rawURL take precedence over the client's.
func (c *Client) Open(ctx context.Context, rawURL string) (*Dataset, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing dataset address: %w", err)
	}

	username, password := c.username, c.password
	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
		u.User = nil
	}

	ds := &Dataset{
		client:   c,
		url:      u,
		username: username,
		password: password,
	}

	body, err := ds.get(ctx, ".dds", "")
	if err != nil {
		return nil, err
	}
	ds.DDS, err = ParseDDS(string(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ds.URL(), err)
	}

	body, err = ds.get(ctx, ".das", "")
	if err != nil {
		return nil, err
	}
	ds.Attrs, err = ParseDAS(string(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ds.URL(), err)
	}

	return ds, nil
}

// get fetches the dataset address with a response suffix and an optional
// constraint expression
func (ds *Dataset) get(ctx context.Context, suffix, constraint string) ([]byte, error) {
	u := *ds.url
	u.Path += suffix
	u.RawPath = ""
	u.RawQuery = escapeConstraint(constraint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", ds.client.userAgent)
	if ds.username != "" {
		req.SetBasicAuth(ds.username, ds.password)
	}

	resp, err := ds.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading body: %w", u.Redacted(), err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: u.Redacted(), StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	// Some servers answer 200 with a DAP error document
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("Error {")) {
		return nil, &StatusError{URL: u.Redacted(), StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

var dapErrorMessage = regexp.MustCompile(`message\s*=\s*"((?:[^"\\]|\\.)*)"`)

// errorMessage extracts the message of a DAP2 error document
func errorMessage(body []byte) string {
	m := dapErrorMessage.FindSubmatch(body)
	if m == nil {
		return ""
	}
	return string(m[1])
}

var constraintEscaper = strings.NewReplacer("[", "%5B", "]", "%5D", " ", "%20")

func escapeConstraint(ce string) string {
	return constraintEscaper.Replace(ce)
}

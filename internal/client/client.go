// Package client talks to a program registry over HTTP.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned when the registry has no program with the hash.
var ErrNotFound = errors.New("program not found")

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type UploadResult struct {
	Hash          string   `json:"hash"`
	AlreadyExists bool     `json:"already_exists"`
	Version       int      `json:"version"`
	Layout        string   `json:"layout"`
	Builtins      []string `json:"builtins"`
}

type Metadata struct {
	Version   int       `json:"version"`
	Layout    string    `json:"layout"`
	Builtins  []string  `json:"builtins"`
	CreatedAt time.Time `json:"created_at"`
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Err  string          `json:"err"`
	Data json.RawMessage `json:"data"`
}

// Upload sends a compiled program under the multipart field "program".
func (c *Client) Upload(ctx context.Context, filename string, program []byte) (*UploadResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("program", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(program); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-program", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	var result UploadResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &result, nil
}

// Download returns the stored program bytes.
func (c *Client) Download(ctx context.Context, hash string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get-program?"+hashQuery(hash), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) Metadata(ctx context.Context, hash string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get-metadata?"+hashQuery(hash), nil)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return &meta, nil
}

func hashQuery(hash string) string {
	return url.Values{"program_hash": {hash}}.Encode()
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Err != "" {
			return nil, fmt.Errorf("registry returned %d: %s", resp.StatusCode, env.Err)
		}
		return nil, fmt.Errorf("registry returned %d", resp.StatusCode)
	}
	return raw, nil
}

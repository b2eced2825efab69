// Package central talks to Test Central: the reachability probe, SSO login and
// outpost registration.
package central

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/testcentral/outpost/internal/models"
	serviceErrs "github.com/testcentral/outpost/pkg/errors"
)

const maxBodySize = 1 << 20

// RequestEditorFn is called on every request before it is sent.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

type ClientOption func(c *Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *Client) {
		c.editors = append(c.editors, fn)
	}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	editors    []RequestEditorFn
}

func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) (*Client, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("invalid test central url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type ssoRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ssoResponse struct {
	Status  bool   `json:"status"`
	Session string `json:"session"`
	Message string `json:"message"`
}

type registerResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// Ping checks that Test Central answers 200 on its base url.
// GET /
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode != http.StatusOK {
		return serviceErrs.NewCentralClientError(resp.StatusCode, fmt.Sprintf("please check the test central host, got %s", resp.Status))
	}
	return nil
}

// Authenticate exchanges an email and password for a session.
// POST {ssoPath}
func (c *Client) Authenticate(ctx context.Context, ssoPath, email, password string) (*models.Session, error) {
	var out ssoResponse
	code, err := c.postJSON(ctx, ssoPath, ssoRequest{Email: email, Password: password}, "", &out)
	if err != nil {
		return nil, err
	}

	if !out.Status || out.Session == "" {
		msg := out.Message
		if msg == "" {
			msg = "authentication failed"
		}
		return nil, serviceErrs.NewCentralClientError(code, msg)
	}

	return &models.Session{
		Email:      email,
		Token:      out.Session,
		ObtainedAt: time.Now().UTC(),
	}, nil
}

// Register announces the outpost.
// POST {registerPath}
func (c *Client) Register(ctx context.Context, registerPath string, reg models.Registration, token string) error {
	var out registerResponse
	code, err := c.postJSON(ctx, registerPath, reg, token, &out)
	if err != nil {
		return err
	}

	if !out.Status {
		msg := out.Message
		if msg == "" {
			msg = "registration rejected"
		}
		return serviceErrs.NewCentralClientError(code, msg)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in any, token string, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}

	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body), token)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response of %s: %w", path, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode >= 400 {
			return resp.StatusCode, serviceErrs.NewCentralClientError(resp.StatusCode, resp.Status)
		}
		return resp.StatusCode, fmt.Errorf("decoding response of %s: %w", path, err)
	}

	return resp.StatusCode, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	for _, fn := range c.editors {
		if err := fn(ctx, req); err != nil {
			return nil, err
		}
	}

	return c.httpClient.Do(req)
}

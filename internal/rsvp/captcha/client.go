package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client verifies tokens against a siteverify endpoint such as Cloudflare
// Turnstile or Google reCAPTCHA. Both speak the same form-encoded protocol.
type Client struct {
	endpoint   string
	secret     string
	minScore   float64
	httpClient *http.Client
}

type Option func(*Client)

// WithMinScore rejects successful verifications whose score falls below the
// threshold. Only applies to providers that return scores.
func WithMinScore(min float64) Option {
	return func(c *Client) { c.minScore = min }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(endpoint, secret string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		secret:   secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Verify(ctx context.Context, token, remoteIP string) (Verification, error) {
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Verification{}, fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Verification{}, fmt.Errorf("call siteverify: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Verification{}, fmt.Errorf("siteverify: HTTP %d", resp.StatusCode)
	}

	var result struct {
		Success    bool     `json:"success"`
		Score      float64  `json:"score"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return Verification{}, fmt.Errorf("decode siteverify response: %w", err)
	}

	v := Verification{Success: result.Success, Score: result.Score}
	if v.Success && c.minScore > 0 && v.Score < c.minScore {
		v.Success = false
	}
	return v, nil
}

// Package payment is a client for the PhonePe standard checkout and UPI AutoPay apis.
package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
)

// Gateway endpoints.
const (
	SandboxBaseURL     = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	SandboxTokenURL    = "https://api-preprod.phonepe.com/apis/pg-sandbox/v1/oauth/token"
	ProductionBaseURL  = "https://api.phonepe.com/apis/pg"
	ProductionTokenURL = "https://api.phonepe.com/apis/identity-manager/v1/oauth/token"

	defaultTimeout = 15 * time.Second
	authScheme     = "O-Bearer"
)

// Client talks to the gateway. It is safe for concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	tokens      oauth2.TokenSource
	configured  bool
	webhookAuth string
}

// New creates a client for the configured environment.
func New(cfg config.PhonePe) *Client {
	baseURL, tokenURL := SandboxBaseURL, SandboxTokenURL
	if cfg.Environment == config.PhonePeProduction {
		baseURL, tokenURL = ProductionBaseURL, ProductionTokenURL
	}

	return NewWithEndpoints(cfg, baseURL, tokenURL, nil)
}

// NewWithEndpoints creates a client against explicit endpoints, used with test servers.
func NewWithEndpoints(cfg config.PhonePe, baseURL, tokenURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}

		httpClient = &http.Client{Timeout: timeout}
	}

	cc := &clientcredentials.Config{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		TokenURL:       tokenURL,
		EndpointParams: url.Values{"client_version": {cfg.ClientVersion}},
		AuthStyle:      oauth2.AuthStyleInParams,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	c := &Client{
		baseURL:    baseURL,
		http:       httpClient,
		tokens:     oauth2.ReuseTokenSource(nil, expiringSource{ctx: ctx, cfg: cc}),
		configured: cfg.ClientID != "" && cfg.ClientSecret != "",
	}

	if cfg.WebhookUsername != "" || cfg.WebhookPassword != "" {
		c.webhookAuth = WebhookAuthorization(cfg.WebhookUsername, cfg.WebhookPassword)
	}

	return c
}

// WebhookAuthorization returns the expected callback Authorization header value.
func WebhookAuthorization(username, password string) string {
	sum := sha256.Sum256([]byte(username + ":" + password))
	return hex.EncodeToString(sum[:])
}

// expiringSource fetches a token and fills its expiry from expires_at,
// the gateway leaves expires_in empty.
type expiringSource struct {
	ctx context.Context //nolint:containedctx
	cfg *clientcredentials.Config
}

// Token implements oauth2.TokenSource.
func (s expiringSource) Token() (*oauth2.Token, error) {
	tok, err := s.cfg.Token(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("phonepe token: %w", err)
	}

	if tok.Expiry.IsZero() {
		if at := unixSeconds(tok.Extra("expires_at")); at > 0 {
			tok.Expiry = time.Unix(at, 0)
		} else {
			// no expiry reported, refresh on every call rather than caching forever
			tok.Expiry = time.Now().Add(time.Minute)
		}
	}

	return tok, nil
}

func unixSeconds(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case json.Number:
		n, _ := t.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}

// do sends body as json and decodes the answer into out.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out interface{}) (err error) {
	defer func() { observe(operation, err) }()

	if !c.configured {
		return ErrNotConfigured
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return err
	}

	var reader io.Reader

	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			return fmt.Errorf("phonepe %s: encode request: %w", operation, errMarshal)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("phonepe %s: %w", operation, err)
	}

	req.Header.Set("Authorization", authScheme+" "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("phonepe %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("phonepe %s: read response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)

		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}

		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err = json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("phonepe %s: decode response: %w", operation, err)
	}

	return nil
}

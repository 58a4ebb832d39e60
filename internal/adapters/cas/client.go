// Package cas implements a CAS 2.0 protocol client: building the redirect
// URLs for the login/logout handshakes and validating service tickets via
// the serviceValidate endpoint.
package cas

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/bamawebtide/ua-mybama-cas-auth/internal/domain/auth"
	apperrors "github.com/bamawebtide/ua-mybama-cas-auth/internal/errors"
)

const validateTimeout = 10 * time.Second

// Config carries the CAS server coordinates resolved from the policy store.
type Config struct {
	// Host is the CAS server host, without scheme (e.g. "cas.ua.edu").
	Host string
	// Context is the URL path prefix of the CAS application (e.g. "/cas").
	Context string
	// TestMode disables TLS verification of the CAS server. Never enable in
	// production; validating the server is crucial to the protocol's security.
	TestMode bool
	// HTTPClient overrides the validation transport (used by tests).
	HTTPClient *http.Client
}

// Client is a CAS protocol client bound to one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a Client from resolved server coordinates. It returns a
// config_incomplete error when host or context is unset; callers must treat
// that as "authentication unavailable", not a fatal error.
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" || cfg.Context == "" {
		return nil, apperrors.ConfigIncomplete("cas host or context is not configured")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := &http.Transport{}
		if cfg.TestMode {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // test-mode servers carry self-signed certs
		}
		httpClient = &http.Client{Transport: transport, Timeout: validateTimeout}
	}

	ctxPath := "/" + strings.Trim(cfg.Context, "/")
	return &Client{
		baseURL:    "https://" + cfg.Host + ctxPath,
		httpClient: httpClient,
	}, nil
}

// LoginURL returns the CAS login entry point with the service URL attached.
// Redirecting the requester there ends the current request; the CAS server
// calls back to service with a ?ticket= parameter.
func (c *Client) LoginURL(service string) string {
	q := url.Values{}
	q.Set("service", service)
	return c.baseURL + "/login?" + q.Encode()
}

// LogoutURL returns the CAS logout entry point. When redirect is non-empty
// the CAS server sends the user there after terminating its session.
func (c *Client) LogoutURL(redirect string) string {
	if redirect == "" {
		return c.baseURL + "/logout"
	}
	q := url.Values{}
	q.Set("service", redirect)
	return c.baseURL + "/logout?" + q.Encode()
}

// ValidateTicket verifies a service ticket against the serviceValidate
// endpoint and returns the asserted identity with its attributes.
func (c *Client) ValidateTicket(ctx context.Context, ticket, service string) (domainauth.Identity, error) {
	q := url.Values{}
	q.Set("ticket", ticket)
	q.Set("service", service)
	validateURL := c.baseURL + "/serviceValidate?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, validateURL, nil)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("build validate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("validate ticket: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domainauth.Identity{}, fmt.Errorf("validate ticket: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("read validate response: %w", err)
	}

	return parseServiceResponse(body)
}

// serviceResponse mirrors the CAS 2.0 serviceValidate XML envelope.
type serviceResponse struct {
	XMLName xml.Name       `xml:"serviceResponse"`
	Success *authSuccess   `xml:"authenticationSuccess"`
	Failure *authFailure   `xml:"authenticationFailure"`
}

type authSuccess struct {
	User       string        `xml:"user"`
	Attributes attributeList `xml:"attributes"`
}

type authFailure struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// attributeList collects arbitrary attribute elements; CAS servers emit
// attribute names as element local names.
type attributeList struct {
	Items []attributeItem `xml:",any"`
}

type attributeItem struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

func parseServiceResponse(body []byte) (domainauth.Identity, error) {
	var sr serviceResponse
	if err := xml.Unmarshal(body, &sr); err != nil {
		return domainauth.Identity{}, fmt.Errorf("parse validate response: %w", err)
	}

	if sr.Failure != nil {
		return domainauth.Identity{}, apperrors.Deniedf(
			"cas authentication failure %s: %s",
			sr.Failure.Code, strings.TrimSpace(sr.Failure.Message))
	}
	if sr.Success == nil || sr.Success.User == "" {
		return domainauth.Identity{}, apperrors.Denied("cas response carried no authenticated user")
	}

	identity := domainauth.Identity{
		Username:   sr.Success.User,
		Attributes: make(map[string]string, len(sr.Success.Attributes.Items)),
	}
	for _, item := range sr.Success.Attributes.Items {
		name := strings.ToLower(item.XMLName.Local)
		if v := strings.TrimSpace(item.Value); v != "" {
			identity.Attributes[name] = v
		}
	}
	return identity, nil
}

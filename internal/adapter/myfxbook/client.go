// Package myfxbook is a client for the MyFxBook JSON API.
package myfxbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pipaura/internal/domain"
	"pipaura/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultBaseURL    = "https://www.myfxbook.com/api"
	DefaultSessionTTL = 24 * time.Hour

	endpointLogin    = "login.json"
	endpointAccounts = "get-my-accounts.json"
	endpointHistory  = "get-history.json"
)

var errMalformedPayload = errors.New("malformed MyFxBook payload")

// Config configures the client. Zero values fall back to defaults.
type Config struct {
	BaseURL    string
	SessionTTL time.Duration
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting
}

// Client implements domain.BrokerClient
type Client struct {
	baseURL    string
	sessionTTL time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
	now        func() time.Time
}

// NewClient creates a MyFxBook API client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		sessionTTL: cfg.SessionTTL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		log:        log.With().Str("component", "myfxbook").Logger(),
		now:        time.Now,
	}
}

// Every MyFxBook response carries an error flag and a message
type loginResponse struct {
	Error   domain.FlexString `json:"error"`
	Message string            `json:"message"`
	Session string            `json:"session"`
}

type accountsResponse struct {
	Error    domain.FlexString      `json:"error"`
	Message  string                 `json:"message"`
	Accounts []domain.BrokerAccount `json:"accounts"`
}

type historyResponse struct {
	Error   domain.FlexString    `json:"error"`
	Message string               `json:"message"`
	History []domain.BrokerTrade `json:"history"`
}

// sessionRejected reports a remote error that refers to the session token
func sessionRejected(errFlag domain.FlexString, message string) bool {
	return strings.EqualFold(errFlag.String(), "true") &&
		strings.Contains(strings.ToLower(message), "session")
}

// Login authenticates with MyFxBook. The API does not report an expiry, so the
// session is assumed valid for the configured TTL.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.BrokerSession, error) {
	params := url.Values{}
	params.Set("email", email)
	params.Set("password", password)

	var resp loginResponse
	if err := c.get(ctx, endpointLogin, params, &resp); err != nil {
		if errors.Is(err, errMalformedPayload) {
			return nil, &domain.TransportError{Endpoint: endpointLogin, Err: err}
		}
		return nil, err
	}

	if resp.Session == "" {
		reason := "MyFxBook login failed"
		if resp.Message != "" {
			reason = resp.Message
		}
		return nil, &domain.AuthenticationError{Reason: reason}
	}

	return &domain.BrokerSession{
		SessionID: resp.Session,
		ExpiresAt: c.now().Add(c.sessionTTL),
	}, nil
}

// ListAccounts returns the accounts visible to the session
func (c *Client) ListAccounts(ctx context.Context, sessionID string) ([]domain.BrokerAccount, error) {
	params := url.Values{}
	params.Set("session", sessionID)

	var resp accountsResponse
	if err := c.get(ctx, endpointAccounts, params, &resp); err != nil {
		if errors.Is(err, errMalformedPayload) {
			c.log.Warn().Err(err).Msg("Treating malformed accounts payload as empty")
			return []domain.BrokerAccount{}, nil
		}
		return nil, err
	}

	if sessionRejected(resp.Error, resp.Message) {
		metrics.BrokerRequests.WithLabelValues(endpointAccounts, "session_invalid").Inc()
		return nil, domain.ErrSessionInvalid
	}

	if resp.Accounts == nil {
		return []domain.BrokerAccount{}, nil
	}
	return resp.Accounts, nil
}

// ListTrades returns trade history for one account, starting after sinceTicketID when given
func (c *Client) ListTrades(ctx context.Context, sessionID, brokerAccountID, sinceTicketID string) ([]domain.BrokerTrade, error) {
	params := url.Values{}
	params.Set("session", sessionID)
	params.Set("id", brokerAccountID)
	if sinceTicketID != "" {
		params.Set("startId", sinceTicketID)
	}

	var resp historyResponse
	if err := c.get(ctx, endpointHistory, params, &resp); err != nil {
		if errors.Is(err, errMalformedPayload) {
			c.log.Warn().Err(err).Str("account_id", brokerAccountID).Msg("Treating malformed history payload as empty")
			return []domain.BrokerTrade{}, nil
		}
		return nil, err
	}

	if sessionRejected(resp.Error, resp.Message) {
		metrics.BrokerRequests.WithLabelValues(endpointHistory, "session_invalid").Inc()
		return nil, domain.ErrSessionInvalid
	}

	if resp.History == nil {
		return []domain.BrokerTrade{}, nil
	}
	return resp.History, nil
}

// get performs a rate-limited GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.BrokerRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BrokerRequests.WithLabelValues(endpoint, "transport_error").Inc()
		return &domain.TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.BrokerRequests.WithLabelValues(endpoint, "http_error").Inc()
		c.log.Error().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("MyFxBook API HTTP error")
		return &domain.TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.BrokerRequests.WithLabelValues(endpoint, "transport_error").Inc()
		return &domain.TransportError{Endpoint: endpoint, Err: err}
	}

	metrics.BrokerRequests.WithLabelValues(endpoint, "ok").Inc()

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", errMalformedPayload, endpoint, err)
	}
	return nil
}

package chaindata

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mrz1836/accounthub/internal/address"
	"github.com/mrz1836/accounthub/internal/config"
	"github.com/mrz1836/accounthub/internal/metrics"
	"github.com/mrz1836/accounthub/internal/plugin"
	huberr "github.com/mrz1836/accounthub/pkg/errors"
)

const (
	// defaultTimeout is the default HTTP request timeout.
	defaultTimeout = 15 * time.Second

	// maxResponseBody is the maximum response body size to read (1 MB).
	maxResponseBody = 1 << 20

	// Indexer resources, also used as rate limiter endpoints.
	resourceMultisig = "multisig"
	resourceProxies  = "proxies"
	resourceBalance  = "balance"
	resourceIdentity = "identity"
)

// ClientOptions configures the indexer client.
type ClientOptions struct {
	// APIKey is sent as a bearer token when set.
	APIKey string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// RatePerSecond and Burst configure per-resource rate limiting.
	RatePerSecond float64
	Burst         int
	// Timeout overrides the default request timeout.
	Timeout time.Duration
	// Retry overrides the default retry policy.
	Retry *RetryConfig
	// Breaker overrides the default circuit breaker settings.
	Breaker *BreakerSettings
	// Log receives request failures and breaker transitions.
	Log config.LogWriter
}

// HTTPClient queries a chain indexer over JSON HTTP endpoints of the form
// GET {base}/{resource}/{address}. A 404 means not found.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *RateLimiter
	breaker     *gobreaker.CircuitBreaker
	retry       RetryConfig
	log         config.LogWriter
}

// NewHTTPClient creates an indexer client for baseURL.
func NewHTTPClient(baseURL string, opts *ClientOptions) (*HTTPClient, error) {
	baseURL = strings.TrimRight(config.SanitizeURL(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || baseURL == "" || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, huberr.WithDetails(huberr.ErrConfigInvalid, map[string]string{
			"field": "indexer.url",
			"value": baseURL,
		})
	}
	if opts == nil {
		opts = &ClientOptions{}
	}

	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		retry: DefaultRetryConfig(),
		log:   config.Named(opts.Log, "chaindata"),
	}
	if opts.HTTPClient != nil {
		c.httpClient = opts.HTTPClient
	}
	if opts.Timeout > 0 {
		c.httpClient.Timeout = opts.Timeout
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}

	ratePerSecond, burst := opts.RatePerSecond, opts.Burst
	if ratePerSecond <= 0 {
		ratePerSecond, burst = 5, 5
	}
	c.rateLimiter = NewRateLimiter(ratePerSecond, burst)

	breaker := DefaultBreakerSettings()
	if opts.Breaker != nil {
		breaker = *opts.Breaker
	}
	c.breaker = newBreaker("indexer", breaker, c.log)

	return c, nil
}

type multisigResponse struct {
	Signatories []string `json:"signatories"`
	Threshold   int      `json:"threshold"`
}

type relationResponse struct {
	Real     string `json:"real"`
	Delegate string `json:"delegate"`
}

type proxiesResponse struct {
	Relations []relationResponse `json:"relations"`
}

type balanceResponse struct {
	Value    string `json:"value"`
	Decimals int    `json:"decimals"`
	Symbol   string `json:"symbol"`
}

type identityResponse struct {
	Name     string `json:"name"`
	SubID    string `json:"sub_id"`
	Verified bool   `json:"verified"`
}

// GetMultisig returns the multisig descriptor of addr, or nil.
func (c *HTTPClient) GetMultisig(ctx context.Context, addr address.Address) (*plugin.MultisigDescriptor, error) {
	var resp multisigResponse
	found, err := c.get(ctx, resourceMultisig, addr, &resp)
	if err != nil || !found {
		return nil, err
	}
	if resp.Threshold < 1 || resp.Threshold > len(resp.Signatories) {
		return nil, huberr.WithDetails(ErrAPIError, map[string]string{
			"address":   addr.String(),
			"threshold": strconv.Itoa(resp.Threshold),
		})
	}
	signatories := make([]address.Address, len(resp.Signatories))
	for i, s := range resp.Signatories {
		signatories[i] = address.Address(s)
	}
	return &plugin.MultisigDescriptor{Signatories: signatories, Threshold: resp.Threshold}, nil
}

// GetDelegates returns the proxy relations of addr. Nil means the indexer
// has no proxy data for addr.
func (c *HTTPClient) GetDelegates(ctx context.Context, addr address.Address) ([]plugin.ProxyRelation, error) {
	var resp proxiesResponse
	found, err := c.get(ctx, resourceProxies, addr, &resp)
	if err != nil || !found || resp.Relations == nil {
		return nil, err
	}
	out := make([]plugin.ProxyRelation, len(resp.Relations))
	for i, r := range resp.Relations {
		out[i] = plugin.ProxyRelation{Real: address.Address(r.Real), Delegate: address.Address(r.Delegate)}
	}
	return out, nil
}

// GetBalance returns the balance of addr, or nil.
func (c *HTTPClient) GetBalance(ctx context.Context, addr address.Address) (*plugin.Balance, error) {
	var resp balanceResponse
	found, err := c.get(ctx, resourceBalance, addr, &resp)
	if err != nil || !found {
		return nil, err
	}
	value, ok := new(big.Int).SetString(resp.Value, 10)
	if !ok {
		return nil, huberr.WithDetails(ErrAPIError, map[string]string{
			"address": addr.String(),
			"value":   truncateBody(resp.Value, 64),
		})
	}
	return &plugin.Balance{Value: value, Decimals: resp.Decimals, Symbol: resp.Symbol}, nil
}

// GetIdentity returns the on-chain identity of addr, or nil.
func (c *HTTPClient) GetIdentity(ctx context.Context, addr address.Address) (*plugin.Identity, error) {
	var resp identityResponse
	found, err := c.get(ctx, resourceIdentity, addr, &resp)
	if err != nil || !found || resp.Name == "" {
		return nil, err
	}
	return &plugin.Identity{Name: resp.Name, SubID: resp.SubID, Verified: resp.Verified}, nil
}

// get fetches resource for addr into out through the retry policy and the
// circuit breaker. It reports false when the indexer answers 404.
func (c *HTTPClient) get(ctx context.Context, resource string, addr address.Address, out any) (bool, error) {
	return Retry(ctx, c.retry, func() (bool, error) {
		// A cancelled caller is not an indexer failure and must not count
		// towards tripping the breaker.
		var cancelled error
		v, err := c.breaker.Execute(func() (interface{}, error) {
			found, err := c.doRequest(ctx, resource, addr, out)
			if err != nil && ctx.Err() != nil {
				cancelled = ctx.Err()
				return false, nil
			}
			return found, err
		})
		if cancelled != nil {
			return false, cancelled
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return false, huberr.WithDetails(ErrUnavailable, map[string]string{"resource": resource})
		}
		if err != nil {
			return false, err
		}
		found, _ := v.(bool)
		return found, nil
	})
}

// doRequest performs one GET request and decodes a 200 body into out.
func (c *HTTPClient) doRequest(ctx context.Context, resource string, addr address.Address, out any) (found bool, err error) {
	start := time.Now()
	defer func() {
		metrics.Global.RecordRPCCall(time.Since(start), err)
		if err != nil && ctx.Err() == nil {
			c.log.Error("%s lookup for %s failed: %v", resource, addr, err)
		}
	}()

	if err := c.rateLimiter.Wait(ctx, resource); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, resource, url.PathEscape(addr.String()))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq) //nolint:gosec // G704: URL is built from validated config
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, WrapRetryable(huberr.Wrap(huberr.ErrNetworkError, "sending request: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return false, WrapRetryable(fmt.Errorf("reading response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return false, huberr.WithDetails(ErrRateLimited, map[string]string{
			"retry_after": ParseRetryAfter(resp.Header.Get("Retry-After")).String(),
		})
	case resp.StatusCode >= http.StatusInternalServerError:
		return false, WrapRetryable(huberr.WithDetails(ErrAPIError, map[string]string{
			"status": strconv.Itoa(resp.StatusCode),
			"body":   truncateBody(string(body), 512),
		}))
	case resp.StatusCode != http.StatusOK:
		return false, huberr.WithDetails(ErrAPIError, map[string]string{
			"status": strconv.Itoa(resp.StatusCode),
			"body":   truncateBody(string(body), 512),
		})
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("parsing %s response: %w", resource, err)
	}
	return true, nil
}

// truncateBody truncates a string to maxLen characters.
func truncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

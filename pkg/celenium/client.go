package celenium

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "celvest/pkg/errors"
	"celvest/pkg/logger"
	"celvest/pkg/ratelimit"
	"celvest/pkg/retry"
)

// Client is a rate-limited, retrying HTTP client for the Celenium API.
// A single token is taken from the shared limiter before every request
// attempt, so the sustained request rate stays bounded no matter how many
// goroutines share the client or how often requests are retried.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	retryCfg   *retry.Config
	logger     logger.Logger
}

// NewClient creates a new Celenium API client. A nil limiter disables
// rate limiting and a nil retry config applies the default retry-forever
// policy with constant backoff.
func NewClient(baseURL string, timeout time.Duration, limiter ratelimit.Limiter, retryCfg *retry.Config, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "celvest/1.0",
		},
		baseURL:  baseURL,
		limiter:  limiter,
		retryCfg: retryCfg,
		logger:   log,
	}
}

// BaseURL returns the API base URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetAPIKey attaches a Celenium API key to every request
func (c *Client) SetAPIKey(key string) {
	if key != "" {
		c.headers["apikey"] = key
	}
}

// doRequest performs a single HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, float64(duration.Milliseconds()))

	return resp, nil
}

// getJSON performs a single GET attempt and decodes the JSON response
func (c *Client) getJSON(url string, target interface{}) error {
	// Respect the upstream rate limit before every attempt
	c.limiter.Wait()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// fetchJSON runs getJSON under the client's retry policy
func (c *Client) fetchJSON(url string, target interface{}) error {
	return retry.Do(func() error {
		return c.getJSON(url, target)
	}, c.retryCfg)
}

// checkResponseStatus maps HTTP response statuses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &errs.Error{
			Type:    errs.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}
}

// FetchAddresses fetches one page of the address listing
func (c *Client) FetchAddresses(limit, offset int64) ([]Address, error) {
	url := AddressesURL(c.baseURL, limit, offset)

	c.logger.InfoWithFields("fetching addresses batch", map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})

	var addresses []Address
	if err := c.fetchJSON(url, &addresses); err != nil {
		return nil, fmt.Errorf("failed to fetch addresses at offset %d: %w", offset, err)
	}

	c.logger.InfoWithFields("fetched addresses batch", map[string]interface{}{
		"offset": offset,
		"count":  len(addresses),
	})

	return addresses, nil
}

// FetchVestings fetches the vesting schedule for an address
func (c *Client) FetchVestings(hash string) ([]VestingRecord, error) {
	url := VestingsURL(c.baseURL, hash)

	c.logger.DebugWithFields("fetching vestings", map[string]interface{}{
		"address": hash,
	})

	var vestings []VestingRecord
	if err := c.fetchJSON(url, &vestings); err != nil {
		return nil, fmt.Errorf("failed to fetch vestings for %s: %w", hash, err)
	}

	return vestings, nil
}

// FetchTransactions fetches one page of an address's transactions filtered
// by message type
func (c *Client) FetchTransactions(hash string, limit, offset int64, msgType string) ([]Transaction, error) {
	url := TransactionsURL(c.baseURL, hash, limit, offset, msgType)

	c.logger.InfoWithFields("fetching transactions", map[string]interface{}{
		"address": hash,
		"offset":  offset,
	})

	var txs []Transaction
	if err := c.fetchJSON(url, &txs); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for %s: %w", hash, err)
	}

	c.logger.InfoWithFields("fetched transactions", map[string]interface{}{
		"address": hash,
		"count":   len(txs),
	})

	return txs, nil
}

// FetchEvents fetches the events attached to a transaction
func (c *Client) FetchEvents(txHash string, limit int64) ([]Event, error) {
	url := EventsURL(c.baseURL, txHash, limit)

	c.logger.DebugWithFields("fetching transaction events", map[string]interface{}{
		"tx_hash": txHash,
	})

	var events []Event
	if err := c.fetchJSON(url, &events); err != nil {
		return nil, fmt.Errorf("failed to fetch events for tx %s: %w", txHash, err)
	}

	return events, nil
}

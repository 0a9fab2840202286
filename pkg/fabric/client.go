// Package fabric is the REST client for Microsoft Fabric APIs.
package fabric

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/amaliebjorgen/fabricops/pkg/auth"
)

// BaseURL is the Microsoft Fabric REST API endpoint.
const BaseURL = "https://api.fabric.microsoft.com/v1"

// Client is the REST client for Microsoft Fabric APIs.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	scope      string
	httpClient *http.Client
	logger     *zap.Logger

	maxRetries   uint
	retryInitial time.Duration
	lroInterval  time.Duration
	lroMaxPolls  int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithRetry tunes the transient-failure retry policy.
func WithRetry(maxRetries uint, initial time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryInitial = initial
	}
}

// withLROPolicy tunes long-running-operation polling, used by tests.
func withLROPolicy(interval time.Duration, maxPolls int) ClientOption {
	return func(c *Client) {
		c.lroInterval = interval
		c.lroMaxPolls = maxPolls
	}
}

// NewClient creates a new Fabric API client.
func NewClient(tokens auth.TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:      BaseURL,
		tokens:       tokens,
		scope:        auth.FabricScope,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       zap.NewNop(),
		maxRetries:   4,
		retryInitial: 500 * time.Millisecond,
		lroInterval:  5 * time.Second,
		lroMaxPolls:  10,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the Fabric or Power BI API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("fabric API error %d (%s): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("fabric API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type errorBody struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// doRequest performs a request against the Fabric API with bounded
// exponential backoff on 429 and 5xx responses. Responses with status 202
// and a Location header are treated as long-running operations and polled to
// completion.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.retryInitial

	operation := func() ([]byte, error) {
		return c.attempt(ctx, method, reqURL, payload)
	}
	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			c.logger.Debug("retrying fabric request",
				zap.String("method", method),
				zap.String("url", reqURL),
				zap.Duration("wait", wait),
				zap.Error(err))
		}),
	)
	if err != nil {
		return err
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding fabric response: %w", err)
		}
	}
	return nil
}

// attempt issues one HTTP request and returns the response body. Transient
// failures come back as plain errors so the backoff loop retries them;
// non-retryable API errors are marked permanent.
func (c *Client) attempt(ctx context.Context, method, reqURL string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	token, err := c.tokens.Token(ctx, c.scope)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("getting fabric auth token: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("fabric request", zap.String("method", method), zap.String("url", reqURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusAccepted {
		if location := resp.Header.Get("Location"); location != "" {
			data, err := c.pollOperation(ctx, location)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			return data, nil
		}
		return nil, nil
	}

	if resp.StatusCode >= 400 {
		apiErr := readAPIError(resp)
		if !retryable(resp.StatusCode) {
			return nil, backoff.Permanent(apiErr)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
				return nil, backoff.RetryAfter(seconds)
			}
		}
		return nil, apiErr
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("reading fabric response: %w", err))
	}
	return data, nil
}

func readAPIError(resp *http.Response) *APIError {
	b, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(b)}

	var body errorBody
	if err := json.Unmarshal(b, &body); err == nil && body.ErrorCode != "" {
		apiErr.ErrorCode = body.ErrorCode
		apiErr.Message = body.Message
	}
	return apiErr
}

// operationState is the status document of a long-running operation.
type operationState struct {
	Status string `json:"status"`
	Error  *struct {
		ErrorCode string `json:"errorCode"`
		Message   string `json:"message"`
	} `json:"error"`
}

// pollOperation polls a long-running operation until it reaches a terminal
// state, then fetches its result document.
func (c *Client) pollOperation(ctx context.Context, location string) ([]byte, error) {
	for poll := 0; poll < c.lroMaxPolls; poll++ {
		state, err := c.getOperationState(ctx, location)
		if err != nil {
			return nil, err
		}

		switch state.Status {
		case "Succeeded":
			return c.getOperationResult(ctx, location)
		case "Failed", "Undefined":
			if state.Error != nil {
				return nil, &APIError{
					StatusCode: http.StatusBadRequest,
					ErrorCode:  state.Error.ErrorCode,
					Message:    state.Error.Message,
				}
			}
			return nil, fmt.Errorf("fabric operation ended with status %q", state.Status)
		case "Running", "NotStarted":
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.lroInterval):
			}
		default:
			return nil, fmt.Errorf("fabric operation reported unknown status %q", state.Status)
		}
	}
	return nil, fmt.Errorf("fabric operation at %s did not complete after %d polls", location, c.lroMaxPolls)
}

func (c *Client) getOperationState(ctx context.Context, location string) (*operationState, error) {
	data, err := c.rawGet(ctx, location)
	if err != nil {
		return nil, err
	}
	var state operationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding operation state: %w", err)
	}
	return &state, nil
}

func (c *Client) getOperationResult(ctx context.Context, location string) ([]byte, error) {
	return c.rawGet(ctx, location+"/result")
}

// rawGet issues a single authenticated GET against an absolute URL.
func (c *Client) rawGet(ctx context.Context, absURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, absURL, nil)
	if err != nil {
		return nil, err
	}
	token, err := c.tokens.Token(ctx, c.scope)
	if err != nil {
		return nil, fmt.Errorf("getting fabric auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, readAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}

// page is the envelope of a paginated list response.
type page[T any] struct {
	Value             []T    `json:"value"`
	ContinuationToken string `json:"continuationToken"`
}

// collectPages fetches every page of a list endpoint, following
// continuation tokens until the last page.
func collectPages[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	var all []T
	token := ""
	for {
		pageParams := url.Values{}
		for k, vs := range params {
			pageParams[k] = vs
		}
		if token != "" {
			pageParams.Set("continuationToken", token)
		}

		var p page[T]
		if err := c.doRequest(ctx, http.MethodGet, path, pageParams, nil, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Value...)
		if p.ContinuationToken == "" {
			return all, nil
		}
		token = p.ContinuationToken
	}
}

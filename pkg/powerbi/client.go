// Package powerbi is the REST client for the Power BI APIs that have no
// Fabric equivalent: gen1 dataflows and dataset refreshes.
package powerbi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/amaliebjorgen/fabricops/pkg/auth"
)

// BaseURL is the Power BI REST API endpoint.
const BaseURL = "https://api.powerbi.com/v1.0/myorg"

// Client is the REST client for Power BI APIs.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new Power BI API client.
func NewClient(tokens auth.TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    BaseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs a request against the Power BI API.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	token, err := c.tokens.Token(ctx, auth.PowerBIScope)
	if err != nil {
		return fmt.Errorf("getting powerbi auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("powerbi request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("powerbi API error %d: %s", resp.StatusCode, string(b))
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}
	return nil
}

// Dataflow is a gen1 dataflow in a workspace (group).
type Dataflow struct {
	ObjectId    string `json:"objectId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ModelUrl    string `json:"modelUrl,omitempty"`
}

type dataflowList struct {
	Value []Dataflow `json:"value"`
}

// ListDataflows calls GET /groups/{groupId}/dataflows
func (c *Client) ListDataflows(ctx context.Context, groupId string) ([]Dataflow, error) {
	var res dataflowList
	path := fmt.Sprintf("/groups/%s/dataflows", groupId)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Value, nil
}

// ExportDataflow downloads the model.json of a gen1 dataflow.
func (c *Client) ExportDataflow(ctx context.Context, groupId, dataflowId string) (json.RawMessage, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/groups/%s/dataflows/%s", groupId, dataflowId)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Refresh is one entry of a dataset refresh history.
type Refresh struct {
	Id          int64  `json:"id"`
	RefreshType string `json:"refreshType"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime,omitempty"`
	Status      string `json:"status"`
}

type refreshList struct {
	Value []Refresh `json:"value"`
}

// RefreshDataset triggers an on-demand refresh of a dataset.
func (c *Client) RefreshDataset(ctx context.Context, groupId, datasetId string) error {
	path := fmt.Sprintf("/groups/%s/datasets/%s/refreshes", groupId, datasetId)
	body := map[string]string{"notifyOption": "NoNotification"}
	return c.doRequest(ctx, http.MethodPost, path, body, nil)
}

// ListRefreshHistory calls GET /groups/{groupId}/datasets/{datasetId}/refreshes
func (c *Client) ListRefreshHistory(ctx context.Context, groupId, datasetId string) ([]Refresh, error) {
	var res refreshList
	path := fmt.Sprintf("/groups/%s/datasets/%s/refreshes", groupId, datasetId)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Value, nil
}

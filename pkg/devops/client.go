// Package devops talks to the Azure DevOps Git API, used by the deploy flow
// to create feature branches before a Fabric workspace is connected to them.
package devops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amaliebjorgen/fabricops/pkg/auth"
)

// Scope is the target scope for Azure DevOps REST APIs.
const Scope = "499b84ac-1321-427f-aa17-267ca6975798/.default"

const apiVersion = "7.1"

// Client is the REST client for Azure DevOps APIs.
type Client struct {
	tokens     auth.TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new Azure DevOps API client.
func NewClient(tokens auth.TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest performs a request against the Azure DevOps REST API.
func (c *Client) doRequest(ctx context.Context, organization, method, path string, body, out interface{}) error {
	baseURL := fmt.Sprintf("https://dev.azure.com/%s", organization)

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reqBody)
	if err != nil {
		return err
	}

	token, err := c.tokens.Token(ctx, Scope)
	if err != nil {
		return fmt.Errorf("getting devops token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("devops request", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("devops API error %d: %s", resp.StatusCode, string(b))
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}
	return nil
}

// GitRef represents a git reference (branch, tag).
type GitRef struct {
	Name     string `json:"name"`
	ObjectId string `json:"objectId"`
}

// GitRefsResponse is the response wrapper for refs list.
type GitRefsResponse struct {
	Count int      `json:"count"`
	Value []GitRef `json:"value"`
}

// GetBranchObjectId gets the latest commit ID (objectId) for a branch.
func (c *Client) GetBranchObjectId(ctx context.Context, org, project, repo, branchName string) (string, error) {
	// The API filter wants the branch name without the refs/heads/ prefix.
	filterName := strings.TrimPrefix(branchName, "refs/heads/")
	path := fmt.Sprintf("/%s/_apis/git/repositories/%s/refs?filter=heads/%s&api-version=%s",
		project, repo, filterName, apiVersion)

	var res GitRefsResponse
	if err := c.doRequest(ctx, org, http.MethodGet, path, nil, &res); err != nil {
		return "", err
	}
	if res.Count == 0 {
		return "", fmt.Errorf("branch %s not found in repo %s", branchName, repo)
	}
	return res.Value[0].ObjectId, nil
}

// GitRefUpdate is an update-refs payload entry.
type GitRefUpdate struct {
	Name        string `json:"name"`
	OldObjectId string `json:"oldObjectId"` // all zeroes creates a new branch
	NewObjectId string `json:"newObjectId"`
}

const zeroObjectId = "0000000000000000000000000000000000000000"

// CreateBranch creates a new git branch pointing at a commit ID.
func (c *Client) CreateBranch(ctx context.Context, org, project, repo, newBranchName, baseObjectId string) error {
	fullBranchName := newBranchName
	if !strings.HasPrefix(fullBranchName, "refs/heads/") {
		fullBranchName = "refs/heads/" + fullBranchName
	}

	updates := []GitRefUpdate{{
		Name:        fullBranchName,
		OldObjectId: zeroObjectId,
		NewObjectId: baseObjectId,
	}}
	path := fmt.Sprintf("/%s/_apis/git/repositories/%s/refs?api-version=%s", project, repo, apiVersion)
	return c.doRequest(ctx, org, http.MethodPost, path, updates, nil)
}

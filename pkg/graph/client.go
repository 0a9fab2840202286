// Package graph looks up users, groups and service principals through the
// Microsoft Graph API, mainly to resolve principals for role assignments.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amaliebjorgen/fabricops/pkg/auth"
)

// BaseURL is the Microsoft Graph endpoint.
const BaseURL = "https://graph.microsoft.com/v1.0"

// Client is a minimal Microsoft Graph client.
type Client struct {
	baseURL    string
	tokens     auth.TokenSource
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a new Graph client.
func NewClient(tokens auth.TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    BaseURL,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	token, err := c.tokens.Token(ctx, auth.GraphScope)
	if err != nil {
		return fmt.Errorf("getting graph auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("graph API error %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// User is a Microsoft Entra user.
type User struct {
	Id                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail,omitempty"`
}

// Group is a Microsoft Entra group.
type Group struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	Mail        string `json:"mail,omitempty"`
}

// ServicePrincipal is a Microsoft Entra service principal.
type ServicePrincipal struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	AppId       string `json:"appId"`
}

type graphList[T any] struct {
	Value []T `json:"value"`
}

// GetUser looks a user up by UPN (email) or object ID.
func (c *Client) GetUser(ctx context.Context, principal string) (*User, error) {
	var u User
	if err := c.get(ctx, "/users/"+url.PathEscape(principal), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindGroup looks a group up by display name.
func (c *Client) FindGroup(ctx context.Context, displayName string) (*Group, error) {
	filter := fmt.Sprintf("displayName eq '%s'", displayName)
	path := "/groups?$filter=" + url.QueryEscape(filter)

	var res graphList[Group]
	if err := c.get(ctx, path, &res); err != nil {
		return nil, err
	}
	if len(res.Value) == 0 {
		return nil, fmt.Errorf("group %q not found", displayName)
	}
	return &res.Value[0], nil
}

// Application is a Microsoft Entra app registration.
type Application struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	AppId       string `json:"appId"`
}

// FindApplication looks an app registration up by display name.
func (c *Client) FindApplication(ctx context.Context, displayName string) (*Application, error) {
	filter := fmt.Sprintf("displayName eq '%s'", displayName)
	path := "/applications?$filter=" + url.QueryEscape(filter)

	var res graphList[Application]
	if err := c.get(ctx, path, &res); err != nil {
		return nil, err
	}
	if len(res.Value) == 0 {
		return nil, fmt.Errorf("application %q not found", displayName)
	}
	return &res.Value[0], nil
}

// FindServicePrincipal looks a service principal up by display name.
func (c *Client) FindServicePrincipal(ctx context.Context, displayName string) (*ServicePrincipal, error) {
	filter := fmt.Sprintf("displayName eq '%s'", displayName)
	path := "/servicePrincipals?$filter=" + url.QueryEscape(filter)

	var res graphList[ServicePrincipal]
	if err := c.get(ctx, path, &res); err != nil {
		return nil, err
	}
	if len(res.Value) == 0 {
		return nil, fmt.Errorf("service principal %q not found", displayName)
	}
	return &res.Value[0], nil
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront_accounts/internal/model"
)

// Client calls the account API. It holds no credentials of its own.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the API served at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the API. Message is the server's own text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// AuthResult is returned by operations that issue a token
type AuthResult struct {
	Token string
	User  model.AccountView
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    model.AccountView `json:"user"`
}

func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (*model.AccountView, error) {
	var resp envelope
	if err := c.do(ctx, http.MethodPost, "/api/userRegister", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	var resp envelope
	req := model.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/userLogin", "", req, &resp); err != nil {
		return nil, err
	}
	return &AuthResult{Token: resp.Token, User: resp.User}, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token, currentPassword string, updates model.ProfileUpdate) (*AuthResult, error) {
	var resp envelope
	req := model.UpdateProfileRequest{CurrentPassword: currentPassword, Updates: updates}
	if err := c.do(ctx, http.MethodPut, "/api/updateUserProfile", token, req, &resp); err != nil {
		return nil, err
	}
	return &AuthResult{Token: resp.Token, User: resp.User}, nil
}

func (c *Client) UpdateAccount(ctx context.Context, token, id string, update model.AccountUpdate) (*model.AccountView, error) {
	var resp envelope
	if err := c.do(ctx, http.MethodPatch, "/api/userUpdate/"+url.PathEscape(id), token, update, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) DeleteAccount(ctx context.Context, token, id string) (*model.AccountView, error) {
	var resp envelope
	if err := c.do(ctx, http.MethodDelete, "/api/userDelete/"+url.PathEscape(id), token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/userLogout", token, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e envelope
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			apiErr.Message = e.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

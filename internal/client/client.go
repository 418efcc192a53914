/*
Package client is a typed HTTP client for the userdash API, used by the
dashcli terminal front end.
*/
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const dataURLPrefix = "data:image/png;base64,"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (code %d, HTTP %d)", e.Message, e.Code, e.Status)
}

// User mirrors the server's public user projection.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Avatar     string     `json:"avatar"`
	Membership string     `json:"membership"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// QRCode is a rendered code with the exact JSON payload it encodes.
type QRCode struct {
	DataURL     string          `json:"qrCode"`
	Payload     json.RawMessage `json:"-"`
	Avatar      string          `json:"avatar,omitempty"`
	DownloadURL string          `json:"downloadUrl,omitempty"`
}

// PNG decodes the data URL into image bytes.
func (q *QRCode) PNG() ([]byte, error) {
	if !strings.HasPrefix(q.DataURL, dataURLPrefix) {
		return nil, errors.New("qr code is not a png data url")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(q.DataURL, dataURLPrefix))
}

type Health struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	UsersCount int    `json:"usersCount"`
	Timestamp  string `json:"timestamp"`
}

type ProfileUpdate struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Membership string `json:"membership,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New returns a client for the server at baseURL, e.g. http://localhost:5000.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken sets the bearer token sent on protected calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Login signs in and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) SetAvatar(ctx context.Context, avatarURL string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/users/avatar", map[string]string{"avatarUrl": avatarURL}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// GenerateQRCode renders the signed-in user's own code.
func (c *Client) GenerateQRCode(ctx context.Context) (*QRCode, error) {
	var out struct {
		QRCode
		UserData json.RawMessage `json:"userData"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/qrcode/generate", nil, &out); err != nil {
		return nil, err
	}
	out.QRCode.Payload = out.UserData
	return &out.QRCode, nil
}

// LookupQRCode fetches the public code of any user.
func (c *Client) LookupQRCode(ctx context.Context, userID string) (*QRCode, error) {
	var out struct {
		QRCode
		User json.RawMessage `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/qrcode/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	out.QRCode.Payload = out.User
	return &out.QRCode, nil
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: res.StatusCode}
		if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(res.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

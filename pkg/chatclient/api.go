// Package chatclient is a Go client for the quickchat HTTP and WebSocket API.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// User mirrors the server's account payload.
type User struct {
	ID         string    `json:"_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Bio        string    `json:"bio"`
	ProfilePic string    `json:"profilePic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Message mirrors the server's message payload.
type Message struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text"`
	Image      string    `json:"image"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: normalizeBaseURL(baseURL),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Token returns the bearer token the client currently holds.
func (c *Client) Token() string { return c.token }

type authResponse struct {
	Success  bool   `json:"success"`
	UserData *User  `json:"userData"`
	Token    string `json:"token"`
	Message  string `json:"message"`
}

// Signup creates an account and keeps the returned token for later calls.
func (c *Client) Signup(ctx context.Context, fullName, email, password, bio string) (*User, error) {
	body := map[string]string{"fullName": fullName, "email": email, "password": password, "bio": bio}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp.UserData, nil
}

// Login authenticates and keeps the returned token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return resp.UserData, nil
}

// Check resolves the current token to its account.
func (c *Client) Check(ctx context.Context) (*User, error) {
	var resp authResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/check", nil, &resp); err != nil {
		return nil, err
	}
	return resp.UserData, nil
}

// Users fetches the sidebar directory and unseen counts keyed by sender id.
func (c *Client) Users(ctx context.Context) ([]User, map[string]int64, error) {
	var resp struct {
		Success        bool             `json:"success"`
		Users          []User           `json:"users"`
		UnseenMessages map[string]int64 `json:"unseenMessages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages/users", nil, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Users, resp.UnseenMessages, nil
}

// Thread fetches the conversation with otherID; the server marks it seen.
func (c *Client) Thread(ctx context.Context, otherID string) ([]Message, error) {
	var resp struct {
		Success  bool      `json:"success"`
		Messages []Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/messages/"+otherID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// MarkSeen marks every unseen message from otherID as seen.
func (c *Client) MarkSeen(ctx context.Context, otherID string) error {
	var resp struct {
		Success bool `json:"success"`
	}
	return c.doJSON(ctx, http.MethodPut, "/api/messages/mark/"+otherID, nil, &resp)
}

// Send delivers text and an optional base64 data-URI image to toID.
func (c *Client) Send(ctx context.Context, toID, text, imageDataURI string) (*Message, error) {
	body := map[string]string{"text": text, "image": imageDataURI}
	var resp struct {
		Success    bool     `json:"success"`
		NewMessage *Message `json:"newMessage"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/messages/send/"+toID, body, &resp); err != nil {
		return nil, err
	}
	return resp.NewMessage, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func normalizeBaseURL(in string) string {
	return strings.TrimRight(strings.TrimSpace(in), "/")
}

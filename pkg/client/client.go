// Package client provides a typed HTTP client for the AIVA chat API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aiva-platform/chat/internal/model"
)

// Client talks to a running API server. All methods authenticate with the
// bearer token supplied at construction.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client for the API at baseURL, e.g. http://localhost:8080.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// SendMessage submits a user message and returns the receipts for the stored
// user message and the generated reply.
func (c *Client) SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	var result model.SendMessageResponse
	if err := c.post(ctx, "/api/chat/message", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History returns summaries of the caller's most recent chats.
func (c *Client) History(ctx context.Context, limit int) ([]model.ChatSummary, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var result struct {
		Chats []model.ChatSummary `json:"chats"`
	}
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return result.Chats, nil
}

// ChatMessages returns a chat with its full message list.
func (c *Client) ChatMessages(ctx context.Context, chatID string) (*model.ChatHistoryResponse, error) {
	var result model.ChatHistoryResponse
	if err := c.get(ctx, "/api/chat/"+url.PathEscape(chatID)+"/messages", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateChat creates an empty chat.
func (c *Client) CreateChat(ctx context.Context, req *model.CreateChatRequest) (*model.Chat, error) {
	var result model.Chat
	if err := c.post(ctx, "/api/chat", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListChats lists the caller's chats.
func (c *Client) ListChats(ctx context.Context) (*model.ListChatsResponse, error) {
	var result model.ListChatsResponse
	if err := c.get(ctx, "/api/chat", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteChat deletes a chat and its messages.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.delete(ctx, "/api/chat/"+url.PathEscape(chatID))
}

// AddMessageAction sets a reaction flag on a message.
func (c *Client) AddMessageAction(ctx context.Context, messageID string, action model.ActionType) error {
	body := model.MessageActionRequest{Action: action}
	return c.post(ctx, "/api/message-actions/"+url.PathEscape(messageID), body, nil)
}

// RemoveMessageAction clears a reaction flag on a message.
func (c *Client) RemoveMessageAction(ctx context.Context, messageID string, action model.ActionType) error {
	return c.delete(ctx, "/api/message-actions/"+url.PathEscape(messageID)+"/"+url.PathEscape(string(action)))
}

// ListActioned returns the caller's messages carrying the given flag,
// e.g. "liked" or "bookmarked".
func (c *Client) ListActioned(ctx context.Context, flag string) (*model.ActionedMessagesResponse, error) {
	var result model.ActionedMessagesResponse
	if err := c.get(ctx, "/api/message-actions/"+url.PathEscape(flag), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadFile streams a file to the server and returns its reference for use
// in a subsequent SendMessage call. chatID is optional.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader, chatID string) (*model.FileRef, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("buffering upload: %w", err)
	}
	if chatID != "" {
		if err := w.WriteField("chatId", chatID); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/files/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result struct {
		File model.FileRef `json:"file"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result.File, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError maps an error response body onto a model.APIError so callers
// can switch on the kind. Bodies that are not the standard error shape fall
// back to a generic internal error carrying the raw text.
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiErr model.APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Kind != "" {
		apiErr.Status = resp.StatusCode
		return &apiErr
	}
	return &model.APIError{
		Status:  resp.StatusCode,
		Kind:    model.ErrKindInternal,
		Message: fmt.Sprintf("unexpected response %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
	}
}

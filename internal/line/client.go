// Package line is a thin client for the LINE Messaging API: webhook
// signature verification, reply/push of text messages with quick-reply
// postback buttons, and profile lookup. It is the external push channel and
// profile collaborator of the reminder core; nothing in here knows about
// events or timers.
package line

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultAPIBase is the production Messaging API endpoint.
const DefaultAPIBase = "https://api.line.me/v2/bot"

// Client calls the LINE Messaging API on behalf of one channel.
type Client struct {
	// AccessToken is the channel access token used as a Bearer credential.
	AccessToken string
	// APIBase overrides the API endpoint (tests point this at a local server).
	APIBase string
	// HTTPClient is replaceable for testing; nil gets a 10s-timeout default.
	HTTPClient *http.Client
}

// NewClient constructs a Client with the default endpoint and HTTP client.
func NewClient(accessToken string) *Client {
	return &Client{
		AccessToken: accessToken,
		APIBase:     DefaultAPIBase,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Message is an outbound message. Only text messages (optionally with quick
// replies) are needed by the reminder flow.
type Message struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	QuickReply *QuickReply `json:"quickReply,omitempty"`
}

// QuickReply holds the button row attached to a message.
type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

// QuickReplyItem is a single quick reply button.
type QuickReplyItem struct {
	Type   string      `json:"type"`
	Action QuickAction `json:"action"`
}

// QuickAction is the action bound to a quick reply button.
type QuickAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Data  string `json:"data,omitempty"`
	Text  string `json:"text,omitempty"`
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

// WithQuickReplies attaches postback buttons to the message.
func (m Message) WithQuickReplies(items ...QuickReplyItem) Message {
	m.QuickReply = &QuickReply{Items: items}
	return m
}

// PostbackItem builds a quick reply button carrying a postback payload.
func PostbackItem(label, data string) QuickReplyItem {
	return QuickReplyItem{
		Type: "action",
		Action: QuickAction{
			Type:  "postback",
			Label: label,
			Data:  data,
		},
	}
}

// ValidateSignature checks the X-Line-Signature header against the raw
// request body using HMAC-SHA256 with the channel secret.
func ValidateSignature(channelSecret, signature string, body []byte) bool {
	mac := hmac.New(sha256.New, []byte(channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Reply answers an inbound event via its reply token. Reply tokens are
// single-use and short-lived; failures are returned as-is for the caller to
// log.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs ...Message) error {
	payload := struct {
		ReplyToken string    `json:"replyToken"`
		Messages   []Message `json:"messages"`
	}{ReplyToken: replyToken, Messages: msgs}
	return c.post(ctx, "/message/reply", payload)
}

// Push sends messages to a user, group, or room ID. At most one Push is
// attempted per reminder fire; retry is left to the platform.
func (c *Client) Push(ctx context.Context, to string, msgs ...Message) error {
	payload := struct {
		To       string    `json:"to"`
		Messages []Message `json:"messages"`
	}{To: to, Messages: msgs}
	return c.post(ctx, "/message/push", payload)
}

// Profile fetches a user's display name. Callers treat failures as cosmetic.
func (c *Client) Profile(ctx context.Context, userID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase()+"/profile/"+userID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("line: profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("line: profile: HTTP %d", resp.StatusCode)
	}

	var profile struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("line: profile: %w", err)
	}
	return profile.DisplayName, nil
}

// DisplayName implements the interpreter's profile lookup contract.
func (c *Client) DisplayName(ctx context.Context, userID string) (string, error) {
	return c.Profile(ctx, userID)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase()+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("line: %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		// Surface a short error body excerpt; LINE returns JSON diagnostics.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("line: %s: HTTP %d: %s", path, resp.StatusCode, excerpt)
	}
	return nil
}

func (c *Client) apiBase() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	return DefaultAPIBase
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

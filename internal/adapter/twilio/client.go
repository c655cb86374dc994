// Package twilio implements the outbound SMS gateway against the Twilio
// Messages REST API.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client sends SMS through the Twilio Messages endpoint.
type Client struct {
	sid        string
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Twilio messaging client.
func NewClient(sid, token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		sid:   sid,
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.twilio.com",
		logger:  logger,
	}
}

// Send delivers one message body from an assigned sender identity to a
// recipient number and returns the gateway message SID.
func (c *Client) Send(ctx context.Context, from, to, body string) (string, error) {
	form := url.Values{
		"From": {from},
		"To":   {to},
		"Body": {body},
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.sid))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.sid, c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("twilio API error: status %d: %s", resp.StatusCode, respBody)
	}

	var msg messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("sms accepted", "to", to, "sid", msg.Sid, "status", msg.Status)
	return msg.Sid, nil
}

// Twilio API response types.

type messageResponse struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

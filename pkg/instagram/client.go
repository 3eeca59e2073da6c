package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/dmpilot-backend/pkg/config"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

var errAccessTokenRequired = errors.New("instagram access token is required")

// Client sends DMs through the Instagram Graph API. There is no maintained
// Go SDK for the messaging surface, so the REST calls are made directly.
type Client struct {
	httpClient  *http.Client
	graphURL    string
	accessToken string
	verifyToken string
}

// NewClient builds a Graph API client from config.
func NewClient(ctx context.Context, cfg config.InstagramConfig, logg *logger.Logger) (*Client, error) {
	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}
	graphURL := strings.TrimRight(strings.TrimSpace(cfg.GraphURL), "/")
	if graphURL == "" {
		graphURL = "https://graph.instagram.com/v21.0"
	}

	if logg != nil {
		logg.Info(ctx, "instagram client initialized")
	}

	return &Client{
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		graphURL:    graphURL,
		accessToken: accessToken,
		verifyToken: strings.TrimSpace(cfg.VerifyToken),
	}, nil
}

// VerifyToken returns the webhook handshake token.
func (c *Client) VerifyToken() string {
	if c == nil {
		return ""
	}
	return c.verifyToken
}

type sendRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Error     *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Send delivers a text DM to the given recipient and returns the provider
// message id.
func (c *Client) Send(ctx context.Context, recipientID, text string) (string, error) {
	if c == nil || c.httpClient == nil {
		return "", errors.New("instagram client not initialized")
	}
	if strings.TrimSpace(recipientID) == "" {
		return "", errors.New("recipient id is required")
	}

	var body sendRequest
	body.Recipient.ID = recipientID
	body.Message.Text = text

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode send payload: %w", err)
	}

	url := fmt.Sprintf("%s/me/messages?access_token=%s", c.graphURL, c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read send response: %w", err)
	}

	var decoded sendResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode send response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || decoded.Error != nil {
		if decoded.Error != nil {
			return "", fmt.Errorf("graph api error %d: %s", decoded.Error.Code, decoded.Error.Message)
		}
		return "", fmt.Errorf("graph api returned status %d", resp.StatusCode)
	}

	return decoded.MessageID, nil
}

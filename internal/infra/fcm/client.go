// internal/infra/fcm/client.go
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/infra/config"
)

const (
	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	defaultBaseURL = "https://fcm.googleapis.com"
)

// Client sends push notifications through the FCM HTTP v1 API.
type Client struct {
	baseURL   string
	projectID string
	http      *http.Client
}

// NewClient authenticates with the service account in cfg.CredentialsFile.
func NewClient(ctx context.Context, cfg config.FCMConfig) (*Client, error) {
	return newClient(ctx, cfg, defaultBaseURL)
}

func newClient(ctx context.Context, cfg config.FCMConfig, baseURL string) (*Client, error) {
	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read FCM credentials: %w", err)
	}
	// Token exchanges run on this client instead of http.DefaultClient.
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: sendTimeout(cfg.Timeout)})
	creds, err := google.CredentialsFromJSON(tokenCtx, raw, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FCM credentials: %w", err)
	}
	return NewClientWithTokenSource(baseURL, cfg.ProjectID, oauth2.ReuseTokenSource(nil, creds.TokenSource), cfg.Timeout), nil
}

func sendTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// NewClientWithTokenSource builds a client against baseURL using ts for bearer tokens.
func NewClientWithTokenSource(baseURL, projectID string, ts oauth2.TokenSource, timeout time.Duration) *Client {
	timeout = sendTimeout(timeout)
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = timeout
	return &Client{baseURL: baseURL, projectID: projectID, http: httpClient}
}

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string        `json:"token"`
	Notification notification  `json:"notification"`
	Android      *androidBlock `json:"android,omitempty"`
	APNS         *apnsBlock    `json:"apns,omitempty"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type androidBlock struct {
	Notification androidNotification `json:"notification"`
}

type androidNotification struct {
	Sound     string `json:"sound,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

type apnsBlock struct {
	Payload apnsPayload `json:"payload"`
}

type apnsPayload struct {
	Aps aps `json:"aps"`
}

type aps struct {
	Sound string `json:"sound,omitempty"`
	Badge *int   `json:"badge,omitempty"`
}

type sendResponse struct {
	Name string `json:"name"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

func buildMessage(msg push.Message) message {
	m := message{
		Token:        msg.Device.Token,
		Notification: notification{Title: msg.Title, Body: msg.Body},
	}
	switch msg.Device.Platform {
	case push.PlatformIOS:
		m.APNS = &apnsBlock{Payload: apnsPayload{Aps: aps{Sound: msg.Hints.Sound, Badge: msg.Hints.Badge}}}
	case push.PlatformAndroid:
		m.Android = &androidBlock{Notification: androidNotification{Sound: msg.Hints.Sound, ChannelID: msg.Hints.ChannelID}}
	}
	return m
}

// Send returns the FCM message name on success.
func (c *Client) Send(ctx context.Context, msg push.Message) (string, error) {
	body, err := json.Marshal(sendRequest{Message: buildMessage(msg)})
	if err != nil {
		return "", fmt.Errorf("failed to encode FCM message: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.baseURL, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create FCM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("FCM request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read FCM response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classify(resp.StatusCode, raw)
	}

	var out sendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode FCM response: %w", err)
	}
	return out.Name, nil
}

// classify maps FCM failures onto the push sentinel errors where one applies.
func classify(status int, raw []byte) error {
	var er errorResponse
	_ = json.Unmarshal(raw, &er)
	detail := er.Error.Status
	for _, d := range er.Error.Details {
		if d.ErrorCode != "" {
			detail = d.ErrorCode
		}
	}
	base := fmt.Errorf("FCM returned %d %s: %s", status, detail, er.Error.Message)

	switch {
	case status == http.StatusNotFound, detail == "UNREGISTERED", detail == "INVALID_ARGUMENT":
		return errors.Join(push.ErrInvalidToken, base)
	case status == http.StatusUnauthorized, status == http.StatusForbidden, detail == "SENDER_ID_MISMATCH":
		return errors.Join(push.ErrUnauthorized, base)
	}
	return base
}

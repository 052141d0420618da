package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/flatclass/classroom/internal/domain"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory: %d %s", e.Code, e.Message)
}

type Credentials struct {
	RoomID    string `json:"room_id"`
	MemberID  string `json:"member_id"`
	RTCUID    int64  `json:"rtc_uid"`
	AuthToken string `json:"auth_token"`
	RTCToken  string `json:"rtc_token"`
}

// Client talks to the room directory REST API.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
	logger    *slog.Logger
}

func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// WithAuthToken returns a copy of c that authenticates with token.
func (c *Client) WithAuthToken(token string) *Client {
	cp := *c
	cp.authToken = token
	return &cp
}

type CreateRoomRequest struct {
	Title     string `json:"title"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	BeginTime int64  `json:"begin_time"`
	EndTime   int64  `json:"end_time"`
}

func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (Credentials, error) {
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/api/v1/room", req, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to create room: %w", err)
	}

	return creds, nil
}

type JoinRoomRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (c *Client) JoinRoom(ctx context.Context, roomID string, req JoinRoomRequest) (Credentials, error) {
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/api/v1/room/"+url.PathEscape(roomID)+"/join", req, &creds); err != nil {
		return Credentials{}, fmt.Errorf("failed to join room: %w", err)
	}

	return creds, nil
}

func (c *Client) GetRoomInfo(ctx context.Context, roomID string) (domain.RoomInfo, error) {
	var info domain.RoomInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/room/"+url.PathEscape(roomID), nil, &info); err != nil {
		return domain.RoomInfo{}, fmt.Errorf("failed to get room info: %w", err)
	}

	return info, nil
}

// GetRoomUsers looks up all ids in one request. Ids unknown to the
// directory are missing from the result.
func (c *Client) GetRoomUsers(ctx context.Context, roomID string, ids []string) (map[string]domain.Profile, error) {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}

	var users map[string]domain.Profile
	if err := c.do(ctx, http.MethodPost, "/api/v1/room/"+url.PathEscape(roomID)+"/users", body, &users); err != nil {
		return nil, fmt.Errorf("failed to get room users: %w", err)
	}

	return users, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	c.logger.DebugContext(ctx, "directory request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Error  string          `json:"error"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err != nil {
		return &StatusError{Code: resp.StatusCode, Message: fmt.Sprintf("invalid response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := envelope.Error
		if msg == "" && len(envelope.Errors) > 0 {
			msgs := make([]string, 0, len(envelope.Errors))
			for _, e := range envelope.Errors {
				msgs = append(msgs, e.Message)
			}
			msg = strings.Join(msgs, "; ")
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	return json.Unmarshal(envelope.Data, dst)
}

package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flatclass/classroom/internal/rtm"
	"github.com/flatclass/classroom/internal/session"
)

const writeTimeout = 10 * time.Second

// Handler receives what arrives on the channel. *session.Store implements it.
type Handler interface {
	ResolveParticipants(ctx context.Context, ids []string) error
	RemoveParticipant(userID string)
	ApplyInboundEvent(ctx context.Context, e rtm.Event, senderID string)
	RequestChannelStatusSync(ctx context.Context) error
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type relayPayload struct {
	To   string          `json:"to,omitempty"`
	Data json.RawMessage `json:"data"`
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinedRoomPayload struct {
	MemberID  string   `json:"member_id"`
	MemberIDs []string `json:"member_ids"`
}

type memberPayload struct {
	MemberID string `json:"member_id"`
}

type eventPayload struct {
	SenderID string          `json:"sender_id"`
	Data     json.RawMessage `json:"data"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Channel is the websocket link of one member to the room relay.
type Channel struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	keepAlive time.Duration
	logger    *slog.Logger
}

// Dial connects to the relay at serverURL, an http(s) or ws(s) base url.
func Dial(ctx context.Context, serverURL, roomID, authToken string, keepAlive time.Duration, logger *slog.Logger) (*Channel, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/v1/ws/room/" + url.PathEscape(roomID)
	u.RawQuery = url.Values{"auth-token": {authToken}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial relay: %w", err)
	}

	return New(conn, keepAlive, logger), nil
}

// New wraps an open connection. A zero keepAlive disables ALIVE frames.
func New(conn *websocket.Conn, keepAlive time.Duration, logger *slog.Logger) *Channel {
	return &Channel{
		conn:      conn,
		keepAlive: keepAlive,
		logger:    logger,
	}
}

func (c *Channel) write(ctx context.Context, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	return c.conn.WriteJSON(v)
}

// Send encodes e and hands it to the relay, once. There is no retry.
func (c *Channel) Send(ctx context.Context, e rtm.Event, to session.Recipient) error {
	data, err := rtm.Encode(e)
	if err != nil {
		return err
	}

	msg := outbound{Type: "BROADCAST", Payload: relayPayload{Data: data}}
	if !to.IsBroadcast() {
		msg = outbound{Type: "PEER", Payload: relayPayload{To: to.PeerID, Data: data}}
	}

	if err := c.write(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", e.Kind(), err)
	}

	return nil
}

func (c *Channel) Close() error {
	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	return c.conn.Close()
}

// Run reads frames until the connection fails or ctx is done and hands
// them to h in arrival order. Profile lookups run in the background so a
// slow directory never holds back events.
func (c *Channel) Run(ctx context.Context, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	if c.keepAlive > 0 {
		go c.sendAlive(ctx)
	}

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		if err := c.dispatch(ctx, h, msg, &wg); err != nil {
			c.logger.WarnContext(ctx, "dropped frame", "type", msg.Type, "error", err)
		}
	}
}

func (c *Channel) dispatch(ctx context.Context, h Handler, msg inbound, wg *sync.WaitGroup) error {
	switch msg.Type {
	case "JOINED_ROOM":
		var p joinedRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.ResolveParticipants(ctx, p.MemberIDs); err != nil {
				c.logger.WarnContext(ctx, "failed to resolve members", "error", err)
				return
			}
			if err := h.RequestChannelStatusSync(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.InfoContext(ctx, "channel status not requested", "error", err)
			}
		}()

	case "MEMBER_JOINED":
		var p memberPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.ResolveParticipants(ctx, []string{p.MemberID}); err != nil {
				c.logger.WarnContext(ctx, "failed to resolve member", "member_id", p.MemberID, "error", err)
			}
		}()

	case "MEMBER_LEFT":
		var p memberPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		h.RemoveParticipant(p.MemberID)

	case "EVENT":
		var p eventPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		e, err := rtm.Decode(p.Data)
		if err != nil {
			return err
		}
		h.ApplyInboundEvent(ctx, e, p.SenderID)

	case "ERROR":
		var p errorPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		c.logger.WarnContext(ctx, "relay error", "message", p.Message)

	default:
		c.logger.DebugContext(ctx, "unknown frame", "type", msg.Type)
	}

	return nil
}

func (c *Channel) sendAlive(ctx context.Context) {
	ticker := time.NewTicker(c.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.write(ctx, outbound{Type: "ALIVE"}); err != nil {
				c.logger.DebugContext(ctx, "failed to send alive", "error", err)
				return
			}
		}
	}
}

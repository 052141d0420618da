package channel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatclass/classroom/internal/rtm"
	"github.com/flatclass/classroom/internal/session"
)

type fakeHandler struct {
	mu       sync.Mutex
	resolved [][]string
	removed  []string
	events   []rtm.Event
	senders  []string
	syncs    int
}

func (h *fakeHandler) ResolveParticipants(_ context.Context, ids []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolved = append(h.resolved, slices.Clone(ids))
	return nil
}

func (h *fakeHandler) RemoveParticipant(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, userID)
}

func (h *fakeHandler) ApplyInboundEvent(_ context.Context, e rtm.Event, senderID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
	h.senders = append(h.senders, senderID)
}

func (h *fakeHandler) RequestChannelStatusSync(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.syncs++
	return nil
}

type relayFrame struct {
	Type    string `json:"type"`
	Payload struct {
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	} `json:"payload"`
}

// newRelay starts a relay that writes script to the first client and
// forwards what the client sends on the returned channel.
func newRelay(t *testing.T, script []string) (string, <-chan relayFrame) {
	t.Helper()
	received := make(chan relayFrame, 16)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ws/room/room", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("auth-token"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()

		for _, frame := range script {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}

		for {
			var f relayFrame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			received <- f
		}
	}))
	t.Cleanup(server.Close)

	return server.URL, received
}

func TestRunDispatchesFrames(t *testing.T) {
	url, _ := newRelay(t, []string{
		`{"type":"JOINED_ROOM","payload":{"member_id":"A","member_ids":["A","B"]}}`,
		`{"type":"EVENT","payload":{"sender_id":"B","data":{"t":"BanText","v":false}}}`,
		`{"type":"EVENT","payload":{"sender_id":"B","data":{"t":"BanText","v":"nope"}}}`,
		`{"type":"EVENT","payload":{"sender_id":"B","data":{"t":"Whiteboard","v":1}}}`,
		`{"type":"MEMBER_JOINED","payload":{"member_id":"C"}}`,
		`{"type":"ERROR","payload":{"message":"boom"}}`,
		`{"type":"SOMETHING_NEW","payload":{}}`,
		`{"type":"MEMBER_LEFT","payload":{"member_id":"B"}}`,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := Dial(ctx, url, "room", "tok", 0, slog.Default())
	require.NoError(t, err)

	h := &fakeHandler{}
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx, h) }()

	assert.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.removed) == 1 && len(h.resolved) == 2 && h.syncs == 1
	}, 2*time.Second, 10*time.Millisecond)

	h.mu.Lock()
	assert.ElementsMatch(t, [][]string{{"A", "B"}, {"C"}}, h.resolved)
	assert.Equal(t, []string{"B"}, h.removed)
	require.Len(t, h.events, 2, "malformed events are dropped")
	assert.Equal(t, rtm.BanText{Value: false}, h.events[0])
	assert.Equal(t, rtm.Kind("Whiteboard"), h.events[1].Kind())
	assert.Equal(t, []string{"B", "B"}, h.senders)
	h.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSend(t *testing.T) {
	url, received := newRelay(t, nil)
	ctx := context.Background()

	ch, err := Dial(ctx, url+"/", "room", "tok", 0, slog.Default())
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.Send(ctx, rtm.Speak{Value: true}, session.Broadcast()))
	require.NoError(t, ch.Send(ctx, rtm.AcceptRaiseHand{UserID: "B", Accept: true}, session.Peer("B")))

	f := <-received
	assert.Equal(t, "BROADCAST", f.Type)
	assert.Empty(t, f.Payload.To)
	assert.JSONEq(t, `{"t":"Speak","v":true}`, string(f.Payload.Data))

	f = <-received
	assert.Equal(t, "PEER", f.Type)
	assert.Equal(t, "B", f.Payload.To)
	assert.JSONEq(t, `{"t":"AcceptRaiseHand","v":{"userUUID":"B","accept":true}}`, string(f.Payload.Data))
}

func TestKeepAlive(t *testing.T) {
	url, received := newRelay(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := Dial(ctx, url, "room", "tok", 10*time.Millisecond, slog.Default())
	require.NoError(t, err)
	go ch.Run(ctx, &fakeHandler{})

	select {
	case f := <-received:
		assert.Equal(t, "ALIVE", f.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no keep-alive frame")
	}
}

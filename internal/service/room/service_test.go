package room

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/internal/repository/connection/inmemory"
	roomRedis "github.com/flatclass/classroom/internal/repository/room/redis"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []any
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Frames() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.frames...)
}

func newTestService(t *testing.T, cfg *Config) *service {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	roomRepo := roomRedis.NewRepo(rc, &roomRedis.Config{Expire: time.Hour}, slog.Default())
	connRepo := inmemory.NewRepo(slog.Default())
	if cfg == nil {
		cfg = &Config{MembersLimit: 3, Secret: "secret", RTCTokenTTL: time.Hour}
	}

	return NewService(roomRepo, connRepo, cfg, slog.Default())
}

func TestCreateAndJoinRoom(t *testing.T) {
	service := newTestService(t, nil)
	ctx := context.Background()

	owner, err := service.CreateRoom(ctx, &CreateRoomParams{
		Title:     "Physics",
		Name:      "Alice",
		AvatarURL: "https://avatar/alice",
		BeginTime: 1000,
		EndTime:   2000,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, owner.RoomID)
	assert.NotEmpty(t, owner.MemberID)
	assert.NotEmpty(t, owner.AuthToken)
	assert.Empty(t, owner.RTCToken, "rtc token requires keys")
	assert.Equal(t, int64(1), owner.RTCUID)

	info, err := service.GetRoomInfo(ctx, owner.RoomID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomInfo{
		RoomID:    owner.RoomID,
		Title:     "Physics",
		OwnerID:   owner.MemberID,
		OwnerName: "Alice",
		Status:    domain.RoomStatusIdle,
		BeginTime: 1000,
		EndTime:   2000,
	}, info)

	bob, err := service.JoinRoom(ctx, &JoinRoomParams{RoomID: owner.RoomID, Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, owner.RoomID, bob.RoomID)
	assert.Equal(t, int64(2), bob.RTCUID)

	users, err := service.GetRoomUsers(ctx, owner.RoomID, []string{owner.MemberID, bob.MemberID, "nobody"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.Profile{
		owner.MemberID: {Name: "Alice", AvatarURL: "https://avatar/alice", RTCUID: 1},
		bob.MemberID:   {Name: "Bob", RTCUID: 2},
	}, users)
}

func TestJoinRoomErrors(t *testing.T) {
	service := newTestService(t, nil)
	ctx := context.Background()

	_, err := service.JoinRoom(ctx, &JoinRoomParams{RoomID: "missing", Name: "Bob"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = service.GetRoomInfo(ctx, "missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = service.GetRoomUsers(ctx, "missing", []string{"a"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	owner, err := service.CreateRoom(ctx, &CreateRoomParams{Title: "t", Name: "Alice"})
	require.NoError(t, err)
	for range 2 {
		_, err := service.JoinRoom(ctx, &JoinRoomParams{RoomID: owner.RoomID, Name: "x"})
		require.NoError(t, err)
	}

	_, err = service.JoinRoom(ctx, &JoinRoomParams{RoomID: owner.RoomID, Name: "y"})
	assert.ErrorIs(t, err, ErrMembersLimitReached)
}

func TestAuthToken(t *testing.T) {
	service := newTestService(t, nil)
	ctx := context.Background()

	owner, err := service.CreateRoom(ctx, &CreateRoomParams{Title: "t", Name: "Alice"})
	require.NoError(t, err)

	claims, err := service.ParseAuthToken(owner.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, Claims{MemberID: owner.MemberID, RoomID: owner.RoomID}, claims)

	_, err = service.ParseAuthToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidAuthToken)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"member_id": owner.MemberID,
		"room_id":   owner.RoomID,
	}).SignedString([]byte("other secret"))
	require.NoError(t, err)
	_, err = service.ParseAuthToken(forged)
	assert.ErrorIs(t, err, ErrInvalidAuthToken)

	noRoom, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"member_id": owner.MemberID,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = service.ParseAuthToken(noRoom)
	assert.ErrorIs(t, err, ErrInvalidAuthToken)
}

func TestRTCToken(t *testing.T) {
	service := newTestService(t, &Config{
		MembersLimit:     2,
		Secret:           "secret",
		LiveKitAPIKey:    "key",
		LiveKitAPISecret: "livekit-secret",
		RTCTokenTTL:      time.Hour,
	})

	creds, err := service.CreateRoom(context.Background(), &CreateRoomParams{Title: "t", Name: "Alice"})
	require.NoError(t, err)
	require.NotEmpty(t, creds.RTCToken)

	token, err := jwt.Parse(creds.RTCToken, func(*jwt.Token) (any, error) {
		return []byte("livekit-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "key", claims["iss"])
	assert.Equal(t, creds.MemberID, claims["sub"])
	video, ok := claims["video"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, creds.RoomID, video["room"])
	assert.Equal(t, true, video["roomJoin"])
}

func TestConnectAndRelay(t *testing.T) {
	service := newTestService(t, nil)
	ctx := context.Background()

	owner, err := service.CreateRoom(ctx, &CreateRoomParams{Title: "t", Name: "Alice"})
	require.NoError(t, err)
	bob, err := service.JoinRoom(ctx, &JoinRoomParams{RoomID: owner.RoomID, Name: "Bob"})
	require.NoError(t, err)
	other, err := service.CreateRoom(ctx, &CreateRoomParams{Title: "t2", Name: "Eve"})
	require.NoError(t, err)

	ownerConn, bobConn := &fakeConn{}, &fakeConn{}

	resp, err := service.ConnectMember(ctx, &ConnectMemberParams{Conn: ownerConn, RoomID: owner.RoomID, MemberID: owner.MemberID})
	require.NoError(t, err)
	assert.Equal(t, []string{owner.MemberID}, resp.MemberIDs)
	assert.Equal(t, "Alice", resp.Member.Name)

	_, err = service.ConnectMember(ctx, &ConnectMemberParams{Conn: &fakeConn{}, RoomID: owner.RoomID, MemberID: owner.MemberID})
	assert.ErrorIs(t, err, ErrAlreadyConnected)

	_, err = service.ConnectMember(ctx, &ConnectMemberParams{Conn: &fakeConn{}, RoomID: owner.RoomID, MemberID: other.MemberID})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = service.ConnectMember(ctx, &ConnectMemberParams{Conn: &fakeConn{}, RoomID: owner.RoomID, MemberID: "nobody"})
	assert.ErrorIs(t, err, ErrMemberNotFound)

	resp, err = service.ConnectMember(ctx, &ConnectMemberParams{Conn: bobConn, RoomID: owner.RoomID, MemberID: bob.MemberID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{owner.MemberID, bob.MemberID}, resp.MemberIDs)

	require.NoError(t, service.Broadcast(ctx, owner.RoomID, owner.MemberID, "hi"))
	assert.Equal(t, []any{"hi"}, bobConn.Frames())
	assert.Empty(t, ownerConn.Frames(), "sender does not receive its own broadcast")

	require.NoError(t, service.SendToMember(ctx, owner.RoomID, owner.MemberID, "direct"))
	assert.Equal(t, []any{"direct"}, ownerConn.Frames())

	require.NoError(t, service.DisconnectMember(ctx, owner.RoomID, bob.MemberID))
	assert.ErrorIs(t, service.DisconnectMember(ctx, owner.RoomID, bob.MemberID), ErrMemberNotConnected)
	assert.ErrorIs(t, service.SendToMember(ctx, owner.RoomID, bob.MemberID, "late"), ErrMemberNotConnected)
}

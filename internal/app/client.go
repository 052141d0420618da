package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flatclass/classroom/internal/channel"
	"github.com/flatclass/classroom/internal/directory"
	"github.com/flatclass/classroom/internal/record"
	roomRedis "github.com/flatclass/classroom/internal/repository/room/redis"
	"github.com/flatclass/classroom/internal/session"
	"github.com/flatclass/classroom/pkg/ctxlogger"
	"github.com/flatclass/classroom/pkg/redisclient"
)

type ClientConfig struct {
	ServerURL string `json:"server_url"`
	// RoomID empty creates a new room owned by the client.
	RoomID        string        `json:"room_id"`
	Title         string        `json:"title"`
	UserName      string        `json:"user_name"`
	AvatarURL     string        `json:"avatar_url"`
	LogLevel      string        `json:"log_level"`
	RedisPort     int           `json:"redis_port"`
	RedisHost     string        `json:"redis_host"`
	RedisPassword string        `json:"-"`
	RedisDB       int           `json:"redis_db"`
	KeyPrefix     string        `json:"key_prefix"`
	KeepAlive     time.Duration `json:"keep_alive"`
	RecordTick    time.Duration `json:"record_tick"`
}

func (cfg *ClientConfig) Validate() error {
	if cfg.ServerURL == "" {
		return errors.New("server url must be set")
	}
	if cfg.UserName == "" {
		return errors.New("user name must be set")
	}
	if cfg.RoomID == "" && cfg.Title == "" {
		return errors.New("title must be set when creating a room")
	}
	if cfg.RecordTick <= 0 {
		return errors.New("record tick must be greater than 0")
	}
	return nil
}

// Client is one classroom member: a session store fed by the relay.
type Client struct {
	Store       *session.Store
	Credentials directory.Credentials
	channel     *channel.Channel
	logger      *slog.Logger
}

// StartClient creates or joins the configured room, connects to the relay
// and joins the store. Device configs are kept in rc.
func StartClient(ctx context.Context, cfg *ClientConfig, rc *redis.Client, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	dir := directory.NewClient(cfg.ServerURL, httpClient, logger)

	var (
		creds directory.Credentials
		err   error
	)
	if cfg.RoomID == "" {
		creds, err = dir.CreateRoom(ctx, directory.CreateRoomRequest{
			Title:     cfg.Title,
			Name:      cfg.UserName,
			AvatarURL: cfg.AvatarURL,
			BeginTime: time.Now().UnixMilli(),
			EndTime:   time.Now().Add(time.Hour).UnixMilli(),
		})
	} else {
		creds, err = dir.JoinRoom(ctx, cfg.RoomID, directory.JoinRoomRequest{
			Name:      cfg.UserName,
			AvatarURL: cfg.AvatarURL,
		})
	}
	if err != nil {
		return nil, err
	}

	ctx = ctxlogger.AppendCtx(ctx, slog.String("member_id", creds.MemberID))
	logger.InfoContext(ctx, "entered room", "room_id", creds.RoomID, "rtc_uid", creds.RTCUID)

	ch, err := channel.Dial(ctx, cfg.ServerURL, creds.RoomID, creds.AuthToken, cfg.KeepAlive, logger)
	if err != nil {
		return nil, err
	}

	devices := roomRedis.NewRepo(rc, &roomRedis.Config{KeyPrefix: cfg.KeyPrefix}, logger)
	recording := record.NewManager(record.NewLogRecorder(logger), cfg.RecordTick, logger)
	store := session.NewStore(dir.WithAuthToken(creds.AuthToken), ch, devices, recording, logger)

	if err := store.Join(ctx, creds.RoomID, creds.MemberID); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to join store: %w", err)
	}

	return &Client{
		Store:       store,
		Credentials: creds,
		channel:     ch,
		logger:      logger,
	}, nil
}

// Run feeds the store from the relay until ctx is done or the connection
// drops, then leaves the room.
func (c *Client) Run(ctx context.Context) error {
	defer c.Store.Leave()
	defer c.channel.Close()

	return c.channel.Run(ctx, c.Store)
}

// RunClient runs a headless classroom member that reads commands from in.
func RunClient(ctx context.Context, cfg *ClientConfig, in io.Reader) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := StartClient(ctx, cfg, rc, nil, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "room %s, member %s\n", client.Credentials.RoomID, client.Credentials.MemberID)

	snapshots, unsubscribe := client.Store.Subscribe()
	defer unsubscribe()
	go func() {
		for snap := range snapshots {
			logger.InfoContext(ctx, "room state",
				"version", snap.Version,
				"status", snap.Session.Status,
				"class_mode", snap.Session.ClassMode,
				"ban", snap.Session.Ban,
				"roster", snap.Roster,
			)
		}
	}()

	go func() {
		NewCommands(client.Store, os.Stdout).Run(ctx, in)
		cancel()
	}()

	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

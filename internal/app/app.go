package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flatclass/classroom/internal/controller"
	"github.com/flatclass/classroom/internal/repository/connection/inmemory"
	roomRedis "github.com/flatclass/classroom/internal/repository/room/redis"
	"github.com/flatclass/classroom/internal/service/room"
	"github.com/flatclass/classroom/pkg/redisclient"
)

type AppConfig struct {
	Secret           string `json:"-"`
	Host             string `json:"host"`
	Port             int    `json:"port"`
	MembersLimit     int    `json:"members_limit"`
	LogLevel         string `json:"log_level"`
	RedisPort        int    `json:"redis_port"`
	RedisHost        string `json:"redis_host"`
	RedisPassword    string `json:"-"`
	RedisDB          int    `json:"redis_db"`
	LiveKitAPIKey    string `json:"livekit_api_key"`
	LiveKitAPISecret string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return errors.New("secret must be set")
	}
	if cfg.MembersLimit < 1 {
		return errors.New("members limit must be greater than 0")
	}
	if (cfg.LiveKitAPIKey == "") != (cfg.LiveKitAPISecret == "") {
		return errors.New("livekit api key and secret must be set together")
	}
	return nil
}

// NewServerHandler wires the relay and directory server on top of rc.
func NewServerHandler(rc *redis.Client, cfg *AppConfig, logger *slog.Logger) http.Handler {
	roomRepo := roomRedis.NewRepo(rc, &roomRedis.Config{
		Expire: 24 * time.Hour,
	}, logger)
	connectionRepo := inmemory.NewRepo(logger)
	roomService := room.NewService(roomRepo, connectionRepo, &room.Config{
		MembersLimit:     cfg.MembersLimit,
		Secret:           cfg.Secret,
		LiveKitAPIKey:    cfg.LiveKitAPIKey,
		LiveKitAPISecret: cfg.LiveKitAPISecret,
		RTCTokenTTL:      time.Hour,
	}, logger)

	return controller.NewController(roomService, logger).GetMux()
}

func Run(ctx context.Context, cfg *AppConfig) error {
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

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: NewServerHandler(rc, cfg, logger),
	}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/flatclass/classroom/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	serverURL = configVar[string]{
		envKey:       "CLASSROOM_SERVER_URL",
		flagKey:      "server-url",
		defaultValue: "http://localhost:80",
	}
	roomID = configVar[string]{
		envKey:       "CLASSROOM_ROOM_ID",
		flagKey:      "room-id",
		defaultValue: "",
	}
	title = configVar[string]{
		envKey:       "CLASSROOM_TITLE",
		flagKey:      "title",
		defaultValue: "",
	}
	userName = configVar[string]{
		envKey:       "CLASSROOM_USER_NAME",
		flagKey:      "user-name",
		defaultValue: "",
	}
	avatarURL = configVar[string]{
		envKey:       "CLASSROOM_AVATAR_URL",
		flagKey:      "avatar-url",
		defaultValue: "",
	}
	logLevel = configVar[string]{
		envKey:       "CLASSROOM_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	redisDB = configVar[int]{
		envKey:       "REDIS_DB",
		flagKey:      "redis-db",
		defaultValue: 0,
	}
	keyPrefix = configVar[string]{
		envKey:       "CLASSROOM_KEY_PREFIX",
		flagKey:      "key-prefix",
		defaultValue: "classroom:",
	}
	keepAlive = configVar[time.Duration]{
		envKey:       "CLASSROOM_KEEP_ALIVE",
		flagKey:      "keep-alive",
		defaultValue: 30 * time.Second,
	}
	recordTick = configVar[time.Duration]{
		envKey:       "CLASSROOM_RECORD_TICK",
		flagKey:      "record-tick",
		defaultValue: time.Second,
	}
)

func loadClientConfig() *app.ClientConfig {
	_ = godotenv.Load()

	pflag.String(serverURL.flagKey, serverURL.defaultValue, "Classroom server url")
	pflag.String(roomID.flagKey, roomID.defaultValue, "Room to join, a new room is created when empty")
	pflag.String(title.flagKey, title.defaultValue, "Title of the created room")
	pflag.String(userName.flagKey, userName.defaultValue, "Display name")
	pflag.String(avatarURL.flagKey, avatarURL.defaultValue, "Avatar url")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Int(redisDB.flagKey, redisDB.defaultValue, "Redis database")
	pflag.String(keyPrefix.flagKey, keyPrefix.defaultValue, "Prefix of the device config keys")
	pflag.Duration(keepAlive.flagKey, keepAlive.defaultValue, "Interval of keep-alive frames, 0 disables them")
	pflag.Duration(recordTick.flagKey, recordTick.defaultValue, "Interval of record layout updates")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(serverURL.flagKey, serverURL.envKey)
	viper.BindEnv(roomID.flagKey, roomID.envKey)
	viper.BindEnv(title.flagKey, title.envKey)
	viper.BindEnv(userName.flagKey, userName.envKey)
	viper.BindEnv(avatarURL.flagKey, avatarURL.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(redisDB.flagKey, redisDB.envKey)
	viper.BindEnv(keyPrefix.flagKey, keyPrefix.envKey)
	viper.BindEnv(keepAlive.flagKey, keepAlive.envKey)
	viper.BindEnv(recordTick.flagKey, recordTick.envKey)

	viper.SetDefault(serverURL.flagKey, serverURL.defaultValue)
	viper.SetDefault(roomID.flagKey, roomID.defaultValue)
	viper.SetDefault(title.flagKey, title.defaultValue)
	viper.SetDefault(userName.flagKey, userName.defaultValue)
	viper.SetDefault(avatarURL.flagKey, avatarURL.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(redisDB.flagKey, redisDB.defaultValue)
	viper.SetDefault(keyPrefix.flagKey, keyPrefix.defaultValue)
	viper.SetDefault(keepAlive.flagKey, keepAlive.defaultValue)
	viper.SetDefault(recordTick.flagKey, recordTick.defaultValue)

	return &app.ClientConfig{
		ServerURL:     viper.GetString(serverURL.flagKey),
		RoomID:        viper.GetString(roomID.flagKey),
		Title:         viper.GetString(title.flagKey),
		UserName:      viper.GetString(userName.flagKey),
		AvatarURL:     viper.GetString(avatarURL.flagKey),
		LogLevel:      viper.GetString(logLevel.flagKey),
		RedisPort:     viper.GetInt(redisPort.flagKey),
		RedisHost:     viper.GetString(redisHost.flagKey),
		RedisPassword: viper.GetString(redisPassword.flagKey),
		RedisDB:       viper.GetInt(redisDB.flagKey),
		KeyPrefix:     viper.GetString(keyPrefix.flagKey),
		KeepAlive:     viper.GetDuration(keepAlive.flagKey),
		RecordTick:    viper.GetDuration(recordTick.flagKey),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadClientConfig()

	jsonConfig, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Fprintf(os.Stderr, "starting classroom client with config: %s\n", jsonConfig)

	if err := app.RunClient(ctx, cfg, os.Stdin); err != nil {
		log.Fatal(err)
	}
}

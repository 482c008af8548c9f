package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soundroom/client/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	serverURL = configVar[string]{
		envKey:       "CLIENT_SERVER_URL",
		flagKey:      "server-url",
		defaultValue: "wss://rooms.soundroom.app/socket",
	}
	credentials = configVar[string]{
		envKey:       "CLIENT_CREDENTIALS",
		flagKey:      "credentials",
		defaultValue: "",
	}
	host = configVar[string]{
		envKey:       "CLIENT_HOST",
		flagKey:      "host",
		defaultValue: "127.0.0.1",
	}
	port = configVar[int]{
		envKey:       "CLIENT_PORT",
		flagKey:      "port",
		defaultValue: 5720,
	}
	logLevel = configVar[string]{
		envKey:       "CLIENT_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	logFormat = configVar[string]{
		envKey:       "CLIENT_LOG_FORMAT",
		flagKey:      "log-format",
		defaultValue: "json",
	}
	reconnectMinMs = configVar[int]{
		envKey:       "CLIENT_RECONNECT_MIN_MS",
		flagKey:      "reconnect-min-ms",
		defaultValue: 250,
	}
	reconnectMaxMs = configVar[int]{
		envKey:       "CLIENT_RECONNECT_MAX_MS",
		flagKey:      "reconnect-max-ms",
		defaultValue: 10000,
	}
	roomId = configVar[string]{
		envKey:       "CLIENT_ROOM_ID",
		flagKey:      "room-id",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(serverURL.flagKey, serverURL.defaultValue, "Room server websocket endpoint")
	pflag.String(credentials.flagKey, credentials.defaultValue, "Credentials sent with the connection handshake")
	pflag.String(host.flagKey, host.defaultValue, "Local API host")
	pflag.Int(port.flagKey, port.defaultValue, "Local API port")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(logFormat.flagKey, logFormat.defaultValue, "Logging format (json or text)")
	pflag.Int(reconnectMinMs.flagKey, reconnectMinMs.defaultValue, "Reconnect backoff floor in milliseconds")
	pflag.Int(reconnectMaxMs.flagKey, reconnectMaxMs.defaultValue, "Reconnect backoff ceiling in milliseconds")
	pflag.String(roomId.flagKey, roomId.defaultValue, "Room to join on startup")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(serverURL.flagKey, serverURL.envKey)
	viper.BindEnv(credentials.flagKey, credentials.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(logFormat.flagKey, logFormat.envKey)
	viper.BindEnv(reconnectMinMs.flagKey, reconnectMinMs.envKey)
	viper.BindEnv(reconnectMaxMs.flagKey, reconnectMaxMs.envKey)
	viper.BindEnv(roomId.flagKey, roomId.envKey)

	viper.SetDefault(serverURL.flagKey, serverURL.defaultValue)
	viper.SetDefault(credentials.flagKey, credentials.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(logFormat.flagKey, logFormat.defaultValue)
	viper.SetDefault(reconnectMinMs.flagKey, reconnectMinMs.defaultValue)
	viper.SetDefault(reconnectMaxMs.flagKey, reconnectMaxMs.defaultValue)
	viper.SetDefault(roomId.flagKey, roomId.defaultValue)

	return &app.AppConfig{
		ServerURL:      viper.GetString(serverURL.flagKey),
		Credentials:    viper.GetString(credentials.flagKey),
		Host:           viper.GetString(host.flagKey),
		Port:           viper.GetInt(port.flagKey),
		LogLevel:       viper.GetString(logLevel.flagKey),
		LogFormat:      viper.GetString(logFormat.flagKey),
		ReconnectMinMs: viper.GetInt(reconnectMinMs.flagKey),
		ReconnectMaxMs: viper.GetInt(reconnectMaxMs.flagKey),
		RoomId:         viper.GetString(roomId.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting client with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}

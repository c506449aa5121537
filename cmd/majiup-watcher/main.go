package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"

	"github.com/JosephMusya/majiup-tools/internal/pkg/application/watcher"
)

const serviceName string = "majiup-watcher"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion)
	defer cleanup()

	cfg := watcher.Config{
		Broker:   env.GetVariableOrDefault(logger, "MQTT_BROKER", watcher.DefaultBroker),
		Topic:    env.GetVariableOrDefault(logger, "MQTT_TOPIC", watcher.DefaultTopic),
		ClientID: env.GetVariableOrDefault(logger, "MQTT_CLIENT_ID", ""),
		Username: env.GetVariableOrDefault(logger, "MQTT_USERNAME", ""),
		Password: env.GetVariableOrDefault(logger, "MQTT_PASSWORD", ""),
	}

	if err := watcher.Run(ctx, cfg, nil); err != nil {
		logger.Fatal().Err(err).Msg("watcher failed")
	}
}
